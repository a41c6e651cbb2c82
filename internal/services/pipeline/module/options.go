package module

import (
	"time"

	"docbridge/internal/platform/config"
	"docbridge/internal/services/deliver"
)

// Mode selects the chain layout
type Mode string

// Chain layouts
const (
	ModeChained Mode = "chained"
	ModeMerged  Mode = "merged"
)

// Options holds configuration settings for the pipeline module
type Options struct {
	Mode    Mode
	Workers int
	Deliver deliver.Config
	Sink    deliver.SinkConfig
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	pc := cfg.Prefix("CORE_PIPELINE_")
	sc := cfg.Prefix("SERVICE_SHEET_")
	return Options{
		Mode:    Mode(pc.MayString("MODE", string(ModeChained))),
		Workers: pc.MayInt("WORKERS", 4),
		Deliver: deliver.Config{
			Attempts:   pc.MayInt("DELIVER_ATTEMPTS", 3),
			RetryDelay: pc.MayDuration("DELIVER_RETRY_DELAY", 5*time.Second),
			FailHard:   pc.MayBool("DELIVER_FAIL_HARD", false),
		},
		Sink: deliver.SinkConfig{
			URL:     sc.MustURL("URL").String(),
			Timeout: sc.MayDuration("TIMEOUT", 30*time.Second),
		},
	}
}
