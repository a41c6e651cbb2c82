package module

import (
	"docbridge/internal/platform/config"
	"docbridge/internal/services/amocrm/client"
	"docbridge/internal/services/amocrm/domain"
)

// Options holds configuration settings for the amocrm module
type Options struct {
	Client   client.Config
	FieldIDs domain.FieldIDs
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("SERVICE_AMOCRM_")
	return Options{
		Client: client.Config{
			Token:      ac.MustString("TOKEN"),
			Attempts:   ac.MayInt("ATTEMPTS", 2),
			RetryDelay: ac.MayDuration("RETRY_DELAY", 0),
			Timeout:    ac.MayDuration("TIMEOUT", 0),
		},
		FieldIDs: domain.FieldIDs{
			DateAct:   ac.MayInt64("FIELD_DATE_ACT", 578632),
			PeriodAct: ac.MayInt64("FIELD_PERIOD_ACT", 578634),
			StaffAct:  ac.MayInt64("FIELD_STAFF_ACT", 584218),
		},
	}
}
