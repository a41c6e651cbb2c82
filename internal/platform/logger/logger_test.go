package logger

import (
	"bytes"
	"context"
	"testing"

	"docbridge/internal/platform/testkit"
)

// Init is once-per-process, so all output assertions share one buffer
var logBuf bytes.Buffer

func TestParseLevelFallsBackToDebug(t *testing.T) {
	t.Parallel()
	if parseLevel("nope") != parseLevel("debug") {
		t.Fatal("unknown level should fall back to debug")
	}
	if parseLevel("WARN") != parseLevel("warning") {
		t.Fatal("warn aliases should agree")
	}
}

func TestContextEnrichment(t *testing.T) {
	Init(Options{Level: "debug", Format: "json", Writer: &logBuf})

	ctx := context.Background()
	ctx = WithRequest(ctx, "req-1")
	ctx = WithChain(ctx, "chain-9")
	ctx = WithNote(ctx, "100500", "42")

	C(ctx).Info().Msg("stage started")

	out := logBuf.String()
	testkit.MustContain(t, out, `"request_id":"req-1"`)
	testkit.MustContain(t, out, `"chain_id":"chain-9"`)
	testkit.MustContain(t, out, `"lead_id":"100500"`)
	testkit.MustContain(t, out, `"note_id":"42"`)
}

func TestNamedAddsComponent(t *testing.T) {
	Init(Options{Level: "debug", Format: "json", Writer: &logBuf})

	Named("deliver").Info().Msg("hello")
	testkit.MustContain(t, logBuf.String(), `"component":"deliver"`)
}
