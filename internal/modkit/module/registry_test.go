package module

import (
	"testing"

	phttp "docbridge/internal/platform/net/http"
)

type pinger interface{ Ping() string }

type pingPorts struct{}

func (pingPorts) Ping() string { return "pong" }

func TestRegistryRoundTrip(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("amocrm", pingPorts{})
	got, ok := PortsAs[pinger]("amocrm")
	if !ok || got.Ping() != "pong" {
		t.Fatalf("PortsAs=%v,%v", got, ok)
	}

	if _, ok := PortsAs[pinger]("absent"); ok {
		t.Fatal("unknown module should miss")
	}
}

type wrapped struct{ P pinger }

type fakeModule struct{ ports any }

func (f fakeModule) Ports() any               { return f.ports }
func (f fakeModule) Name() string             { return "fake" }
func (f fakeModule) MountRoutes(phttp.Router) {}

func TestPortsOfWalksStructFields(t *testing.T) {
	t.Parallel()

	m := fakeModule{ports: wrapped{P: pingPorts{}}}
	got, ok := PortsOf[pinger](m)
	if !ok || got.Ping() != "pong" {
		t.Fatalf("PortsOf=%v,%v", got, ok)
	}
}

func TestMustPortsOfPanicsWhenMissing(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustPortsOf[pinger](fakeModule{})
}
