package modkit

import (
	"net/http"
	"testing"
)

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	b := Build(WithName("webhook"), WithPrefix("/v1"))
	if b.Name != "webhook" || b.Prefix != "/v1" {
		t.Fatalf("got %+v", b)
	}
	if b.Subrouter == nil || b.Register == nil {
		t.Fatal("hook defaults missing")
	}
}

func TestBuildMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mk := func(tag string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			order = append(order, tag)
			return next
		}
	}
	b := Build(WithMiddlewares(mk("a")), WithMiddlewares(mk("b")))
	for _, mw := range b.Mw {
		mw(http.NewServeMux())
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("order=%v", order)
	}
}

func TestWithPorts(t *testing.T) {
	t.Parallel()

	type ports struct{ N int }
	b := Build(WithPorts(ports{N: 7}))
	p, ok := b.Ports.(ports)
	if !ok || p.N != 7 {
		t.Fatalf("ports=%v", b.Ports)
	}
}
