// Package module wires the webhook boundary
package module

import (
	"net/http"

	"docbridge/internal/modkit"
	"docbridge/internal/modkit/httpkit"
	"docbridge/internal/services/webhook/domain"
	whhttp "docbridge/internal/services/webhook/http"
	"docbridge/internal/services/webhook/service"
)

// Module implements modkit.Module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string
	mws    []func(http.Handler) http.Handler

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs the webhook module
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("webhook"),
	}, opts...)...)

	ports, ok := b.Ports.(domain.Ports)
	if !ok {
		panic("webhook module: expected WithPorts(webhook/domain.Ports)")
	}
	if ports.Dispatcher == nil {
		panic("webhook module: Ports missing Dispatcher")
	}

	svc := service.New(deps.Log, ports.Dispatcher)

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		whhttp.Register(r, whhttp.Deps{Service: svc})
		if external != nil {
			external(r)
		}
	}

	return m
}

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	mount := func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		m.register(rr)
	}
	if m.prefix == "" {
		mount(r)
		return
	}
	r.Route(m.prefix, mount)
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return m.prefix }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return nil }
