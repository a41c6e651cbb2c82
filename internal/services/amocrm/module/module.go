// Package module wires the AmoCRM client from config
package module

import (
	"net/http"

	"docbridge/internal/modkit"
	phttp "docbridge/internal/platform/net/http"
	"docbridge/internal/services/amocrm/client"
	"docbridge/internal/services/amocrm/domain"
)

// Ports exposed by the amocrm module
type Ports struct {
	Fetcher  domain.Fetcher
	FieldIDs domain.FieldIDs
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs the amocrm module from SERVICE_AMOCRM_ config
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	modkit.Build(append([]modkit.Option{
		modkit.WithName("amocrm"),
	}, opts...)...)

	cfg := FromConfig(deps.Cfg)

	m := &Module{deps: deps}
	m.ports = Ports{
		Fetcher:  client.New(cfg.Client, deps.Log),
		FieldIDs: cfg.FieldIDs,
	}
	return m
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "amocrm" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module; the CRM surface is outbound only
func (m *Module) MountRoutes(_ phttp.Router) {}
