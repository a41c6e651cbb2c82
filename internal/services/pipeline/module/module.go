// Package module assembles the pipeline from its stages
package module

import (
	"context"
	"net/http"

	"docbridge/internal/modkit"
	"docbridge/internal/modkit/repokit"
	phttp "docbridge/internal/platform/net/http"
	"docbridge/internal/services/deliver"
	"docbridge/internal/services/enrich"
	"docbridge/internal/services/payload"
	"docbridge/internal/services/persist"
	pipedomain "docbridge/internal/services/pipeline/domain"
	"docbridge/internal/services/pipeline/service"
)

// Ports exposed by the pipeline module
type Ports struct {
	Dispatcher pipedomain.DispatcherPort
}

// Module implements modkit.Module
type Module struct {
	deps   modkit.Deps
	ports  Ports
	runner *service.Runner
}

// New constructs the pipeline module.
// The chain layout depends on the configured mode: chained runs
// enrich, deliver and persist as separate cache-linked stages, merged
// runs a single fetch-and-deliver stage with no cache and no database
func New(deps modkit.Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("pipeline"),
	}, opts...)...)

	in, ok := b.Ports.(pipedomain.Ports)
	if !ok {
		panic("pipeline module: expected WithPorts(pipeline/domain.Ports)")
	}
	if in.CRM == nil {
		panic("pipeline module: Ports missing CRM fetcher")
	}

	cfg := FromConfig(deps.Cfg)
	sink := deliver.NewFormSink(cfg.Sink)

	var stages []pipedomain.Stage
	switch cfg.Mode {
	case ModeMerged:
		stages = []pipedomain.Stage{
			deliver.NewMerged(deps.Log, in.CRM, in.FieldIDs, sink, cfg.Deliver),
		}
	case ModeChained:
		cache := payload.NewCache(deps.KV)
		storage := repokit.MustBind(persist.NewPG(), deps.PG)
		stages = []pipedomain.Stage{
			enrich.New(deps.Log, in.CRM, in.FieldIDs, cache),
			deliver.New(deps.Log, cache, sink, cfg.Deliver),
			persist.New(deps.Log, cache, storage),
		}
	default:
		panic("pipeline module: unknown mode " + string(cfg.Mode))
	}

	runner := service.New(deps.Log, stages, service.Config{Workers: cfg.Workers})

	m := &Module{deps: deps, runner: runner}
	m.ports = Ports{Dispatcher: runner}
	return m
}

// Shutdown stops intake and drains in-flight chains
func (m *Module) Shutdown(ctx context.Context) error { return m.runner.Shutdown(ctx) }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "pipeline" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module
func (m *Module) Prefix() string { return "" }

// Middlewares satisfies modkit.Module
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return nil }

// MountRoutes satisfies modkit.Module; the pipeline has no HTTP surface
func (m *Module) MountRoutes(_ phttp.Router) {}
