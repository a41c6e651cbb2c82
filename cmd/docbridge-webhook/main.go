package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"docbridge/internal/modkit"
	mmodule "docbridge/internal/modkit/module"
	"docbridge/internal/modkit/repokit"
	"docbridge/internal/platform/config"
	"docbridge/internal/platform/logger"
	phttp "docbridge/internal/platform/net/http"
	"docbridge/internal/platform/net/middleware"
	"docbridge/internal/platform/store"

	amocrmmod "docbridge/internal/services/amocrm/module"
	pipedomain "docbridge/internal/services/pipeline/domain"
	pipelinemod "docbridge/internal/services/pipeline/module"
	webhookdomain "docbridge/internal/services/webhook/domain"
	webhookmod "docbridge/internal/services/webhook/module"
)

func main() {
	root := config.New()
	webCfg := root.Prefix("CORE_WEBHOOK_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(
		ctx,
		store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
			KV: store.KVConfig{Enabled: true},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	repokit.MustGuard(ctx, st)

	deps := modkit.Deps{
		Log: *l,
		Cfg: root,
		PG:  st.PG,
		KV:  st.KV,
	}

	crm := amocrmmod.New(deps)
	crmPorts := crm.Ports().(amocrmmod.Ports)

	pipeline := pipelinemod.New(deps, modkit.WithPorts(pipedomain.Ports{
		CRM:      crmPorts.Fetcher,
		FieldIDs: crmPorts.FieldIDs,
	}))
	pipelinePorts := pipeline.Ports().(pipelinemod.Ports)

	webhook := webhookmod.New(deps, modkit.WithPorts(webhookdomain.Ports{
		Dispatcher: pipelinePorts.Dispatcher,
	}))

	mmodule.Register(crm.Name(), crmPorts)
	mmodule.Register(pipeline.Name(), pipelinePorts)

	srv := phttp.NewServer(webCfg)
	r := srv.Router()
	for _, mw := range middleware.Defaults() {
		r.Use(mw)
	}
	r.Use(middleware.RecoverJSON)
	r.Use(middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: 2 * time.Second}))
	r.Use(middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"*"}}))
	webhook.MountRoutes(r)

	go func() {
		<-ctx.Done()
		l.Info().Msg("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			l.Error().Err(err).Msg("http shutdown failed")
		}
		if err := pipeline.Shutdown(shCtx); err != nil {
			l.Error().Err(err).Msg("pipeline drain failed")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
