package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"training_leads_backend/internal/email"
	"training_leads_backend/internal/events"
	apphttp "training_leads_backend/internal/http"
	"training_leads_backend/internal/http/router"
	"training_leads_backend/internal/leads"
	"training_leads_backend/internal/leads/service"
	"training_leads_backend/internal/notification"
	"training_leads_backend/platform/clock"
	"training_leads_backend/platform/config"
	"training_leads_backend/platform/db"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/metrics"
	"training_leads_backend/platform/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg, log, true)
	if err != nil {
		fatal(log, "database", err)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	eventBus := events.NewInMemoryBus(log)

	leadCache, closeCache := service.OpenCache(ctx, cfg, log)
	defer closeCache()

	leadsModule, err := leads.NewModule(leads.Options{
		Pool:      pool,
		EventBus:  eventBus,
		Cache:     leadCache,
		Validator: validator.New(),
		Config:    cfg,
		Metrics:   appMetrics,
		Clock:     clock.Real(),
		Log:       log,
	})
	if err != nil {
		fatal(log, "leads module", err)
	}

	notification.New(leadCache, leadsModule.Repository(), email.NewSender(cfg), appMetrics, log).
		RegisterHandlers(eventBus)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: router.New(&apphttp.App{
			Config:   cfg,
			Logger:   log,
			Health:   pool,
			EventBus: eventBus,
			Metrics:  appMetrics,
			Modules:  []apphttp.Module{leadsModule},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		// Let in-flight cache invalidations and emails finish.
		eventBus.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		fatal(log, "server", err)
	}
}

func fatal(log *logger.Logger, what string, err error) {
	log.Error(what+" failed", "error", err)
	panic(what + ": " + err.Error())
}
