package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"training_leads_backend/internal/email"
	"training_leads_backend/internal/events"
	"training_leads_backend/internal/leads"
	"training_leads_backend/internal/leads/service"
	"training_leads_backend/internal/notification"
	"training_leads_backend/internal/scheduler"
	"training_leads_backend/platform/clock"
	"training_leads_backend/platform/config"
	"training_leads_backend/platform/db"
	"training_leads_backend/platform/logger"
	"training_leads_backend/platform/metrics"
	"training_leads_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The API process owns migrations.
	pool, err := db.Open(ctx, cfg, log, false)
	if err != nil {
		fatal(log, "database", err)
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	// No /metrics endpoint here; counters stay process-local.
	appMetrics := metrics.Nop()

	leadCache, closeCache := service.OpenCache(ctx, cfg, log)
	defer closeCache()
	// Runs before closeCache so pending invalidations still reach Redis.
	defer eventBus.Wait()

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

	// Archival and reminder escalation emails originate here.
	notification.New(leadCache, leadsModule.Repository(), email.NewSender(cfg), appMetrics, log).
		RegisterHandlers(eventBus)

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		fatal(log, "scheduler client", err)
	}
	defer func() { _ = client.Close() }()

	jobs := scheduler.NewJobs(scheduler.JobsDeps{
		Leads:     leadsModule.Repository(),
		Sweeps:    leadsModule.Repository(),
		Reminders: leadsModule.Financing(),
		Scores:    leadsModule.Transitions(),
		Enqueuer:  client,
		Clock:     clock.Real(),
		Log:       log,
	})

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		fatal(log, "periodic scheduler", err)
	}
	worker, err := scheduler.NewWorker(cfg, jobs, log)
	if err != nil {
		fatal(log, "scheduler worker", err)
	}

	go periodic.Run(ctx)
	worker.Run(ctx)
}

func fatal(log *logger.Logger, what string, err error) {
	log.Error(what+" failed", "error", err)
	panic(what + ": " + err.Error())
}
