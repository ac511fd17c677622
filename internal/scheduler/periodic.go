package scheduler

import (
	"context"
	"fmt"
	"time"

	"training_leads_backend/platform/config"
	"training_leads_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the daily sweeps on their cron schedules.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, log *logger.Logger) (*Periodic, error) {
	b, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	s := asynq.NewScheduler(b.redis, &asynq.SchedulerOpts{Location: time.UTC})

	entries := []struct {
		cron string
		task *asynq.Task
	}{
		{cron: cfg.GetReminderSweepCron(), task: NewReminderSweepTask()},
		{cron: cfg.GetScoreSweepCron(), task: NewScoreSweepTask()},
	}
	for _, e := range entries {
		if e.cron == "" {
			log.Warn("periodic task disabled", "task", e.task.Type())
			continue
		}
		// A sweep that overlaps the next tick is dropped instead of queued twice.
		if _, err := s.Register(e.cron, e.task, asynq.Queue(b.queue), asynq.Unique(time.Hour)); err != nil {
			return nil, fmt.Errorf("register %s: %w", e.task.Type(), err)
		}
		log.Info("periodic task registered", "task", e.task.Type(), "cron", e.cron)
	}

	return &Periodic{scheduler: s, log: log}, nil
}

func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler stopped", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
