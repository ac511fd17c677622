package scheduler

import (
	"context"

	"training_leads_backend/platform/config"
	"training_leads_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultConcurrency = 10

// Worker consumes sweep and reminder tasks from the queue.
type Worker struct {
	server  *asynq.Server
	handler asynq.Handler
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, jobs *Jobs, log *logger.Logger) (*Worker, error) {
	b, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := max(cfg.GetAsynqConcurrency(), 0)
	if concurrency == 0 {
		concurrency = defaultConcurrency
	}

	onError := func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		log.Error("scheduler task failed", "task", task.Type(), "retry", retried, "error", err)
	}

	return &Worker{
		server: asynq.NewServer(b.redis, asynq.Config{
			Concurrency:  concurrency,
			Queues:       map[string]int{b.queue: 1},
			ErrorHandler: asynq.ErrorHandlerFunc(onError),
		}),
		handler: jobs.mux(),
		log:     log,
	}, nil
}

// Run blocks until ctx is cancelled, then drains in-flight tasks.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}
	if err := w.server.Start(w.handler); err != nil {
		w.log.Error("scheduler worker failed to start", "error", err)
		return
	}
	<-ctx.Done()
	w.server.Shutdown()
}
