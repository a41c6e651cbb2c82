// Package service runs pipeline chains on a bounded worker pool
package service

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"

	perr "docbridge/internal/platform/errors"
	"docbridge/internal/platform/logger"
	pipedomain "docbridge/internal/services/pipeline/domain"
)

// Config tunes the runner
type Config struct {
	// Workers is the pool size, default 4
	Workers int
}

// Runner executes each task's stages in order on a fixed pool.
// One failing chain never touches its siblings; the first stage error
// stops that chain and produces exactly one error log carrying whatever
// record the failing stage attached
type Runner struct {
	log    logger.Logger
	stages []pipedomain.Stage

	tasks chan pipedomain.Task
	wg    sync.WaitGroup

	quit     chan struct{}
	stopOnce sync.Once
}

// New constructs the runner and starts its workers
func New(log logger.Logger, stages []pipedomain.Stage, cfg Config) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	r := &Runner{
		log:    log,
		stages: stages,
		tasks:  make(chan pipedomain.Task),
		quit:   make(chan struct{}),
	}
	r.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go r.worker()
	}
	return r
}

// Dispatch satisfies pipeline/domain.DispatcherPort.
// It blocks while the pool is saturated and fails only when ctx expires
// or the runner is shutting down. An empty chain id gets one assigned
func (r *Runner) Dispatch(ctx context.Context, task pipedomain.Task) error {
	if task.ChainID == "" {
		task.ChainID = uuid.NewString()
	}
	select {
	case r.tasks <- task:
		return nil
	case <-r.quit:
		return perr.Unavailablef("pipeline is shutting down")
	case <-ctx.Done():
		return perr.Unavailablef("pipeline dispatch canceled: %v", ctx.Err())
	}
}

// Shutdown stops intake and waits for in-flight chains, bounded by ctx
func (r *Runner) Shutdown(ctx context.Context) error {
	r.stopOnce.Do(func() { close(r.quit) })

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for {
		select {
		case task := <-r.tasks:
			r.runChain(task)
		case <-r.quit:
			return
		}
	}
}

// runChain executes the stages in order under a chain-scoped context
func (r *Runner) runChain(task pipedomain.Task) {
	ctx := logger.WithChain(context.Background(), task.ChainID)
	ctx = logger.WithNote(ctx,
		strconv.FormatInt(task.Note.LeadID, 10),
		strconv.FormatInt(task.Note.NoteID, 10),
	)
	log := r.log.With().
		Str("chain_id", task.ChainID).
		Int64("lead_id", task.Note.LeadID).
		Int64("note_id", task.Note.NoteID).
		Logger()

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("pipeline chain panicked")
		}
	}()

	for _, stage := range r.stages {
		if err := stage.Run(ctx, task); err != nil {
			ev := log.Error().
				Str("stage", string(stage.ID())).
				Err(err)
			if p, ok := perr.PayloadOf(err); ok {
				ev = ev.Interface("payload", p)
			}
			ev.Msg("pipeline chain aborted")
			return
		}
	}
	log.Debug().Msg("pipeline chain completed")
}
