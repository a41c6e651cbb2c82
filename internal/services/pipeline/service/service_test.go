package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"docbridge/internal/core/notefilter"
	perr "docbridge/internal/platform/errors"
	pipedomain "docbridge/internal/services/pipeline/domain"
)

type recordingStage struct {
	id   pipedomain.StageID
	err  error
	mu   sync.Mutex
	runs []pipedomain.Task
	done chan struct{}
}

func (s *recordingStage) ID() pipedomain.StageID { return s.id }

func (s *recordingStage) Run(_ context.Context, task pipedomain.Task) error {
	s.mu.Lock()
	s.runs = append(s.runs, task)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

func (s *recordingStage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

func task(noteID int64) pipedomain.Task {
	return pipedomain.Task{
		Subdomain: "acme.amocrm.ru",
		Note:      notefilter.EligibleNote{NoteID: noteID, LeadID: 777},
	}
}

func shutdown(t *testing.T, r *Runner) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestRunnerExecutesStagesInOrder(t *testing.T) {
	t.Parallel()

	first := &recordingStage{id: pipedomain.StageEnrich}
	last := &recordingStage{id: pipedomain.StageDeliver, done: make(chan struct{}, 1)}
	r := New(zerolog.Nop(), []pipedomain.Stage{first, last}, Config{Workers: 1})

	if err := r.Dispatch(context.Background(), task(1)); err != nil {
		t.Fatal(err)
	}
	<-last.done
	shutdown(t, r)

	if first.count() != 1 || last.count() != 1 {
		t.Fatalf("runs %d/%d", first.count(), last.count())
	}
	if first.runs[0].ChainID == "" {
		t.Fatal("dispatch should assign a chain id")
	}
	if first.runs[0].ChainID != last.runs[0].ChainID {
		t.Fatal("chain id must be stable across stages")
	}
}

func TestRunnerAbortsChainOnFirstError(t *testing.T) {
	t.Parallel()

	failing := &recordingStage{
		id:   pipedomain.StageEnrich,
		err:  perr.CacheMissf("gone"),
		done: make(chan struct{}, 1),
	}
	after := &recordingStage{id: pipedomain.StageDeliver}
	r := New(zerolog.Nop(), []pipedomain.Stage{failing, after}, Config{Workers: 1})

	if err := r.Dispatch(context.Background(), task(1)); err != nil {
		t.Fatal(err)
	}
	<-failing.done
	shutdown(t, r)

	if after.count() != 0 {
		t.Fatal("stages after a failure must not run")
	}
}

func TestRunnerIsolatesSiblingChains(t *testing.T) {
	t.Parallel()

	done := make(chan struct{}, 2)
	flaky := &flakyStage{done: done}
	r := New(zerolog.Nop(), []pipedomain.Stage{flaky}, Config{Workers: 2})

	if err := r.Dispatch(context.Background(), task(1)); err != nil {
		t.Fatal(err)
	}
	if err := r.Dispatch(context.Background(), task(2)); err != nil {
		t.Fatal(err)
	}
	<-done
	<-done
	shutdown(t, r)

	if flaky.count() != 2 {
		t.Fatalf("both chains should run, got %d", flaky.count())
	}
}

type flakyStage struct {
	mu   sync.Mutex
	runs int
	done chan struct{}
}

func (s *flakyStage) ID() pipedomain.StageID { return pipedomain.StageProcess }

func (s *flakyStage) Run(_ context.Context, task pipedomain.Task) error {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	s.done <- struct{}{}
	if task.Note.NoteID == 1 {
		return perr.Deliveryf("sheet down")
	}
	return nil
}

func (s *flakyStage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func TestRunnerSurvivesPanickingStage(t *testing.T) {
	t.Parallel()

	done := make(chan struct{}, 2)
	boom := &panicStage{done: done}
	r := New(zerolog.Nop(), []pipedomain.Stage{boom}, Config{Workers: 1})

	if err := r.Dispatch(context.Background(), task(1)); err != nil {
		t.Fatal(err)
	}
	<-done
	// the single worker must still be alive for the next chain
	if err := r.Dispatch(context.Background(), task(2)); err != nil {
		t.Fatal(err)
	}
	<-done
	shutdown(t, r)
}

type panicStage struct{ done chan struct{} }

func (s *panicStage) ID() pipedomain.StageID { return pipedomain.StageProcess }

func (s *panicStage) Run(context.Context, pipedomain.Task) error {
	defer func() { s.done <- struct{}{} }()
	panic("stage bug")
}

func TestDispatchFailsAfterShutdown(t *testing.T) {
	t.Parallel()

	r := New(zerolog.Nop(), nil, Config{Workers: 1})
	shutdown(t, r)

	err := r.Dispatch(context.Background(), task(1))
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("got %v", err)
	}
}

func TestDispatchHonorsContext(t *testing.T) {
	t.Parallel()

	// no workers free: a single worker blocked inside a slow stage
	block := make(chan struct{})
	slow := &blockingStage{release: block, entered: make(chan struct{})}
	r := New(zerolog.Nop(), []pipedomain.Stage{slow}, Config{Workers: 1})
	defer func() {
		close(block)
		shutdown(t, r)
	}()

	if err := r.Dispatch(context.Background(), task(1)); err != nil {
		t.Fatal(err)
	}
	<-slow.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Dispatch(ctx, task(2))
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("got %v", err)
	}
}

type blockingStage struct {
	release <-chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (s *blockingStage) ID() pipedomain.StageID { return pipedomain.StageProcess }

func (s *blockingStage) Run(context.Context, pipedomain.Task) error {
	s.once.Do(func() {
		if s.entered != nil {
			close(s.entered)
		}
	})
	<-s.release
	return nil
}
