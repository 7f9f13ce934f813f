package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/service/worker"
)

type mockRunner struct {
	mu    sync.Mutex
	runs  int
	runCh chan struct{}
}

func newMockRunner() *mockRunner {
	return &mockRunner{runCh: make(chan struct{}, 16)}
}

func (m *mockRunner) Ingest(ctx context.Context) *model.IngestSummary {
	m.mu.Lock()
	m.runs++
	m.mu.Unlock()
	select {
	case m.runCh <- struct{}{}:
	default:
	}
	return &model.IngestSummary{
		RunID:   model.NewIngestRunID(),
		Success: true,
	}
}

func (m *mockRunner) runCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

func waitForRun(t *testing.T, runner *mockRunner) {
	t.Helper()
	select {
	case <-runner.runCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for ingestion run")
	}
}

func TestIngestWorker(t *testing.T) {
	t.Run("runs immediately on start", func(t *testing.T) {
		runner := newMockRunner()
		w := worker.NewIngestWorker(runner, time.Hour)

		gt.NoError(t, w.Start(context.Background()))
		waitForRun(t, runner)
		w.Stop()

		gt.Number(t, runner.runCount()).Equal(1)
	})

	t.Run("runs again each interval", func(t *testing.T) {
		runner := newMockRunner()
		w := worker.NewIngestWorker(runner, 10*time.Millisecond)

		gt.NoError(t, w.Start(context.Background()))
		waitForRun(t, runner)
		waitForRun(t, runner)
		w.Stop()

		if got := runner.runCount(); got < 2 {
			t.Errorf("expected at least 2 runs, got %d", got)
		}
	})

	t.Run("stop waits for the loop to exit", func(t *testing.T) {
		runner := newMockRunner()
		w := worker.NewIngestWorker(runner, time.Hour)

		gt.NoError(t, w.Start(context.Background()))
		waitForRun(t, runner)

		done := make(chan struct{})
		go func() {
			w.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Stop did not return")
		}
	})

	t.Run("context cancel stops the loop", func(t *testing.T) {
		runner := newMockRunner()
		w := worker.NewIngestWorker(runner, 10*time.Millisecond)

		ctx, cancel := context.WithCancel(context.Background())
		gt.NoError(t, w.Start(ctx))
		waitForRun(t, runner)
		cancel()

		// The loop exits on its own; Stop must still return promptly.
		time.Sleep(50 * time.Millisecond)
		before := runner.runCount()
		time.Sleep(50 * time.Millisecond)
		gt.Number(t, runner.runCount()).Equal(before)
	})
}
