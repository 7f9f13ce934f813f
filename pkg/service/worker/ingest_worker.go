package worker

import (
	"context"
	"time"

	"github.com/finderslab/toolscout/pkg/domain/model"
	"github.com/finderslab/toolscout/pkg/utils/logging"
)

// IngestRunner runs one ingestion pass over all configured sources.
type IngestRunner interface {
	Ingest(ctx context.Context) *model.IngestSummary
}

// IngestWorker runs the ingestion pipeline on a fixed interval.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type IngestWorker struct {
	runner   IngestRunner
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewIngestWorker creates a worker that triggers ingestion every interval.
func NewIngestWorker(runner IngestRunner, interval time.Duration) *IngestWorker {
	return &IngestWorker{
		runner:   runner,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background ingestion loop. The initial run and the
// periodic runs all happen in a goroutine so server startup never blocks.
func (w *IngestWorker) Start(ctx context.Context) error {
	logging.Default().Info("ingest worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion.
func (w *IngestWorker) Stop() {
	logging.Default().Info("ingest worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("ingest worker stopped")
}

func (w *IngestWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)

		case <-w.stopCh:
			logging.Default().Info("ingest worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("ingest worker context cancelled")
			return
		}
	}
}

// runOnce performs a single ingestion cycle. Failed runs are logged and
// retried on the next tick.
func (w *IngestWorker) runOnce(ctx context.Context) {
	summary := w.runner.Ingest(ctx)

	if !summary.Success {
		logging.Default().Error("scheduled ingestion failed (will retry next interval)",
			"runID", summary.RunID,
			"message", summary.Message,
		)
		return
	}

	logging.Default().Info("scheduled ingestion completed",
		"runID", summary.RunID,
		"processed", summary.ProcessedCount,
		"embedded", summary.EmbeddedCount,
		"committed", summary.CommittedCount,
		"duration", summary.Duration.String(),
	)
}
