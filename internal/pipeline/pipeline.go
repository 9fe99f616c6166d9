// Package pipeline orchestrates the per-pass flow: compute the acquisition
// window, fetch new granules, fan extraction out across workers, and hand the
// merged batch to ingestion.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
	"github.com/couchcryptid/goes-fire-etl/internal/observability"
	"github.com/couchcryptid/goes-fire-etl/internal/window"
)

// Acquirer lists and downloads the granules for a window into local storage,
// returning their paths. A failed acquisition returns an error; the pipeline
// degrades it to an empty pass.
type Acquirer interface {
	Acquire(ctx context.Context, w window.Window) ([]string, error)
}

// Ingestor persists a merged record batch, returning the records that were
// newly inserted (with identities assigned) and the count of duplicates
// skipped.
type Ingestor interface {
	IngestBatch(ctx context.Context, records []domain.FireDetection) (inserted []domain.FireDetection, duplicates int, err error)
}

// Publisher announces newly inserted records to downstream consumers.
type Publisher interface {
	PublishBatch(ctx context.Context, records []domain.FireDetection) error
}

// Params wires a Pipeline. Publisher may be nil to disable publishing.
type Params struct {
	StorageRoot string
	Epoch       time.Time
	RunInterval time.Duration

	Acquirer   Acquirer
	Dispatcher *Dispatcher
	Ingestor   Ingestor
	Publisher  Publisher

	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Pipeline runs the window-acquire-process-ingest loop.
type Pipeline struct {
	p     Params
	ready atomic.Bool
}

// New creates a Pipeline.
func New(p Params) *Pipeline {
	return &Pipeline{p: p}
}

// CheckReadiness returns nil once at least one pass has completed, or an
// error describing why the service is not yet ready.
func (pl *Pipeline) CheckReadiness(_ context.Context) error {
	if !pl.ready.Load() {
		return errors.New("pipeline has not completed a pass yet")
	}
	return nil
}

// Run executes passes at the configured interval until the context is
// cancelled. A failed pass is logged and the loop continues; per-scene
// failures never surface here at all.
func (pl *Pipeline) Run(ctx context.Context) error {
	pl.p.Logger.Info("pipeline started",
		"storage_root", pl.p.StorageRoot, "interval", pl.p.RunInterval)
	pl.p.Metrics.PipelineRunning.Set(1)
	defer pl.p.Metrics.PipelineRunning.Set(0)

	for {
		if err := pl.RunOnce(ctx); err != nil && ctx.Err() == nil {
			pl.p.Logger.Error("pipeline pass failed", "error", err)
		}

		select {
		case <-ctx.Done():
			pl.p.Logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-pl.p.Clock.After(pl.p.RunInterval):
		}
	}
}

// RunOnce executes a single pass. It returns an error only for structural
// problems (an undecodable granule name desyncing the window, or a store
// failure); acquisition trouble degrades to an empty pass with no database
// mutation.
func (pl *Pipeline) RunOnce(ctx context.Context) error {
	logger := pl.p.Logger.With("run_id", uuid.NewString())
	start := time.Now()

	w, err := window.Compute(pl.p.StorageRoot, pl.p.Clock.Now().UTC(), pl.p.Epoch)
	if err != nil {
		return err
	}
	logger.Info("acquisition window computed", "window", w.String())

	paths, err := pl.p.Acquirer.Acquire(ctx, w)
	if err != nil {
		logger.Error("acquisition failed, ending pass", "error", err)
		return nil
	}
	if len(paths) == 0 {
		logger.Info("no new scenes")
		pl.finishPass(start)
		return nil
	}

	records := pl.p.Dispatcher.Run(ctx, paths)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(records) == 0 {
		logger.Info("no fire detections extracted", "scenes", len(paths))
		pl.finishPass(start)
		return nil
	}

	pl.p.Metrics.BatchSize.Observe(float64(len(records)))

	inserted, duplicates, err := pl.p.Ingestor.IngestBatch(ctx, records)
	if err != nil {
		return fmt.Errorf("ingest batch: %w", err)
	}
	pl.p.Metrics.RecordsInserted.Add(float64(len(inserted)))
	pl.p.Metrics.RecordsDuplicate.Add(float64(duplicates))
	logger.Info("batch ingested",
		"scenes", len(paths),
		"extracted", len(records),
		"inserted", len(inserted),
		"duplicates", duplicates,
	)

	if pl.p.Publisher != nil && len(inserted) > 0 {
		// Publishing is best-effort; the rows are already persisted.
		if err := pl.p.Publisher.PublishBatch(ctx, inserted); err != nil {
			logger.Warn("publish inserted records failed", "error", err)
		}
	}

	pl.finishPass(start)
	return nil
}

// finishPass records pass-level metrics and flips readiness.
func (pl *Pipeline) finishPass(start time.Time) {
	pl.p.Metrics.RunDuration.Observe(time.Since(start).Seconds())
	pl.p.Metrics.LastRunTime.Set(float64(pl.p.Clock.Now().Unix()))
	pl.ready.Store(true)
}
