package pipeline

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
)

// SceneProcessor produces a record batch for one granule file.
type SceneProcessor interface {
	Process(ctx context.Context, path string) []domain.FireDetection
}

// Dispatcher fans scene processing out across a bounded worker pool and
// merges the resulting batches. Workers share no mutable state; each owns its
// scene's arrays and writes only its own result slot.
type Dispatcher struct {
	processor SceneProcessor
	workers   int
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. workers <= 0 means one worker per
// available processing unit.
func NewDispatcher(processor SceneProcessor, workers int, logger *slog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Dispatcher{processor: processor, workers: workers, logger: logger}
}

// Run processes every scene and returns the concatenation of the non-empty
// batches. Batch order is not meaningful downstream and is not guaranteed
// beyond being deterministic per input order.
func (d *Dispatcher) Run(ctx context.Context, paths []string) []domain.FireDetection {
	if len(paths) == 0 {
		return nil
	}

	d.logger.Info("dispatching scenes", "scenes", len(paths), "workers", d.workers)

	results := make([][]domain.FireDetection, len(paths))
	var g errgroup.Group
	g.SetLimit(d.workers)

	for i, path := range paths {
		g.Go(func() error {
			results[i] = d.processor.Process(ctx, path)
			return nil
		})
	}
	// Workers absorb their own failures, so Wait only synchronizes.
	_ = g.Wait()

	var merged []domain.FireDetection
	for _, batch := range results {
		merged = append(merged, batch...)
	}
	return merged
}
