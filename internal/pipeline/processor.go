package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
	"github.com/couchcryptid/goes-fire-etl/internal/geo"
	"github.com/couchcryptid/goes-fire-etl/internal/observability"
)

// SceneSource validates and decodes granule files.
type SceneSource interface {
	Valid(path string) bool
	Read(path string) (*domain.Scene, error)
}

// defaultMaxAttempts bounds extraction retries per scene.
const defaultMaxAttempts = 3

// Processor turns one granule file into a batch of fire-detection records,
// absorbing failures: an unreadable file means "nothing to extract", and a
// transient extraction error is retried with exponential backoff before the
// scene is abandoned. Process never returns an error to the dispatcher.
type Processor struct {
	source      SceneSource
	region      domain.BoundingBox
	loc         *time.Location
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	maxAttempts int
}

// NewProcessor creates a scene processor.
func NewProcessor(
	source SceneSource,
	region domain.BoundingBox,
	loc *time.Location,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Processor {
	return &Processor{
		source:      source,
		region:      region,
		loc:         loc,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
		maxAttempts: defaultMaxAttempts,
	}
}

// Process runs validate-reproject-filter for one scene and returns its record
// batch, possibly empty. Retries restart from validation so a file rewritten
// between attempts is re-checked.
func (p *Processor) Process(ctx context.Context, path string) []domain.FireDetection {
	start := time.Now()
	defer func() {
		p.metrics.ScenesProcessed.Inc()
		p.metrics.SceneDuration.Observe(time.Since(start).Seconds())
	}()

	for attempt := 0; ; {
		if ctx.Err() != nil {
			return nil
		}

		// An invalid file is not an error to retry: it is defined as
		// "nothing to extract".
		if !p.source.Valid(path) {
			p.metrics.ScenesInvalid.Inc()
			return nil
		}

		records, err := p.extract(path)
		if err == nil {
			p.metrics.RecordsExtracted.Add(float64(len(records)))
			p.logger.Info("scene processed", "path", path, "records", len(records))
			return records
		}

		attempt++
		p.metrics.SceneRetries.Inc()
		if attempt >= p.maxAttempts {
			p.metrics.ScenesFailed.Inc()
			p.logger.Error("scene abandoned after retries",
				"path", path, "attempts", attempt, "error", err)
			return nil
		}

		delay := time.Duration(1<<attempt) * time.Second
		p.logger.Warn("scene extraction failed, retrying",
			"path", path, "attempt", attempt, "backoff", delay, "error", err)
		if !p.sleep(ctx, delay) {
			return nil
		}
	}
}

// extract decodes the scene, reprojects its grid, and filters fire pixels.
func (p *Processor) extract(path string) ([]domain.FireDetection, error) {
	scene, err := p.source.Read(path)
	if err != nil {
		return nil, err
	}

	lon, lat := geo.ReprojectGrid(scene.Projection, scene.X, scene.Y)
	return domain.ExtractFires(scene, lon, lat, p.region, p.loc), nil
}

// sleep waits on the injected clock so tests drive the retry ladder without
// real delays. Returns false when the context is cancelled first.
func (p *Processor) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
