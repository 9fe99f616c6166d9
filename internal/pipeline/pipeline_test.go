package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
	"github.com/couchcryptid/goes-fire-etl/internal/observability"
	"github.com/couchcryptid/goes-fire-etl/internal/pipeline"
	"github.com/couchcryptid/goes-fire-etl/internal/window"
)

type stubAcquirer struct {
	paths  []string
	err    error
	gotWin window.Window
}

func (a *stubAcquirer) Acquire(_ context.Context, w window.Window) ([]string, error) {
	a.gotWin = w
	return a.paths, a.err
}

type stubIngestor struct {
	calls      int
	duplicates int
	err        error
}

func (i *stubIngestor) IngestBatch(_ context.Context, records []domain.FireDetection) ([]domain.FireDetection, int, error) {
	i.calls++
	if i.err != nil {
		return nil, 0, i.err
	}
	inserted := make([]domain.FireDetection, 0, len(records))
	for n, rec := range records {
		if n < i.duplicates {
			continue
		}
		rec.ID = int64(n + 1)
		inserted = append(inserted, rec)
	}
	return inserted, min(i.duplicates, len(records)), nil
}

type stubPublisher struct {
	published []domain.FireDetection
	err       error
}

func (p *stubPublisher) PublishBatch(_ context.Context, records []domain.FireDetection) error {
	p.published = append(p.published, records...)
	return p.err
}

func newParams(t *testing.T, acq *stubAcquirer, ing *stubIngestor, proc pipeline.SceneProcessor) pipeline.Params {
	t.Helper()
	if proc == nil {
		proc = &stubProcessor{}
	}
	return pipeline.Params{
		StorageRoot: t.TempDir(),
		Epoch:       time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		RunInterval: 10 * time.Minute,
		Acquirer:    acq,
		Dispatcher:  pipeline.NewDispatcher(proc, 2, discardLogger()),
		Ingestor:    ing,
		Clock:       clockwork.NewFakeClockAt(time.Date(2025, time.February, 2, 12, 0, 0, 0, time.UTC)),
		Logger:      discardLogger(),
		Metrics:     observability.NewMetricsForTesting(),
	}
}

func TestRunOnce_HappyPath(t *testing.T) {
	rec := domain.FireDetection{TempKelvin: 330, Lon: -50, Lat: 0}
	proc := &stubProcessor{batches: map[string][]domain.FireDetection{"a.nc": {rec}}}
	acq := &stubAcquirer{paths: []string{"a.nc"}}
	ing := &stubIngestor{}
	pub := &stubPublisher{}

	params := newParams(t, acq, ing, proc)
	params.Publisher = pub
	pl := pipeline.New(params)

	require.NoError(t, pl.RunOnce(context.Background()))

	assert.Equal(t, 1, ing.calls)
	require.Len(t, pub.published, 1)
	assert.Equal(t, int64(1), pub.published[0].ID, "publisher sees assigned identities")
	assert.NoError(t, pl.CheckReadiness(context.Background()))

	// The window derives from the epoch (empty storage root) and the clock.
	assert.Equal(t, params.Epoch, acq.gotWin.Start)
	assert.Equal(t, params.Clock.Now().UTC(), acq.gotWin.End)
}

func TestRunOnce_AcquisitionFailureEndsPassWithoutIngest(t *testing.T) {
	acq := &stubAcquirer{err: errors.New("bucket unreachable")}
	ing := &stubIngestor{}
	pl := pipeline.New(newParams(t, acq, ing, nil))

	require.NoError(t, pl.RunOnce(context.Background()))

	assert.Equal(t, 0, ing.calls, "no database mutation on acquisition failure")
	assert.Error(t, pl.CheckReadiness(context.Background()))
}

func TestRunOnce_NoScenesSkipsIngestionButCountsAsPass(t *testing.T) {
	acq := &stubAcquirer{}
	ing := &stubIngestor{}
	pl := pipeline.New(newParams(t, acq, ing, nil))

	require.NoError(t, pl.RunOnce(context.Background()))

	assert.Equal(t, 0, ing.calls)
	assert.NoError(t, pl.CheckReadiness(context.Background()))
}

func TestRunOnce_EmptyBatchSkipsIngestion(t *testing.T) {
	proc := &stubProcessor{batches: map[string][]domain.FireDetection{}}
	acq := &stubAcquirer{paths: []string{"a.nc", "b.nc"}}
	ing := &stubIngestor{}
	pl := pipeline.New(newParams(t, acq, ing, proc))

	require.NoError(t, pl.RunOnce(context.Background()))
	assert.Equal(t, 0, ing.calls)
}

func TestRunOnce_UndecodableStoredGranuleFailsThePass(t *testing.T) {
	acq := &stubAcquirer{}
	params := newParams(t, acq, &stubIngestor{}, nil)
	require.NoError(t, os.WriteFile(filepath.Join(params.StorageRoot, "mystery.nc"), nil, 0o644))
	pl := pipeline.New(params)

	err := pl.RunOnce(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadSceneName)
}

func TestRunOnce_IngestErrorPropagates(t *testing.T) {
	rec := domain.FireDetection{TempKelvin: 330, Lon: -50, Lat: 0}
	proc := &stubProcessor{batches: map[string][]domain.FireDetection{"a.nc": {rec}}}
	acq := &stubAcquirer{paths: []string{"a.nc"}}
	ing := &stubIngestor{err: errors.New("connection reset")}
	pl := pipeline.New(newParams(t, acq, ing, proc))

	err := pl.RunOnce(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest batch")
}

func TestRunOnce_PublisherFailureIsAbsorbed(t *testing.T) {
	rec := domain.FireDetection{TempKelvin: 330, Lon: -50, Lat: 0}
	proc := &stubProcessor{batches: map[string][]domain.FireDetection{"a.nc": {rec}}}
	acq := &stubAcquirer{paths: []string{"a.nc"}}
	pub := &stubPublisher{err: errors.New("broker down")}

	params := newParams(t, acq, &stubIngestor{}, proc)
	params.Publisher = pub
	pl := pipeline.New(params)

	require.NoError(t, pl.RunOnce(context.Background()), "rows are persisted; publishing is best-effort")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	acq := &stubAcquirer{}
	pl := pipeline.New(newParams(t, acq, &stubIngestor{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, pl.Run(ctx))
}
