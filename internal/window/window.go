// Package window computes the half-open acquisition interval for a pipeline
// pass from the granules already present on disk.
package window

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
)

// Window is a half-open UTC time interval [Start, End) used to request new
// scenes.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Compute scans storageRoot recursively for previously processed granules and
// derives the next acquisition window. Start is one second after the newest
// scene time found, or epoch when the directory holds none. End is now
// truncated to whole seconds. A start past the end (clock skew, future-dated
// epoch) is reset to the 24 hours ending now.
//
// Only filenames are inspected; nothing is mutated. A granule whose name does
// not decode fails the whole computation, because skipping it could silently
// move the window backwards and re-request scenes that were already processed.
func Compute(storageRoot string, now, epoch time.Time) (Window, error) {
	var last time.Time
	found := false

	err := filepath.WalkDir(storageRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".nc") {
			return nil
		}
		ts, err := domain.ParseSceneTime(d.Name())
		if err != nil {
			return fmt.Errorf("scan %s: %w", path, err)
		}
		if !found || ts.After(last) {
			last = ts
			found = true
		}
		return nil
	})
	// A missing storage root just means nothing was processed yet; the
	// acquisition step creates it.
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Window{}, fmt.Errorf("compute window: %w", err)
	}

	start := epoch.UTC()
	if found {
		start = last.Add(time.Second)
	}

	end := now.UTC().Truncate(time.Second)
	if start.After(end) {
		start = end.Add(-24 * time.Hour)
	}

	return Window{Start: start, End: end}, nil
}
