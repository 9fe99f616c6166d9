// Package netcdf reads GOES ABI fire-product granules from netCDF-4 files.
package netcdf

import (
	"fmt"
	"log/slog"

	gonetcdf "github.com/batchatco/go-native-netcdf/netcdf"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
)

// Variable names inside an ABI-L2-FDCF granule.
const (
	varProjection = "goes_imager_projection"
	varX          = "x"
	varY          = "y"
	varMask       = "Mask"
	varDQF        = "DQF"
	varTemp       = "Temp"
	varArea       = "Area"
	varPower      = "Power"
)

// Reader decodes granule files into domain scenes.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a granule reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{logger: logger}
}

// Valid reports whether the file opens as a netCDF dataset that declares at
// least one variable. It never fails: structural problems (missing file,
// wrong format, truncated content) are logged and reported as invalid.
func (r *Reader) Valid(path string) (ok bool) {
	// The HDF5 layer can panic on pathologically truncated files; a corrupt
	// download must degrade to "invalid", not take down the worker.
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("granule validation panicked", "path", path, "panic", p)
			ok = false
		}
	}()

	group, err := gonetcdf.Open(path)
	if err != nil {
		r.logger.Warn("corrupt granule", "path", path, "error", err)
		return false
	}
	defer group.Close()

	if len(group.ListVariables()) == 0 {
		r.logger.Warn("granule declares no variables", "path", path)
		return false
	}
	return true
}

// Read decodes one granule into an immutable Scene. The scan time comes from
// the filename, the projection from the goes_imager_projection variable, and
// the per-pixel arrays are unpacked to their physical values (scale and offset
// applied, fill values as NaN).
func (r *Reader) Read(path string) (*domain.Scene, error) {
	scanTime, err := domain.ParseSceneTime(path)
	if err != nil {
		return nil, err
	}

	group, err := gonetcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open granule %s: %w", path, err)
	}
	defer group.Close()

	proj, err := readProjection(group)
	if err != nil {
		return nil, fmt.Errorf("granule %s: %w", path, err)
	}

	scene := &domain.Scene{
		Path:       path,
		ScanTime:   scanTime,
		Projection: proj,
	}

	if scene.X, err = readFloatVector(group, varX); err != nil {
		return nil, fmt.Errorf("granule %s: %w", path, err)
	}
	if scene.Y, err = readFloatVector(group, varY); err != nil {
		return nil, fmt.Errorf("granule %s: %w", path, err)
	}
	scene.NX = len(scene.X)
	scene.NY = len(scene.Y)

	if scene.Mask, err = readCodeGrid(group, varMask); err != nil {
		return nil, fmt.Errorf("granule %s: %w", path, err)
	}
	if scene.DQF, err = readCodeGrid(group, varDQF); err != nil {
		return nil, fmt.Errorf("granule %s: %w", path, err)
	}
	if scene.Temp, err = readFloatGrid(group, varTemp); err != nil {
		return nil, fmt.Errorf("granule %s: %w", path, err)
	}
	if scene.Area, err = readFloatGrid(group, varArea); err != nil {
		return nil, fmt.Errorf("granule %s: %w", path, err)
	}
	if scene.Power, err = readFloatGrid(group, varPower); err != nil {
		return nil, fmt.Errorf("granule %s: %w", path, err)
	}

	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return scene, nil
}
