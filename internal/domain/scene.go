package domain

import (
	"fmt"
	"time"
)

// GridProjection holds the geostationary projection parameters declared by a
// granule's goes_imager_projection variable. Distances are meters, the origin
// longitude is degrees east, and SweepAxis is "x" for the GOES-R series.
type GridProjection struct {
	PerspectivePointHeight float64
	SemiMajorAxis          float64
	SemiMinorAxis          float64
	LonOrigin              float64
	SweepAxis              string
}

// Scene is one decoded granule. Per-pixel arrays are row-major with NY rows
// and NX columns; X and Y are the fixed-grid scan angles in radians. A Scene
// is immutable once read, and every record extracted from it references the
// single ScanTime.
type Scene struct {
	Path       string
	ScanTime   time.Time // start of scan, UTC
	Projection GridProjection

	NY, NX int
	X      []float64 // len NX
	Y      []float64 // len NY

	Mask  []int16   // detection mask code
	DQF   []int16   // data-quality flag, 0 = good
	Temp  []float64 // brightness temperature, kelvin (NaN where fill)
	Area  []float64 // fire area, m² (NaN where fill)
	Power []float64 // radiative power, MW (NaN where fill)
}

// Validate checks that the per-pixel arrays agree with the declared grid shape.
func (s *Scene) Validate() error {
	n := s.NY * s.NX
	if len(s.X) != s.NX || len(s.Y) != s.NY {
		return fmt.Errorf("scene %s: coordinate axes %dx%d do not match grid %dx%d",
			s.Path, len(s.Y), len(s.X), s.NY, s.NX)
	}
	for name, l := range map[string]int{
		"Mask": len(s.Mask), "DQF": len(s.DQF),
		"Temp": len(s.Temp), "Area": len(s.Area), "Power": len(s.Power),
	} {
		if l != n {
			return fmt.Errorf("scene %s: %s has %d values, grid has %d pixels", s.Path, name, l, n)
		}
	}
	return nil
}
