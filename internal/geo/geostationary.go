// Package geo converts GOES fixed-grid pixel coordinates to geodetic
// coordinates in the datum used for stored records.
//
// The chain mirrors the product's CF grid mapping: scan angles scaled by the
// perspective point height give satellite-fixed planar coordinates; the
// closed-form inverse of the geostationary projection (GOES-R Product User
// Guide §5.1.2.8) gives geodetic longitude/latitude on the declared ellipsoid;
// a Helmert step then moves the coordinate into SIRGAS 2000 (EPSG:4674).
//
// Everything is float64 end to end. Pixels outside the visible disk have no
// inverse; they come out as NaN and must be filtered by the caller — the
// output grids always keep the input shape.
package geo

import (
	"math"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
)

// GeostationaryToGeodetic inverts the geostationary projection for one pixel.
// xm and ym are satellite-fixed planar coordinates in meters (scan angle times
// perspective point height). The result is geodetic degrees on the ellipsoid
// declared in p. Off-disk coordinates return (NaN, NaN).
func GeostationaryToGeodetic(xm, ym float64, p domain.GridProjection) (lon, lat float64) {
	// Back to scan angles in radians.
	xa := xm / p.PerspectivePointHeight
	ya := ym / p.PerspectivePointHeight
	if p.SweepAxis == "y" {
		// EUMETSAT-style gimbal order; the GOES-R series always declares "x".
		xa, ya = ya, xa
	}

	rEq := p.SemiMajorAxis
	rPol := p.SemiMinorAxis
	// Distance from the earth's center to the satellite.
	h := p.PerspectivePointHeight + rEq

	sinX, cosX := math.Sincos(xa)
	sinY, cosY := math.Sincos(ya)
	eqPol2 := (rEq * rEq) / (rPol * rPol)

	// Quadratic for the distance from the satellite to the pixel along the
	// view vector. A negative discriminant means the view ray misses the
	// ellipsoid entirely (off-disk pixel): math.Sqrt yields NaN, which then
	// propagates through the remaining arithmetic unchanged.
	a := sinX*sinX + cosX*cosX*(cosY*cosY+eqPol2*sinY*sinY)
	b := -2 * h * cosX * cosY
	c := h*h - rEq*rEq
	rs := (-b - math.Sqrt(b*b-4*a*c)) / (2 * a)

	sx := rs * cosX * cosY
	sy := -rs * sinX
	sz := rs * cosX * sinY

	lat = math.Atan(eqPol2 * sz / math.Hypot(h-sx, sy))
	lon = degToRad(p.LonOrigin) - math.Atan(sy/(h-sx))

	return radToDeg(lon), radToDeg(lat)
}

// ReprojectGrid converts a scene's scan-angle axes to SIRGAS 2000 coordinate
// grids. The returned lon and lat slices are row-major with the scene's
// NY×NX shape, aligned index-for-index with the per-pixel data arrays.
func ReprojectGrid(p domain.GridProjection, xAngles, yAngles []float64) (lon, lat []float64) {
	nx := len(xAngles)
	lon = make([]float64, len(yAngles)*nx)
	lat = make([]float64, len(yAngles)*nx)

	h := p.PerspectivePointHeight
	for i, ya := range yAngles {
		ym := ya * h
		for j, xa := range xAngles {
			gLon, gLat := GeostationaryToGeodetic(xa*h, ym, p)
			tLon, tLat := ToSIRGAS2000(gLon, gLat)

			idx := i*nx + j
			lon[idx] = tLon
			lat[idx] = tLat
		}
	}
	return lon, lat
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
