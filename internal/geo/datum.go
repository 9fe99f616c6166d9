package geo

import "math"

// Ellipsoid is a reference ellipsoid given by its semi-major axis (meters)
// and inverse flattening.
type Ellipsoid struct {
	A    float64
	InvF float64
}

// B returns the semi-minor axis.
func (e Ellipsoid) B() float64 { return e.A * (1 - 1/e.InvF) }

var (
	// WGS84 underlies the geodetic output of the geostationary inverse.
	WGS84 = Ellipsoid{A: 6378137, InvF: 298.257223563}
	// GRS80 is the ellipsoid of SIRGAS 2000.
	GRS80 = Ellipsoid{A: 6378137, InvF: 298.257222101}
)

// Helmert is a 7-parameter similarity transformation between geocentric
// frames: translations in meters, rotations in arc-seconds, scale in ppm.
type Helmert struct {
	TX, TY, TZ float64
	RX, RY, RZ float64
	DS         float64
}

// wgs84ToSIRGAS2000 carries the official EPSG transformation between the two
// frames: all parameters are zero, because both are realizations of ITRS and
// coincide at the precision of this product. The full Helmert arithmetic still
// runs so a non-zero parameter set (for another regional datum) drops in
// without code changes.
var wgs84ToSIRGAS2000 = Helmert{}

// Apply transforms a geocentric coordinate.
func (t Helmert) Apply(x, y, z float64) (float64, float64, float64) {
	const arcsec = math.Pi / (180 * 3600)
	rx := t.RX * arcsec
	ry := t.RY * arcsec
	rz := t.RZ * arcsec
	s := 1 + t.DS*1e-6

	// Small-angle (coordinate frame) rotation convention.
	x2 := t.TX + s*(x-rz*y+ry*z)
	y2 := t.TY + s*(rz*x+y-rx*z)
	z2 := t.TZ + s*(-ry*x+rx*y+z)
	return x2, y2, z2
}

// ToSIRGAS2000 converts geodetic WGS 84 degrees to SIRGAS 2000 (EPSG:4674)
// degrees at ellipsoid height zero. Non-finite input propagates to the output.
func ToSIRGAS2000(lon, lat float64) (float64, float64) {
	x, y, z := geodeticToECEF(lat, lon, 0, WGS84)
	x, y, z = wgs84ToSIRGAS2000.Apply(x, y, z)
	lat2, lon2, _ := ecefToGeodetic(x, y, z, GRS80)
	return lon2, lat2
}

// geodeticToECEF converts geodetic degrees and ellipsoid height to geocentric
// cartesian meters.
func geodeticToECEF(lat, lon, h float64, e Ellipsoid) (x, y, z float64) {
	latR := degToRad(lat)
	lonR := degToRad(lon)
	sinLat, cosLat := math.Sincos(latR)
	sinLon, cosLon := math.Sincos(lonR)

	b := e.B()
	e2 := (e.A*e.A - b*b) / (e.A * e.A)
	n := e.A / math.Sqrt(1-e2*sinLat*sinLat)

	x = (n + h) * cosLat * cosLon
	y = (n + h) * cosLat * sinLon
	z = (n*(1-e2) + h) * sinLat
	return x, y, z
}

// ecefToGeodetic converts geocentric cartesian meters to geodetic degrees and
// ellipsoid height using Bowring's closed-form approximation, which is exact
// to well under a millimeter for earth-bound points.
func ecefToGeodetic(x, y, z float64, e Ellipsoid) (lat, lon, h float64) {
	b := e.B()
	e2 := (e.A*e.A - b*b) / (e.A * e.A)
	ep2 := (e.A*e.A - b*b) / (b * b)

	p := math.Hypot(x, y)
	theta := math.Atan2(z*e.A, p*b)
	sinT, cosT := math.Sincos(theta)

	latR := math.Atan2(z+ep2*b*sinT*sinT*sinT, p-e2*e.A*cosT*cosT*cosT)
	lonR := math.Atan2(y, x)

	sinLat := math.Sin(latR)
	n := e.A / math.Sqrt(1-e2*sinLat*sinLat)
	h = p/math.Cos(latR) - n

	return radToDeg(latR), radToDeg(lonR), h
}
