package domain

import "time"

// FireDetection is one candidate hotspot extracted from a scene.
// Lon/Lat are SIRGAS 2000 (EPSG:4674) degrees. ID and ObtainedAt are zero
// until the record is inserted; the store assigns both.
type FireDetection struct {
	ID         int64     `json:"id,omitempty"`
	TempKelvin float64   `json:"temp_kelvin"`
	AreaM2     float64   `json:"area_m2"`
	PowerMW    float64   `json:"power_mw"`
	SceneTime  time.Time `json:"scene_time"` // start of scan, local zone
	ObtainedAt time.Time `json:"obtained_at,omitempty"`
	Lon        float64   `json:"lon"`
	Lat        float64   `json:"lat"`
}

// BoundingBox is a geographic clip region in degrees.
type BoundingBox struct {
	MinLat float64 `yaml:"minLat"`
	MaxLat float64 `yaml:"maxLat"`
	MinLon float64 `yaml:"minLon"`
	MaxLon float64 `yaml:"maxLon"`
}

// Contains reports whether the point lies inside the box, bounds included.
// NaN or infinite coordinates never satisfy the comparisons, so off-disk
// pixels are rejected here without a separate finiteness check.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}
