package domain

import "math"

// GoodQuality is the DQF value marking a usable pixel.
const GoodQuality = 0

// fireMaskCodes are the Mask values accepted as confident fire detections.
// See the package documentation for what each code means.
var fireMaskCodes = map[int16]struct{}{
	10: {},
	11: {},
	30: {},
	31: {},
}

// IsFireCode reports whether a Mask value is a confident fire detection.
func IsFireCode(code int16) bool {
	_, ok := fireMaskCodes[code]
	return ok
}

// AdaptiveTempThreshold decides whether a scene needs the extra brightness
// temperature gate, given the scene's minimum Temp (NaNs ignored). When the
// minimum lies strictly between 320 K and 400 K the scene's dynamic range is
// already concentrated on hot pixels and detections must additionally exceed
// the returned threshold; otherwise the gate is skipped so scenes with a wide
// or cold range are not over-filtered.
func AdaptiveTempThreshold(minTemp float64) (threshold float64, apply bool) {
	if minTemp > 320 && minTemp < 400 {
		return 300, true
	}
	return 0, false
}

// NaNMin returns the smallest value in vs ignoring NaNs, or NaN when vs is
// empty or all-NaN.
func NaNMin(vs []float64) float64 {
	minV := math.NaN()
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(minV) || v < minV {
			minV = v
		}
	}
	return minV
}

// Round2 rounds to two decimal places, the precision stored for temperature,
// area and power.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
