package domain

import "time"

// ExtractFires filters a scene's pixels down to fire-detection records.
// lon and lat are the reprojected coordinate grids (EPSG:4674), row-major and
// shape-aligned with the scene's per-pixel arrays; non-finite entries are
// rejected by the bounding-box clip. Records come out in row-major pixel
// order, which carries no meaning downstream.
//
// A pixel survives when its Mask code is a confident fire detection, its DQF
// is good, it passes the adaptive temperature gate, and its reprojected
// coordinate falls inside bbox. Temperature, area and power are rounded to
// two decimals; the scan time is converted to loc.
func ExtractFires(s *Scene, lon, lat []float64, bbox BoundingBox, loc *time.Location) []FireDetection {
	threshold, gated := AdaptiveTempThreshold(NaNMin(s.Temp))
	sceneTime := s.ScanTime.In(loc)

	var out []FireDetection
	for i := range s.Mask {
		if !IsFireCode(s.Mask[i]) || s.DQF[i] != GoodQuality {
			continue
		}
		if gated && !(s.Temp[i] > threshold) {
			continue
		}
		if !bbox.Contains(lat[i], lon[i]) {
			continue
		}
		out = append(out, FireDetection{
			TempKelvin: Round2(s.Temp[i]),
			AreaM2:     Round2(s.Area[i]),
			PowerMW:    Round2(s.Power[i]),
			SceneTime:  sceneTime,
			Lon:        lon[i],
			Lat:        lat[i],
		})
	}
	return out
}
