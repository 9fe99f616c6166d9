package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRegion = BoundingBox{MinLat: -55, MaxLat: 13, MinLon: -85, MaxLon: -30}

// testScene builds a 1xN scene whose pixels all share good quality and a cold
// temperature range (no adaptive gate), with per-pixel values overridable by
// the caller.
func testScene(n int) *Scene {
	s := &Scene{
		Path:     "OR_ABI-L2-FDCF-M6_G16_s20250321502000.nc",
		ScanTime: time.Date(2025, time.February, 1, 15, 2, 0, 0, time.UTC),
		NY:       1,
		NX:       n,
		X:        make([]float64, n),
		Y:        []float64{0},
		Mask:     make([]int16, n),
		DQF:      make([]int16, n),
		Temp:     make([]float64, n),
		Area:     make([]float64, n),
		Power:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.Mask[i] = 10
		s.Temp[i] = 250 // keeps NaNMin below the adaptive band
		s.Area[i] = 1000
		s.Power[i] = 50
	}
	return s
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestExtractFires_MaskAndQuality(t *testing.T) {
	t.Run("non-fire mask code is never included", func(t *testing.T) {
		s := testScene(1)
		s.Mask[0] = 99
		s.Temp[0] = 500

		got := ExtractFires(s, []float64{-50}, []float64{0}, testRegion, time.UTC)
		assert.Empty(t, got)
	})

	t.Run("bad quality flag excludes a fire pixel", func(t *testing.T) {
		s := testScene(1)
		s.DQF[0] = 2

		got := ExtractFires(s, []float64{-50}, []float64{0}, testRegion, time.UTC)
		assert.Empty(t, got)
	})

	t.Run("all confident fire codes are accepted", func(t *testing.T) {
		s := testScene(4)
		s.Mask[0], s.Mask[1], s.Mask[2], s.Mask[3] = 10, 11, 30, 31

		got := ExtractFires(s, repeat(-50, 4), repeat(0, 4), testRegion, time.UTC)
		assert.Len(t, got, 4)
	})
}

func TestExtractFires_RegionClip(t *testing.T) {
	t.Run("pixel inside the box is included", func(t *testing.T) {
		s := testScene(1)

		got := ExtractFires(s, []float64{-50}, []float64{0}, testRegion, time.UTC)
		require.Len(t, got, 1)
		assert.Equal(t, -50.0, got[0].Lon)
		assert.Equal(t, 0.0, got[0].Lat)
	})

	t.Run("same pixel at longitude 10 is excluded", func(t *testing.T) {
		s := testScene(1)

		got := ExtractFires(s, []float64{10}, []float64{0}, testRegion, time.UTC)
		assert.Empty(t, got)
	})

	t.Run("non-finite coordinates never pass the clip", func(t *testing.T) {
		s := testScene(2)

		lon := []float64{math.NaN(), math.Inf(1)}
		lat := []float64{0, 0}
		got := ExtractFires(s, lon, lat, testRegion, time.UTC)
		assert.Empty(t, got)
	})
}

func TestExtractFires_AdaptiveGate(t *testing.T) {
	// The gate only changes the outcome for pixels whose own temperature
	// cannot beat 300K, e.g. fire-masked pixels with a fill (NaN) Temp.
	t.Run("hot minimum applies the 300K gate", func(t *testing.T) {
		s := testScene(2)
		s.Temp[0] = 350        // scene minimum 350K (NaN ignored) -> gate active
		s.Temp[1] = math.NaN() // fire-masked but fails Temp > 300

		got := ExtractFires(s, repeat(-50, 2), repeat(0, 2), testRegion, time.UTC)
		require.Len(t, got, 1)
		assert.Equal(t, 350.0, got[0].TempKelvin)
	})

	t.Run("cold minimum skips the gate", func(t *testing.T) {
		s := testScene(2)
		s.Temp[0] = 200 // scene minimum 200K -> gate inactive
		s.Temp[1] = math.NaN()

		got := ExtractFires(s, repeat(-50, 2), repeat(0, 2), testRegion, time.UTC)
		assert.Len(t, got, 2)
	})
}

func TestExtractFires_RecordValues(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	s := testScene(1)
	s.Temp[0] = 312.3456
	s.Area[0] = 12345.678
	s.Power[0] = 9.876

	got := ExtractFires(s, []float64{-50.25}, []float64{-10.5}, testRegion, loc)
	require.Len(t, got, 1)

	want := FireDetection{
		TempKelvin: 312.35,
		AreaM2:     12345.68,
		PowerMW:    9.88,
		SceneTime:  s.ScanTime.In(loc),
		Lon:        -50.25,
		Lat:        -10.5,
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	// Sanity: 15:02 UTC on Feb 1st is 12:02 in São Paulo (UTC-3, no DST since 2019).
	assert.Equal(t, 12, got[0].SceneTime.Hour())
}

// Three fire pixels, two inside the region and one outside, all good
// quality, scene minimum 330K.
func TestExtractFires_EndToEndScenario(t *testing.T) {
	s := testScene(3)
	s.Temp = []float64{330, 345, 360}

	lon := []float64{-50, -60, 10} // third pixel outside the box
	lat := []float64{0, -20, 0}

	got := ExtractFires(s, lon, lat, testRegion, time.UTC)
	require.Len(t, got, 2)
	for _, rec := range got {
		assert.Greater(t, rec.TempKelvin, 300.0)
	}
}

func TestAdaptiveTempThreshold(t *testing.T) {
	tests := []struct {
		name      string
		minTemp   float64
		wantApply bool
	}{
		{"inside the band", 350, true},
		{"at the lower bound", 320, false},
		{"at the upper bound", 400, false},
		{"cold scene", 200, false},
		{"all-NaN scene", math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threshold, apply := AdaptiveTempThreshold(tt.minTemp)
			assert.Equal(t, tt.wantApply, apply)
			if apply {
				assert.Equal(t, 300.0, threshold)
			}
		})
	}
}

func TestNaNMin(t *testing.T) {
	assert.Equal(t, 250.0, NaNMin([]float64{330, 250, math.NaN(), 400}))
	assert.True(t, math.IsNaN(NaNMin(nil)))
	assert.True(t, math.IsNaN(NaNMin([]float64{math.NaN()})))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.2345))
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, -1.23, Round2(-1.2349))
}
