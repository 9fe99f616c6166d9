package netcdf

import (
	"fmt"
	"math"

	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/couchcryptid/goes-fire-etl/internal/domain"
)

// readProjection pulls the CF grid-mapping parameters off the projection
// variable's attributes.
func readProjection(group api.Group) (domain.GridProjection, error) {
	v, err := group.GetVariable(varProjection)
	if err != nil {
		return domain.GridProjection{}, fmt.Errorf("read %s: %w", varProjection, err)
	}

	var p domain.GridProjection
	for name, dst := range map[string]*float64{
		"perspective_point_height":       &p.PerspectivePointHeight,
		"semi_major_axis":                &p.SemiMajorAxis,
		"semi_minor_axis":                &p.SemiMinorAxis,
		"longitude_of_projection_origin": &p.LonOrigin,
	} {
		f, ok := attrFloat(v.Attributes, name)
		if !ok {
			return domain.GridProjection{}, fmt.Errorf("%s: missing attribute %s", varProjection, name)
		}
		*dst = f
	}

	sweep, ok := attrString(v.Attributes, "sweep_angle_axis")
	if !ok {
		return domain.GridProjection{}, fmt.Errorf("%s: missing attribute sweep_angle_axis", varProjection)
	}
	p.SweepAxis = sweep
	return p, nil
}

// readFloatVector unpacks a 1-D coordinate variable to float64, applying
// scale_factor and add_offset.
func readFloatVector(group api.Group, name string) ([]float64, error) {
	v, err := group.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	scale, offset, fill := packing(v.Attributes)

	raw, err := flatten1D(v.Values)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	out := make([]float64, len(raw))
	for i, r := range raw {
		out[i] = unpack(r, scale, offset, fill)
	}
	return out, nil
}

// readFloatGrid unpacks a 2-D measurement variable to a row-major float64
// slice. Fill values become NaN so they cannot masquerade as physical values.
func readFloatGrid(group api.Group, name string) ([]float64, error) {
	v, err := group.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	scale, offset, fill := packing(v.Attributes)

	rows, err := flatten2D(v.Values)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var out []float64
	for _, row := range rows {
		for _, r := range row {
			out = append(out, unpack(r, scale, offset, fill))
		}
	}
	return out, nil
}

// readCodeGrid reads a 2-D classification variable (Mask, DQF) as raw integer
// codes, without scaling. Fill values stay as-is; no code in a fill slot is a
// member of the confidence set, so they filter out naturally.
func readCodeGrid(group api.Group, name string) ([]int16, error) {
	v, err := group.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	rows, err := flatten2D(v.Values)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var out []int16
	for _, row := range rows {
		for _, r := range row {
			out = append(out, int16(r))
		}
	}
	return out, nil
}

// attrGetter is the slice of api.AttributeMap the unpackers need.
type attrGetter interface {
	Get(key string) (any, bool)
}

// packing reads the CF packing attributes, defaulting to the identity
// (scale 1, offset 0) and no fill sentinel.
func packing(attrs attrGetter) (scale, offset, fill float64) {
	scale = 1
	fill = math.NaN()
	if f, ok := attrFloat(attrs, "scale_factor"); ok {
		scale = f
	}
	if f, ok := attrFloat(attrs, "add_offset"); ok {
		offset = f
	}
	if f, ok := attrFloat(attrs, "_FillValue"); ok {
		fill = f
	}
	return scale, offset, fill
}

// unpack converts one raw stored value to its physical value.
func unpack(raw, scale, offset, fill float64) float64 {
	if raw == fill || math.IsNaN(raw) {
		return math.NaN()
	}
	return raw*scale + offset
}

// flatten1D converts a decoded 1-D variable of any integer or float element
// type to float64.
func flatten1D(values any) ([]float64, error) {
	switch vs := values.(type) {
	case []float64:
		return vs, nil
	case []float32:
		return convert1D(vs), nil
	case []int8:
		return convert1D(vs), nil
	case []uint8:
		return convert1D(vs), nil
	case []int16:
		return convert1D(vs), nil
	case []uint16:
		return convert1D(vs), nil
	case []int32:
		return convert1D(vs), nil
	default:
		return nil, fmt.Errorf("unsupported 1-D value type %T", values)
	}
}

// flatten2D converts a decoded 2-D variable of any integer or float element
// type to float64 rows.
func flatten2D(values any) ([][]float64, error) {
	switch vs := values.(type) {
	case [][]float64:
		return vs, nil
	case [][]float32:
		return convert2D(vs), nil
	case [][]int8:
		return convert2D(vs), nil
	case [][]uint8:
		return convert2D(vs), nil
	case [][]int16:
		return convert2D(vs), nil
	case [][]uint16:
		return convert2D(vs), nil
	case [][]int32:
		return convert2D(vs), nil
	default:
		return nil, fmt.Errorf("unsupported 2-D value type %T", values)
	}
}

type numeric interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~float32 | ~float64
}

func convert1D[T numeric](vs []T) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}

func convert2D[T numeric](vs [][]T) [][]float64 {
	out := make([][]float64, len(vs))
	for i, row := range vs {
		out[i] = convert1D(row)
	}
	return out
}

// attrFloat reads a numeric attribute, tolerating the scalar and
// single-element vector representations netCDF writers produce.
func attrFloat(attrs attrGetter, name string) (float64, bool) {
	val, ok := attrs.Get(name)
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case []float64:
		if len(v) == 1 {
			return v[0], true
		}
	case []float32:
		if len(v) == 1 {
			return float64(v[0]), true
		}
	case []int16:
		if len(v) == 1 {
			return float64(v[0]), true
		}
	case []int32:
		if len(v) == 1 {
			return float64(v[0]), true
		}
	}
	return 0, false
}

// attrString reads a string attribute.
func attrString(attrs attrGetter, name string) (string, bool) {
	val, ok := attrs.Get(name)
	if !ok {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, true
	case []string:
		if len(v) == 1 {
			return v[0], true
		}
	}
	return "", false
}
