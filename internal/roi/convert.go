package roi

import "fmt"

// asInt coerces a decoded JSON scalar (float64, json.Number-free since we
// decode generically) to an int, truncating like Python's int() would.
func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asFloatPtr(v interface{}) (*float64, error) {
	switch n := v.(type) {
	case float64:
		return &n, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected number or null, got %T", v)
	}
}

func asStringPtr(v interface{}) (*string, error) {
	switch s := v.(type) {
	case string:
		return &s, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected string or null, got %T", v)
	}
}

func asBoolPtr(v interface{}) (*bool, error) {
	switch b := v.(type) {
	case bool:
		return &b, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected bool or null, got %T", v)
	}
}

func parseCoords(v interface{}) (Coords, error) {
	arr, ok := v.([]interface{})
	if !ok {
		return Coords{}, fmt.Errorf("expected 4-element coords array, got %T", v)
	}
	if len(arr) != 4 {
		return Coords{}, fmt.Errorf("expected 4-element coords array, got %d elements", len(arr))
	}
	vals := make([]int, 4)
	for i, e := range arr {
		n, err := asInt(e)
		if err != nil {
			return Coords{}, fmt.Errorf("coords[%d]: %w", i, err)
		}
		vals[i] = n
	}
	return Coords{X1: vals[0], Y1: vals[1], X2: vals[2], Y2: vals[3]}, nil
}

// parseLegacyColorRanges reads the trailing 12th array element: a list of
// {name, lower, upper, threshold} objects, or nil/empty when absent.
func parseLegacyColorRanges(v interface{}) ([]ColorRange, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected color_ranges array, got %T", v)
	}
	out := make([]ColorRange, 0, len(arr))
	for i, e := range arr {
		m, ok := e.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("color_ranges[%d]: expected object, got %T", i, e)
		}
		cr, err := parseColorRangeMap(m)
		if err != nil {
			return nil, fmt.Errorf("color_ranges[%d]: %w", i, err)
		}
		out = append(out, cr)
	}
	return out, nil
}

func parseColorRangeMap(m map[string]interface{}) (ColorRange, error) {
	var cr ColorRange
	if name, ok := m["name"].(string); ok {
		cr.Name = name
	}
	lower, err := asRGBTriple(m["lower"])
	if err != nil {
		return cr, fmt.Errorf("lower: %w", err)
	}
	cr.Lower = lower
	upper, err := asRGBTriple(m["upper"])
	if err != nil {
		return cr, fmt.Errorf("upper: %w", err)
	}
	cr.Upper = upper
	if th, ok := m["threshold"].(float64); ok {
		cr.Threshold = th
	}
	return cr, nil
}

func asRGBTriple(v interface{}) ([3]int, error) {
	var out [3]int
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return out, fmt.Errorf("expected 3-element array, got %v", v)
	}
	for i, e := range arr {
		n, err := asInt(e)
		if err != nil {
			return out, err
		}
		out[i] = n
	}
	return out, nil
}
