package roi

import (
	"fmt"
)

// legacyField order, restated from the positional array format:
//   [idx, type, coords, focus, exposure, ai_threshold, feature_method,
//    rotation, device_location, expected_text, is_device_barcode, color_ranges]
//
// Arrays shorter than 12 elements are accepted; missing trailing fields take
// the arity-specific defaults below. The defaults are NOT uniform across
// arities — a 5-element array defaults ai_threshold to 0.9 only for a
// Compare ROI, a 6-element array derives feature_method from the type, and
// the legacy default exposure (3000) differs from the object-format default
// (1200). These quirks are load-bearing: callers depend on them.
func normalizeLegacyArray(elems []interface{}) (*ROI, error) {
	n := len(elems)
	if n < 3 || n > 12 {
		return nil, fmt.Errorf("roi: array form must have 3-12 elements, got %d", n)
	}

	idx, err := asInt(elems[0])
	if err != nil {
		return nil, fmt.Errorf("roi: idx: %w", err)
	}
	typRaw, err := asInt(elems[1])
	if err != nil {
		return nil, fmt.Errorf("roi: type: %w", err)
	}
	typ := Type(typRaw)
	coords, err := parseCoords(elems[2])
	if err != nil {
		return nil, fmt.Errorf("roi: coords: %w", err)
	}

	out := &ROI{ID: idx, Type: typ, Coords: coords}

	switch n {
	case 3:
		out.Focus = DefaultFocus
		out.Exposure = legacyDefaultExposure
		out.AIThreshold = legacyDefaultThreshold(typ)
		out.DetectionMethod = legacyDefaultMethod(typ)
		out.Rotation = DefaultRotation
		out.DeviceID = DefaultDeviceID
		return out, nil

	case 4:
		focus, err := asInt(elems[3])
		if err != nil {
			return nil, fmt.Errorf("roi: focus: %w", err)
		}
		out.Focus = focus
		out.Exposure = legacyDefaultExposure
		out.AIThreshold = legacyDefaultThreshold(typ)
		out.DetectionMethod = legacyDefaultMethod(typ)
		out.Rotation = DefaultRotation
		out.DeviceID = DefaultDeviceID
		return out, nil

	case 5:
		focus, err := asInt(elems[3])
		if err != nil {
			return nil, fmt.Errorf("roi: focus: %w", err)
		}
		out.Focus = focus
		out.Exposure = legacyDefaultExposure
		th, err := asFloatPtr(elems[4])
		if err != nil {
			return nil, fmt.Errorf("roi: ai_threshold: %w", err)
		}
		if th != nil {
			out.AIThreshold = th
		} else {
			out.AIThreshold = legacyDefaultThreshold(typ)
		}
		out.DetectionMethod = legacyDefaultMethod(typ)
		out.Rotation = DefaultRotation
		out.DeviceID = DefaultDeviceID
		return out, nil

	case 6:
		focus, exposure, th, err := parseFocusExposureThreshold(elems)
		if err != nil {
			return nil, err
		}
		out.Focus, out.Exposure, out.AIThreshold = focus, exposure, th
		out.DetectionMethod = legacyDefaultMethod(typ)
		out.Rotation = DefaultRotation
		out.DeviceID = DefaultDeviceID
		return out, nil

	case 7, 8, 9, 10, 11, 12:
		focus, exposure, th, err := parseFocusExposureThreshold(elems)
		if err != nil {
			return nil, err
		}
		out.Focus, out.Exposure, out.AIThreshold = focus, exposure, th

		method, err := asStringPtr(elems[6])
		if err != nil {
			return nil, fmt.Errorf("roi: feature_method: %w", err)
		}
		if method != nil {
			out.DetectionMethod = *method
		} else {
			out.DetectionMethod = legacyDefaultMethod(typ)
		}

		if n == 7 {
			out.Rotation = DefaultRotation
			out.DeviceID = DefaultDeviceID
			return out, nil
		}

		rotation, err := asInt(elems[7])
		if err != nil {
			return nil, fmt.Errorf("roi: rotation: %w", err)
		}
		out.Rotation = rotation

		if n == 8 {
			out.DeviceID = DefaultDeviceID
			return out, nil
		}

		device, err := asInt(elems[8])
		if err != nil {
			return nil, fmt.Errorf("roi: device_location: %w", err)
		}
		out.DeviceID = device

		if n == 9 {
			return out, nil
		}

		expected, err := asStringPtr(elems[9])
		if err != nil {
			return nil, fmt.Errorf("roi: expected_text: %w", err)
		}
		out.ExpectedText = expected

		if n == 10 {
			return out, nil
		}

		isDeviceBarcode, err := asBoolPtr(elems[10])
		if err != nil {
			return nil, fmt.Errorf("roi: is_device_barcode: %w", err)
		}
		if isDeviceBarcode != nil {
			out.IsDeviceBarcode = *isDeviceBarcode
		} else {
			out.IsDeviceBarcode = DefaultIsDeviceBarcode
		}

		if n == 11 {
			return out, nil
		}

		// n == 12: trailing element is the legacy color_ranges list, only
		// meaningful for Color ROIs.
		ranges, err := parseLegacyColorRanges(elems[11])
		if err != nil {
			return nil, fmt.Errorf("roi: color_ranges: %w", err)
		}
		if len(ranges) > 0 {
			out.ColorConfig = &ColorConfig{ColorRanges: ranges}
		}
		return out, nil
	}

	return nil, fmt.Errorf("roi: unreachable arity %d", n)
}

const legacyDefaultExposure = 3000

func legacyDefaultThreshold(t Type) *float64 {
	if t != TypeCompare {
		return nil
	}
	v := 0.9
	return &v
}

func legacyDefaultMethod(t Type) string {
	if t == TypeCompare {
		return "mobilenet"
	}
	return DefaultDetectionMethod
}

func parseFocusExposureThreshold(elems []interface{}) (focus, exposure int, threshold *float64, err error) {
	focus, err = asInt(elems[3])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("roi: focus: %w", err)
	}
	exposure, err = asInt(elems[4])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("roi: exposure: %w", err)
	}
	threshold, err = asFloatPtr(elems[5])
	if err != nil {
		return 0, 0, nil, fmt.Errorf("roi: ai_threshold: %w", err)
	}
	return focus, exposure, threshold, nil
}
