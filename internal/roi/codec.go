package roi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// wireObject carries both the server's field vocabulary (idx, type, coords,
// device_location, feature_method) and the client UI's vocabulary (roi_id,
// roi_type_name, coordinates, device_id, detection_method) at once. Whatever
// vocabulary the caller used, the unused fields simply decode as nil/zero and
// are ignored by the coalescing logic in normalizeObject.
type wireObject struct {
	Idx         *int          `json:"idx"`
	ROIID       *int          `json:"roi_id"`
	Type        *int          `json:"type"`
	ROITypeName *string       `json:"roi_type_name"`
	Coords      []interface{} `json:"coords"`
	Coordinates []interface{} `json:"coordinates"`

	Focus    *int `json:"focus"`
	Exposure *int `json:"exposure"`

	AIThreshold     *float64 `json:"ai_threshold"`
	FeatureMethod   *string  `json:"feature_method"`
	DetectionMethod *string  `json:"detection_method"`

	Rotation       *int `json:"rotation"`
	DeviceLocation *int `json:"device_location"`
	DeviceID       *int `json:"device_id"`

	ExpectedText    *string `json:"expected_text"`
	IsDeviceBarcode *bool   `json:"is_device_barcode"`

	// Color config, accepted either nested under color_config (the server's
	// own serialization shape) or at the top level (the Python predecessor's
	// shape). Both are checked; nested wins when both are present.
	ColorConfig        *colorConfigWire `json:"color_config"`
	ExpectedColor      []interface{}    `json:"expected_color"`
	ColorTolerance     *int             `json:"color_tolerance"`
	MinPixelPercentage *float64         `json:"min_pixel_percentage"`
	ColorRanges        []interface{}    `json:"color_ranges"`
}

type colorConfigWire struct {
	ExpectedColor      []interface{} `json:"expected_color"`
	ColorTolerance      *int         `json:"color_tolerance"`
	MinPixelPercentage  *float64     `json:"min_pixel_percentage"`
	ColorRanges         []interface{} `json:"color_ranges"`
}

// Normalize decodes an ROI from either the legacy positional array form or
// either object vocabulary, filling in defaults exactly as the server's
// original normalization routine did.
func Normalize(raw json.RawMessage) (*ROI, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("roi: empty input")
	}
	switch trimmed[0] {
	case '[':
		var arr []interface{}
		if err := json.Unmarshal(raw, &arr); err != nil {
			return nil, fmt.Errorf("roi: decode array: %w", err)
		}
		return normalizeLegacyArray(arr)
	case '{':
		var w wireObject
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, fmt.Errorf("roi: decode object: %w", err)
		}
		return normalizeObject(&w)
	default:
		return nil, fmt.Errorf("roi: input must be a JSON array or object")
	}
}

func normalizeObject(w *wireObject) (*ROI, error) {
	out := &ROI{}

	switch {
	case w.Idx != nil:
		out.ID = *w.Idx
	case w.ROIID != nil:
		out.ID = *w.ROIID
	}

	switch {
	case w.Type != nil:
		out.Type = Type(*w.Type)
	case w.ROITypeName != nil:
		t, ok := typeFromName(*w.ROITypeName)
		if !ok {
			return nil, fmt.Errorf("roi: unknown roi_type_name %q", *w.ROITypeName)
		}
		out.Type = t
	default:
		out.Type = TypeBarcode
	}

	coordsVal := w.Coords
	if coordsVal == nil {
		coordsVal = w.Coordinates
	}
	coords, err := parseCoords(interfaceSlice(coordsVal))
	if err != nil {
		return nil, fmt.Errorf("roi: coords: %w", err)
	}
	out.Coords = coords

	out.Focus = DefaultFocus
	if w.Focus != nil {
		out.Focus = *w.Focus
	}
	out.Exposure = DefaultExposure
	if w.Exposure != nil {
		out.Exposure = *w.Exposure
	}

	out.AIThreshold = w.AIThreshold

	out.DetectionMethod = DefaultDetectionMethod
	switch {
	case w.FeatureMethod != nil:
		out.DetectionMethod = *w.FeatureMethod
	case w.DetectionMethod != nil:
		out.DetectionMethod = *w.DetectionMethod
	}

	out.Rotation = DefaultRotation
	if w.Rotation != nil {
		out.Rotation = *w.Rotation
	}

	out.DeviceID = DefaultDeviceID
	switch {
	case w.DeviceLocation != nil:
		out.DeviceID = *w.DeviceLocation
	case w.DeviceID != nil:
		out.DeviceID = *w.DeviceID
	}

	out.ExpectedText = w.ExpectedText

	out.IsDeviceBarcode = DefaultIsDeviceBarcode
	if w.IsDeviceBarcode != nil {
		out.IsDeviceBarcode = *w.IsDeviceBarcode
	}

	cc, err := coalesceColorConfig(w)
	if err != nil {
		return nil, err
	}
	out.ColorConfig = cc

	return out, nil
}

func coalesceColorConfig(w *wireObject) (*ColorConfig, error) {
	expectedColor := w.ExpectedColor
	colorTolerance := w.ColorTolerance
	minPixelPct := w.MinPixelPercentage
	colorRanges := w.ColorRanges

	if w.ColorConfig != nil {
		if w.ColorConfig.ExpectedColor != nil {
			expectedColor = w.ColorConfig.ExpectedColor
		}
		if w.ColorConfig.ColorTolerance != nil {
			colorTolerance = w.ColorConfig.ColorTolerance
		}
		if w.ColorConfig.MinPixelPercentage != nil {
			minPixelPct = w.ColorConfig.MinPixelPercentage
		}
		if w.ColorConfig.ColorRanges != nil {
			colorRanges = w.ColorConfig.ColorRanges
		}
	}

	switch {
	case expectedColor != nil:
		rgb := make([]int, 0, len(expectedColor))
		for i, e := range expectedColor {
			n, err := asInt(e)
			if err != nil {
				return nil, fmt.Errorf("roi: expected_color[%d]: %w", i, err)
			}
			rgb = append(rgb, n)
		}
		tol := 10
		if colorTolerance != nil {
			tol = *colorTolerance
		}
		pct := 5.0
		if minPixelPct != nil {
			pct = *minPixelPct
		}
		return &ColorConfig{
			HasExpectedColor:   true,
			ExpectedColor:      rgb,
			ColorTolerance:     tol,
			MinPixelPercentage: pct,
		}, nil

	case colorRanges != nil:
		ranges, err := parseLegacyColorRanges(interfaceSlice(colorRanges))
		if err != nil {
			return nil, fmt.Errorf("roi: color_ranges: %w", err)
		}
		if len(ranges) == 0 {
			return nil, nil
		}
		return &ColorConfig{ColorRanges: ranges}, nil

	default:
		return nil, nil
	}
}

func interfaceSlice(v []interface{}) interface{} {
	if v == nil {
		return nil
	}
	return v
}
