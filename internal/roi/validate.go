package roi

import "fmt"

// Validate checks roi against the per-field constraints from the data
// model and returns every violation found — it never short-circuits on the
// first error, so a caller can surface the whole set at once.
//
// frameWidth/frameHeight are the dimensions of the frame the ROI will be
// cropped from; pass 0,0 to skip the within-frame check (e.g. when
// validating a product's config file offline, with no captured frame yet).
func Validate(r *ROI, frameWidth, frameHeight int) []error {
	var errs []error

	if r.ID < 0 {
		errs = append(errs, fmt.Errorf("roi_id must be >= 0, got %d", r.ID))
	}

	switch r.Type {
	case TypeBarcode, TypeCompare, TypeOCR, TypeColor:
	default:
		errs = append(errs, fmt.Errorf("roi_type %d is not one of {1,2,3,4}", r.Type))
	}

	if !r.Coords.Valid() {
		errs = append(errs, fmt.Errorf("coords (%d,%d)-(%d,%d) must satisfy x1<x2 and y1<y2",
			r.Coords.X1, r.Coords.Y1, r.Coords.X2, r.Coords.Y2))
	}
	if frameWidth > 0 && frameHeight > 0 && !r.Coords.WithinFrame(frameWidth, frameHeight) {
		errs = append(errs, fmt.Errorf("coords (%d,%d)-(%d,%d) fall outside the %dx%d frame",
			r.Coords.X1, r.Coords.Y1, r.Coords.X2, r.Coords.Y2, frameWidth, frameHeight))
	}

	if r.Focus < 0 || r.Focus > 1000 {
		errs = append(errs, fmt.Errorf("focus must be in [0,1000], got %d", r.Focus))
	}
	if r.Exposure < 0 || r.Exposure > 10000 {
		errs = append(errs, fmt.Errorf("exposure must be in [0,10000], got %d", r.Exposure))
	}
	if r.DeviceID < 1 || r.DeviceID > 4 {
		errs = append(errs, fmt.Errorf("device_id must be in 1..4, got %d", r.DeviceID))
	}
	if r.AIThreshold != nil && (*r.AIThreshold < 0.0 || *r.AIThreshold > 1.0) {
		errs = append(errs, fmt.Errorf("ai_threshold must be in [0.0,1.0], got %v", *r.AIThreshold))
	}
	switch r.Rotation {
	case 0, 90, 180, 270:
	default:
		errs = append(errs, fmt.Errorf("rotation must be one of {0,90,180,270}, got %d", r.Rotation))
	}

	if r.Type == TypeColor && r.ColorConfig == nil {
		errs = append(errs, fmt.Errorf("color ROI %d is missing color_config", r.ID))
	}
	if r.ColorConfig != nil {
		if r.ColorConfig.IsExpectedColorMode() && len(r.ColorConfig.ExpectedColor) != 3 {
			errs = append(errs, fmt.Errorf("expected_color must have exactly 3 components, got %d", len(r.ColorConfig.ExpectedColor)))
		}
	}

	return errs
}

// IsValid is a convenience wrapper over Validate for callers that only care
// about pass/fail.
func IsValid(r *ROI, frameWidth, frameHeight int) bool {
	return len(Validate(r, frameWidth, frameHeight)) == 0
}
