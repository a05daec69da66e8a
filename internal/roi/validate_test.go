package roi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jnguyen/visual-aoi/internal/roi"
)

func validROI() *roi.ROI {
	return &roi.ROI{
		ID:              1,
		Type:            roi.TypeCompare,
		Coords:          roi.Coords{X1: 0, Y1: 0, X2: 50, Y2: 50},
		Focus:           305,
		Exposure:        1200,
		DetectionMethod: "opencv",
		Rotation:        0,
		DeviceID:        1,
		IsDeviceBarcode: true,
	}
}

func TestValidate_ValidROI(t *testing.T) {
	errs := roi.Validate(validROI(), 640, 480)
	assert.Empty(t, errs)
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	r := validROI()
	r.ID = -1
	r.Coords = roi.Coords{X1: 50, Y1: 50, X2: 10, Y2: 10}
	r.Focus = 5000
	r.Exposure = -1
	r.DeviceID = 9
	r.Rotation = 45
	th := 1.5
	r.AIThreshold = &th

	errs := roi.Validate(r, 640, 480)
	assert.GreaterOrEqual(t, len(errs), 7)
}

func TestValidate_CoordsOutsideFrame(t *testing.T) {
	r := validROI()
	r.Coords = roi.Coords{X1: 0, Y1: 0, X2: 700, Y2: 100}
	errs := roi.Validate(r, 640, 480)
	assert.NotEmpty(t, errs)
}

func TestValidate_ColorROIRequiresColorConfig(t *testing.T) {
	r := validROI()
	r.Type = roi.TypeColor
	r.ColorConfig = nil
	errs := roi.Validate(r, 0, 0)
	assert.NotEmpty(t, errs)
}

func TestValidate_ZeroFrameSkipsBoundsCheck(t *testing.T) {
	r := validROI()
	r.Coords = roi.Coords{X1: 0, Y1: 0, X2: 99999, Y2: 99999}
	errs := roi.Validate(r, 0, 0)
	assert.Empty(t, errs)
}
