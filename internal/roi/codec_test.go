package roi_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/roi"
)

func mustNormalize(t *testing.T, payload string) *roi.ROI {
	t.Helper()
	r, err := roi.Normalize(json.RawMessage(payload))
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

func TestNormalizeLegacyArray_Arities(t *testing.T) {
	cases := []struct {
		name            string
		payload         string
		wantExposure    int
		wantThreshold   *float64
		wantMethod      string
		wantRotation    int
		wantDeviceID    int
	}{
		{
			name:          "3-element barcode",
			payload:       `[1, 1, [10,20,30,40]]`,
			wantExposure:  3000,
			wantThreshold: nil,
			wantMethod:    "opencv",
			wantRotation:  0,
			wantDeviceID:  1,
		},
		{
			name:          "3-element compare defaults threshold 0.9 and mobilenet",
			payload:       `[2, 2, [0,0,100,100]]`,
			wantExposure:  3000,
			wantThreshold: floatPtr(0.9),
			wantMethod:    "mobilenet",
			wantRotation:  0,
			wantDeviceID:  1,
		},
		{
			name:          "6-element derives method from type",
			payload:       `[3, 2, [0,0,50,50], 400, 2000, 0.85]`,
			wantExposure:  2000,
			wantThreshold: floatPtr(0.85),
			wantMethod:    "mobilenet",
			wantRotation:  0,
			wantDeviceID:  1,
		},
		{
			name:          "6-element barcode derives opencv",
			payload:       `[4, 1, [0,0,50,50], 400, 2000, null]`,
			wantExposure:  2000,
			wantThreshold: nil,
			wantMethod:    "opencv",
			wantRotation:  0,
			wantDeviceID:  1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := mustNormalize(t, tc.payload)
			assert.Equal(t, tc.wantExposure, r.Exposure)
			if tc.wantThreshold == nil {
				assert.Nil(t, r.AIThreshold)
			} else {
				require.NotNil(t, r.AIThreshold)
				assert.InDelta(t, *tc.wantThreshold, *r.AIThreshold, 1e-9)
			}
			assert.Equal(t, tc.wantMethod, r.DetectionMethod)
			assert.Equal(t, tc.wantRotation, r.Rotation)
			assert.Equal(t, tc.wantDeviceID, r.DeviceID)
		})
	}
}

func TestNormalizeLegacyArray_TwelveElementColorRanges(t *testing.T) {
	payload := `[5, 4, [0,0,10,10], 305, 1200, null, null, 0, 1, null, null,
		[{"name":"Red","lower":[170,0,0],"upper":[255,90,90],"threshold":5.0}]]`
	r := mustNormalize(t, payload)
	require.NotNil(t, r.ColorConfig)
	require.Len(t, r.ColorConfig.ColorRanges, 1)
	assert.Equal(t, "Red", r.ColorConfig.ColorRanges[0].Name)
	assert.True(t, r.ColorConfig.IsRangesMode())
}

func TestNormalizeLegacyArray_RejectsBadArity(t *testing.T) {
	_, err := roi.Normalize(json.RawMessage(`[1,2]`))
	assert.Error(t, err)

	_, err = roi.Normalize(json.RawMessage(`[1,2,3,4,5,6,7,8,9,10,11,12,13]`))
	assert.Error(t, err)
}

func TestNormalizeObject_ServerVocabulary(t *testing.T) {
	payload := `{
		"idx": 7, "type": 2, "coords": [1,2,3,4],
		"focus": 310, "exposure": 1500, "ai_threshold": 0.92,
		"feature_method": "mobilenet", "rotation": 90,
		"device_location": 3, "expected_text": "ABC123",
		"is_device_barcode": false
	}`
	r := mustNormalize(t, payload)
	assert.Equal(t, 7, r.ID)
	assert.Equal(t, roi.TypeCompare, r.Type)
	assert.Equal(t, roi.Coords{X1: 1, Y1: 2, X2: 3, Y2: 4}, r.Coords)
	assert.Equal(t, 310, r.Focus)
	assert.Equal(t, 1500, r.Exposure)
	require.NotNil(t, r.AIThreshold)
	assert.InDelta(t, 0.92, *r.AIThreshold, 1e-9)
	assert.Equal(t, "mobilenet", r.DetectionMethod)
	assert.Equal(t, 90, r.Rotation)
	assert.Equal(t, 3, r.DeviceID)
	require.NotNil(t, r.ExpectedText)
	assert.Equal(t, "ABC123", *r.ExpectedText)
	assert.False(t, r.IsDeviceBarcode)
}

func TestNormalizeObject_ClientVocabulary(t *testing.T) {
	payload := `{
		"roi_id": 8, "roi_type_name": "ocr", "coordinates": [5,5,50,50],
		"device_id": 2, "detection_method": "tesseract"
	}`
	r := mustNormalize(t, payload)
	assert.Equal(t, 8, r.ID)
	assert.Equal(t, roi.TypeOCR, r.Type)
	assert.Equal(t, roi.Coords{X1: 5, Y1: 5, X2: 50, Y2: 50}, r.Coords)
	assert.Equal(t, 2, r.DeviceID)
	assert.Equal(t, "tesseract", r.DetectionMethod)
	// unspecified fields take the documented defaults.
	assert.Equal(t, roi.DefaultFocus, r.Focus)
	assert.Equal(t, roi.DefaultExposure, r.Exposure)
	assert.True(t, r.IsDeviceBarcode)
}

func TestNormalizeObject_ColorConfigExpectedColorExample(t *testing.T) {
	// The worked example from the data model: expected_color=[0,0,255],
	// color_tolerance=20, min_pixel_percentage=10.0.
	payload := `{
		"idx": 9, "type": 4, "coords": [0,0,20,20],
		"expected_color": [0,0,255], "color_tolerance": 20, "min_pixel_percentage": 10.0
	}`
	r := mustNormalize(t, payload)
	require.NotNil(t, r.ColorConfig)
	assert.True(t, r.ColorConfig.IsExpectedColorMode())
	assert.Equal(t, []int{0, 0, 255}, r.ColorConfig.ExpectedColor)
	assert.Equal(t, 20, r.ColorConfig.ColorTolerance)
	assert.InDelta(t, 10.0, r.ColorConfig.MinPixelPercentage, 1e-9)
}

func TestNormalizeObject_ColorConfigNestedWins(t *testing.T) {
	payload := `{
		"idx": 10, "type": 4, "coords": [0,0,20,20],
		"expected_color": [1,1,1],
		"color_config": {"expected_color": [9,9,9], "color_tolerance": 3, "min_pixel_percentage": 1.0}
	}`
	r := mustNormalize(t, payload)
	require.NotNil(t, r.ColorConfig)
	assert.Equal(t, []int{9, 9, 9}, r.ColorConfig.ExpectedColor)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	payload := `[1, 2, [0,0,100,100], 400, 1800, 0.8, "opencv", 90, 2, "X", true]`
	r1 := mustNormalize(t, payload)
	serverJSON, err := json.Marshal(roi.ToServer(r1))
	require.NoError(t, err)
	r2, err := roi.Normalize(serverJSON)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestRoundTripToClientToServer(t *testing.T) {
	r := mustNormalize(t, `[3, 3, [1,1,99,99], 305, 1200, null, "opencv", 0, 1, "HELLO", true]`)

	serverJSON, err := json.Marshal(roi.ToServer(r))
	require.NoError(t, err)
	viaServer, err := roi.Normalize(serverJSON)
	require.NoError(t, err)

	clientJSON, err := json.Marshal(roi.ToClient(viaServer))
	require.NoError(t, err)
	viaClient, err := roi.Normalize(clientJSON)
	require.NoError(t, err)

	assert.Equal(t, r, viaClient)
}

func floatPtr(v float64) *float64 { return &v }
