package roi

// ServerROI is the object-form wire shape the server emits and accepts,
// using the server's own field vocabulary (idx/type/coords/device_location/
// feature_method).
type ServerROI struct {
	Idx             int              `json:"idx"`
	Type            int              `json:"type"`
	Coords          [4]int           `json:"coords"`
	Focus           int              `json:"focus"`
	Exposure        int              `json:"exposure"`
	AIThreshold     *float64         `json:"ai_threshold,omitempty"`
	FeatureMethod   string           `json:"feature_method"`
	Rotation        int              `json:"rotation"`
	DeviceLocation  int              `json:"device_location"`
	ExpectedText    *string          `json:"expected_text,omitempty"`
	IsDeviceBarcode bool             `json:"is_device_barcode"`
	ColorConfig     *colorConfigOut  `json:"color_config,omitempty"`
}

// ClientROI is the object-form wire shape the client UI works with, using
// its own field vocabulary (roi_id/roi_type_name/coordinates/device_id/
// detection_method).
type ClientROI struct {
	ROIID           int             `json:"roi_id"`
	ROITypeName     string          `json:"roi_type_name"`
	Coordinates     [4]int          `json:"coordinates"`
	Focus           int             `json:"focus"`
	Exposure        int             `json:"exposure"`
	AIThreshold     *float64        `json:"ai_threshold,omitempty"`
	DetectionMethod string          `json:"detection_method"`
	Rotation        int             `json:"rotation"`
	DeviceID        int             `json:"device_id"`
	ExpectedText    *string         `json:"expected_text,omitempty"`
	IsDeviceBarcode bool            `json:"is_device_barcode"`
	ColorConfig     *colorConfigOut `json:"color_config,omitempty"`
}

type colorConfigOut struct {
	ExpectedColor      []int        `json:"expected_color,omitempty"`
	ColorTolerance      int         `json:"color_tolerance,omitempty"`
	MinPixelPercentage  float64     `json:"min_pixel_percentage,omitempty"`
	ColorRanges         []ColorRangeOut `json:"color_ranges,omitempty"`
}

type ColorRangeOut struct {
	Name      string  `json:"name"`
	Lower     [3]int  `json:"lower"`
	Upper     [3]int  `json:"upper"`
	Threshold float64 `json:"threshold"`
}

func toColorConfigOut(c *ColorConfig) *colorConfigOut {
	if c == nil {
		return nil
	}
	if c.IsExpectedColorMode() {
		return &colorConfigOut{
			ExpectedColor:      c.ExpectedColor,
			ColorTolerance:     c.ColorTolerance,
			MinPixelPercentage: c.MinPixelPercentage,
		}
	}
	if len(c.ColorRanges) == 0 {
		return nil
	}
	ranges := make([]ColorRangeOut, len(c.ColorRanges))
	for i, r := range c.ColorRanges {
		ranges[i] = ColorRangeOut{Name: r.Name, Lower: r.Lower, Upper: r.Upper, Threshold: r.Threshold}
	}
	return &colorConfigOut{ColorRanges: ranges}
}

// ToServer renders the canonical ROI using the server's field vocabulary.
func ToServer(r *ROI) ServerROI {
	return ServerROI{
		Idx:             r.ID,
		Type:            int(r.Type),
		Coords:          [4]int{r.Coords.X1, r.Coords.Y1, r.Coords.X2, r.Coords.Y2},
		Focus:           r.Focus,
		Exposure:        r.Exposure,
		AIThreshold:     r.AIThreshold,
		FeatureMethod:   r.DetectionMethod,
		Rotation:        r.Rotation,
		DeviceLocation:  r.DeviceID,
		ExpectedText:    r.ExpectedText,
		IsDeviceBarcode: r.IsDeviceBarcode,
		ColorConfig:     toColorConfigOut(r.ColorConfig),
	}
}

// ToClient renders the canonical ROI using the client UI's field vocabulary.
func ToClient(r *ROI) ClientROI {
	return ClientROI{
		ROIID:           r.ID,
		ROITypeName:     r.Type.String(),
		Coordinates:     [4]int{r.Coords.X1, r.Coords.Y1, r.Coords.X2, r.Coords.Y2},
		Focus:           r.Focus,
		Exposure:        r.Exposure,
		AIThreshold:     r.AIThreshold,
		DetectionMethod: r.DetectionMethod,
		Rotation:        r.Rotation,
		DeviceID:        r.DeviceID,
		ExpectedText:    r.ExpectedText,
		IsDeviceBarcode: r.IsDeviceBarcode,
		ColorConfig:     toColorConfigOut(r.ColorConfig),
	}
}
