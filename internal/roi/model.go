// Package roi holds the canonical Region-of-Interest model and the codec
// that translates between the legacy positional array format, the server's
// object vocabulary, and the client UI's object vocabulary.
package roi

import "fmt"

// Type selects the detector that processes an ROI.
type Type int

const (
	TypeBarcode Type = 1
	TypeCompare Type = 2
	TypeOCR     Type = 3
	TypeColor   Type = 4
)

func (t Type) String() string {
	switch t {
	case TypeBarcode:
		return "barcode"
	case TypeCompare:
		return "compare"
	case TypeOCR:
		return "ocr"
	case TypeColor:
		return "color"
	default:
		return "unknown"
	}
}

// typeNames maps the client's roi_type_name vocabulary to the numeric type.
var typeNames = map[string]Type{
	"barcode": TypeBarcode,
	"compare": TypeCompare,
	"ocr":     TypeOCR,
	"color":   TypeColor,
}

func typeFromName(name string) (Type, bool) {
	t, ok := typeNames[name]
	return t, ok
}

// Coords is a pixel rectangle within the captured frame.
type Coords struct {
	X1, Y1, X2, Y2 int
}

func (c Coords) Width() int  { return c.X2 - c.X1 }
func (c Coords) Height() int { return c.Y2 - c.Y1 }

func (c Coords) Valid() bool {
	return c.X1 < c.X2 && c.Y1 < c.Y2
}

// WithinFrame reports whether the rectangle lies inside a frame of the given
// dimensions.
func (c Coords) WithinFrame(width, height int) bool {
	return c.X1 >= 0 && c.Y1 >= 0 && c.X2 <= width && c.Y2 <= height
}

// ColorRange is one named range in the legacy color_ranges format.
type ColorRange struct {
	Name      string
	Lower     [3]int
	Upper     [3]int
	Threshold float64
}

// ColorConfig is the discriminated union backing a Color ROI: either an
// expected RGB color with a tolerance and minimum match percentage, or a
// legacy list of named ranges.
type ColorConfig struct {
	// Expected-color mode.
	ExpectedColor      []int
	ColorTolerance      int
	MinPixelPercentage  float64
	HasExpectedColor    bool

	// Legacy ranges mode.
	ColorRanges []ColorRange
}

// IsExpectedColorMode reports whether the expected-color variant is populated.
func (c *ColorConfig) IsExpectedColorMode() bool {
	return c != nil && c.HasExpectedColor
}

// IsRangesMode reports whether the legacy color_ranges variant is populated.
func (c *ColorConfig) IsRangesMode() bool {
	return c != nil && !c.HasExpectedColor && len(c.ColorRanges) > 0
}

// ROI is the canonical in-memory representation. Every accepted wire or file
// form normalizes to this; every emitted form is derived from this.
type ROI struct {
	ID              int
	Type            Type
	Coords          Coords
	Focus           int
	Exposure        int
	AIThreshold     *float64
	DetectionMethod string
	Rotation        int
	DeviceID        int
	ExpectedText    *string
	IsDeviceBarcode bool
	ColorConfig     *ColorConfig
}

// Defaults, restated from §4.1.
const (
	DefaultFocus           = 305
	DefaultExposure        = 1200
	DefaultDetectionMethod = "opencv"
	DefaultRotation        = 0
	DefaultDeviceID        = 1
	DefaultIsDeviceBarcode = true
)

// GroupKey is the "<focus>,<exposure>" string ROI groups are keyed by.
func (r ROI) GroupKey() string {
	return fmt.Sprintf("%d,%d", r.Focus, r.Exposure)
}
