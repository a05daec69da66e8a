package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/roi"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := sharedfs.New(t.TempDir())
	require.NoError(t, root.EnsureDirs())
	s, err := NewStore(root, 8)
	require.NoError(t, err)
	return s
}

func TestCreateAndListProducts(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateProduct("widget", "a widget"))

	names, err := s.ListProducts()
	require.NoError(t, err)
	assert.Equal(t, []string{"widget"}, names)

	err = s.CreateProduct("widget", "again")
	assert.Error(t, err)
}

func TestGetROIsEmptyProductIsValid(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateProduct("widget", ""))

	rois, err := s.GetROIs("widget")
	require.NoError(t, err)
	assert.Empty(t, rois)
}

func TestSaveAndGetROIsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateProduct("widget", ""))

	thr := 0.9
	in := []*roi.ROI{{
		ID: 1, Type: roi.TypeCompare,
		Coords:   roi.Coords{X1: 0, Y1: 0, X2: 10, Y2: 10},
		Focus:    305, Exposure: 1200,
		AIThreshold: &thr, DetectionMethod: "opencv",
		DeviceID: 1, IsDeviceBarcode: true,
	}}
	require.NoError(t, s.SaveROIs("widget", in))

	out, err := s.GetROIs("widget")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].ID)
	assert.Equal(t, roi.TypeCompare, out[0].Type)
}

func TestSaveROIsCollectsAllValidationErrors(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateProduct("widget", ""))

	bad := []*roi.ROI{
		{ID: -1, Type: 99, Coords: roi.Coords{X1: 5, Y1: 5, X2: 1, Y2: 1}, DeviceID: 9},
	}
	err := s.SaveROIs("widget", bad)
	require.Error(t, err)
}

func TestNextROIID(t *testing.T) {
	assert.Equal(t, 1, NextROIID(nil))
	assert.Equal(t, 4, NextROIID([]*roi.ROI{{ID: 3}, {ID: 1}}))
}
