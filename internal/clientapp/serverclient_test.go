package clientapp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/clientapp"
	"github.com/jnguyen/visual-aoi/internal/devices"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

func newTestClient(t *testing.T, handler http.Handler) *clientapp.ServerClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return clientapp.NewServerClient(srv.URL, 5*time.Second, 5*time.Second)
}

func TestGetROIsNormalizesServerVocabulary(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/products/widgetA/rois", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rois": []roi.ServerROI{
				{Idx: 1, Type: 2, Coords: [4]int{0, 0, 100, 100}, Focus: 300, Exposure: 1200, FeatureMethod: "opencv", DeviceLocation: 1, IsDeviceBarcode: true},
			},
		})
	})
	c := newTestClient(t, mux)

	rois, err := c.GetROIs(t.Context(), "widgetA")
	require.NoError(t, err)
	require.Len(t, rois, 1)
	assert.Equal(t, 1, rois[0].ID)
	assert.Equal(t, roi.TypeCompare, rois[0].Type)
	assert.Equal(t, 300, rois[0].Focus)
}

func TestGetROIsPropagatesUpstreamError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/products/missing/rois", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})
	c := newTestClient(t, mux)

	_, err := c.GetROIs(t.Context(), "missing")
	require.Error(t, err)
}

func TestCreateSessionAndCloseSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "widgetA", req["product_name"])
		json.NewEncoder(w).Encode(clientapp.CreateSessionResult{
			SessionID: "sess-1", ROIGroupsCount: 2, DevicesNeedBarcode: []int{3},
		})
	})
	mux.HandleFunc("/api/v1/sessions/sess-1/close", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newTestClient(t, mux)

	result, err := c.CreateSession(t.Context(), "widgetA", map[string]interface{}{"orchestrator": "test"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", result.SessionID)
	assert.Equal(t, []int{3}, result.DevicesNeedBarcode)

	require.NoError(t, c.CloseSession(t.Context(), "sess-1"))
}

func TestReportCameraStatus(t *testing.T) {
	var gotReady bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/camera/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotReady = body["ready"]
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.ReportCameraStatus(t.Context(), true))
	assert.True(t, gotReady)
}

func TestInspectRoundTripsDeviceBarcodesTriState(t *testing.T) {
	var captured map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/inspect", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(clientapp.InspectResult{
			Summary: devices.Summary{OverallResult: "PASS", TotalDevices: 1, PassCount: 1},
		})
	})
	c := newTestClient(t, mux)

	barcodes := []devices.Barcode{{DeviceID: 1, Barcode: "ABC123"}}
	result, err := c.Inspect(t.Context(), "sess-1", "widgetA", map[string]clientapp.CapturedImage{
		"305,1200": {Focus: 305, Exposure: 1200, ImagePath: "/tmp/a.jpg", Width: 640, Height: 480},
	}, &barcodes)
	require.NoError(t, err)
	assert.Equal(t, "PASS", result.Summary.OverallResult)
	assert.NotNil(t, captured["device_barcodes"])
}
