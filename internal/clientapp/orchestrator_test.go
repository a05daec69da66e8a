package clientapp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/camera"
	"github.com/jnguyen/visual-aoi/internal/clientapp"
	"github.com/jnguyen/visual-aoi/internal/devices"
	"github.com/jnguyen/visual-aoi/internal/roi"
	"github.com/jnguyen/visual-aoi/internal/sharedfs"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/products/widgetA/rois", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rois": []roi.ServerROI{
				{Idx: 1, Type: 2, Coords: [4]int{0, 0, 50, 50}, Focus: 300, Exposure: 1000, FeatureMethod: "opencv", DeviceLocation: 1, IsDeviceBarcode: true},
				{Idx: 2, Type: 2, Coords: [4]int{0, 0, 50, 50}, Focus: 310, Exposure: 1500, FeatureMethod: "opencv", DeviceLocation: 1, IsDeviceBarcode: true},
			},
		})
	})
	mux.HandleFunc("/api/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(clientapp.CreateSessionResult{SessionID: "sess-xyz", ROIGroupsCount: 2})
	})
	mux.HandleFunc("/api/v1/camera/status", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/inspect", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		images, _ := req["captured_images"].(map[string]interface{})
		assert.Len(t, images, 2)
		json.NewEncoder(w).Encode(clientapp.InspectResult{
			Summary: devices.Summary{OverallResult: "PASS", TotalDevices: 1, PassCount: 1},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunCycleCapturesEveryGroupAndInspects(t *testing.T) {
	srv := fakeServer(t)
	serverClient := clientapp.NewServerClient(srv.URL, 5*time.Second, 5*time.Second)

	root := sharedfs.New(t.TempDir())
	require.NoError(t, root.EnsureDirs())

	driver := camera.NewMockDriver(64, 48)
	ctrl := camera.NewController(driver, "cam0")

	orch := clientapp.NewOrchestrator(ctrl, root, serverClient, time.Millisecond)

	result, err := orch.RunCycle(context.Background(), "widgetA", nil)
	require.NoError(t, err)
	assert.Equal(t, "sess-xyz", result.SessionID)
	assert.Equal(t, "PASS", result.Inspect.Summary.OverallResult)

	capturesDir, err := root.SessionCapturesDir("sess-xyz")
	require.NoError(t, err)
	entries, err := os.ReadDir(capturesDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "group_300_1000.jpg", filepath.Base(entries[0].Name()))
}

func TestRunCycleRejectsProductWithNoROIs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/products/empty/rois", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"rois": []roi.ServerROI{}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	serverClient := clientapp.NewServerClient(srv.URL, 5*time.Second, 5*time.Second)
	root := sharedfs.New(t.TempDir())
	require.NoError(t, root.EnsureDirs())
	driver := camera.NewMockDriver(64, 48)
	ctrl := camera.NewController(driver, "cam0")
	orch := clientapp.NewOrchestrator(ctrl, root, serverClient, time.Millisecond)

	_, err := orch.RunCycle(context.Background(), "empty", nil)
	assert.Error(t, err)
}
