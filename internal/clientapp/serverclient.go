// Package clientapp implements the client orchestrator (C7): it drives the
// camera controller (C9) through a product's ROI groups, writes captured
// frames to the shared mount, and talks to the server's inspection API.
package clientapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jnguyen/visual-aoi/internal/aoierr"
	"github.com/jnguyen/visual-aoi/internal/devices"
	"github.com/jnguyen/visual-aoi/internal/roi"
)

// ServerClient is the HTTP client side of the wire protocol in §6.2, built
// the same "http.Client with an explicit per-call timeout" shape the
// teacher's barcode-link adapter uses rather than a generated SDK.
type ServerClient struct {
	BaseURL        string
	MetaClient     *http.Client
	InspectClient  *http.Client
}

// NewServerClient creates a ServerClient against baseURL with the timeouts
// §5 mandates: 10s for metadata calls, 180s for inspect.
func NewServerClient(baseURL string, metaTimeout, inspectTimeout time.Duration) *ServerClient {
	return &ServerClient{
		BaseURL:       baseURL,
		MetaClient:    &http.Client{Timeout: metaTimeout},
		InspectClient: &http.Client{Timeout: inspectTimeout},
	}
}

func (c *ServerClient) do(ctx context.Context, client *http.Client, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return aoierr.Wrap(aoierr.Internal, "encode request", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return aoierr.Wrap(aoierr.Internal, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return aoierr.Wrap(aoierr.UpstreamUnavailable, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return aoierr.New(aoierr.UpstreamUnavailable, fmt.Sprintf("%s %s: status %d: %s", method, path, resp.StatusCode, string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return aoierr.Wrap(aoierr.Internal, "decode response", err)
	}
	return nil
}

// GetROIs fetches and normalizes a product's ROI config (§4.8).
func (c *ServerClient) GetROIs(ctx context.Context, product string) ([]*roi.ROI, error) {
	var resp struct {
		ROIs []roi.ServerROI `json:"rois"`
	}
	if err := c.do(ctx, c.MetaClient, http.MethodGet, "/api/v1/products/"+product+"/rois", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*roi.ROI, 0, len(resp.ROIs))
	for _, sr := range resp.ROIs {
		b, err := json.Marshal(sr)
		if err != nil {
			return nil, aoierr.Wrap(aoierr.Internal, "re-encode server roi", err)
		}
		r, err := roi.Normalize(b)
		if err != nil {
			return nil, aoierr.Wrap(aoierr.Internal, "normalize server roi", err)
		}
		out = append(out, r)
	}
	return out, nil
}

type createSessionRequest struct {
	ProductName string                 `json:"product_name"`
	ClientInfo  map[string]interface{} `json:"client_info"`
}

// CreateSessionResult mirrors §6.2's create-session success payload.
type CreateSessionResult struct {
	SessionID          string `json:"session_id"`
	ROIGroupsCount     int    `json:"roi_groups_count"`
	DevicesNeedBarcode []int  `json:"devices_need_barcode"`
}

// CreateSession opens an inspection transaction for product (§4.6).
func (c *ServerClient) CreateSession(ctx context.Context, product string, clientInfo map[string]interface{}) (*CreateSessionResult, error) {
	var out CreateSessionResult
	req := createSessionRequest{ProductName: product, ClientInfo: clientInfo}
	if err := c.do(ctx, c.MetaClient, http.MethodPost, "/api/v1/sessions", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CloseSession closes a previously created session.
func (c *ServerClient) CloseSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, c.MetaClient, http.MethodPost, "/api/v1/sessions/"+sessionID+"/close", nil, nil)
}

// ReportCameraStatus tells the server the client's last-observed camera
// readiness, satisfying the session-creation invariant from the server side
// of the process boundary (§3.5).
func (c *ServerClient) ReportCameraStatus(ctx context.Context, ready bool) error {
	return c.do(ctx, c.MetaClient, http.MethodPut, "/api/v1/camera/status", map[string]bool{"ready": ready}, nil)
}

// CapturedImage is one group's capture entry in the inspect request (§6.2).
type CapturedImage struct {
	Focus     int    `json:"focus"`
	Exposure  int    `json:"exposure"`
	ImagePath string `json:"image_path"`
	Width     int    `json:"w"`
	Height    int    `json:"h"`
}

type inspectRequest struct {
	SessionID      string                   `json:"session_id"`
	Product        string                   `json:"product"`
	CapturedImages map[string]CapturedImage `json:"captured_images"`
	DeviceBarcodes *[]devices.Barcode       `json:"device_barcodes,omitempty"`
}

// InspectResult mirrors §6.2's inspect success payload.
type InspectResult struct {
	DeviceSummaries []devices.DeviceSummary `json:"device_summaries"`
	Summary         devices.Summary         `json:"summary"`
	CaptureTime     float64                 `json:"capture_time"`
	ProcessingTime  float64                 `json:"processing_time"`
	TotalTime       float64                 `json:"total_time"`
	Timestamp       string                  `json:"timestamp"`
}

// Inspect submits a capture cycle's images for analysis (§4.7 step 5).
// deviceBarcodes is passed through verbatim, preserving the tri-state
// contract (§7): pass nil for "absent", a non-nil empty slice for
// "present-and-empty".
func (c *ServerClient) Inspect(ctx context.Context, sessionID, product string, captured map[string]CapturedImage, deviceBarcodes *[]devices.Barcode) (*InspectResult, error) {
	var out InspectResult
	req := inspectRequest{SessionID: sessionID, Product: product, CapturedImages: captured, DeviceBarcodes: deviceBarcodes}
	if err := c.do(ctx, c.InspectClient, http.MethodPost, "/api/v1/inspect", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
