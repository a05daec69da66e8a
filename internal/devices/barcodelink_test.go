package devices_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnguyen/visual-aoi/internal/devices"
)

func TestHTTPLinkerStripsQuotesFromPlainTextResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"PLANT-001"`))
	}))
	t.Cleanup(srv.Close)

	l := devices.NewHTTPLinker(srv.URL)
	linked, ok := l.Lookup(context.Background(), "raw-scan")
	require.True(t, ok)
	assert.Equal(t, "PLANT-001", linked)
}

func TestHTTPLinkerTreatsCaseInsensitiveNullAsNoLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("NULL"))
	}))
	t.Cleanup(srv.Close)

	l := devices.NewHTTPLinker(srv.URL)
	_, ok := l.Lookup(context.Background(), "raw-scan")
	assert.False(t, ok)
}

func TestHTTPLinkerFallsBackOnNon200AndCallsOnFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	var fallbackCalled bool
	l := devices.NewHTTPLinker(srv.URL)
	l.OnFallback = func() { fallbackCalled = true }

	_, ok := l.Lookup(context.Background(), "raw-scan")
	assert.False(t, ok)
	assert.True(t, fallbackCalled)
}

func TestHTTPLinkerFallsBackWhenUnreachable(t *testing.T) {
	l := devices.NewHTTPLinker("http://127.0.0.1:1")
	_, ok := l.Lookup(context.Background(), "raw-scan")
	assert.False(t, ok)
}

func TestHTTPLinkerLookupIsNilSafe(t *testing.T) {
	var l *devices.HTTPLinker
	linked, ok := l.Lookup(context.Background(), "raw-scan")
	assert.False(t, ok)
	assert.Equal(t, "", linked)
}

func TestLookupOrRawFallsBackOnNoLinkConfigured(t *testing.T) {
	assert.Equal(t, "raw-scan", devices.LookupOrRaw(context.Background(), nil, "raw-scan"))
}

func TestLookupOrRawReturnsEmptyForEmptyRaw(t *testing.T) {
	assert.Equal(t, "", devices.LookupOrRaw(context.Background(), nil, ""))
}

func TestLookupOrRawUsesLinkedValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"PLANT-002"`))
	}))
	t.Cleanup(srv.Close)

	l := devices.NewHTTPLinker(srv.URL)
	assert.Equal(t, "PLANT-002", devices.LookupOrRaw(context.Background(), l, "raw-scan"))
}
