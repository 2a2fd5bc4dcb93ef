package server_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/scadactl/internal/advisor"
	"codeberg.org/mutker/scadactl/internal/app"
	"codeberg.org/mutker/scadactl/internal/catalog"
	"codeberg.org/mutker/scadactl/internal/collector"
	"codeberg.org/mutker/scadactl/internal/config"
	"codeberg.org/mutker/scadactl/internal/scada"
	"codeberg.org/mutker/scadactl/internal/server"
)

// fakeScada emulates the SCADA-LTS REST surface: auth, getValue and
// setValue. Writes are recorded for assertions.
type fakeScada struct {
	values map[string]float64
	writes []string
}

func (f *fakeScada) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/auth/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	mux.HandleFunc("/api/point_value/getValue/", func(w http.ResponseWriter, r *http.Request) {
		xid := strings.TrimPrefix(r.URL.Path, "/api/point_value/getValue/")
		value, ok := f.values[xid]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `{"value": %g, "ts": %d}`, value, time.Now().UnixMilli())
	})

	mux.HandleFunc("/api/point_value/setValue/", func(w http.ResponseWriter, r *http.Request) {
		f.writes = append(f.writes, strings.TrimPrefix(r.URL.Path, "/api/point_value/setValue/"))
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	return mux
}

func floatPtr(v float64) *float64 { return &v }

// newTestApp wires a full component graph against the fake endpoint.
// The collector is not started; tests that need history start it.
func newTestApp(t *testing.T) (*app.App, *fakeScada) {
	t.Helper()

	fake := &fakeScada{values: map[string]float64{
		"DP_1": 1.5,
		"DP_2": 47.0,
	}}
	backend := httptest.NewServer(fake.handler())
	t.Cleanup(backend.Close)

	store, err := catalog.NewRepository(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Seed([]catalog.Point{
		{Name: "pt1", XID: "DP_1", FriendlyName: "Pressure 1", Unit: "bar"},
		{Name: "freq1", XID: "DP_2", FriendlyName: "Drive frequency", Unit: "Hz",
			MinVal: floatPtr(0), MaxVal: floatPtr(60)},
	}))

	cat, err := catalog.NewCatalog(store)
	require.NoError(t, err)

	client, err := scada.NewClient(scada.Config{
		BaseURL:  backend.URL,
		Username: "admin",
		Password: "admin",
		Timeout:  2 * time.Second,
	}, cat)
	require.NoError(t, err)

	coll, err := collector.New(collector.Config{SampleRateHz: 20, BufferSeconds: 2}, client, cat)
	require.NoError(t, err)
	t.Cleanup(coll.Stop)

	return &app.App{
		Config: &config.Config{
			Scada: config.ScadaConfig{BaseURL: backend.URL},
		},
		Client:    client,
		Catalog:   cat,
		Collector: coll,
		Advisor:   advisor.NewMock(coll),
	}, fake
}

func newTestServer(t *testing.T) (*server.Server, *app.App, *fakeScada) {
	t.Helper()

	a, fake := newTestApp(t)

	return server.New(a, ":0"), a, fake
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}

	return rec, payload
}

func waitForData(t *testing.T, a *app.App) {
	t.Helper()

	a.Collector.Start()
	require.Eventually(t, func() bool {
		return a.Collector.BufferSize() >= 3
	}, 10*time.Second, 20*time.Millisecond)
}

func TestRootBanner(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, payload := doJSON(t, s.Handler(), http.MethodGet, "/", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, payload["message"], "scadactl")
}

func TestStatusEndpoint(t *testing.T) {
	s, a, _ := newTestServer(t)
	waitForData(t, a)

	rec, payload := doJSON(t, s.Handler(), http.MethodGet, "/api/status", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["scada_connected"])

	coll, ok := payload["collector"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, coll["running"])
}

func TestLatestBeforeAnyData(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/api/data/latest", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestAndHistory(t *testing.T) {
	s, a, _ := newTestServer(t)
	waitForData(t, a)

	rec, payload := doJSON(t, s.Handler(), http.MethodGet, "/api/data/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	values, ok := payload["values"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1.5, values["pt1"])
	assert.Equal(t, 47.0, values["freq1"])

	rec, payload = doJSON(t, s.Handler(), http.MethodGet, "/api/data/history?last_n=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, payload["count"])

	rec, _ = doJSON(t, s.Handler(), http.MethodGet, "/api/data/history?last_n=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatisticsEndpoint(t *testing.T) {
	s, a, _ := newTestServer(t)
	waitForData(t, a)

	rec, payload := doJSON(t, s.Handler(), http.MethodGet, "/api/data/statistics?point=pt1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pt1", payload["point"])
	assert.Equal(t, 1.5, payload["mean"])

	rec, _ = doJSON(t, s.Handler(), http.MethodGet, "/api/data/statistics?point=bogus", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, payload = doJSON(t, s.Handler(), http.MethodGet, "/api/data/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, payload, "pt1")
	assert.Contains(t, payload, "freq1")
}

func TestExportEndpoint(t *testing.T) {
	s, a, _ := newTestServer(t)
	waitForData(t, a)

	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/api/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, "timestamp,freq1,pt1", strings.TrimSpace(lines[0]))
	assert.Greater(t, len(lines), 1)

	rec, _ = doJSON(t, s.Handler(), http.MethodGet, "/api/export?format=xlsx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatSurfacesToolRequest(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, payload := doJSON(t, s.Handler(), http.MethodPost, "/api/chat",
		map[string]string{"message": "set freq1 to 45"})
	require.Equal(t, http.StatusOK, rec.Code)

	toolReq, ok := payload["tool_request"].(map[string]any)
	require.True(t, ok, "write intent must surface a tool_request")
	assert.Equal(t, "set_point", toolReq["tool"])

	args, ok := toolReq["args"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "freq1", args["tag"])
	assert.Equal(t, 45.0, args["value"])
}

func TestChatPlainText(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, payload := doJSON(t, s.Handler(), http.MethodPost, "/api/chat",
		map[string]string{"message": "how is the pressure?"})
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Nil(t, payload["tool_request"])
	assert.NotEmpty(t, payload["response"])
}

func TestApproveActionWritesThroughSafetyCheck(t *testing.T) {
	s, _, fake := newTestServer(t)

	rec, payload := doJSON(t, s.Handler(), http.MethodPost, "/api/action/approve",
		map[string]any{"tag": "freq1", "value": 45.0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", payload["status"])

	require.Len(t, fake.writes, 1)
	assert.Contains(t, fake.writes[0], "DP_2")
}

func TestApproveActionBlockedOutOfRange(t *testing.T) {
	s, _, fake := newTestServer(t)

	rec, payload := doJSON(t, s.Handler(), http.MethodPost, "/api/action/approve",
		map[string]any{"tag": "freq1", "value": 99.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, payload["detail"], "safety")
	assert.Empty(t, fake.writes)
}

func TestApproveActionUnknownPointBlocked(t *testing.T) {
	s, _, fake := newTestServer(t)

	rec, _ := doJSON(t, s.Handler(), http.MethodPost, "/api/action/approve",
		map[string]any{"tag": "mystery", "value": 1.0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, fake.writes)
}

func TestPointsCRUD(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Handler()

	rec, payload := doJSON(t, h, http.MethodGet, "/api/points", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["points"], 2)

	rec, _ = doJSON(t, h, http.MethodPost, "/api/points",
		catalog.Point{Name: "ft1", XID: "DP_3", Unit: "m3/h"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/api/points", catalog.Point{Name: "nameless"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPut, "/api/points/ft1",
		catalog.Point{XID: "DP_3", Unit: "L/s"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodPost, "/api/points/reorder",
		map[string][]string{"names": {"ft1", "pt1"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload = doJSON(t, h, http.MethodGet, "/api/points", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	points, ok := payload["points"].([]any)
	require.True(t, ok)
	first, ok := points[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ft1", first["name"])

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/points/ft1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, h, http.MethodDelete, "/api/points/ft1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpointExposed(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec, _ := doJSON(t, s.Handler(), http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestStreamDeliversSnapshots(t *testing.T) {
	s, a, _ := newTestServer(t)
	waitForData(t, a)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/data/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	scanner := bufio.NewScanner(resp.Body)
	var event string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data:") {
			event = line
			break
		}
	}

	require.NotEmpty(t, event, "expected at least one SSE data event")
	assert.Contains(t, event, "values")
	cancel()
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	s, _, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
