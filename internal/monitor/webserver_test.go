package monitor

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/drive-visualizer/internal/ingest"
	"github.com/banshee-data/drive-visualizer/internal/monitoring"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
	"github.com/banshee-data/drive-visualizer/internal/stream"
	"github.com/banshee-data/drive-visualizer/internal/timeutil"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

func init() {
	monitoring.SetLogger(nil)
}

type fakeHub struct{ stats stream.HubStats }

func (f fakeHub) Stats() stream.HubStats { return f.stats }

type fakeDispatcher struct{ stats ingest.DispatcherStats }

func (f fakeDispatcher) Stats() ingest.DispatcherStats { return f.stats }

// localHostRequest passes tsweb's loopback check on debug routes.
func localHostRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func drivenAggregator(t *testing.T) *visualizer.Aggregator {
	t.Helper()
	agg := visualizer.New(visualizer.Config{}, visualizer.Outputs{})
	for i := 0; i < 5; i++ {
		agg.OnPose(msgs.VehicleState{Time: float64(i), X: 5 + float64(i), Y: 5, Vx: 2})
	}
	agg.OnGoal(msgs.GoalPoint{X: 20, Y: 5})
	agg.Flush()
	return agg
}

func newTestServer(t *testing.T, assetFolder string) (*WebServer, *http.ServeMux, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	ws := NewWebServer(Options{
		State:       drivenAggregator(t),
		Hub:         fakeHub{stats: stream.HubStats{FrameCount: 42, ClientCount: 1, Running: true}},
		Dispatcher:  fakeDispatcher{stats: ingest.DispatcherStats{Received: 7}},
		AssetFolder: assetFolder,
		Clock:       clock,
	})
	mux := http.NewServeMux()
	ws.AttachRoutes(mux)
	return ws, mux, clock
}

func TestStatus(t *testing.T) {
	ws, mux, _ := newTestServer(t, "")

	st := ws.Status()
	assert.Equal(t, "pose_received", st.Phase)
	require.NotNil(t, st.Offset)
	assert.Equal(t, [2]float64{5, 5}, *st.Offset)
	require.NotNil(t, st.Latest)
	assert.Equal(t, 9.0, st.Latest.X)
	assert.Equal(t, 5, st.HistoryLen)
	assert.Equal(t, uint64(1), st.Flushes)
	assert.Len(t, st.Channels, len(visualizer.Channels()))
	assert.Equal(t, uint64(5), st.Channels["driven_path"].Updates)
	assert.Positive(t, st.Channels["goal"].Markers)
	require.NotNil(t, st.Hub)
	assert.Equal(t, uint64(42), st.Hub.FrameCount)
	require.NotNil(t, st.Ingest)
	assert.Equal(t, uint64(7), st.Ingest.Received)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/visualizer", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, st.Phase, got.Phase)
	assert.Equal(t, st.Channels, got.Channels)
	assert.Equal(t, "2026-03-04T05:06:07Z", got.GeneratedAt.Format(time.RFC3339))
}

func TestStatusBeforeFirstPose(t *testing.T) {
	ws := NewWebServer(Options{State: visualizer.New(visualizer.Config{}, visualizer.Outputs{})})
	st := ws.Status()
	if st.Phase != "no_pose" {
		t.Errorf("Phase = %q, want no_pose", st.Phase)
	}
	if st.Offset != nil || st.Latest != nil || st.Hub != nil || st.Ingest != nil {
		t.Errorf("Expected optional fields unset, got %+v", st)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	_, mux, _ := newTestServer(t, "")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodPost, "/debug/visualizer", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("got status %d, want 405", w.Code)
	}
}

func TestDrivenPathPage(t *testing.T) {
	_, mux, _ := newTestServer(t, "")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/driven-path", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Driven Path")
	assert.Contains(t, w.Body.String(), "driven_path")
}

func TestMarkersPNG(t *testing.T) {
	_, mux, _ := newTestServer(t, "")

	for _, path := range []string{"/debug/markers.png", "/debug/markers.png?channel=visualization_goal"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, localHostRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		assert.NoError(t, err, path)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/markers.png?channel=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderMarkersPNGEmpty(t *testing.T) {
	snap := visualizer.New(visualizer.Config{}, visualizer.Outputs{}).Snapshot()
	out, err := RenderMarkersPNG(snap, nil)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}

func TestSaveSnapshot(t *testing.T) {
	dir := t.TempDir()
	_, mux, _ := newTestServer(t, dir)

	form := url.Values{"label": {"../../etc/lap 3"}}
	req := localHostRequest(http.MethodPost, "/debug/snapshot", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	want := filepath.Join(dir, SnapshotDir, "etc_lap_3-20260304T050607.000.png")
	assert.Equal(t, want, body["path"])

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(data))
	assert.NoError(t, err)
}

func TestSaveSnapshotDefaultLabel(t *testing.T) {
	dir := t.TempDir()
	ws, _, clock := newTestServer(t, dir)
	clock.Advance(1500 * time.Millisecond)

	path, err := ws.SaveSnapshot("")
	require.NoError(t, err)
	assert.Equal(t, "markers-20260304T050608.500.png", filepath.Base(path))
}

func TestSaveSnapshotRequiresAssetFolder(t *testing.T) {
	ws, mux, _ := newTestServer(t, "")

	_, err := ws.SaveSnapshot("x")
	assert.Error(t, err)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodPost, "/debug/snapshot", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/snapshot", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
