// Package monitor serves the visualizer's debug pages: a JSON status
// summary, a driven-path chart, and a PNG rendering of the current marker
// state that can also be saved into the asset folder.
package monitor

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"tailscale.com/tsweb"

	"github.com/banshee-data/drive-visualizer/internal/fsutil"
	"github.com/banshee-data/drive-visualizer/internal/httputil"
	"github.com/banshee-data/drive-visualizer/internal/ingest"
	"github.com/banshee-data/drive-visualizer/internal/monitoring"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
	"github.com/banshee-data/drive-visualizer/internal/security"
	"github.com/banshee-data/drive-visualizer/internal/stream"
	"github.com/banshee-data/drive-visualizer/internal/timeutil"
	"github.com/banshee-data/drive-visualizer/internal/version"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

var logf = monitoring.Prefixed("Monitor")

// SnapshotDir is the asset folder subdirectory that saved snapshots go to.
const SnapshotDir = "snapshots"

// StateSource is the aggregator view the debug pages read.
type StateSource interface {
	Snapshot() visualizer.Snapshot
}

// HubStatser reports stream hub counters.
type HubStatser interface {
	Stats() stream.HubStats
}

// DispatcherStatser reports ingest counters.
type DispatcherStatser interface {
	Stats() ingest.DispatcherStats
}

// Options wires a WebServer. Only State is required.
type Options struct {
	State      StateSource
	Hub        HubStatser
	Dispatcher DispatcherStatser

	// AssetFolder receives saved snapshots under SnapshotDir. Empty
	// disables saving.
	AssetFolder string

	FS    fsutil.FileSystem
	Clock timeutil.Clock
}

// WebServer renders the debug pages.
type WebServer struct {
	state       StateSource
	hub         HubStatser
	dispatcher  DispatcherStatser
	assetFolder string
	fsys        fsutil.FileSystem
	clock       timeutil.Clock
}

// NewWebServer returns a WebServer for opts.
func NewWebServer(opts Options) *WebServer {
	if opts.FS == nil {
		opts.FS = fsutil.OSFileSystem{}
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	return &WebServer{
		state:       opts.State,
		hub:         opts.Hub,
		dispatcher:  opts.Dispatcher,
		assetFolder: opts.AssetFolder,
		fsys:        opts.FS,
		clock:       opts.Clock,
	}
}

// AttachRoutes registers the pages under /debug/ on mux.
func (ws *WebServer) AttachRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.KV("Version", version.String())
	debug.HandleFunc("visualizer", "visualizer status (JSON)", ws.handleStatus)
	debug.HandleFunc("driven-path", "driven path chart", ws.handleDrivenPath)
	debug.HandleFunc("markers.png", "current markers as PNG; ?channel= filters", ws.handleMarkersPNG)
	debug.HandleSilentFunc("snapshot", ws.handleSaveSnapshot)
}

// ChannelStatus summarizes one channel.
type ChannelStatus struct {
	Markers int    `json:"markers"`
	Updates uint64 `json:"updates"`
}

// Status is the body of the status page.
type Status struct {
	Version     string                   `json:"version"`
	Phase       string                   `json:"phase"`
	Offset      *[2]float64              `json:"offset,omitempty"`
	Latest      *msgs.VehicleState       `json:"latest,omitempty"`
	HistoryLen  int                      `json:"history_len"`
	Flushes     uint64                   `json:"flushes"`
	Channels    map[string]ChannelStatus `json:"channels"`
	Hub         *stream.HubStats         `json:"hub,omitempty"`
	Ingest      *ingest.DispatcherStats  `json:"ingest,omitempty"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Status assembles the current status.
func (ws *WebServer) Status() Status {
	snap := ws.state.Snapshot()
	st := Status{
		Version:     version.String(),
		Phase:       snap.Phase.String(),
		HistoryLen:  len(snap.History),
		Flushes:     snap.Flushes,
		Channels:    make(map[string]ChannelStatus, len(snap.Channels)),
		GeneratedAt: ws.clock.Now().UTC(),
	}
	if snap.Phase == visualizer.PhasePoseReceived {
		st.Offset = &[2]float64{snap.Offset.X, snap.Offset.Y}
		latest := snap.Latest
		st.Latest = &latest
	}
	for ch, arr := range snap.Channels {
		st.Channels[ch.String()] = ChannelStatus{Markers: len(arr.Markers), Updates: snap.Updates[ch]}
	}
	if ws.hub != nil {
		hs := ws.hub.Stats()
		st.Hub = &hs
	}
	if ws.dispatcher != nil {
		ds := ws.dispatcher.Stats()
		st.Ingest = &ds
	}
	return st
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, ws.Status())
}

func (ws *WebServer) handleMarkersPNG(w http.ResponseWriter, r *http.Request) {
	channels, err := channelFilter(r.URL.Query().Get("channel"))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	png, err := RenderMarkersPNG(ws.state.Snapshot(), channels)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render plot: %v", err))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteBody(w, "image/png", png)
}

// SaveSnapshot renders the current markers and writes them to
// <asset folder>/snapshots/<label>-<timestamp>.png. It returns the path.
func (ws *WebServer) SaveSnapshot(label string) (string, error) {
	if ws.assetFolder == "" {
		return "", fmt.Errorf("no asset folder configured")
	}
	dir := filepath.Join(ws.assetFolder, SnapshotDir)
	if err := ws.fsys.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	if label == "" {
		label = "markers"
	}
	name := fmt.Sprintf("%s-%s.png", security.SanitizeFilename(label), ws.clock.Now().UTC().Format("20060102T150405.000"))
	path, err := security.ResolveWithin(dir, name)
	if err != nil {
		return "", err
	}
	png, err := RenderMarkersPNG(ws.state.Snapshot(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to render snapshot: %w", err)
	}
	if err := ws.fsys.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	logf("saved snapshot %s", path)
	return path, nil
}

func (ws *WebServer) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	if ws.assetFolder == "" {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "no asset folder configured")
		return
	}
	path, err := ws.SaveSnapshot(r.FormValue("label"))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"path": path})
}

func channelFilter(name string) ([]visualizer.Channel, error) {
	if name == "" {
		return nil, nil
	}
	ch, ok := visualizer.ParseChannel(name)
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", name)
	}
	return []visualizer.Channel{ch}, nil
}
