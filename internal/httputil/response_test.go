package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/drive-visualizer/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, http.StatusNotFound, "no pose yet")

	if w.Code != http.StatusNotFound {
		t.Errorf("got status %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("got content type %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["error"] != "no pose yet" {
		t.Errorf("got error %q", body["error"])
	}
}

func TestWriteJSONOK(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONOK(w, struct {
		Flushes int `json:"flushes"`
	}{Flushes: 3})

	if w.Code != http.StatusOK {
		t.Errorf("got status %d, want 200", w.Code)
	}
	var body map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["flushes"] != 3 {
		t.Errorf("got flushes %d, want 3", body["flushes"])
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONOK(w, make(chan int))
	if w.Code != http.StatusOK {
		t.Errorf("status is written before encoding, got %d", w.Code)
	}
}

func TestWriteBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteBody(w, "image/png", []byte{0x89, 'P', 'N', 'G'})

	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("got content type %q", ct)
	}
	if w.Body.Len() != 4 {
		t.Errorf("got %d bytes, want 4", w.Body.Len())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed(w, http.MethodGet, http.MethodPost)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("got status %d, want 405", w.Code)
	}
	if got := w.Header().Values("Allow"); len(got) != 2 {
		t.Errorf("got Allow %v", got)
	}
}
