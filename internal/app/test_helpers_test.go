package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"rpgm-translator/internal/config"
	"rpgm-translator/internal/edit"
)

// fakeBackend mimics the translation service for a single job "abc".
type fakeBackend struct {
	t *testing.T

	mu            sync.Mutex
	statuses      []string
	polls         int
	translateCode int
	translateBody string
	dataCode      int
	dataBody      string
	editRef       string
	uploads       []string
	translates    []map[string]string
	edits         []json.RawMessage
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		t:             t,
		translateCode: http.StatusAccepted,
		translateBody: `{"status":"processing","message":"Translation has started."}`,
		dataCode:      http.StatusOK,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", fb.upload)
	mux.HandleFunc("/api/translate", fb.translate)
	mux.HandleFunc("/api/status/", fb.status)
	mux.HandleFunc("/api/translated_data/", fb.data)
	mux.HandleFunc("/api/edit/", fb.edit)
	mux.HandleFunc("/api/download/", fb.download)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) upload(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"No file part"}`, http.StatusBadRequest)
		return
	}
	_, _ = io.Copy(io.Discard, f)
	fb.mu.Lock()
	fb.uploads = append(fb.uploads, hdr.Filename)
	fb.mu.Unlock()
	_, _ = io.WriteString(w, `{"message":"File uploaded successfully","job_id":"abc"}`)
}

func (fb *fakeBackend) translate(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	fb.mu.Lock()
	fb.translates = append(fb.translates, in)
	code, body := fb.translateCode, fb.translateBody
	fb.mu.Unlock()
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func (fb *fakeBackend) status(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	i := fb.polls
	if i >= len(fb.statuses) {
		i = len(fb.statuses) - 1
	}
	fb.polls++
	body := `{"status":"not_found"}`
	if i >= 0 {
		body = fb.statuses[i]
	}
	fb.mu.Unlock()
	_, _ = io.WriteString(w, body)
}

func (fb *fakeBackend) data(w http.ResponseWriter, _ *http.Request) {
	fb.mu.Lock()
	code, body := fb.dataCode, fb.dataBody
	fb.mu.Unlock()
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func (fb *fakeBackend) edit(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Logs json.RawMessage `json:"logs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, `{"error":"bad json"}`, http.StatusBadRequest)
		return
	}
	fb.mu.Lock()
	fb.edits = append(fb.edits, in.Logs)
	n := len(fb.edits)
	ref := fb.editRef
	fb.mu.Unlock()
	if ref == "" {
		ref = fmt.Sprintf("/api/download/abc?rev=%d", n+1)
	}
	fmt.Fprintf(w, `{"message":"Translations updated successfully.","download_url":%q}`, ref)
}

func (fb *fakeBackend) download(w http.ResponseWriter, r *http.Request) {
	rev := r.URL.Query().Get("rev")
	if rev == "" {
		rev = "1"
	}
	w.Header().Set("Content-Disposition", `attachment; filename="translated_id.zip"`)
	_, _ = io.WriteString(w, "PK-rev"+rev)
}

func (fb *fakeBackend) pollCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.polls
}

// testOptions isolates config and output under temp dirs and points the
// client at srv.
func testOptions(t *testing.T, srv *httptest.Server) Options {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.BackendURLEnv, srv.URL)
	cfgPath := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("run:\n  poll_interval_ms: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return Options{ConfigPath: cfgPath, OutputDir: filepath.Join(home, "out")}
}

func writeGameFile(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "Map001.json")
	if err := os.WriteFile(p, []byte(`{"events":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func stubEditor(t *testing.T, fn func(ctx context.Context, s *edit.Session) (string, error)) {
	t.Helper()
	old := runEditor
	runEditor = fn
	t.Cleanup(func() { runEditor = old })
}

func readOutput(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	out := map[string]string{}
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatal(err)
		}
		out[e.Name()] = string(b)
	}
	return out
}

const (
	dialogCiao  = `{"type":"dialog","file":"Map001.json","path":"events[1].pages[0].list[2].parameters[0]","index":1,"total":2,"raw":"Ciao","translated":"Halo"}`
	dialogAddio = `{"type":"dialog","file":"Map001.json","path":"events[1].pages[0].list[3].parameters[0]","index":2,"total":2,"raw":"Addio","translated":"Selamat tinggal"}`
	anomalyLine = `{"type":"anomaly","path":"events[2].name","raw":"???"}`
)
