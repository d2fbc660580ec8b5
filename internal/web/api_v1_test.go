package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rook-computer/rainmaker/internal/config"
	"github.com/rook-computer/rainmaker/internal/state"
)

type fakeFrames struct{ err error }

func (f fakeFrames) EncodePNG(w io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := w.Write([]byte("\x89PNG fake"))
	return err
}

type fakePause struct{ paused bool }

func (p *fakePause) SetPaused(v bool) { p.paused = v }
func (p *fakePause) Paused() bool     { return p.paused }

func newTestMux(t *testing.T, deps APIV1Deps) *http.ServeMux {
	t.Helper()
	return NewDefaultMux("", deps)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	store := state.NewStore()
	store.SetPhase(state.RUNNING)
	store.UpdateRain(func(r *state.RainStats) { r.Cycle = 42; r.Columns = 97 })
	mux := newTestMux(t, APIV1Deps{State: store})

	rec := do(t, mux, http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Phase string `json:"phase"`
		Rain  struct {
			Cycle   uint64 `json:"cycle"`
			Columns int    `json:"columns"`
		} `json:"rain"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Phase != "running" || got.Rain.Cycle != 42 || got.Rain.Columns != 97 {
		t.Errorf("status body = %+v", got)
	}

	if rec := do(t, mux, http.MethodPost, "/api/v1/status", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d", rec.Code)
	}
}

func TestConfig(t *testing.T) {
	mux := newTestMux(t, APIV1Deps{Config: config.Default})
	rec := do(t, mux, http.MethodGet, "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Color       string   `json:"color"`
		ColumnWidth int      `json:"columnWidth"`
		IntervalMs  int64    `json:"intervalMs"`
		Charsets    []string `json:"charsets"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Color != "#00ff00" || got.ColumnWidth != 20 || got.IntervalMs != 50 || len(got.Charsets) == 0 {
		t.Errorf("config body = %+v", got)
	}

	if rec := do(t, newTestMux(t, APIV1Deps{}), http.MethodGet, "/api/v1/config", ""); rec.Code != http.StatusNotImplemented {
		t.Errorf("missing config = %d", rec.Code)
	}
}

func TestFrame(t *testing.T) {
	tests := []struct {
		name     string
		deps     APIV1Deps
		wantCode int
	}{
		{"ok", APIV1Deps{Frames: fakeFrames{}}, http.StatusOK},
		{"encode error", APIV1Deps{Frames: fakeFrames{err: errors.New("boom")}}, http.StatusInternalServerError},
		{"not configured", APIV1Deps{}, http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestMux(t, tt.deps), http.MethodGet, "/api/v1/frame.png", "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusOK && rec.Header().Get("Content-Type") != "image/png" {
				t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestQR(t *testing.T) {
	store := state.NewStore()
	mux := newTestMux(t, APIV1Deps{State: store})
	if rec := do(t, mux, http.MethodGet, "/api/v1/qr.png", ""); rec.Code != http.StatusNotFound {
		t.Errorf("qr without url = %d", rec.Code)
	}
	store.UpdateNetwork(state.NetworkInfo{URL: "http://127.0.0.1:55123/"})
	rec := do(t, mux, http.MethodGet, "/api/v1/qr.png", "")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Errorf("qr = %d, %d bytes", rec.Code, rec.Body.Len())
	}
}

func TestPause(t *testing.T) {
	pause := &fakePause{}
	mux := newTestMux(t, APIV1Deps{Pause: pause})

	tests := []struct {
		method     string
		body       string
		wantCode   int
		wantPaused bool
	}{
		{http.MethodGet, "", http.StatusOK, false},
		{http.MethodPost, "", http.StatusOK, true},
		{http.MethodPost, "", http.StatusOK, false},
		{http.MethodPost, `{"paused":true}`, http.StatusOK, true},
		{http.MethodPost, `{"paused":true}`, http.StatusOK, true},
		{http.MethodPost, `{not json`, http.StatusBadRequest, true},
		{http.MethodDelete, "", http.StatusMethodNotAllowed, true},
	}
	for i, tt := range tests {
		rec := do(t, mux, tt.method, "/api/v1/pause", tt.body)
		if rec.Code != tt.wantCode {
			t.Fatalf("step %d: status = %d, want %d", i, rec.Code, tt.wantCode)
		}
		if pause.paused != tt.wantPaused {
			t.Fatalf("step %d: paused = %v, want %v", i, pause.paused, tt.wantPaused)
		}
	}
}

func TestEmbeddedPreviewPage(t *testing.T) {
	rec := do(t, newTestMux(t, APIV1Deps{}), http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api/v1/frame.png") {
		t.Errorf("index = %d", rec.Code)
	}
}

func TestStaticDirOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("custom page"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec := do(t, NewDefaultMux(dir, APIV1Deps{}), http.MethodGet, "/", "")
	if !strings.Contains(rec.Body.String(), "custom page") {
		t.Errorf("static dir not served: %q", rec.Body.String())
	}
	rec = do(t, NewDefaultMux(filepath.Join(dir, "missing"), APIV1Deps{}), http.MethodGet, "/", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing static dir = %d", rec.Code)
	}
}

func TestDevCORS(t *testing.T) {
	h := WithDevCORS(NewDefaultMux("", APIV1Deps{}))
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Errorf("cross-origin GET = %d %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("same-origin request got CORS headers")
	}
}

func TestHTTPServerRandomPort(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := state.NewStore()
	srv := NewHTTPServer(ListenRandom)
	srv.Deps = APIV1Deps{State: store}
	srv.Routes = func(mux *http.ServeMux) {
		mux.HandleFunc("/extra", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	}
	if err := srv.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer srv.Stop()

	port := srv.Port()
	if port < RandomPortMin || port > RandomPortMax {
		t.Fatalf("port %d outside the random range", port)
	}
	res, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/status", port))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d", res.StatusCode)
	}
	res, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/extra", port))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusTeapot {
		t.Errorf("extra route = %d", res.StatusCode)
	}

	if err := srv.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := srv.Start(ctx); err == nil {
		t.Error("restart after Stop should fail")
	}
}

func TestServerConfigFromEnv(t *testing.T) {
	t.Setenv(EnvListenAddr, "")
	t.Setenv(EnvDevMode, "")
	cfg, err := DefaultServerConfigFromEnv(":8080")
	if err != nil || cfg.ListenAddr != ":8080" || cfg.DevMode {
		t.Fatalf("defaults = %+v, %v", cfg, err)
	}

	t.Setenv(EnvListenAddr, ListenRandom)
	t.Setenv(EnvDevMode, "true")
	cfg, err = DefaultServerConfigFromEnv(":8080")
	if err != nil || cfg.ListenAddr != ListenRandom || !cfg.DevMode {
		t.Fatalf("env = %+v, %v", cfg, err)
	}

	t.Setenv(EnvDevMode, "sometimes")
	if _, err := DefaultServerConfigFromEnv(":8080"); err == nil {
		t.Error("invalid bool accepted")
	}
}
