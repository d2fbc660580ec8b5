package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rook-computer/rainmaker/internal/config"
	"github.com/rook-computer/rainmaker/internal/render"
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type pauseRequest struct {
	Paused *bool `json:"paused"`
}

type pauseResponse struct {
	Paused bool `json:"paused"`
}

type configResponse struct {
	config.Config
	IntervalMs int64    `json:"intervalMs"`
	Charsets   []string `json:"charsets"`
}

const qrSizePx = 256

func apiV1Router(deps APIV1Deps) http.Handler {
	deps = deps.withDefaults()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { handleStatus(w, r, deps) })
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) { handleConfig(w, r, deps) })
	mux.HandleFunc("/frame.png", func(w http.ResponseWriter, r *http.Request) { handleFrame(w, r, deps) })
	mux.HandleFunc("/qr.png", func(w http.ResponseWriter, r *http.Request) { handleQR(w, r, deps) })
	mux.HandleFunc("/pause", func(w http.ResponseWriter, r *http.Request) { handlePause(w, r, deps) })
	return mux
}

func handleStatus(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, deps.State.Snapshot())
}

func handleConfig(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.Config == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "config not available")
		return
	}
	cfg := deps.Config()
	writeJSON(w, http.StatusOK, configResponse{
		Config:     cfg,
		IntervalMs: cfg.Interval.Milliseconds(),
		Charsets:   config.Charsets(),
	})
}

func handleFrame(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.Frames == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "frame capture not configured")
		return
	}
	// Encode fully before writing so a failure can still become a JSON error.
	var buf bytes.Buffer
	if err := deps.Frames.EncodePNG(&buf); err != nil {
		writeAPIError(w, http.StatusInternalServerError, "encode_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func handleQR(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	url := deps.State.Snapshot().Network.URL
	if url == "" {
		writeAPIError(w, http.StatusNotFound, "no_url", "preview url not known yet")
		return
	}
	data, err := render.GenerateQRCodePNG(url, qrSizePx)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, "qr_failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// handlePause reports the flag on GET. POST sets it from {"paused": bool}, or toggles it
// when the body has no paused field.
func handlePause(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if deps.Pause == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "pause not configured")
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, pauseResponse{Paused: deps.Pause.Paused()})
	case http.MethodPost:
		var req pauseRequest
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req)
		if err != nil && !errors.Is(err, io.EOF) {
			writeAPIError(w, http.StatusBadRequest, "bad_request", "invalid json body")
			return
		}
		paused := !deps.Pause.Paused()
		if req.Paused != nil {
			paused = *req.Paused
		}
		deps.Pause.SetPaused(paused)
		writeJSON(w, http.StatusOK, pauseResponse{Paused: paused})
	default:
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
