package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rook-computer/rainmaker/internal/column"
	"github.com/rook-computer/rainmaker/internal/matrix"
)

// SimFaults slows down one column so the frame barrier can be watched holding every
// other column back. SlowColumn < 0 disables the fault.
type SimFaults struct {
	SlowColumn int `json:"slowColumn"`
	DelayMs    int `json:"delayMs"`
}

func noFaults() SimFaults { return SimFaults{SlowColumn: -1} }

type SimControl struct {
	mu     sync.RWMutex
	faults SimFaults
}

func NewSimControl() *SimControl {
	return &SimControl{faults: noFaults()}
}

func (c *SimControl) Faults() SimFaults {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.faults
}

func (c *SimControl) SetFaults(v SimFaults) {
	c.mu.Lock()
	c.faults = v
	c.mu.Unlock()
}

func (c *SimControl) Reset() { c.SetFaults(noFaults()) }

func (c *SimControl) delayFor(index int) time.Duration {
	f := c.Faults()
	if f.SlowColumn != index || f.DelayMs <= 0 {
		return 0
	}
	return time.Duration(f.DelayMs) * time.Millisecond
}

// Worker wraps base so that replies of the faulty column are held back before they
// reach the coordinator.
func (c *SimControl) Worker(base matrix.WorkerFunc) matrix.WorkerFunc {
	return func(ctx context.Context, init column.Init, requests <-chan column.Update, replies chan<- column.Reply) {
		inner := make(chan column.Reply)
		go base(ctx, init, requests, inner)
		for {
			var reply column.Reply
			select {
			case <-ctx.Done():
				return
			case reply = <-inner:
			}
			if d := c.delayFor(init.Index); d > 0 {
				timer := time.NewTimer(d)
				select {
				case <-ctx.Done():
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			select {
			case <-ctx.Done():
				return
			case replies <- reply:
			}
		}
	}
}

func registerSimEndpoints(mux *http.ServeMux, control *SimControl) {
	mux.HandleFunc("/sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		control.Reset()
		writeSimJSON(w, http.StatusOK, control.Faults())
	})

	mux.HandleFunc("/sim/faults", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeSimJSON(w, http.StatusOK, control.Faults())
			return
		case http.MethodPost:
			var patch struct {
				SlowColumn *int `json:"slowColumn"`
				DelayMs    *int `json:"delayMs"`
			}
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				writeSimError(w, http.StatusBadRequest, "invalid json")
				return
			}
			current := control.Faults()
			if patch.SlowColumn != nil {
				current.SlowColumn = *patch.SlowColumn
			}
			if patch.DelayMs != nil {
				if *patch.DelayMs < 0 {
					writeSimError(w, http.StatusBadRequest, "delayMs must not be negative")
					return
				}
				current.DelayMs = *patch.DelayMs
			}
			control.SetFaults(current)
			writeSimJSON(w, http.StatusOK, current)
			return
		default:
			writeSimError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	})
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": message})
}
