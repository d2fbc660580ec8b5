package web

import (
	"io"

	"github.com/rook-computer/rainmaker/internal/config"
	"github.com/rook-computer/rainmaker/internal/state"
)

// StateSource abstracts the snapshot store read by the status endpoint.
//
// The concrete implementation is typically *state.Store.
type StateSource interface {
	Snapshot() state.State
}

// FrameSource encodes the last presented frame.
type FrameSource interface {
	EncodePNG(w io.Writer) error
}

// PauseController toggles the rain.
type PauseController interface {
	SetPaused(paused bool)
	Paused() bool
}

type APIV1Deps struct {
	State  StateSource
	Frames FrameSource
	Pause  PauseController
	// Config returns the session config; nil hides the endpoint.
	Config func() config.Config
}

func (d APIV1Deps) withDefaults() APIV1Deps {
	out := d
	if out.State == nil {
		out.State = state.NewStore()
	}
	return out
}
