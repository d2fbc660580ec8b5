package app

import "github.com/rook-computer/rainmaker/internal/state"

// SetPaused freezes or resumes the rain. The coordinator keeps its cadence while paused
// so resuming does not burst. Calls before Start are ignored.
func (app *App) SetPaused(paused bool) {
	coord := app.coord.Load()
	if coord == nil || coord.Paused() == paused {
		return
	}
	coord.SetPaused(paused)
	if paused {
		app.Store.SetPhase(state.PAUSED)
		app.Logger.Infof("app", "paused")
		return
	}
	app.Store.SetPhase(state.RUNNING)
	app.Logger.Infof("app", "resumed")
}

func (app *App) Paused() bool {
	coord := app.coord.Load()
	return coord != nil && coord.Paused()
}

func (app *App) TogglePause() {
	app.SetPaused(!app.Paused())
}
