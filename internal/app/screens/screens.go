// Package screens holds the overlays drawn on top of the rain.
package screens

import (
	"context"
	"errors"

	"github.com/rook-computer/rainmaker/internal/render"
	"github.com/rook-computer/rainmaker/internal/state"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

// Stack draws its screens in order, so later screens end up on top.
type Stack []render.Screen

func (s Stack) Start(ctx context.Context) error {
	for i, screen := range s {
		if err := screen.Start(ctx); err != nil {
			for _, started := range s[:i] {
				_ = started.Stop()
			}
			return err
		}
	}
	return nil
}

func (s Stack) Stop() error {
	var errs []error
	for _, screen := range s {
		errs = append(errs, screen.Stop())
	}
	return errors.Join(errs...)
}

func (s Stack) Draw(r render.Drawer, st state.State) {
	for _, screen := range s {
		screen.Draw(r, st)
	}
}
