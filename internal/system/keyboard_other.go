//go:build !linux

package system

import "context"

// WatchKeys is a no-op without evdev.
func WatchKeys(ctx context.Context, logger logger, handlers map[uint16]func()) {
	if logger != nil {
		logger.Infof("input", "keyboard controls need linux evdev")
	}
}
