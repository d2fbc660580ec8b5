//go:build linux

package system

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// WatchKeys reads Linux evdev devices under /dev/input/event* and calls the handler bound
// to every key that goes down, until ctx is done.
//
// It is best-effort: if no input devices are available, it logs and returns.
func WatchKeys(ctx context.Context, logger logger, handlers map[uint16]func()) {
	if len(handlers) == 0 {
		return
	}

	// input_event = timeval + u16 type + u16 code + s32 value.
	tvSize := binary.Size(unix.Timeval{})

	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil || len(paths) == 0 {
		if logger != nil {
			logger.Infof("input", "no evdev devices found, keyboard controls disabled")
		}
		return
	}

	// One goroutine per device funnels presses into a single dispatcher so handlers
	// never run concurrently.
	presses := make(chan uint16, 16)
	for _, path := range paths {
		go readDevice(ctx, path, tvSize, presses)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case code := <-presses:
				if fn, ok := handlers[code]; ok {
					if logger != nil {
						logger.Infof("input", "key %d pressed", code)
					}
					fn()
				}
			}
		}
	}()
}

func readDevice(ctx context.Context, path string, tvSize int, presses chan<- uint16) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), path)
	defer func() {
		_ = f.Close()
	}()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			// Device might have gone away.
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		for _, code := range keyPresses(buf[:n], tvSize) {
			select {
			case presses <- code:
			case <-ctx.Done():
				return
			}
		}
	}
}
