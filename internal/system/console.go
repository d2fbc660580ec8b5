// Package system holds the console and input plumbing of the framebuffer device.
package system

type logger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// HideCursor writes the ANSI escape to hide the cursor to the active VT.
func HideCursor() error { return writeVT("\x1b[?25l") }
func ShowCursor() error { return writeVT("\x1b[?25h") }

// Console switches the VT to graphics mode for the lifetime of the rain and back.
// Failures are logged, never fatal: the rain still runs on a console that keeps its
// cursor.
type Console struct {
	Logger logger
}

func (c Console) Enter() {
	c.log("KD_GRAPHICS", SetGraphicsMode())
	c.log("hide cursor", HideCursor())
}

func (c Console) Restore() {
	c.log("show cursor", ShowCursor())
	c.log("KD_TEXT", RestoreTextMode())
}

func (c Console) log(what string, err error) {
	if c.Logger == nil {
		return
	}
	if err != nil {
		c.Logger.Errorf("tty", "%s failed: %v", what, err)
		return
	}
	c.Logger.Infof("tty", "%s done", what)
}
