// Package sshview broadcasts the rain to SSH clients as ANSI truecolor text.
//
// The server is a render target like the framebuffer: the coordinator paints into a cell
// grid and Present hands a copy to every connected session. Slow sessions drop frames.
package sshview

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"net"
	"os"
	"sync"

	"github.com/gliderlabs/ssh"
	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/rainmaker/internal/palette"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

type frame struct {
	cells []cell
	cols  int
	rows  int
}

// Server is an SSH listener plus the cell grid it broadcasts.
type Server struct {
	Addr        string
	HostKeyPath string
	Logger      Logger
	// OnSessions is called with the session count whenever a client connects or leaves.
	OnSessions func(n int)

	width, height int
	cellW, cellH  int
	cols, rows    int
	background    palette.RGB
	backdrop      []palette.RGB
	cells         []cell

	srv *ssh.Server

	mu       sync.Mutex
	nextID   int
	sessions map[int]chan frame
}

// New sizes the grid for a width x height pixel canvas with cellW x cellH pixel cells.
func New(addr, hostKeyPath string, width, height, cellW, cellH int, background palette.RGB) *Server {
	s := &Server{
		Addr:        addr,
		HostKeyPath: hostKeyPath,
		Logger:      noopLogger{},
		width:       width,
		height:      height,
		cellW:       max(cellW, 1),
		cellH:       max(cellH, 1),
		background:  background,
		sessions:    make(map[int]chan frame),
	}
	s.cols = width / s.cellW
	s.rows = height / s.cellH
	s.cells = make([]cell, s.cols*s.rows)
	s.Clear()
	return s
}

// Start listens on Addr and serves sessions until Stop.
func (s *Server) Start(ctx context.Context) error {
	if s.Logger == nil {
		s.Logger = noopLogger{}
	}
	if err := ensureHostKey(s.HostKeyPath); err != nil {
		return fmt.Errorf("host key: %w", err)
	}

	s.srv = &ssh.Server{
		Addr:    s.Addr,
		Handler: s.handleSession,
	}
	if err := s.srv.SetOption(ssh.HostKeyFile(s.HostKeyPath)); err != nil {
		return fmt.Errorf("set host key: %w", err)
	}

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.Logger.Infof("ssh", "listening on %s", ln.Addr())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			s.Logger.Errorf("ssh", "serve error: %v", err)
		}
	}()
	return nil
}

func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

func (s *Server) Size() (int, int) { return s.width, s.height }

// SetBackdrop samples img down to one background color per cell.
func (s *Server) SetBackdrop(img image.Image) {
	if img == nil || s.cols == 0 || s.rows == 0 {
		s.backdrop = nil
		return
	}
	small := image.NewRGBA(image.Rect(0, 0, s.cols, s.rows))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	s.backdrop = make([]palette.RGB, s.cols*s.rows)
	for i := range s.backdrop {
		p := small.Pix[i*4 : i*4+3]
		s.backdrop[i] = palette.RGB{R: p[0], G: p[1], B: p[2]}
	}
}

func (s *Server) Clear() {
	for i := range s.cells {
		bg := s.background
		if s.backdrop != nil {
			bg = s.backdrop[i]
		}
		s.cells[i] = cell{ch: ' ', fg: bg, bg: bg}
	}
}

func (s *Server) DrawGlyph(text string, x, y int, c color.NRGBA) {
	cx, cy := x/s.cellW, y/s.cellH
	if x < 0 || y < 0 || cx >= s.cols || cy >= s.rows || text == "" || c.A == 0 {
		return
	}
	i := cy*s.cols + cx
	bg := s.cells[i].bg
	s.cells[i] = cell{
		ch: []rune(text)[0],
		fg: palette.Blend(bg, palette.RGB{R: c.R, G: c.G, B: c.B}, float64(c.A)/255),
		bg: bg,
	}
}

// Present hands a copy of the grid to every session without blocking.
func (s *Server) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		return nil
	}
	f := frame{cells: append([]cell(nil), s.cells...), cols: s.cols, rows: s.rows}
	for _, ch := range s.sessions {
		select {
		case ch <- f:
		default:
			// Drop frame for slow client
		}
	}
	return nil
}

// Sessions returns the number of connected clients.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) addSession() (int, chan frame) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	ch := make(chan frame, 2)
	s.sessions[id] = ch
	n := len(s.sessions)
	s.mu.Unlock()
	if s.OnSessions != nil {
		s.OnSessions(n)
	}
	return id, ch
}

func (s *Server) removeSession(id int) {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()
	if s.OnSessions != nil {
		s.OnSessions(n)
	}
}

func (s *Server) handleSession(sess ssh.Session) {
	// Require PTY
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintln(sess, "Error: PTY required. Use: ssh -t ...")
		return
	}

	id, frames := s.addSession()
	s.Logger.Infof("ssh", "session %d opened by %s from %s", id, sess.User(), sess.RemoteAddr())
	defer func() {
		s.removeSession(id)
		s.Logger.Infof("ssh", "session %d closed", id)
	}()

	var termMu sync.Mutex
	termW, termH := ptyReq.Window.Width, ptyReq.Window.Height

	io.WriteString(sess, enableAltScreen())
	io.WriteString(sess, hideCursor())
	io.WriteString(sess, clearScreen())
	defer func() {
		io.WriteString(sess, reset)
		io.WriteString(sess, showCursor())
		io.WriteString(sess, disableAltScreen())
	}()

	quitCh := make(chan struct{})
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := sess.Read(buf)
			if err != nil || wantsQuit(buf[:n]) {
				close(quitCh)
				return
			}
		}
	}()

	go func() {
		for win := range winCh {
			termMu.Lock()
			termW, termH = win.Width, win.Height
			termMu.Unlock()
			io.WriteString(sess, clearScreen())
		}
	}()

	for {
		select {
		case <-quitCh:
			return
		case <-sess.Context().Done():
			return
		case f := <-frames:
			termMu.Lock()
			w, h := termW, termH
			termMu.Unlock()
			if _, err := io.WriteString(sess, renderFrame(f.cells, f.cols, f.rows, w, h)); err != nil {
				return
			}
		}
	}
}

// wantsQuit reports whether the input contains q or Ctrl-C.
func wantsQuit(data []byte) bool {
	for _, b := range data {
		if b == 'q' || b == 'Q' || b == 3 {
			return true
		}
	}
	return false
}

// ensureHostKey generates an ed25519 host key at path unless one exists.
func ensureHostKey(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}
	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: keyBytes,
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return pem.Encode(f, pemBlock)
}
