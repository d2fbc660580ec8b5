package web

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"path"
	"sync"
	"time"

	"github.com/rook-computer/rainmaker/internal/assets"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type HTTPServer struct {
	// Addr is a listen address, or ListenRandom.
	Addr string

	// StaticDir, when set to an existing directory, is served at "/".
	// The API remains available under /api/v1/.
	StaticDir string

	// DevMode wraps the handler with permissive CORS.
	DevMode bool

	Deps APIV1Deps
	// Routes, when set, registers extra handlers on the default mux before serving.
	Routes func(mux *http.ServeMux)

	Logger Logger

	mu     sync.Mutex
	srv    *http.Server
	ln     net.Listener
	closed bool
}

func NewHTTPServer(addr string) *HTTPServer {
	return &HTTPServer{Addr: addr}
}

func (s *HTTPServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("web server already stopped")
	}
	if s.srv != nil {
		return nil
	}

	addr := s.Addr
	if addr == "" {
		addr = ":80"
	}

	mux := NewDefaultMux(s.StaticDir, s.Deps)
	if s.Routes != nil {
		s.Routes(mux)
	}
	var handler http.Handler = mux
	if s.DevMode {
		handler = WithDevCORS(handler)
	}

	ln, err := listen(addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.srv = &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if s.Logger != nil {
		s.Logger.Infof("web", "listening on %s", ln.Addr())
	}

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	srv := s.srv
	go func() {
		err := srv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		if s.Logger != nil {
			s.Logger.Errorf("web", "serve error: %v", err)
		}
	}()

	return nil
}

// Port returns the bound TCP port, or 0 before Start.
func (s *HTTPServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return 0
	}
	if tcp, ok := s.ln.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

func (s *HTTPServer) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.srv
	ln := s.ln
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

const randomPortAttempts = 32

// listen binds addr. ListenRandom tries random ports in the reserved range.
func listen(addr string) (net.Listener, error) {
	if addr != ListenRandom {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("listen %s: %w", addr, err)
		}
		return ln, nil
	}

	var lastErr error
	for i := 0; i < randomPortAttempts; i++ {
		port := RandomPortMin + rand.IntN(RandomPortMax-RandomPortMin+1)
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no free port in %d-%d: %w", RandomPortMin, RandomPortMax, lastErr)
}

// StaticUIHandler serves dir when it is an existing directory, otherwise the embedded
// preview page. A configured but missing directory serves 404s.
func StaticUIHandler(dir string) http.Handler {
	if dir == "" {
		return cleanPaths(http.FileServer(http.FS(assets.WebUI)))
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return http.NotFoundHandler()
	}
	return cleanPaths(http.FileServer(http.Dir(dir)))
}

func cleanPaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.URL.Path = path.Clean("/" + r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
