package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rook-computer/rainmaker/internal/app"
	"github.com/rook-computer/rainmaker/internal/config"
	"github.com/rook-computer/rainmaker/internal/matrix"
	"github.com/rook-computer/rainmaker/internal/render"
	"github.com/rook-computer/rainmaker/internal/state"
	"github.com/rook-computer/rainmaker/internal/web"
)

func main() {
	defaults, err := config.FromEnv(config.Default())
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	serverDefaults, err := web.DefaultServerConfigFromEnv(web.ListenRandom)
	if err != nil {
		fmt.Println("server config error:", err)
		os.Exit(2)
	}

	cfgFlags := config.BindFlags(flag.CommandLine, defaults)
	image := flag.String("image", os.Getenv("RAINMAKER_IMAGE"), "photograph that colors the rain")
	listenAddr := flag.String("listen", serverDefaults.ListenAddr, "http listen address or \"random\"; also configurable via "+web.EnvListenAddr)
	devMode := flag.Bool("dev", serverDefaults.DevMode, "enable dev mode; also configurable via "+web.EnvDevMode)
	staticDir := flag.String("static-dir", "", "serve static UI from this directory (optional); when empty, the embedded preview page is served")
	sshAddr := flag.String("ssh", "", "SSH broadcast listen address, e.g. :2222 (disabled when empty)")
	hostKey := flag.String("ssh-host-key", "/tmp/rainmaker-sim/host_key", "SSH host key, generated when missing")
	logPath := flag.String("log", "./rainmaker-sim.log", "log file; the terminal is busy with the rain")
	debug := flag.Bool("debug", false, "show the stats overlay")
	infoFor := flag.Duration("info", 20*time.Second, "how long the preview URL stays on screen; 0 keeps it")
	flag.Parse()

	cfg, err := cfgFlags.Config()
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	var logger app.Logger = app.NoopLogger{}
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Println("log open error:", err)
			os.Exit(2)
		}
		defer f.Close()
		logger = app.NewFileLogger(f)
	}
	if *sshAddr != "" {
		if err := os.MkdirAll("/tmp/rainmaker-sim", 0o755); err != nil {
			fmt.Println("host key dir error:", err)
		}
	}

	processCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	control := NewSimControl()
	server := web.NewHTTPServer(*listenAddr)
	server.StaticDir = *staticDir
	server.DevMode = *devMode
	server.Routes = func(mux *http.ServeMux) { registerSimEndpoints(mux, control) }

	store := state.NewStore()
	a := app.New(cfg, store, render.NewTerminalRenderer(cfg.ColumnWidth, cfg.FontSize, cfg.Background), server)
	a.Logger = logger
	a.Debug = *debug
	a.ImagePath = *image
	a.SSHAddr = *sshAddr
	a.SSHHostKey = *hostKey
	a.InfoFor = *infoFor
	a.Worker = control.Worker(matrix.ColumnWorker(cfg.Seed))

	err = a.Start(processCtx)

	// The terminal belongs to the rain until Start returns.
	snap := store.Snapshot()
	fmt.Println("Rainmaker simulator stopped after", snap.Rain.Cycle, "cycles")
	if snap.Network.URL != "" {
		fmt.Println("Preview was at", snap.Network.URL)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println("simulator error:", err)
		os.Exit(1)
	}
}
