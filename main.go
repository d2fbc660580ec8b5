package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rook-computer/rainmaker/internal/app"
	"github.com/rook-computer/rainmaker/internal/config"
	"github.com/rook-computer/rainmaker/internal/render"
	"github.com/rook-computer/rainmaker/internal/state"
	"github.com/rook-computer/rainmaker/internal/web"
)

func main() {
	fmt.Println("Rainmaker starting")

	defaults, err := config.FromEnv(config.Default())
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}
	serverCfg, err := web.DefaultServerConfigFromEnv(":80")
	if err != nil {
		fmt.Println("web config error:", err)
		os.Exit(2)
	}

	// Flags
	cfgFlags := config.BindFlags(flag.CommandLine, defaults)
	image := flag.String("image", os.Getenv("RAINMAKER_IMAGE"), "photograph that colors the rain")
	device := flag.String("fb", "/dev/fb0", "framebuffer device")
	debug := flag.Bool("debug", false, "enable debug logging to ./rainmaker-debug.log and the stats overlay")
	stdioLog := flag.String("stdio-log", "", "redirect stdout+stderr (including panics) to this file; also configurable via RAINMAKER_STDIO_LOG")
	listen := flag.String("web", serverCfg.ListenAddr, "preview server listen address, \"random\", or empty to disable")
	staticDir := flag.String("static", "", "serve this directory instead of the embedded preview page")
	sshAddr := flag.String("ssh", "", "SSH broadcast listen address, e.g. :2222 (disabled when empty)")
	hostKey := flag.String("ssh-host-key", "./rainmaker_host_key", "SSH host key, generated when missing")
	infoFor := flag.Duration("info", 30*time.Second, "how long the preview URL stays on screen; 0 keeps it")
	flag.Parse()

	// Best-effort: redirect all stdout/stderr output (including panic stack traces)
	// to a file so crashes are diagnosable even when the console is left in graphics mode.
	logPath := *stdioLog
	if logPath == "" {
		logPath = os.Getenv("RAINMAKER_STDIO_LOG")
	}
	if logPath != "" {
		if err := redirectStdIO(logPath); err != nil {
			fmt.Println("stdio log redirect error:", err)
		}
	}

	cfg, err := cfgFlags.Config()
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	var logger app.Logger = app.NoopLogger{}
	if *debug {
		f, err := os.OpenFile("./rainmaker-debug.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			defer f.Close()
			logger = app.NewFileLogger(f)
			logger.Infof("main", "debug logging enabled")
		} else {
			fmt.Println("debug log open error:", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := render.NewFBRenderer()
	renderer.Device = *device

	var server *web.HTTPServer
	if *listen != "" {
		server = web.NewHTTPServer(*listen)
		server.StaticDir = *staticDir
		server.DevMode = serverCfg.DevMode
	}

	a := app.New(cfg, state.NewStore(), renderer, server)
	a.Logger = logger
	a.Debug = *debug
	a.ImagePath = *image
	a.SSHAddr = *sshAddr
	a.SSHHostKey = *hostKey
	a.Console = true
	a.InfoFor = *infoFor

	if err := a.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println("rainmaker error:", err)
		os.Exit(1)
	}
}
