package web

import (
	"fmt"
	"os"
	"strconv"
)

const (
	EnvListenAddr = "RAINMAKER_LISTEN"
	EnvDevMode    = "RAINMAKER_DEV"

	// ListenRandom picks a free port in [RandomPortMin, RandomPortMax].
	ListenRandom  = "random"
	RandomPortMin = 55000
	RandomPortMax = 55999
)

// ServerConfig contains settings for running the HTTP server.
//
// The intended defaults differ per binary:
// - real device: :80
// - simulator:   random
type ServerConfig struct {
	ListenAddr string
	DevMode    bool
}

func DefaultServerConfigFromEnv(defaultListenAddr string) (ServerConfig, error) {
	listenAddr := os.Getenv(EnvListenAddr)
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	devMode := false
	if raw := os.Getenv(EnvDevMode); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("%s must be a boolean (got %q): %w", EnvDevMode, raw, err)
		}
		devMode = parsed
	}

	return ServerConfig{ListenAddr: listenAddr, DevMode: devMode}, nil
}
