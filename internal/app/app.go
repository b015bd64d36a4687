// Package app wires the process together: configuration, the logging
// router, the identity store, the Hub facade and the HTTP/WebSocket
// transport, following the teacher's internal/app/app.go construction
// order (load config, build the logging router, build the hub, build the
// handler, serve).
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	server "arenaserver"
	"arenaserver/internal/config"
	"arenaserver/internal/identity"
	"arenaserver/internal/transport"
	"arenaserver/logging"
	loggingSinks "arenaserver/logging/sinks"
)

// Config holds the overrides a caller (tests, cmd/server) may want to apply
// on top of the environment-derived config.Config.
type Config struct {
	Logger *log.Logger
}

func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	serverCfg := config.Load()

	logConfig := logging.DefaultConfig()
	namedSinks := []logging.NamedSink{
		{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logConfig.Console)},
		{Name: "abuse-history", Sink: loggingSinks.NewCappedMemorySink(100)},
	}

	router, err := logging.NewRouter(nil, logConfig, namedSinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(ctx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	identityStore := identity.NewMemStore()

	hub := server.NewHub(serverCfg, router, identityStore)

	handler := transport.NewHandler(hub, transport.Config{Logger: logger})

	addr := ":" + serverCfg.Port
	srv := &http.Server{Addr: addr, Handler: handler}
	logger.Printf("server listening on %s", addr)

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
