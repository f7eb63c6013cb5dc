/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the capacity engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags, load the YAML config
  2. Configure zerolog from log_level
  3. Initialize SQLite store and the engine
  4. Create API handler, refresh scheduler and router
  5. Watch the config file for engine changes
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional; defaults apply when empty)
  -port    HTTP server port, overrides the file
  -db      SQLite database path, overrides the file
           Use ":memory:" for in-memory database
  -refresh Background refresh interval (0 disables)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the refresh scheduler and config watcher
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -config=capacity.yaml
  ./server -db=":memory:" -port=3000

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Config file format
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/warp/capacity-engine/api"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/config"
	"github.com/warp/capacity-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.String("port", "", "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	refresh := flag.Duration("refresh", 15*time.Minute, "Background refresh interval, 0 disables")
	flag.Parse()

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load config")
		}
		cfg = loaded
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := log.With().Str("service", "capacity-engine").Logger()

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid engine config")
	}
	engine, err := capacity.New(engineCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create engine")
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to initialize database")
	}
	defer store.Close()

	handler := api.NewHandler(store, engine, cfg.CacheSize, logger)
	thresholds, err := cfg.AlertThresholds(engineCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid alert thresholds")
	}
	if err := handler.SetAlertThresholds(thresholds); err != nil {
		logger.Fatal().Err(err).Msg("invalid alert thresholds")
	}

	var sched *api.RefreshScheduler
	if *refresh > 0 {
		sched = api.NewRefreshScheduler(handler)
		sched.Interval = *refresh
		sched.Start()
		defer sched.Stop()
	}

	router := api.NewRouter(handler, sched, cfg.CORSOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				ec, err := next.EngineConfig()
				if err != nil {
					logger.Error().Err(err).Msg("ignoring engine config")
					return
				}
				e, err := capacity.New(ec)
				if err != nil {
					logger.Error().Err(err).Msg("ignoring engine config")
					return
				}
				handler.SetEngine(e)
				if th, err := next.AlertThresholds(ec); err != nil {
					logger.Error().Err(err).Msg("ignoring alert thresholds")
				} else if err := handler.SetAlertThresholds(th); err != nil {
					logger.Error().Err(err).Msg("ignoring alert thresholds")
				}
				if lvl, err := zerolog.ParseLevel(next.LogLevel); err == nil {
					zerolog.SetGlobalLevel(lvl)
				}
			})
			if err != nil {
				logger.Error().Err(err).Str("path", *configPath).Msg("config watcher stopped")
			}
		}()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Str("db", cfg.DBPath).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	logger.Info().Msg("server stopped")
}
