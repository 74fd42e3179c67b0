package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ferrymanlabs/ferryman/internal/config"
	"github.com/ferrymanlabs/ferryman/internal/health"
	"github.com/ferrymanlabs/ferryman/internal/logger"
	"github.com/ferrymanlabs/ferryman/internal/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start all configured runtimes and serve metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configDir)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(cfg.Paths.LogDir, cfg.Server.JSONLogs); err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	defer registry.StopAll()

	// A runtime that fails to start is logged and skipped; the rest of
	// the host keeps going so one broken runtime cannot take down all.
	for _, a := range registry.List() {
		if err := a.Start(ctx); err != nil {
			logger.WithRuntime(a.ID()).Error("runtime failed to start", "err", err)
			metrics.SetRuntimeUp(a.ID(), false)
			continue
		}
		metrics.SetRuntimeUp(a.ID(), true)
	}

	checker, err := health.NewChecker(registry, cfg.Server.HealthSchedule)
	if err != nil {
		return err
	}
	checker.Start()
	defer checker.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		snapshot := checker.Snapshot()
		status := http.StatusOK
		for _, s := range snapshot {
			if !s.Up {
				status = http.StatusServiceUnavailable
				break
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   http.StatusText(status),
			"runtimes": snapshot,
		})
	})

	server := &http.Server{Addr: cfg.Server.MetricsAddress, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Slog().Info("ferryman serving",
		"address", cfg.Server.MetricsAddress, "runtimes", len(registry.List()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Slog().Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
