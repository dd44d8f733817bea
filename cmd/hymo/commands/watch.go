package commands

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hymofs/hymo/internal/logger"
	"github.com/hymofs/hymo/pkg/metrics"
	"github.com/hymofs/hymo/pkg/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Mount modules and remount on module directory changes",
	Long: `Run an initial mount pass, then watch the module directory and
re-run the mount plan after each debounced burst of changes. When
metrics are enabled, a Prometheus endpoint is served on the configured
port.

Runs until interrupted (SIGINT/SIGTERM).

Examples:
  # Watch with the default config
  hymo watch`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: metrics.Handler(),
		}
		go func() {
			logger.Info("metrics endpoint listening", logger.KeyPath, srv.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics endpoint failed", logger.KeyError, err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	remount := func() {
		res, err := executePlan(cfg)
		if err != nil {
			logger.Error("mount pass failed", logger.KeyError, err)
			return
		}
		logger.Info("mount pass complete",
			logger.KeyCount, len(res.OverlayModuleIDs)+len(res.MagicModuleIDs))
	}
	remount()

	w, err := watcher.New(cfg.ModuleDir, cfg.Watch.Debounce)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info("watching module directory", logger.KeyPath, cfg.ModuleDir)
	if err := w.Run(ctx, remount); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
