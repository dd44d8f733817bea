package commands

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hymofs/hymo/internal/logger"
	"github.com/hymofs/hymo/pkg/config"
	"github.com/hymofs/hymo/pkg/hymofs"
	"github.com/hymofs/hymo/pkg/metrics"
	"github.com/hymofs/hymo/pkg/mount"
)

// loadConfig loads configuration and initializes the logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, err
	}
	return cfg, nil
}

// executePlan builds the plan from the module directory and runs it,
// choosing the mechanism:
//
//   - HymoFS channel, when enabled in config and reported available by
//     the probe — modules are projected as kernel rules instead of being
//     mounted at all;
//   - otherwise overlay with per-mount-point magic mount fallback.
func executePlan(cfg *config.Config) (mount.Result, error) {
	plan, err := mount.BuildPlan(cfg.ModuleDir, cfg.Partitions)
	if err != nil {
		return mount.Result{}, err
	}

	if cfg.Hymofs.Enabled {
		channel := hymofs.New()
		channel.SetMetrics(metrics.NewChannelMetrics())
		if status := channel.CheckStatus(); status == hymofs.StatusAvailable {
			return projectPlan(plan, cfg, channel)
		} else if status != hymofs.StatusNotPresent {
			logger.Warn("hymofs channel unusable, falling back to mounts",
				logger.KeyType, status.String())
		}
	}

	exec := mount.NewExecutor(
		mount.NewOverlayFS(),
		mount.NewMagicFS(),
		mount.WithMetrics(metrics.NewMountMetrics()),
	)
	return exec.Execute(plan, mount.Options{
		StagingDir:    cfg.StagingDir,
		MountSource:   cfg.MountSource,
		Partitions:    cfg.Partitions,
		DisableUmount: cfg.DisableUmount,
	})
}

// projectPlan pushes every overlay layer of the plan through the HymoFS
// rule channel. Magic-flagged modules are projected too: with the kernel
// channel there is no reason to replicate.
func projectPlan(plan *mount.Plan, cfg *config.Config, channel *hymofs.Channel) (mount.Result, error) {
	client := hymofs.NewClient(channel)
	if err := client.Clear(); err != nil {
		return mount.Result{}, fmt.Errorf("clear hymofs rules: %w", err)
	}

	ids := map[string]struct{}{}
	project := func(root string) error {
		for _, partition := range cfg.Partitions {
			layer := filepath.Join(root, partition)
			if err := client.ProjectDirectory("/"+partition, layer); err != nil {
				return fmt.Errorf("project %s: %w", layer, err)
			}
		}
		ids[filepath.Base(root)] = struct{}{}
		return nil
	}

	for _, op := range plan.OverlayOps {
		for _, layer := range op.LowerDirs {
			if err := client.ProjectDirectory(op.Target, layer); err != nil {
				return mount.Result{}, fmt.Errorf("project %s: %w", layer, err)
			}
			ids[mount.ModuleID(layer)] = struct{}{}
		}
	}
	for _, root := range plan.MagicModulePaths {
		if err := project(root); err != nil {
			return mount.Result{}, err
		}
	}

	projected := make([]string, 0, len(ids))
	for id := range ids {
		projected = append(projected, id)
	}
	sort.Strings(projected)
	logger.Info("modules projected via hymofs", logger.KeyCount, len(projected))

	// Projected modules report under the overlay set: like an overlay,
	// the channel composes views without touching the real partitions.
	return mount.Result{OverlayModuleIDs: projected, MagicModuleIDs: []string{}}, nil
}

// printResult writes a human summary of the execution result.
func printResult(res mount.Result) {
	fmt.Printf("Overlay-mounted modules (%d): %s\n",
		len(res.OverlayModuleIDs), joinOrNone(res.OverlayModuleIDs))
	fmt.Printf("Magic-mounted modules   (%d): %s\n",
		len(res.MagicModuleIDs), joinOrNone(res.MagicModuleIDs))
}

func joinOrNone(ids []string) string {
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
