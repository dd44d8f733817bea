package mount

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hymofs/hymo/internal/logger"
)

// Marker files recognized inside a module root. Their presence, not their
// content, is what matters.
const (
	// markerDisable excludes the module from mounting entirely.
	markerDisable = "disable"

	// markerSkipMount keeps the module installed but unmounted.
	markerSkipMount = "skip_mount"

	// markerMagic forces the module onto the replication path without
	// attempting an overlay first.
	markerMagic = "magic"
)

// BuildPlan scans moduleDir and produces a mount plan for the given
// partitions.
//
// Each immediate subdirectory of moduleDir is a module root whose name is
// the module ID. Modules carrying a disable or skip_mount marker are
// ignored; modules carrying a magic marker go straight to the replication
// queue. Every other module contributes one layer per partition for which
// it has a <root>/<partition> subdirectory, grouped into one OverlayOp per
// partition target.
func BuildPlan(moduleDir string, partitions []string) (*Plan, error) {
	entries, err := os.ReadDir(moduleDir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("module directory absent, empty plan", logger.KeyPath, moduleDir)
			return &Plan{}, nil
		}
		return nil, fmt.Errorf("read module directory %s: %w", moduleDir, err)
	}

	plan := &Plan{}
	layersByPartition := make(map[string][]string)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		root := filepath.Join(moduleDir, entry.Name())

		if hasMarker(root, markerDisable) || hasMarker(root, markerSkipMount) {
			logger.Debug("skipping module", logger.KeyModule, entry.Name())
			continue
		}

		if hasMarker(root, markerMagic) {
			plan.MagicModulePaths = append(plan.MagicModulePaths, root)
			continue
		}

		contributes := false
		for _, partition := range partitions {
			layer := filepath.Join(root, partition)
			if info, err := os.Stat(layer); err == nil && info.IsDir() {
				layersByPartition[partition] = append(layersByPartition[partition], layer)
				contributes = true
			}
		}
		if contributes {
			plan.OverlayModuleIDs = append(plan.OverlayModuleIDs, entry.Name())
		}
	}

	// Partition order from configuration keeps the op order deterministic.
	for _, partition := range partitions {
		layers := layersByPartition[partition]
		if len(layers) == 0 {
			continue
		}
		plan.OverlayOps = append(plan.OverlayOps, OverlayOp{
			Target:    "/" + partition,
			LowerDirs: layers,
		})
	}

	return plan, nil
}

// hasMarker reports whether the module root contains the named marker file.
func hasMarker(root, name string) bool {
	_, err := os.Stat(filepath.Join(root, name))
	return err == nil
}
