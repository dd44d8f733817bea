package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hymofs/hymo/internal/cli/output"
	"github.com/hymofs/hymo/pkg/hymofs"
	"github.com/hymofs/hymo/pkg/mount"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show module and channel status",
	Long: `Show the current configuration, the HymoFS channel probe result,
and the modules the next mount run would pick up.

Examples:
  # Show status with the default config
  hymo status`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Println("Configuration:")
	conf := output.NewTable("KEY", "VALUE")
	conf.AddRow("module_dir", cfg.ModuleDir)
	conf.AddRow("partitions", strings.Join(cfg.Partitions, ", "))
	conf.AddRow("mount_source", cfg.MountSource)
	conf.AddRow("hymofs_enabled", fmt.Sprintf("%t", cfg.Hymofs.Enabled))
	conf.Render(os.Stdout)

	status := hymofs.New().CheckStatus()
	fmt.Printf("\nHymoFS channel: %s\n", status)

	plan, err := mount.BuildPlan(cfg.ModuleDir, cfg.Partitions)
	if err != nil {
		return err
	}

	fmt.Println("\nModules:")
	mods := output.NewTable("MODULE", "MECHANISM", "PARTITIONS")
	for _, row := range moduleRows(plan, cfg.Partitions) {
		mods.AddRow(row.id, row.mechanism, row.partitions)
	}
	mods.Render(os.Stdout)

	fmt.Printf("\nMount points: %d\n", len(plan.OverlayOps))
	return nil
}

type moduleRow struct {
	id         string
	mechanism  string
	partitions string
}

// moduleRows flattens the plan into one row per module, listing the
// partitions each module contributes a layer for.
func moduleRows(plan *mount.Plan, partitions []string) []moduleRow {
	parts := map[string][]string{}
	for _, op := range plan.OverlayOps {
		for _, layer := range op.LowerDirs {
			id := mount.ModuleID(layer)
			parts[id] = append(parts[id], strings.TrimPrefix(op.Target, "/"))
		}
	}

	rows := make([]moduleRow, 0, len(plan.OverlayModuleIDs)+len(plan.MagicModulePaths))
	for _, id := range plan.OverlayModuleIDs {
		rows = append(rows, moduleRow{
			id:         id,
			mechanism:  "overlay",
			partitions: strings.Join(parts[id], ", "),
		})
	}
	for _, root := range plan.MagicModulePaths {
		var present []string
		for _, partition := range partitions {
			if info, err := os.Stat(filepath.Join(root, partition)); err == nil && info.IsDir() {
				present = append(present, partition)
			}
		}
		rows = append(rows, moduleRow{
			id:         filepath.Base(root),
			mechanism:  "magic",
			partitions: strings.Join(present, ", "),
		})
	}
	return rows
}
