package commands

import (
	"github.com/spf13/cobra"
)

var mountCmd = &cobra.Command{
	Use:   "mount",
	Short: "Mount all installed modules",
	Long: `Mount all installed modules onto the live filesystem.

The module directory is scanned, a mount plan is built, and every
mount point is mounted: overlayfs where the kernel accepts it, magic
mount replication where it does not. With hymofs enabled and available,
modules are projected through the kernel rule channel instead.

Examples:
  # Mount with the default config
  hymo mount

  # Mount with a custom config
  hymo mount --config /opt/hymo/config.yaml`,
	RunE: runMount,
}

func runMount(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res, err := executePlan(cfg)
	if err != nil {
		return err
	}

	printResult(res)
	return nil
}
