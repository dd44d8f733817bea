package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hymofs/hymo/pkg/hymofs"
)

var injectCmd = &cobra.Command{
	Use:   "inject TARGET_BASE MODULE_DIR",
	Short: "Project one module directory through the HymoFS channel",
	Long: `Project a single module directory onto a target base directory
through the HymoFS kernel rule channel, without mounting anything.

TARGET_BASE is the live directory being modified (e.g. /system) and
MODULE_DIR is the module layer carrying the replacement entries.

Examples:
  # Project a module's system layer onto /system
  hymo inject /system /var/lib/hymo/modules/mymod/system`,
	Args: cobra.ExactArgs(2),
	RunE: runInject,
}

func runInject(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	channel := hymofs.New()
	if status := channel.CheckStatus(); status != hymofs.StatusAvailable {
		return fmt.Errorf("hymofs channel not usable: %s", status)
	}

	client := hymofs.NewClient(channel)
	if err := client.ProjectDirectory(args[0], args[1]); err != nil {
		return fmt.Errorf("project %s onto %s: %w", args[1], args[0], err)
	}

	fmt.Printf("Projected %s onto %s\n", args[1], args[0])
	return nil
}
