package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hymofs/hymo/pkg/hymofs"
)

var ejectCmd = &cobra.Command{
	Use:   "eject TARGET_BASE MODULE_DIR",
	Short: "Withdraw a previously projected module directory",
	Long: `Withdraw the HymoFS rules a previous "hymo inject" installed for
a module directory, restoring the unmodified view of the target base.

TARGET_BASE and MODULE_DIR must match the arguments of the inject call
being undone.

Examples:
  # Withdraw a module's system layer from /system
  hymo eject /system /var/lib/hymo/modules/mymod/system`,
	Args: cobra.ExactArgs(2),
	RunE: runEject,
}

func runEject(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	channel := hymofs.New()
	if status := channel.CheckStatus(); status != hymofs.StatusAvailable {
		return fmt.Errorf("hymofs channel not usable: %s", status)
	}

	client := hymofs.NewClient(channel)
	if err := client.UnprojectDirectory(args[0], args[1]); err != nil {
		return fmt.Errorf("unproject %s from %s: %w", args[1], args[0], err)
	}

	fmt.Printf("Ejected %s from %s\n", args[1], args[0])
	return nil
}
