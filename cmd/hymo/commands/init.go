package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hymofs/hymo/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample hymo configuration file.

By default the configuration file is created at /etc/hymo/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize at the default location
  hymo init

  # Initialize at a custom path
  hymo init --config /opt/hymo/config.yaml

  # Force overwrite an existing config
  hymo init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := config.InitConfig(GetConfigFile(), initForce)
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize module dir and partitions")
	fmt.Println("  2. Mount modules with: hymo mount")
	fmt.Printf("  3. Or specify the config explicitly: hymo mount --config %s\n", path)
	return nil
}
