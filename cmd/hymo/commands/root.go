// Package commands implements the hymo CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hymo",
	Short: "hymo - module overlay mounting for live systems",
	Long: `hymo mounts user-contributed module trees onto a live root filesystem.

For each mount point it prefers an overlayfs union mount and degrades to
recursive bind-mount replication ("magic mount") when the kernel or
policy rejects the overlay. On kernels carrying the HymoFS feature,
modules can instead be projected through the kernel rule channel.

Use "hymo [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return cfgFile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: /etc/hymo/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(injectCmd)
	rootCmd.AddCommand(ejectCmd)
	rootCmd.AddCommand(watchCmd)
}
