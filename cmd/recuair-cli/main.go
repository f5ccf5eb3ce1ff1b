// Recuair-cli manages Recuair home ventilation units.
//
// It talks to a unit's embedded web page over HTTP: reading sensor
// values and operating state, switching modes, setting fan speed and
// light, and resetting the filter notification. Units are addressed by
// hostname or IP, or by a name from the local device registry.
//
// Usage:
//
//	recuair-cli [command] [flags] <device>...
//
// Running with bare device arguments prints their status.
// See 'recuair-cli --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziima/recuair-cli/internal/logging"
	"github.com/ziima/recuair-cli/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recuair-cli",
	Short: "Recuair Ventilation Unit Control",
	Long: `A command-line client for Recuair home ventilation units.

Reads sensor values and operating state from a unit's embedded web page
and drives its controls: operating mode, fan speed, light, and the
filter change notification. Units can be addressed directly by hostname
or IP, or by a name stored in the local device registry.

Running with bare device arguments is a shortcut for 'status'.`,
	Version: version.Version,
	Example: `  # Show the status of a unit by address
  recuair-cli 192.168.1.44

  # Status of registered units by name
  recuair-cli status bedroom kitchen

  # Start a unit and set its fan speed
  recuair-cli start bedroom
  recuair-cli fan 2 bedroom

  # Find units on the local network
  recuair-cli scan`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: status when devices are given, help otherwise
		if len(args) == 0 {
			return cmd.Help()
		}
		return runStatus(cmd, args)
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugMode {
			return logging.Initialize("debug")
		}
		return logging.InitializeFromEnv()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("recuair-cli %s (commit: %s)\n", version.Version, version.Commit)
	},
}
