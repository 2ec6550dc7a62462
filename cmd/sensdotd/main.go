// Sensdotd is the agent for SensDot battery-powered sensor nodes.
//
// Run without arguments it executes wake cycles: read the sensors,
// publish over MQTT, and deep-sleep until the next cycle. Subcommands
// cover bench provisioning (setup) and configuration inspection.
//
// Usage:
//
//	sensdotd [command] [flags]
//
// See 'sensdotd --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sensdot/sensdot/internal/version"
)

// Global flags shared by every subcommand
var (
	profilePath string
	logLevel    string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sensdotd",
	Short: "SensDot sensor node agent",
	Long: `The agent for SensDot battery-powered sensor nodes.

Without a subcommand the agent runs its wake cycle loop: connect to
WiFi, publish sensor readings over MQTT, and deep-sleep until the next
cycle. With no valid configuration it hosts a setup access point and
web portal instead.`,
	Version: version.Version,
	RunE:    runAgent,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "",
		"hardware profile path (default /etc/sensdot/profile.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log verbosity: debug, info, warn, error (default from SENSDOT_LOG_LEVEL)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sensdotd %s\n", version.Full())
	},
}
