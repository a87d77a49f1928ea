// Package cli implements the instacred command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tealgate/instacred/internal/adapters/logging"
	"github.com/tealgate/instacred/pkg/instacred"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "instacred",
	Short: "Resolve messaging-API instance credentials from operational logs",
	Long: `Resolve messaging-API instance credentials from operational logs.

instacred turns an instance id into its (API base URL, access token) pair by
querying the provider's log backend. It authenticates with a client
certificate from the operating system store, a pre-supplied session cookie,
or a username/password against a configured login provider.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		reportError(err)
		return exitCode(err)
	}
	return 0
}

// newClient wires a resolution client from the persistent flags.
func newClient(cmd *cobra.Command) (*instacred.Client, error) {
	logger := logging.NewLogger(os.Stderr, logLevel, logFormat)
	return instacred.New(cmd.Context(), configPath, instacred.WithLogger(logger))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(certsCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
