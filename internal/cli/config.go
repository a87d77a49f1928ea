package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	configadapter "github.com/tealgate/instacred/internal/adapters/secondary/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configadapter.NewFileProvider().LoadConfiguration(cmd.Context(), configPath)
		if err != nil {
			return err
		}

		redacted := *cfg
		if redacted.Auth.Cookie != "" {
			redacted.Auth.Cookie = "[REDACTED]"
		}
		if redacted.Auth.Password != "" {
			redacted.Auth.Password = "[REDACTED]"
		}

		out, err := yaml.Marshal(&redacted)
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(configadapter.NewFileProvider().GetDefaultConfiguration(cmd.Context()))
		if err != nil {
			return fmt.Errorf("failed to render configuration: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configDefaultCmd)
}
