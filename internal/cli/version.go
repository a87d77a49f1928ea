package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tealgate/instacred/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := buildinfo.Get()
		fmt.Printf("instacred %s (commit %s, built %s)\n", info.Version, info.CommitHash, info.BuildTime)
	},
}
