package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	forceReauth   bool
	resolveAsJSON bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <instance-id>",
	Short: "Resolve an instance id into its API base URL and token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		if forceReauth {
			client.ForceReauthenticate()
		}

		res, err := client.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if resolveAsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		fmt.Printf("Instance:  %s\n", res.InstanceID)
		fmt.Printf("Base URL:  %s\n", res.BaseURL)
		fmt.Printf("Token:     %s\n", res.Token)
		fmt.Printf("Resolved:  %s", res.ResolvedAt.Format("2006-01-02 15:04:05 MST"))
		if res.FromCache {
			fmt.Printf(" (cached)")
		}
		fmt.Println()
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&forceReauth, "force-reauth", false, "discard the current session and authenticate from scratch")
	resolveCmd.Flags().BoolVar(&resolveAsJSON, "json", false, "print the resolution as JSON")
}
