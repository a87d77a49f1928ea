package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "List the client certificate candidates in the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		handles, err := client.ListCertificates(cmd.Context())
		if err != nil {
			return err
		}
		if len(handles) == 0 {
			fmt.Println("No usable client certificates found.")
			return nil
		}

		for i, h := range handles {
			fmt.Printf("%d. %s\n", i+1, h.Subject)
			fmt.Printf("   Issuer:     %s\n", h.Issuer)
			fmt.Printf("   Expires:    %s\n", h.NotAfter.Format("2006-01-02"))
			fmt.Printf("   Thumbprint: %s\n", h.Thumbprint)
		}
		return nil
	},
}
