package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tealgate/instacred/pkg/instacred"
)

var journalMinutes int

var callCmd = &cobra.Command{
	Use:   "call <instance-id> <method>",
	Short: "Resolve an instance and call one of its API methods",
	Long: `Resolve an instance and call one of its API methods.

Supported methods:
  state           current instance state
  settings        instance settings
  reboot          restart the instance
  logout          log the instance's account out
  incoming        incoming message journal (see --minutes)
  outgoing        outgoing message journal (see --minutes)
  messages-count  send queue length
  queue           messages waiting in the send queue
  clear-queue     drop the send queue
  webhooks-count  webhook queue length`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd)
		if err != nil {
			return err
		}

		api, err := client.InstanceAPI(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		body, err := invoke(cmd.Context(), api, args[1])
		if err != nil {
			return err
		}
		fmt.Println(body)
		return nil
	},
}

func invoke(ctx context.Context, api *instacred.InstanceAPI, method string) (string, error) {
	switch method {
	case "state":
		return api.State(ctx)
	case "settings":
		return api.Settings(ctx)
	case "reboot":
		return api.Reboot(ctx)
	case "logout":
		return api.Logout(ctx)
	case "incoming":
		return api.LastIncomingMessages(ctx, journalMinutes)
	case "outgoing":
		return api.LastOutgoingMessages(ctx, journalMinutes)
	case "messages-count":
		return api.MessagesCount(ctx)
	case "queue":
		return api.MessageQueue(ctx)
	case "clear-queue":
		return api.ClearMessageQueue(ctx)
	case "webhooks-count":
		return api.WebhooksCount(ctx)
	default:
		return "", fmt.Errorf("unknown method %q; see 'instacred call --help'", method)
	}
}

func init() {
	callCmd.Flags().IntVar(&journalMinutes, "minutes", 1440, "journal lookback for incoming/outgoing")
}
