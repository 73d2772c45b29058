package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/printify"
	"github.com/ManuelReschke/OnlyOne/internal/pkg/webhook"
)

func newWebhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Manage the Printify webhook subscriptions of the shop",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List webhook subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := gatewayFromEnv()
			if err != nil {
				return err
			}
			hooks, err := client.ListWebhooks(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, hooks)
		},
	}

	var (
		targetURL string
		topics    []string
	)
	register := &cobra.Command{
		Use:   "register",
		Short: "Subscribe the webhook endpoint to the given topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := gatewayFromEnv()
			if err != nil {
				return err
			}
			cfg := webhook.LoadConfig()
			if targetURL == "" {
				targetURL = webhookEndpoint(cfg.SiteBaseURL)
			}
			hooks, err := client.CreateWebhookSubscriptions(cmd.Context(), targetURL, cfg.Secret, topics)
			if len(hooks) > 0 {
				if perr := printJSON(cmd, hooks); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	register.Flags().StringVar(&targetURL, "url", "", "webhook target URL (default SITE_BASE_URL/api/webhooks/printify)")
	register.Flags().StringSliceVar(&topics, "topic", nil, fmt.Sprintf("topic to subscribe, repeatable (default %v)", printify.DefaultTopics))

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a webhook subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := gatewayFromEnv()
			if err != nil {
				return err
			}
			if err := client.DeleteWebhook(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted webhook %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, register, del)
	return cmd
}

func gatewayFromEnv() (*printify.Client, error) {
	cfg := printify.LoadConfig()
	if !cfg.IsConfigured() {
		return nil, errors.New("PRINTIFY_API_TOKEN and PRINTIFY_SHOP_ID must be set")
	}
	return printify.NewClient(cfg), nil
}
