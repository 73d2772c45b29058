package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ManuelReschke/OnlyOne/internal/pkg/env"
)

var rootCmd = &cobra.Command{
	Use:   "onlyone",
	Short: "OnlyOne storefront backend: Printify product mirror, cart and catalog API",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		env.SetupEnvFile()
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd(), newWebhooksCmd(), newEventsCmd())
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
