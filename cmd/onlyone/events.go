package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect and maintain stored webhook events",
	}

	var limit int
	pending := &cobra.Command{
		Use:   "pending",
		Short: "List events still waiting for processing, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *services) error {
				events, err := svc.repos.WebhookEvent.ListPending(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, events)
			})
		},
	}
	pending.Flags().IntVar(&limit, "limit", 50, "maximum number of events")

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Archive and delete finished events older than EVENT_RETENTION_DAYS",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *services) error {
				report, err := svc.maintenance.RunPruneOnce(ctx)
				if report != nil {
					if perr := printJSON(cmd, report); perr != nil && err == nil {
						err = perr
					}
				}
				return err
			})
		},
	}

	reconcile := &cobra.Command{
		Use:   "reconcile",
		Short: "Report stale pending events and reprocess them when RECONCILE_ENABLED=true",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, func(ctx context.Context, svc *services) error {
				report, err := svc.maintenance.RunReconcileOnce(ctx)
				if report != nil {
					if perr := printJSON(cmd, report); perr != nil && err == nil {
						err = perr
					}
				}
				return err
			})
		},
	}

	cmd.AddCommand(pending, prune, reconcile)
	return cmd
}

func withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := buildServices(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.closer.Close(context.Background()) }()
	return fn(ctx, svc)
}
