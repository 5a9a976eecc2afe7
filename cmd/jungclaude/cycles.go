package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/jungclaude/internal/api"
	"github.com/Harshitk-cp/jungclaude/internal/service"
)

// jobCmd runs one scheduler job in the foreground and prints its result.
func jobCmd(use, short, job string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *api.App) error {
				res, err := app.Scheduler.Trigger(ctx, job)
				if err != nil {
					return err
				}
				if err := printJSON(res); err != nil {
					return err
				}
				if n := res.Failed(); n > 0 {
					return fmt.Errorf("%s: %d step(s) failed", job, n)
				}
				return nil
			})
		},
	}
}

func ruminateCmd() *cobra.Command {
	return jobCmd("ruminate", "Run one rumination cycle (dream, scholar, digest, deliver)", service.JobRumination)
}

func consolidateCmd() *cobra.Command {
	var withBridge bool
	cmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Extract identity elements from recent conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			job := service.JobConsolidation
			if withBridge {
				job = service.JobIdentity
			}
			return jobCmd("", "", job).RunE(cmd, args)
		},
	}
	cmd.Flags().BoolVar(&withBridge, "bridge", false, "also sync the identity bridge afterwards")
	return cmd
}

func bridgeCmd() *cobra.Command {
	return jobCmd("bridge", "Sync rumination and identity stores", service.JobBridge)
}

func dreamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dream",
		Short: "Generate one dream from recent fragments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *api.App) error {
				res, err := app.Dream.Generate(ctx, app.Rumination.AdminUserID())
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func scholarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scholar",
		Short: "Research one topic from recent conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *api.App) error {
				res, err := app.Scholar.Study(ctx, app.Rumination.AdminUserID())
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	}
}

func statsCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show fragment, tension and insight counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, app *api.App) error {
				id := userID
				if id == "" {
					id = app.Rumination.AdminUserID()
				}
				stats, err := app.Rumination.Stats(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(stats)
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id (default admin)")
	return cmd
}

func withApp(ctx context.Context, fn func(context.Context, *api.App) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, db, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	defer app.Stop()
	return fn(ctx, app)
}
