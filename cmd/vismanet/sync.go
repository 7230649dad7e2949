package main

import (
	"fmt"

	"github.com/martinberglund/Visma.Net/mirror/schema/postgres"
	"github.com/martinberglund/Visma.Net/mirror/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		full       bool
		initSchema bool
	)

	cmd := &cobra.Command{
		Use:   "sync [resource...]",
		Short: "Mirror ERP resources into PostgreSQL",
		Long: "Copy ERP resources into PostgreSQL (DB_* environment). Without arguments\n" +
			"every supported resource is synced. Each resource continues from its last\n" +
			"successful sync unless --full is given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Reject unknown resources before connecting anywhere.
			for _, name := range args {
				if _, err := services.LookupResource(name); err != nil {
					return err
				}
			}

			client, err := a.client()
			if err != nil {
				return err
			}

			dbCfg, err := postgres.NewConfig()
			if err != nil {
				return err
			}
			db, err := postgres.New(ctx, dbCfg, a.logger)
			if err != nil {
				return err
			}
			defer db.Close()

			if initSchema {
				if err := db.InitSchema(ctx); err != nil {
					return err
				}
			}

			syncSvc := services.NewSyncService(client, db, services.SyncOptions{
				Concurrency: a.cfg.SyncConcurrency,
				PageSize:    a.cfg.SyncPageSize,
				BatchSize:   a.cfg.SyncBatchSize,
			}, a.logger)

			metrics, err := syncSvc.SyncAll(ctx, args, full)
			if metrics != nil {
				printMetrics(cmd, metrics)
			}
			if err != nil {
				a.logger.Error("Failed to sync data", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "ignore the last sync time and copy everything")
	cmd.Flags().BoolVar(&initSchema, "init-schema", false, "create the mirror tables before syncing")
	return cmd
}

func printMetrics(cmd *cobra.Command, metrics *services.SyncMetrics) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sync run %s\n", metrics.RunID)
	for _, name := range metrics.Names() {
		rm := metrics.Get(name)
		line := fmt.Sprintf("  %-16s %d fetched, %d saved, %d failed", name, rm.Fetched, rm.Saved, rm.Failed)
		if rm.Err != nil {
			line += fmt.Sprintf(" (error: %v)", rm.Err)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "  Total: %d saved, %d failed\n", metrics.TotalSaved(), metrics.TotalFailed())
}
