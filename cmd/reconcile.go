package main

import (
	"context"

	"github.com/farellandr/castingcall/internal/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "ask the gateway about stale pending payments and apply the answers",
	RunE: perform("reconcile", func(ctx context.Context, cmd *cobra.Command) error {
		report, err := server.Reconcile(ctx, viper.GetDuration("stale-after"), viper.GetInt("batch"))
		if err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().
			Int("checked", report.Checked).
			Int("resolved", report.Resolved).
			Int("failed", report.Failed).
			Msg("reconcile complete")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().Duration("stale-after", 0, "only check orders pending for longer than this")
	must(viper.BindPFlag("stale-after", reconcileCmd.Flags().Lookup("stale-after")))
	must(viper.BindEnv("stale-after", "RECONCILE_STALE_AFTER"))

	reconcileCmd.Flags().Int("batch", 0, "maximum number of orders to check")
	must(viper.BindPFlag("batch", reconcileCmd.Flags().Lookup("batch")))
	must(viper.BindEnv("batch", "RECONCILE_BATCH"))
}
