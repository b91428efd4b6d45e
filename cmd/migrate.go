package main

import (
	"context"
	"fmt"

	"github.com/farellandr/castingcall/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "create or update the database schema",
	RunE: perform("migrate", func(ctx context.Context, cmd *cobra.Command) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		db, err := config.InitDatabase(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		zerolog.Ctx(ctx).Info().Msg("schema up to date")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
