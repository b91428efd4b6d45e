package main

import (
	"context"
	"time"

	"github.com/farellandr/castingcall/internal/server"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const sentryFlushTimeout = 2 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the payment API",
	RunE: perform("serve", func(ctx context.Context, cmd *cobra.Command) error {
		if viper.GetString("environment") != "local" {
			gin.SetMode(gin.ReleaseMode)
		}
		return server.Start(ctx, viper.GetString("address"))
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "the address to bind to, defaults to :$PORT")
	must(viper.BindPFlag("address", serveCmd.Flags().Lookup("address")))
	must(viper.BindEnv("address", "ADDR"))
}
