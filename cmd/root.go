package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/farellandr/castingcall/internal/logging"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "castingcall",
	Short:         "castingcall runs the marketplace payment service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ctx, logger := logging.Setup(cmd.Context(), logging.Options{
			Env:   viper.GetString("environment"),
			Debug: viper.GetBool("debug"),
		})

		if dsn := viper.GetString("sentry-dsn"); dsn != "" {
			if err := sentry.Init(sentry.ClientOptions{
				Dsn:         dsn,
				Environment: viper.GetString("environment"),
			}); err != nil {
				logger.Warn().Err(err).Msg("sentry disabled")
			}
		}

		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("environment", "local", "the runtime environment")
	must(viper.BindPFlag("environment", rootCmd.PersistentFlags().Lookup("environment")))
	must(viper.BindEnv("environment", "ENV"))

	rootCmd.PersistentFlags().Bool("debug", false, "turn on debug logging")
	must(viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")))
	must(viper.BindEnv("debug", "DEBUG"))

	rootCmd.PersistentFlags().String("sentry-dsn", "", "sentry dsn for error reporting")
	must(viper.BindPFlag("sentry-dsn", rootCmd.PersistentFlags().Lookup("sentry-dsn")))
	must(viper.BindEnv("sentry-dsn", "SENTRY_DSN"))
}

// perform runs fn with a context cancelled on SIGINT or SIGTERM and logs
// its error.
func perform(action string, fn func(ctx context.Context, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		defer sentry.Flush(sentryFlushTimeout)

		if err := fn(ctx, cmd); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("action", action).Msg("command failed")
			return fmt.Errorf("%s: %w", action, err)
		}
		return nil
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
