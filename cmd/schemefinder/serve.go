package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemefinder/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c.logger.Info("starting schemefinder",
				zap.String("version", version),
				zap.String("addr", c.cfg.Server.Addr),
			)

			a, err := app.Build(ctx, c.cfg, c.logger)
			if err != nil {
				// Serving without a valid catalog is never useful.
				c.logger.Fatal("startup failed", zap.Error(err))
			}
			defer func() { _ = a.Close(context.Background()) }()

			if err := a.ListenAndRun(ctx); err != nil {
				c.logger.Error("server stopped with error", zap.Error(err))
				return err
			}
			c.logger.Info("server stopped")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "listen address (default :$PORT or :5000)")
	flags.String("redis-url", "", "redis URL for the result cache (disabled when empty)")
	flags.String("events-sink", "", "check event sink: none, log, or kafka")
	flags.StringSlice("kafka-brokers", nil, "kafka seed brokers for the kafka event sink")
	c.bind(cmd, map[string]string{
		"server.addr":   "addr",
		"redis.url":     "redis-url",
		"events.sink":   "events-sink",
		"kafka.brokers": "kafka-brokers",
	})
	return cmd
}
