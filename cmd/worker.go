/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adoptly/apiserver/config"
	"github.com/adoptly/apiserver/internal/events"
	"github.com/adoptly/apiserver/internal/logging"
	"github.com/adoptly/apiserver/internal/mq"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes domain events and emits notifications",
	Long: `Subscribes to the adoptly event channel and turns adoption and contact
events into notifications for admins and adopters. Usage:

	MQ_BACKEND=rabbitmq adoptly worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(cfg.Log, os.Stderr).With("component", "worker")
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.Queue)
		if err != nil {
			return fmt.Errorf("open queue: %w", err)
		}
		if queue == nil {
			return errors.New("worker needs MQ_BACKEND set to rabbitmq or pubsub")
		}
		defer queue.Close()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("consuming events", "channel", cfg.Queue.Channel, "backend", cfg.Queue.Backend)
			return queue.Subscribe(gctx, cfg.Queue.Channel, events.LogHandler(logger))
		})
		if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
