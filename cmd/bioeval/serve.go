package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bioeval/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve evaluation runs over HTTP",
	Long: `Start an HTTP server exposing past runs and their analysis, accepting new
run requests, and streaming run events over websocket. Prometheus
metrics are served on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s http://%s:%d\n", bold("Serving on"), cfg.Server.Host, cfg.Server.Port)
		srv := server.New(cfg, logger)
		return srv.Start(ctx)
	},
}
