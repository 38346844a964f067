package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/calldesk/dialdesk/internal/api"
	"github.com/calldesk/dialdesk/internal/db"
	"github.com/calldesk/dialdesk/internal/notify"
	"github.com/calldesk/dialdesk/internal/queue"
	"github.com/calldesk/dialdesk/internal/workflow"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dialdesk API server",
		Long:  "Runs the HTTP API, and, when a queue lease is configured, the background sweeper that returns stale assignments to the queue.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "dialdesk.yaml", "path to dialdesk config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override the configured API port")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		return err
	}
	if notifier == nil {
		notifier = &notify.Writer{Out: out}
	}

	opts := workflow.Options{Queue: queuePolicy(cfg), Agent: agentPolicy(cfg)}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Lease() > 0 {
		sweeper := &queue.Sweeper{
			DB:       gormDB,
			Lease:    cfg.Lease(),
			Schedule: cfg.Queue.SweepSchedule,
			Notify:   notifier,
			Out:      out,
		}
		if err := sweeper.Start(); err != nil {
			return err
		}
		defer sweeper.Stop()
		fmt.Fprintf(out, "Assignment sweeper running (lease %s, schedule %q)\n", cfg.Lease(), cfg.Queue.SweepSchedule)
	}

	if port <= 0 {
		port = cfg.Server.Port
	}
	return api.Start(ctx, api.StartOpts{
		DB:      gormDB,
		Port:    port,
		Options: opts,
		Out:     out,
	})
}
