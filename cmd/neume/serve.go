package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neume/monitor/internal/api"
	"github.com/neume/monitor/internal/db"
	"github.com/neume/monitor/internal/retention"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Opens the record store, migrates it, and serves the session API the
dashboard polls. When retention.keep_days is set, old finished sessions are
pruned on the retention schedule.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, host, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to neume config file (default: built-in settings)")
	cmd.Flags().StringVar(&host, "host", "", "address to bind (overrides server.host)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides server.port)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath, host string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)
	fmt.Fprintf(out, "Using %s\n", storeName(cfg.Store))

	if cmd.Flags().Changed("host") {
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	pruner := retention.New(gormDB, cfg.Retention)
	if pruner.Enabled() {
		fmt.Fprintf(out, "Retention: keeping %d days (schedule %q)\n", cfg.Retention.KeepDays, cfg.Retention.Schedule)
		go func() {
			if err := pruner.Run(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "retention: %v\n", err)
			}
		}()
	}

	return api.Start(ctx, api.StartOpts{
		DB:           gormDB,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		HistoryLimit: cfg.History.Limit,
		AccessLog:    cfg.Server.AccessLog,
		Out:          out,
	})
}
