package main

import (
	"fmt"

	"github.com/neume/monitor/internal/db"
	"github.com/neume/monitor/internal/status"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest session, focus score and meltdown state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to neume config file (default: built-in settings)")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	cur, err := status.Latest(gormDB)
	if err != nil {
		return err
	}

	if cur.SessionID == nil {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}

	fmt.Fprintf(out, "Session:  %d (%s)\n", *cur.SessionID, *cur.Status)
	if cur.FocusScore != nil {
		fmt.Fprintf(out, "Focus:    %d\n", *cur.FocusScore)
	} else {
		fmt.Fprintln(out, "Focus:    -")
	}
	if cur.Meltdown {
		fmt.Fprintln(out, "Meltdown: ACTIVE")
	} else {
		fmt.Fprintln(out, "Meltdown: none")
	}
	return nil
}
