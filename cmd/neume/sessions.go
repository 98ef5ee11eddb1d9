package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/neume/monitor/internal/db"
	"github.com/neume/monitor/internal/history"
	"github.com/neume/monitor/internal/session"
	"github.com/neume/monitor/internal/status"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and delete recorded sessions",
	}

	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsShowCmd())
	cmd.AddCommand(newSessionsDeleteCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsList(cmd, configPath, limit)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to neume config file (default: built-in settings)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum sessions to show (default: history.limit)")
	return cmd
}

func runSessionsList(cmd *cobra.Command, configPath string, limit int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if limit <= 0 {
		limit = cfg.History.Limit
	}

	report, err := history.Build(gormDB, limit, time.Now())
	if err != nil {
		return err
	}

	if len(report.Sessions) == 0 {
		fmt.Fprintln(out, "No sessions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTART\tEND\tDURATION\tAVG FOCUS\tBREAKS")
	for _, r := range report.Sessions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n",
			r.SessionID, r.Status, r.StartTime, optional(r.EndTime),
			formatDuration(r.DurationSeconds), formatFocus(r.AvgFocus), r.MeltdownCount)
	}
	w.Flush()

	fmt.Fprintf(out, "\nThis week: %d sessions, average duration %s, %d comfort breaks\n",
		report.SessionsThisWeek, formatDuration(report.AvgDurationSecondsThisWeek), report.ComfortBreaksThisWeek)
	return nil
}

func newSessionsShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session and its meltdown state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			return runSessionsShow(cmd, configPath, uint(id))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to neume config file (default: built-in settings)")
	return cmd
}

func runSessionsShow(cmd *cobra.Command, configPath string, id uint) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	s, err := session.Get(gormDB, id)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("session %d not found", id)
	}

	meltdown, err := status.MeltdownActive(gormDB, s.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Session:  %d\n", s.ID)
	fmt.Fprintf(out, "Status:   %s\n", s.Status)
	fmt.Fprintf(out, "Start:    %s\n", s.StartTime)
	fmt.Fprintf(out, "End:      %s\n", optional(s.EndTime))
	fmt.Fprintf(out, "Duration: %s\n", formatDuration(history.Duration(*s, time.Now())))
	if meltdown {
		fmt.Fprintln(out, "Meltdown: ACTIVE")
	} else {
		fmt.Fprintln(out, "Meltdown: none")
	}
	return nil
}

func newSessionsDeleteCmd() *cobra.Command {
	var (
		configPath string
		fromID     uint
		toID       uint
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an inclusive range of sessions with their samples and events",
		Long: `Deletes every session whose id lies between --from and --to (in either
order), together with its focus samples and events, in one transaction.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionsDelete(cmd, configPath, fromID, toID, yes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to neume config file (default: built-in settings)")
	cmd.Flags().UintVar(&fromID, "from", 0, "first session id in the range")
	cmd.Flags().UintVar(&toID, "to", 0, "last session id in the range")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")
	return cmd
}

func runSessionsDelete(cmd *cobra.Command, configPath string, fromID, toID uint, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	_, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)

	if !skipConfirm {
		ok, err := confirm(cmd, fmt.Sprintf("delete sessions %d through %d and all their data", fromID, toID))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	n, err := session.DeleteRange(gormDB, fromID, toID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %d sessions\n", n)
	return nil
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

// formatDuration renders whole seconds as a Go duration, e.g. 1h2m5s.
func formatDuration(seconds *int64) string {
	if seconds == nil {
		return "-"
	}
	return (time.Duration(*seconds) * time.Second).String()
}

func formatFocus(avg *float64) string {
	if avg == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *avg)
}
