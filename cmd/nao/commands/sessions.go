package commands

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-nao/pkg/archive"
)

var sessionsFile string

// NewSessionsCmd creates the sessions command.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "Show archived sessions",
		Long: `Show sessions recorded in the session archive (telemetry.archive).

Without an argument every archived session is listed, newest first. With a
session ID, or a unique prefix of one, the turns of that session are shown.

Examples:
  nao sessions
  nao sessions 3f2a
  nao sessions --file /var/lib/nao/sessions.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessions,
	}

	cmd.Flags().StringVar(&sessionsFile, "file", "", "archive file (default telemetry.archive)")

	return cmd
}

func runSessions(cmd *cobra.Command, args []string) error {
	path := sessionsFile
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Telemetry.Archive
	}
	if path == "" {
		return errors.New("no session archive configured (set telemetry.archive or --file)")
	}

	store, err := archive.NewJSONStore(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		rec, err := store.Get(args[0])
		if err != nil {
			return err
		}
		return printSession(out, rec)
	}

	records, err := store.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No archived sessions.")
		return nil
	}
	return printSessions(out, records)
}

func printSessions(w io.Writer, records []*archive.Record) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tDURATION\tTURNS\tSCENE\tRESULT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.SessionID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Duration().Round(time.Second),
			len(r.Turns),
			r.FinalScene,
			result(r))
	}
	return tw.Flush()
}

func printSession(w io.Writer, r *archive.Record) error {
	fmt.Fprintf(w, "Session: %s\n", r.SessionID)
	fmt.Fprintf(w, "Started: %s (%s)\n", r.StartedAt.Format(time.RFC3339), r.Duration().Round(time.Second))
	fmt.Fprintf(w, "Result:  %s, scene %d, %d failed actions\n\n", result(r), r.FinalScene, r.FailedActions)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSCENE\tINTENT\tCONF\tROUTED\tTRANSCRIPT")
	for i, t := range r.Turns {
		name := t.Intent
		if name == "" {
			name = "-"
		}
		routed := "no"
		if t.Matched {
			routed = fmt.Sprintf("%d actions", t.Actions)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", i+1, t.Scene, name, t.Confidence, routed, truncate(t.Transcript, 50))
	}
	return tw.Flush()
}

func result(r *archive.Record) string {
	switch {
	case r.Error != "":
		return "error: " + truncate(r.Error, 40)
	case r.EndedAt.IsZero():
		return "unfinished"
	default:
		return "ok"
	}
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
