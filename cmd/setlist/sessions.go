package main

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"karolbroda.com/setlist/internal/session"
	"karolbroda.com/setlist/internal/terminal"
	"karolbroda.com/setlist/internal/ui"
)

var (
	// flags for session clear
	sessionConfirm bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "manage saved sessions",
	Long:  `manage saved playlist sessions, including viewing statistics, listing sessions, and clearing them.`,
}

var sessionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show session store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}

		count, sizeBytes, err := store.Stats()
		if err != nil {
			return fmt.Errorf("failed to get session stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "session statistics:")
		fmt.Fprintf(out, "  location: %s\n", store.Dir())
		fmt.Fprintf(out, "  sessions: %d\n", count)
		fmt.Fprintf(out, "  size:     %s\n", formatBytes(sizeBytes))
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "list saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}

		snaps, err := store.ListAll()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if len(snaps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no saved sessions")
			return nil
		}

		// newest first
		slices.SortFunc(snaps, func(a, b *session.Snapshot) int {
			return cmp.Compare(b.SavedAt, a.SavedAt)
		})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tSONGS\tPOSITION\tSAVED")
		for _, snap := range snaps {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
				snap.Source, len(snap.Records), positionLabel(snap), time.Unix(snap.SavedAt, 0).Format("2006-01-02 15:04"))
		}
		w.Flush()

		fmt.Fprintf(cmd.OutOrStdout(), "\ntotal: %d sessions\n", len(snaps))
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "show the saved session for a playlist file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		source := cfg.PlaylistFile
		if len(args) == 1 {
			source = args[0]
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}

		snap, err := store.Get(source)
		if err != nil {
			return fmt.Errorf("no session for %s: %w", source, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "source:   %s\n", snap.Source)
		fmt.Fprintf(out, "songs:    %d\n", len(snap.Records))
		fmt.Fprintf(out, "position: %s\n", positionLabel(snap))
		fmt.Fprintf(out, "saved:    %s\n", time.Unix(snap.SavedAt, 0).Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "file at:  %s\n", time.Unix(0, snap.SourceModTime).Format("2006-01-02 15:04:05"))

		if snap.CursorIndex >= 0 && snap.CursorIndex < len(snap.Records) {
			fmt.Fprintln(out)
			fmt.Fprintln(out, ui.RenderNowPlaying(snap.Records[snap.CursorIndex], true))
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "remove all saved sessions",
	Long:  `remove all saved sessions. use --confirm to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(loadConfig())
		if err != nil {
			return err
		}

		if !sessionConfirm {
			if !terminal.IsInteractive() {
				return errors.New("refusing to clear sessions without --confirm")
			}

			var ok bool
			err := huh.NewConfirm().
				Title("Remove all saved sessions?").
				Affirmative("Yes").
				Negative("No").
				Value(&ok).
				Run()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
		}

		removed, err := store.Clear()
		if err != nil {
			return fmt.Errorf("failed to clear sessions: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "removed %d sessions\n", removed)
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete [file]",
	Short: "forget the saved session for a playlist file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		source := cfg.PlaylistFile
		if len(args) == 1 {
			source = args[0]
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}

		if _, err := store.Get(source); err != nil {
			return fmt.Errorf("no session for %s: %w", source, err)
		}

		s, err := session.Open(session.Options{Source: source, Store: store, Fresh: true})
		if err != nil {
			return err
		}
		if err := s.Forget(); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deleted session for %s\n", s.Source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.AddCommand(sessionStatsCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)

	// flags for session clear
	sessionClearCmd.Flags().BoolVar(&sessionConfirm, "confirm", false, "skip confirmation prompt")
}

// helper functions

func positionLabel(snap *session.Snapshot) string {
	if len(snap.Records) == 0 || snap.CursorIndex < 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", snap.CursorIndex+1, len(snap.Records))
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
