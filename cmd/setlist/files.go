package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"karolbroda.com/setlist/internal/config"
	"karolbroda.com/setlist/internal/dataset"
	"karolbroda.com/setlist/internal/playlist"
	"karolbroda.com/setlist/internal/session"
	"karolbroda.com/setlist/internal/terminal"
)

// withSpinner runs action behind a spinner when a terminal is attached.
func withSpinner(ctx context.Context, title string, action func(ctx context.Context) error) error {
	if !terminal.IsInteractive() {
		return action(ctx)
	}
	return spinner.New().Title(title).Context(ctx).ActionWithErr(action).Run()
}

var exportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "write the playlist to a csv file",
	Long:  `write the playlist in its current order to a csv file (default $SETLIST_EXPORT_FILE).`,
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		dest := cfg.ExportFile
		if len(args) == 1 {
			dest = args[0]
		}

		err := withSpinner(cmd.Context(), "Exporting...", func(ctx context.Context) error {
			return s.ExportTo(dest)
		})
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "exported %d songs to %s\n", s.Playlist.Len(), dest)
		return nil
	}),
}

var convertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "copy a .txt dataset to a .csv file",
	Long: `copy a dataset file to a new name. the input is checked first so a file that
would not load is not copied.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := args[0], args[1]
		if filepath.Clean(in) == filepath.Clean(out) {
			return fmt.Errorf("input and output are the same file")
		}

		var report dataset.Report
		err := withSpinner(cmd.Context(), "Converting...", func(ctx context.Context) error {
			var err error
			report, err = dataset.LoadFile(in, playlist.New())
			if err != nil {
				return err
			}
			return dataset.CopyFile(in, out)
		})
		if err != nil {
			return fmt.Errorf("failed to convert %s: %w", in, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "converted %s to %s (%d songs", in, out, report.Loaded)
		if skipped := len(report.Skipped); skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), ", %d malformed rows", skipped)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ")")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(convertCmd)
}
