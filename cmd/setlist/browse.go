package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"karolbroda.com/setlist/internal/config"
	"karolbroda.com/setlist/internal/session"
	"karolbroda.com/setlist/internal/terminal"
	"karolbroda.com/setlist/internal/ui"
)

var (
	// flags for list
	listReverse bool
	listLimit   int
)

// withSession opens the configured playlist before running fn.
func withSession(fn func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		s, err := openSession(cfg)
		if err != nil {
			return err
		}
		return fn(cmd, args, cfg, s)
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "show the playlist",
	Long:  `show the playlist from the first song to the last, or the other way round with --reverse.`,
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		limit := cfg.DisplayLimit
		if cmd.Flags().Changed("limit") {
			limit = listLimit
		}

		records := s.Playlist.Forward()
		title := "playlist (forward)"
		if listReverse {
			records = s.Playlist.Backward()
			title = "playlist (backward)"
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTracks(records, title, limit, terminal.Width()))
		return nil
	}),
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "search title, artist and genre",
	Args:  cobra.MinimumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		query := strings.Join(args, " ")
		results := s.Playlist.Search(query)
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTracks(results, fmt.Sprintf("search results for %q", query), 0, terminal.Width()))
		return nil
	}),
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "filter the playlist by genre or year",
}

var filterGenreCmd = &cobra.Command{
	Use:   "genre <genre>",
	Short: "songs of one genre, ignoring case",
	Args:  cobra.MinimumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		genre := strings.Join(args, " ")
		results := s.Playlist.FilterByGenre(genre)
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTracks(results, "genre: "+genre, 0, terminal.Width()))
		return nil
	}),
}

var filterYearCmd = &cobra.Command{
	Use:   "year <year>",
	Short: "songs released in one year",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		year, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid year %q", args[0])
		}
		results := s.Playlist.FilterByYear(year)
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderTracks(results, "year: "+args[0], 0, terminal.Width()))
		return nil
	}),
}

var nowCmd = &cobra.Command{
	Use:   "now",
	Short: "show the current song",
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderNowPlaying(s.Playlist.Current()))
		return nil
	}),
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "move to the next song",
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		if s.Playlist.IsEmpty() {
			return errEmpty
		}
		rec, ok := s.Playlist.PlayNext()
		if !ok {
			return fmt.Errorf("already at the last song")
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderNowPlaying(rec, true))
		return s.SaveCursor()
	}),
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "move to the previous song",
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		if s.Playlist.IsEmpty() {
			return errEmpty
		}
		rec, ok := s.Playlist.PlayPrevious()
		if !ok {
			return fmt.Errorf("already at the first song")
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderNowPlaying(rec, true))
		return s.SaveCursor()
	}),
}

var jumpCmd = &cobra.Command{
	Use:   "jump <id>",
	Short: "make a song the current one",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		rec, ok := s.Playlist.JumpTo(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", errNotFound, args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderNowPlaying(rec, true))
		return s.SaveCursor()
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show playlist statistics",
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderStats(s.Playlist.Stats()))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(filterCmd)
	rootCmd.AddCommand(nowCmd)
	rootCmd.AddCommand(nextCmd)
	rootCmd.AddCommand(prevCmd)
	rootCmd.AddCommand(jumpCmd)
	rootCmd.AddCommand(statsCmd)

	filterCmd.AddCommand(filterGenreCmd)
	filterCmd.AddCommand(filterYearCmd)

	// flags for list
	listCmd.Flags().BoolVarP(&listReverse, "reverse", "r", false, "list from the last song to the first")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "rows to show, 0 for all (default $SETLIST_DISPLAY_LIMIT)")
}
