package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"karolbroda.com/setlist/internal/config"
	"karolbroda.com/setlist/internal/logging"
	"karolbroda.com/setlist/internal/session"
)

var (
	// global flags
	playlistFile string
	stateDir     string
	logLevel     string
	fresh        bool
	mprisService string
)

var (
	errNotFound = errors.New("song not found")
	errEmpty    = errors.New("playlist is empty")
)

var rootCmd = &cobra.Command{
	Use:   "setlist",
	Short: "terminal playlist manager",
	Long: `setlist keeps an ordered playlist in a csv file and plays through it with a cursor.
songs can be added, removed, edited, searched, shuffled and sorted, and the position in the
playlist is remembered between runs.

when run without a subcommand, it starts the interactive TUI.`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		return logging.Setup(logging.Options{
			Level: cfg.LogLevel,
			File:  cfg.LogFile,
			// the TUI owns the terminal, logs only go to a file there
			Quiet: cmd == cmd.Root() || cmd.Name() == "run",
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// default behavior: run the TUI
		return runViewer(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&playlistFile, "file", "f", "", "playlist csv file (default $SETLIST_FILE or DATASETUAS.txt)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "directory for saved sessions")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&fresh, "fresh", false, "drop the saved session and reload the file")
	rootCmd.PersistentFlags().StringVarP(&mprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.spotify)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment, then applies flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()

	if playlistFile != "" {
		cfg.PlaylistFile = playlistFile
	}
	if stateDir != "" {
		cfg.StateDir = stateDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg
}

func mprisServiceName(fallback string) string {
	if mprisService != "" {
		return mprisService
	}
	return fallback
}

// openSession opens the configured playlist. a broken state dir only costs
// the saved cursor, so it is logged and skipped.
func openSession(cfg *config.Config) (*session.Session, error) {
	store, err := session.NewStore(cfg.StateDir)
	if err != nil {
		logging.Warn("sessions disabled: %v", err)
		store = nil
	}

	s, err := session.Open(session.Options{
		Source:      cfg.PlaylistFile,
		Store:       store,
		ShuffleSeed: cfg.ShuffleSeed,
		Fresh:       fresh,
	})
	if err != nil {
		return nil, err
	}

	if fresh {
		if err := s.Forget(); err != nil {
			logging.Warn("failed to drop saved session: %v", err)
		}
	}

	if skipped := len(s.Report.Skipped); skipped > 0 {
		logging.Warn("skipped %d malformed rows in %s", skipped, s.Source)
	}
	logging.Debug("opened %s with %d songs (restored=%v)", s.Source, s.Playlist.Len(), s.Restored)

	return s, nil
}

func openStore(cfg *config.Config) (*session.Store, error) {
	store, err := session.NewStore(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}
