package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/setlist/internal/config"
	"karolbroda.com/setlist/internal/player"
	"karolbroda.com/setlist/internal/session"
	"karolbroda.com/setlist/internal/track"
	"karolbroda.com/setlist/internal/ui"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "mpris player utilities",
	Long:  `discover mpris-compatible music players and pull the song they are playing into the playlist.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list available mpris players",
	Long:  `list all mpris-compatible music players currently running on the system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		services, err := player.ListPlayers(bus)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(services) == 0 {
			fmt.Fprintln(out, "no mpris players found")
			fmt.Fprintln(out, "\ncheck if your music player is running and supports mpris")
			return nil
		}

		fmt.Fprintf(out, "found %d mpris player(s):\n\n", len(services))
		for _, service := range services {
			svc, err := player.NewService(bus, service)
			if err != nil {
				continue
			}
			if identity := svc.Identity(); identity != "" {
				fmt.Fprintf(out, "  %s (%s)\n", service, identity)
			} else {
				fmt.Fprintf(out, "  %s\n", service)
			}
		}

		fmt.Fprintln(out, "\nuse --mpris-service flag to specify which player to use")
		return nil
	},
}

// nowPlaying asks the configured player for its current song.
func nowPlaying(cfg *config.Config) (*player.Status, error) {
	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	svc, err := player.NewService(bus, mprisServiceName(cfg.MprisService))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to player: %w", err)
	}
	return svc.NowPlaying()
}

var playerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "show the song the player is playing",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := nowPlaying(loadConfig())
		if errors.Is(err, player.ErrNothingPlaying) {
			fmt.Fprintln(cmd.OutOrStdout(), "no track currently playing")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderNowPlaying(status.Record, true))
		state := "paused"
		if status.Playing {
			state = "playing"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  state:    %s\n", state)
		return nil
	},
}

var playerImportCmd = &cobra.Command{
	Use:   "import",
	Short: "append the player's current song to the playlist",
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		status, err := nowPlaying(cfg)
		if err != nil {
			return err
		}

		rec := status.Record
		rec.ID = track.NewID(time.Now(), func(id string) bool {
			_, taken := s.Playlist.Find(id)
			return taken
		})
		s.Playlist.InsertLast(rec)

		if err := s.Commit(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "added %s by %s (%s)\n", rec.Title, rec.Artist, rec.ID)
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerCurrentCmd)
	playerCmd.AddCommand(playerImportCmd)
}
