package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/setlist/internal/logging"
	"karolbroda.com/setlist/internal/player"
	"karolbroda.com/setlist/internal/terminal"
	"karolbroda.com/setlist/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the interactive playlist",
	Long:  `starts the terminal playlist browser. the session is saved on quit.`,
	RunE:  runViewer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runViewer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	defer terminal.Reset()

	cfg := loadConfig()

	s, err := openSession(cfg)
	if err != nil {
		return err
	}

	// mpris import is optional, the playlist works without a session bus
	var playerService *player.Service
	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		logging.Warn("no session bus, mpris import disabled: %v", err)
	} else {
		defer bus.Close()
		playerService, err = player.NewService(bus, mprisServiceName(cfg.MprisService))
		if err != nil {
			return fmt.Errorf("failed to create player service: %w", err)
		}
	}

	model := ui.NewModel(ui.ModelConfig{
		Session: s,
		Player:  playerService,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		select {
		case <-sigChan:
			// routed through Update so the session is saved on the way out
			p.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		case <-ctx.Done():
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}

	return nil
}
