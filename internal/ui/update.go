package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/setlist/internal/logging"
	"karolbroda.com/setlist/internal/player"
	"karolbroda.com/setlist/internal/playlist"
	"karolbroda.com/setlist/internal/track"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.handleInputKey(msg)
		}
		return m.handleKeyPress(msg)

	case NowPlayingMsg:
		return m.handleNowPlaying(msg)
	}

	return m, nil
}

func (m *Model) setStatus(format string, args ...interface{}) {
	m.status = fmt.Sprintf(format, args...)
	m.err = nil
}

func (m *Model) setErr(err error) {
	m.err = err
	m.status = ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pl := m.pl()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if err := m.session.SaveCursor(); err != nil {
			logging.Warn("failed to save session: %v", err)
		}
		return m, tea.Quit

	case "n":
		if rec, ok := pl.PlayNext(); ok {
			m.setStatus("playing %s", rec.Title)
			m.selectCursor()
		} else {
			m.setStatus("already at the last song")
		}

	case "p":
		if rec, ok := pl.PlayPrevious(); ok {
			m.setStatus("playing %s", rec.Title)
			m.selectCursor()
		} else {
			m.setStatus("already at the first song")
		}

	case "enter":
		m.playSelected()

	case "down", "j":
		if m.selected < len(m.rows())-1 {
			m.selected++
		}

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "r":
		m.reversed = !m.reversed
		m.selectCursor()

	case "s":
		m.mutate(!pl.IsEmpty() && m.session.Shuffle(), "shuffled")

	case "t":
		m.mutate(!pl.IsEmpty() && pl.SortByTitle(), "sorted by title")

	case "a":
		m.mutate(!pl.IsEmpty() && pl.SortByArtist(), "sorted by artist")

	case "/":
		return m.startInput(modeSearch)

	case "g":
		return m.startInput(modeGenre)

	case "y":
		return m.startInput(modeYear)

	case "esc":
		if m.filter != nil {
			m.filter = nil
			m.setStatus("filter cleared")
			m.selectCursor()
		}

	case "x":
		m.deleteSelected()

	case "[":
		if rec, ok := pl.DeleteFirst(); ok {
			m.deleted(rec)
		} else {
			m.setStatus("playlist is empty")
		}

	case "]":
		if rec, ok := pl.DeleteLast(); ok {
			m.deleted(rec)
		} else {
			m.setStatus("playlist is empty")
		}

	case "i":
		if m.player == nil {
			m.setErr(errors.New("no mpris player connected"))
			return m, nil
		}
		m.setStatus("asking %s", m.player.Name())
		return m, fetchNowPlayingCmd(m.player)

	case "w":
		if err := m.session.Commit(); err != nil {
			m.setErr(err)
			return m, nil
		}
		m.dirty = false
		m.setStatus("wrote %d songs to %s", pl.Len(), m.session.Source)
	}

	return m, nil
}

// mutate records the outcome of a reordering, ok is false on an empty playlist.
func (m *Model) mutate(ok bool, done string) {
	if !ok {
		m.setStatus("nothing to reorder")
		return
	}
	m.dirty = true
	m.setStatus("%s", done)
	m.selectCursor()
}

func (m *Model) deleted(rec track.Record) {
	m.dirty = true
	m.setStatus("deleted %s", rec.Title)
	m.clampSelection()
}

func (m *Model) playSelected() {
	rows := m.rows()
	if len(rows) == 0 || m.selected >= len(rows) {
		return
	}

	pl := m.pl()
	var ok bool
	if m.filter == nil {
		// positions are exact here, ids may repeat
		idx := m.selected
		if m.reversed {
			idx = len(rows) - 1 - idx
		}
		ok = pl.Seek(idx)
	} else {
		_, ok = pl.JumpTo(rows[m.selected].ID)
	}

	if ok {
		cur, _ := pl.Current()
		m.setStatus("playing %s", cur.Title)
	}
}

func (m *Model) deleteSelected() {
	rows := m.rows()
	if len(rows) == 0 || m.selected >= len(rows) {
		m.setStatus("nothing selected")
		return
	}

	pl := m.pl()
	var (
		rec track.Record
		ok  bool
	)
	if m.filter == nil {
		idx := m.selected
		if m.reversed {
			idx = len(rows) - 1 - idx
		}
		rec, ok = pl.DeleteAt(idx)
	} else {
		rec, ok = pl.DeleteByID(rows[m.selected].ID)
	}
	if !ok {
		m.setErr(fmt.Errorf("song %s not found", rows[m.selected].ID))
		return
	}
	m.deleted(rec)
}

func (m Model) startInput(mode inputMode) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.input.Prompt = mode.prompt()
	m.input.SetValue("")
	return m, m.input.Focus()
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.endInput()
		return m, nil

	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.endInput()
		m.applyFilter(mode, value)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endInput() {
	m.mode = modeBrowse
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) applyFilter(mode inputMode, value string) {
	if value == "" {
		return
	}

	switch mode {
	case modeSearch:
		m.filter = &filter{
			label: "search: " + value,
			run:   func(pl *playlist.Playlist) []track.Record { return pl.Search(value) },
		}

	case modeGenre:
		m.filter = &filter{
			label: "genre: " + value,
			run:   func(pl *playlist.Playlist) []track.Record { return pl.FilterByGenre(value) },
		}

	case modeYear:
		year, err := strconv.Atoi(value)
		if err != nil {
			m.setErr(fmt.Errorf("invalid year %q", value))
			return
		}
		m.filter = &filter{
			label: "year: " + value,
			run:   func(pl *playlist.Playlist) []track.Record { return pl.FilterByYear(year) },
		}
	}

	m.selected = 0
	m.setStatus("%d matches", len(m.rows()))
}

func fetchNowPlayingCmd(svc *player.Service) tea.Cmd {
	return func() tea.Msg {
		status, err := svc.NowPlaying()
		return NowPlayingMsg{Status: status, Err: err}
	}
}

func (m Model) handleNowPlaying(msg NowPlayingMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.setErr(msg.Err)
		return m, nil
	}
	if msg.Status == nil {
		m.setErr(player.ErrNothingPlaying)
		return m, nil
	}

	pl := m.pl()
	rec := msg.Status.Record
	rec.ID = track.NewID(m.now(), func(id string) bool {
		_, taken := pl.Find(id)
		return taken
	})

	pl.InsertLast(rec)
	m.dirty = true
	m.setStatus("added %s by %s", rec.Title, rec.Artist)
	return m, nil
}
