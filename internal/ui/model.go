package ui

import (
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/setlist/internal/colors"
	"karolbroda.com/setlist/internal/player"
	"karolbroda.com/setlist/internal/playlist"
	"karolbroda.com/setlist/internal/session"
	"karolbroda.com/setlist/internal/track"
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeGenre
	modeYear
)

func (m inputMode) prompt() string {
	switch m {
	case modeSearch:
		return "search: "
	case modeGenre:
		return "genre: "
	case modeYear:
		return "year: "
	default:
		return ""
	}
}

type NowPlayingMsg struct {
	Status *player.Status
	Err    error
}

// filter is a saved query, re-run after every change to the playlist.
type filter struct {
	label string
	run   func(pl *playlist.Playlist) []track.Record
}

type Model struct {
	session *session.Session
	player  *player.Service
	palette *colors.Palette
	now     func() time.Time

	input    textinput.Model
	mode     inputMode
	filter   *filter
	reversed bool
	selected int
	dirty    bool

	status   string
	err      error
	quitting bool
	width    int
	height   int
}

type ModelConfig struct {
	Session *session.Session
	// Player may be nil when no session bus is available.
	Player *player.Service
}

func NewModel(cfg ModelConfig) Model {
	input := textinput.New()
	input.CharLimit = 128

	m := Model{
		session: cfg.Session,
		player:  cfg.Player,
		palette: colors.DefaultPalette(),
		now:     time.Now,
		input:   input,
	}
	m.selectCursor()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) pl() *playlist.Playlist { return m.session.Playlist }

// rows is what the list currently shows, in display order.
func (m Model) rows() []track.Record {
	pl := m.pl()
	if m.filter == nil {
		if m.reversed {
			return pl.Backward()
		}
		return pl.Forward()
	}

	rows := m.filter.run(pl)
	if m.reversed {
		slices.Reverse(rows)
	}
	return rows
}

// cursorRow is the row holding the play cursor, -1 when it is not shown.
func (m Model) cursorRow(rows []track.Record) int {
	pl := m.pl()
	idx := pl.CursorIndex()
	if idx < 0 {
		return -1
	}

	if m.filter == nil {
		if m.reversed {
			return len(rows) - 1 - idx
		}
		return idx
	}

	cur, _ := pl.Current()
	for i := range rows {
		if rows[i].IsSameTrack(&cur) {
			return i
		}
	}
	return -1
}

func (m *Model) selectCursor() {
	if row := m.cursorRow(m.rows()); row >= 0 {
		m.selected = row
	}
}

func (m *Model) clampSelection() {
	n := len(m.rows())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) Width() int       { return m.width }
func (m Model) Height() int      { return m.height }
func (m Model) Selected() int    { return m.selected }
func (m Model) Reversed() bool   { return m.reversed }
func (m Model) Dirty() bool      { return m.dirty }
func (m Model) Status() string   { return m.status }
func (m Model) Err() error       { return m.err }
func (m Model) IsQuitting() bool { return m.quitting }

func (m Model) FilterLabel() string {
	if m.filter == nil {
		return ""
	}
	return m.filter.label
}
