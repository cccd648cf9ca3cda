package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"karolbroda.com/setlist/internal/colors"
	"karolbroda.com/setlist/internal/track"
)

const helpText = "n/p next/prev · enter play · / search · g genre · y year · esc clear · r reverse · s shuffle · t/a sort · x [ ] delete · i import · w write · q quit"

func (m Model) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.quitting {
		return ""
	}

	var lines []string
	lines = append(lines, m.renderHeader(width))
	lines = append(lines, m.renderNowPlaying(width))
	lines = append(lines, "")

	// header, now playing, spacer, prompt, status, help
	listHeight := max(height-6, 3)
	lines = append(lines, m.renderList(width, listHeight)...)

	for len(lines) < height-3 {
		lines = append(lines, "")
	}

	lines = append(lines, m.renderPrompt())
	lines = append(lines, m.renderStatus(width))
	lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim)).Render(truncate(helpText, width)))

	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderHeader(width int) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	title := colors.RenderGradientText("setlist", m.palette.Gradient, true)
	info := fmt.Sprintf(" %s · %d songs", filepath.Base(m.session.Source), m.pl().Len())
	if m.dirty {
		info += " · unsaved"
	}
	if label := m.FilterLabel(); label != "" {
		info += " · " + label
	}
	if m.reversed {
		info += " · reversed"
	}

	return title + dim.Render(truncate(info, width-len("setlist")))
}

func (m Model) renderNowPlaying(width int) string {
	cur, ok := m.pl().Current()
	if !ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim)).Italic(true).Render("nothing playing")
	}

	text := fmt.Sprintf("▶ %s - %s (%s)", cur.Title, cur.Artist, track.FormatDuration(cur.DurationSecs))
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Secondary)).Bold(true).Render(truncate(text, width))
}

// renderList keeps the selection inside a window of height rows.
func (m Model) renderList(width int, height int) []string {
	rows := m.rows()
	if len(rows) == 0 {
		return []string{lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim)).Italic(true).Render("no songs found")}
	}

	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(start+height, len(rows))

	playing := m.cursorRow(rows)
	styles := newRowStyles(m.palette)

	var lines []string
	for i := start; i < end; i++ {
		marker := "  "
		if i == playing {
			marker = "▶ "
		}
		if i == m.selected {
			marker = "› "
			if i == playing {
				marker = "▶›"
			}
		}

		line := marker + formatRow(rows[i], width-runewidth.StringWidth(marker))

		switch {
		case i == m.selected && i == playing:
			lines = append(lines, styles.both.Render(line))
		case i == m.selected:
			lines = append(lines, styles.selected.Render(line))
		case i == playing:
			lines = append(lines, styles.playing.Render(line))
		default:
			lines = append(lines, styles.normal.Render(line))
		}
	}
	return lines
}

type rowStyles struct {
	normal   lipgloss.Style
	selected lipgloss.Style
	playing  lipgloss.Style
	both     lipgloss.Style
}

// the playing row is a shade darker than the now-playing line.
func newRowStyles(p *colors.Palette) rowStyles {
	return rowStyles{
		normal:   lipgloss.NewStyle(),
		selected: lipgloss.NewStyle().Foreground(lipgloss.Color(p.Primary)).Bold(true),
		playing:  lipgloss.NewStyle().Foreground(lipgloss.Color(colors.AdjustBrightness(p.Secondary, 0.85))),
		both:     lipgloss.NewStyle().Foreground(lipgloss.Color(colors.BlendColors(p.Primary, p.Secondary, 0.5))).Bold(true),
	}
}

func formatRow(rec track.Record, width int) string {
	right := fmt.Sprintf(" %s %s %s", track.FormatDuration(rec.DurationSecs), yearCell(rec.Year), Stars(rec.Rating))
	left := truncate(rec.Title+" - "+rec.Artist, max(width-runewidth.StringWidth(right), 1))
	pad := max(width-runewidth.StringWidth(left)-runewidth.StringWidth(right), 0)
	return left + strings.Repeat(" ", pad) + right
}

func (m Model) renderPrompt() string {
	if m.mode == modeBrowse {
		return ""
	}
	return m.input.View()
}

func (m Model) renderStatus(width int) string {
	if m.err != nil {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Error)).Render(truncate("error: "+m.err.Error(), width))
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Accent)).Italic(true).Render(truncate(m.status, width))
}
