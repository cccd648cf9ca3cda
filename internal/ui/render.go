package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"github.com/mattn/go-runewidth"

	"karolbroda.com/setlist/internal/colors"
	"karolbroda.com/setlist/internal/playlist"
	"karolbroda.com/setlist/internal/track"
)

const (
	noWidth     = 4
	durWidth    = 6
	yearWidth   = 4
	ratingWidth = 5
	minText     = 40
)

var trackHeaders = []string{"No", "ID", "Title", "Artist", "Genre", "Dur", "Year", "Rating"}

type columnWidths struct {
	id     int
	title  int
	artist int
	genre  int
}

// textWidths splits what is left after the fixed columns, borders and padding.
func textWidths(total int) columnWidths {
	avail := total - (noWidth + durWidth + yearWidth + ratingWidth) - (len(trackHeaders) + 1) - 2*len(trackHeaders)
	avail = max(avail, minText)

	w := columnWidths{
		id:     avail * 2 / 10,
		title:  avail * 4 / 10,
		artist: avail * 25 / 100,
	}
	w.genre = avail - w.id - w.title - w.artist
	return w
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// Stars renders a 0-5 rating as whole stars, fractions are dropped.
func Stars(rating float64) string {
	n := int(rating)
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func yearCell(year int) string {
	if year <= 0 {
		return "-"
	}
	return strconv.Itoa(year)
}

// FormatLong is FormatDuration with an hours field once it is needed.
func FormatLong(seconds int) string {
	if seconds < 3600 {
		return track.FormatDuration(seconds)
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

func trackRow(n int, rec track.Record, w columnWidths) []string {
	return []string{
		strconv.Itoa(n),
		truncate(rec.ID, w.id),
		truncate(rec.Title, w.title),
		truncate(rec.Artist, w.artist),
		truncate(rec.Genre, w.genre),
		track.FormatDuration(rec.DurationSecs),
		yearCell(rec.Year),
		Stars(rec.Rating),
	}
}

// RenderTracks draws records as a table. limit <= 0 shows everything.
func RenderTracks(records []track.Record, title string, limit int, width int) string {
	palette := colors.DefaultPalette()
	var b strings.Builder

	if title != "" {
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(palette.Primary)).Render(title))
		b.WriteString("\n")
	}

	if len(records) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true).Render("no songs found"))
		return b.String()
	}

	shown := records
	if limit > 0 && len(records) > limit {
		shown = records[:limit]
	}

	w := textWidths(width)
	rows := make([][]string, 0, len(shown))
	for i, rec := range shown {
		rows = append(rows, trackRow(i+1, rec, w))
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(palette.Accent)).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(trackHeaders...).
		Rows(rows...)

	b.WriteString(t.Render())
	b.WriteString("\n")

	if hidden := len(records) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "... and %d more\n", hidden)
	}
	fmt.Fprintf(&b, "total: %d songs", len(records))

	return b.String()
}

func RenderNowPlaying(rec track.Record, ok bool) string {
	palette := colors.DefaultPalette()
	if !ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim)).Italic(true).Render("nothing playing")
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Primary)).Bold(true)

	lines := []string{
		label.Render("now playing ") + value.Render(rec.Title) + label.Render(" by ") + value.Render(rec.Artist),
		label.Render("  id:       ") + rec.ID,
	}
	if rec.Album != "" {
		lines = append(lines, label.Render("  album:    ")+rec.Album)
	}
	if rec.Genre != "" {
		lines = append(lines, label.Render("  genre:    ")+rec.Genre)
	}
	lines = append(lines,
		label.Render("  duration: ")+track.FormatDuration(rec.DurationSecs),
		label.Render("  year:     ")+yearCell(rec.Year),
		label.Render("  rating:   ")+Stars(rec.Rating),
	)

	return strings.Join(lines, "\n")
}

func RenderStats(stats playlist.Stats) string {
	palette := colors.DefaultPalette()
	var lines []string

	banner := figure.NewFigure("setlist", "small", true).Slicify()
	gradient := colors.GenerateGradient(palette.Primary, palette.Secondary, len(banner)+1)
	for i, line := range banner {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i])).Render(line))
	}
	lines = append(lines, "")

	label := lipgloss.NewStyle().Foreground(lipgloss.Color(palette.Dim))

	current := "none"
	if stats.Current != nil {
		current = stats.Current.Title + " - " + stats.Current.Artist
	}

	lines = append(lines,
		label.Render("songs:          ")+strconv.Itoa(stats.Count),
		label.Render("total duration: ")+FormatLong(stats.TotalSecs),
		label.Render("average:        ")+track.FormatDuration(stats.AverageSecs),
		label.Render("current:        ")+current,
	)

	return strings.Join(lines, "\n")
}
