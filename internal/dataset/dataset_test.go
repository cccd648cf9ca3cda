package dataset

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"karolbroda.com/setlist/internal/playlist"
	"karolbroda.com/setlist/internal/track"
)

const sample = `ID,Title,Artist,Album,Genre,Duration,Year,Rating
1,Blinding Lights,The Weeknd,After Hours,Pop,3:20,2019,4.8
2,Bohemian Rhapsody,Queen,A Night at the Opera,Rock,5:55,1975,5
3,Broken Row,Someone,Somewhere,Jazz,4:00,not-a-year,3
4,"Hello, Again",Adele,25,Soul,bad,2015,4.5
5,Short,Too Few
6,Rated,Nobody,None,Indie,2:00,2020,five
`

func TestLoad(t *testing.T) {
	require := require.New(t)
	pl := playlist.New()

	report, err := Load(strings.NewReader(sample), pl)
	require.NoError(err)
	require.Equal(3, report.Loaded)
	require.Len(report.Skipped, 3)
	require.Equal(3, report.Skipped[0].Row)
	require.Equal(5, report.Skipped[1].Row)
	require.Equal(6, report.Skipped[2].Row)

	records := pl.Forward()
	require.Len(records, 3)
	require.Equal("1", records[0].ID)
	require.Equal(200, records[0].DurationSecs)
	require.Equal(2019, records[0].Year)
	require.InDelta(4.8, records[0].Rating, 0.0001)

	require.Equal("2", records[1].ID)
	require.Equal(355, records[1].DurationSecs)

	// unparsable duration falls back to the default
	require.Equal("Hello, Again", records[2].Title)
	require.Equal(track.DefaultDurationSecs, records[2].DurationSecs)

	cur, ok := pl.Current()
	require.True(ok)
	require.Equal("1", cur.ID)
}

func TestLoadHeaderOrderAndCase(t *testing.T) {
	require := require.New(t)
	input := "\ufeffrating,year,duration,genre,album,artist,title,id\n4,2001,3:00,Pop,Alb,Art,Tit,x1\n"

	pl := playlist.New()
	report, err := Load(strings.NewReader(input), pl)
	require.NoError(err)
	require.Equal(1, report.Loaded)

	rec, ok := pl.Find("x1")
	require.True(ok)
	require.Equal("Tit", rec.Title)
	require.Equal("Art", rec.Artist)
	require.Equal(180, rec.DurationSecs)
}

func TestLoadMissingColumn(t *testing.T) {
	pl := playlist.New()
	_, err := Load(strings.NewReader("ID,Title,Artist\n1,a,b\n"), pl)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingColumn))
	require.True(t, pl.IsEmpty())
}

func TestLoadEmptyInput(t *testing.T) {
	pl := playlist.New()
	report, err := Load(strings.NewReader(""), pl)
	require.NoError(t, err)
	require.Zero(t, report.Loaded)
	require.True(t, pl.IsEmpty())
}

func TestExportRoundTrip(t *testing.T) {
	require := require.New(t)
	pl := playlist.New()
	pl.InsertLast(track.Record{ID: "a", Title: "One, Two", Artist: "X", Album: "Y", Genre: "Pop",
		DurationSecs: 185, Year: 1999, Rating: 4.5})
	pl.InsertLast(track.Record{ID: "b", Title: "Three", Artist: "Z", Album: "W", Genre: "Rock",
		DurationSecs: 60, Year: 2005, Rating: 3})

	var buf bytes.Buffer
	require.NoError(Export(&buf, pl))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal("ID,Title,Artist,Album,Genre,Duration,Year,Rating", lines[0])
	require.Equal(`a,"One, Two",X,Y,Pop,3:05,1999,4.5`, lines[1])
	require.Equal("b,Three,Z,W,Rock,1:00,2005,3", lines[2])

	back := playlist.New()
	report, err := Load(&buf, back)
	require.NoError(err)
	require.Empty(report.Skipped)
	require.Equal(pl.Forward(), back.Forward())
}

func TestExportFileAndLoadFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "playlist.csv")

	pl := playlist.New()
	pl.InsertLast(track.Record{ID: "a", Title: "T", Artist: "A", Genre: "G", DurationSecs: 61, Year: 2000, Rating: 1})
	require.NoError(ExportFile(path, pl))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(err)
	require.Len(entries, 1, "temp file left behind")

	back := playlist.New()
	report, err := LoadFile(path, back)
	require.NoError(err)
	require.Equal(1, report.Loaded)
	require.Equal(pl.Forward(), back.Forward())

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), playlist.New())
	require.True(errors.Is(err, os.ErrNotExist))
}

func TestCopyFile(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "DATASETUAS.txt")
	dst := filepath.Join(dir, "DATASETUAS.csv")

	require.NoError(os.WriteFile(src, []byte(sample), 0o644))
	require.NoError(CopyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(err)
	require.Equal(sample, string(data))

	require.Error(CopyFile(filepath.Join(dir, "nope.txt"), dst))
}

func TestRowErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := RowError{Row: 4, Err: base}
	require.Equal(t, "row 4: boom", err.Error())
	require.True(t, errors.Is(err, base))
}
