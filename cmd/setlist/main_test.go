package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"karolbroda.com/setlist/internal/session"
	"karolbroda.com/setlist/internal/track"
)

const sampleCSV = `ID,Title,Artist,Album,Genre,Duration,Year,Rating
1,Alpha,Zed,Album,Rock,3:00,2001,4
2,Bravo,Yan,Album,Jazz,4:00,2002,3
3,Charlie,Xia,Album,Rock,5:00,2003,5
`

func writePlaylist(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "playlist.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseDurationInput(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: track.DefaultDurationSecs},
		{raw: "3:30", want: 210},
		{raw: " 0:05 ", want: 5},
		{raw: "95", want: 95},
		{raw: "3:75", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "1:2:3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseDurationInput(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseYearAndRating(t *testing.T) {
	require := require.New(t)

	year, err := parseYearInput("1999")
	require.NoError(err)
	require.Equal(1999, year)
	_, err = parseYearInput("nineteen")
	require.Error(err)

	rating, err := parseRatingInput("4.5")
	require.NoError(err)
	require.Equal(4.5, rating)
	_, err = parseRatingInput("6")
	require.Error(err)
	rating, err = parseRatingInput("")
	require.NoError(err)
	require.Zero(rating)
}

func TestRecordFlags(t *testing.T) {
	require := require.New(t)

	f := recordFlags{title: " Song ", artist: "Band", duration: "2:00", year: "2020", rating: "3"}
	rec, err := f.record()
	require.NoError(err)
	require.Equal(track.Record{Title: "Song", Artist: "Band", DurationSecs: 120, Year: 2020, Rating: 3}, rec)

	_, err = (&recordFlags{title: "Song"}).record()
	require.Error(err)

	var pf recordFlags
	cmd := &cobra.Command{Use: "update"}
	pf.register(cmd)
	require.NoError(cmd.Flags().Parse([]string{"--genre", "Jazz", "--year", "1959"}))

	patch, err := pf.patch(cmd)
	require.NoError(err)
	require.Nil(patch.Title)
	require.Equal("Jazz", *patch.Genre)
	require.Equal(1959, *patch.Year)

	require.NoError(cmd.Flags().Parse([]string{"--rating", "11"}))
	_, err = pf.patch(cmd)
	require.Error(err)
}

func TestHelpers(t *testing.T) {
	require := require.New(t)

	require.Equal("512 B", formatBytes(512))
	require.Equal("1.5 KB", formatBytes(1536))

	require.Equal("-", positionLabel(&session.Snapshot{}))
	require.Equal("2/3", positionLabel(&session.Snapshot{Records: make([]track.Record, 3), CursorIndex: 1}))

	mprisService = ""
	require.Equal("org.mpris.MediaPlayer2.mpv", mprisServiceName("org.mpris.MediaPlayer2.mpv"))
}

func TestCommandsEndToEnd(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := writePlaylist(t, dir)
	base := []string{"--file", path, "--state-dir", filepath.Join(dir, "state")}
	with := func(args ...string) []string { return append(args, base...) }

	out, err := execute(t, with("add", "--title", "New", "--artist", "Band", "--duration", "2:30", "--id", "n1", "--after", "1")...)
	require.NoError(err)
	require.Contains(out, "added New (n1)")

	out, err = execute(t, with("list", "--limit", "0")...)
	require.NoError(err)
	require.Contains(out, "New")
	require.Contains(out, "total: 4 songs")

	out, err = execute(t, with("next")...)
	require.NoError(err)
	require.Contains(out, "New")

	// the cursor survives between runs
	out, err = execute(t, with("now")...)
	require.NoError(err)
	require.Contains(out, "New")

	out, err = execute(t, with("jump", "3")...)
	require.NoError(err)
	require.Contains(out, "Charlie")

	out, err = execute(t, with("delete", "n1")...)
	require.NoError(err)
	require.Contains(out, "deleted New (n1)")

	_, err = execute(t, with("jump", "n1")...)
	require.ErrorIs(err, errNotFound)

	out, err = execute(t, with("sort", "artist")...)
	require.NoError(err)
	require.Contains(out, "sorted 3 songs by artist")

	s, err := session.Open(session.Options{Source: path})
	require.NoError(err)
	var ids []string
	for _, rec := range s.Playlist.Forward() {
		ids = append(ids, rec.ID)
	}
	require.Equal([]string{"3", "2", "1"}, ids)

	exported := filepath.Join(dir, "out.csv")
	out, err = execute(t, with("export", exported)...)
	require.NoError(err)
	require.Contains(out, "exported 3 songs")
	data, err := os.ReadFile(exported)
	require.NoError(err)
	require.Len(strings.Split(strings.TrimSpace(string(data)), "\n"), 4)

	out, err = execute(t, with("convert", path, filepath.Join(dir, "copy.csv"))...)
	require.NoError(err)
	require.Contains(out, "(3 songs)")

	out, err = execute(t, with("session", "list")...)
	require.NoError(err)
	require.Contains(out, "total: 1 sessions")

	_, err = execute(t, with("sort", "genre")...)
	require.Error(err)

	_, err = execute(t, with("delete")...)
	require.Error(err)
}

func TestFilterCommands(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := writePlaylist(t, dir)
	base := []string{"--file", path, "--state-dir", filepath.Join(dir, "state")}

	out, err := execute(t, append([]string{"filter", "genre", "ROCK"}, base...)...)
	require.NoError(err)
	require.Contains(out, "Alpha")
	require.Contains(out, "Charlie")
	require.NotContains(out, "Bravo")

	out, err = execute(t, append([]string{"filter", "year", "2002"}, base...)...)
	require.NoError(err)
	require.Contains(out, "Bravo")

	out, err = execute(t, append([]string{"search", "xia"}, base...)...)
	require.NoError(err)
	require.Contains(out, "Charlie")
	require.Contains(out, "total: 1 songs")

	_, err = execute(t, append([]string{"filter", "year", "soon"}, base...)...)
	require.Error(err)
}

func TestFreshAndSessionDeleteDropSnapshot(t *testing.T) {
	require := require.New(t)
	t.Cleanup(func() { fresh = false })

	dir := t.TempDir()
	path := writePlaylist(t, dir)
	state := filepath.Join(dir, "state")
	with := func(args ...string) []string { return append(args, "--file", path, "--state-dir", state) }

	store, err := session.NewStore(state)
	require.NoError(err)

	_, err = execute(t, with("next")...)
	require.NoError(err)
	_, err = store.Get(path)
	require.NoError(err)

	out, err := execute(t, with("session", "delete")...)
	require.NoError(err)
	require.Contains(out, "deleted session for")
	_, err = store.Get(path)
	require.ErrorIs(err, session.ErrSnapshotMiss)

	_, err = execute(t, with("session", "delete")...)
	require.Error(err)

	_, err = execute(t, with("next")...)
	require.NoError(err)
	_, err = store.Get(path)
	require.NoError(err)

	out, err = execute(t, with("now", "--fresh")...)
	fresh = false
	require.NoError(err)
	require.Contains(out, "Alpha")
	_, err = store.Get(path)
	require.ErrorIs(err, session.ErrSnapshotMiss)
}
