package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"karolbroda.com/setlist/internal/logging"
	"karolbroda.com/setlist/internal/playlist"
	"karolbroda.com/setlist/internal/track"
)

// Columns is the fixed export order.
var Columns = []string{"ID", "Title", "Artist", "Album", "Genre", "Duration", "Year", "Rating"}

var ErrMissingColumn = errors.New("missing column")

type RowError struct {
	Row int // 1-based data row, the header is not counted
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

type Report struct {
	Loaded  int
	Skipped []RowError
}

// Load appends every well-formed row of r to pl in input order. malformed
// rows are reported and skipped, only header problems abort the load.
func Load(r io.Reader, pl *playlist.Playlist) (Report, error) {
	var report Report

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return report, nil
		}
		return report, fmt.Errorf("failed to read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return report, err
	}

	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report.skip(row, err)
				continue
			}
			return report, fmt.Errorf("failed to read row %d: %w", row, err)
		}

		rec, err := parseRow(fields, index)
		if err != nil {
			report.skip(row, err)
			continue
		}

		pl.InsertLast(rec)
		report.Loaded++
	}

	return report, nil
}

func (r *Report) skip(row int, err error) {
	rowErr := RowError{Row: row, Err: err}
	r.Skipped = append(r.Skipped, rowErr)
	logging.Warn("skipping %v", rowErr)
}

func LoadFile(path string, pl *playlist.Playlist) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()

	report, err := Load(f, pl)
	if err != nil {
		return report, fmt.Errorf("%s: %w", path, err)
	}

	logging.Debug("loaded %d songs from %s (%d skipped)", report.Loaded, path, len(report.Skipped))
	return report, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(Columns))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for _, col := range Columns {
			if strings.EqualFold(name, col) {
				if _, seen := index[col]; !seen {
					index[col] = i
				}
			}
		}
	}

	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}
	return index, nil
}

func parseRow(fields []string, index map[string]int) (track.Record, error) {
	get := func(col string) (string, error) {
		i := index[col]
		if i >= len(fields) {
			return "", fmt.Errorf("missing %s field (got %d fields)", strings.ToLower(col), len(fields))
		}
		return fields[i], nil
	}

	values := make(map[string]string, len(Columns))
	for _, col := range Columns {
		v, err := get(col)
		if err != nil {
			return track.Record{}, err
		}
		values[col] = v
	}

	year, err := strconv.Atoi(strings.TrimSpace(values["Year"]))
	if err != nil {
		return track.Record{}, fmt.Errorf("invalid year %q", values["Year"])
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(values["Rating"]), 64)
	if err != nil {
		return track.Record{}, fmt.Errorf("invalid rating %q", values["Rating"])
	}

	return track.Record{
		ID:           strings.TrimSpace(values["ID"]),
		Title:        values["Title"],
		Artist:       values["Artist"],
		Album:        values["Album"],
		Genre:        values["Genre"],
		DurationSecs: track.ParseDuration(values["Duration"]),
		Year:         year,
		Rating:       rating,
	}, nil
}

// Export writes the header and every record in forward order.
func Export(w io.Writer, pl *playlist.Playlist) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Columns); err != nil {
		return err
	}

	for _, rec := range pl.Forward() {
		row := []string{
			rec.ID,
			rec.Title,
			rec.Artist,
			rec.Album,
			rec.Genre,
			track.FormatDuration(rec.DurationSecs),
			strconv.Itoa(rec.Year),
			strconv.FormatFloat(rec.Rating, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportFile writes to a temp file first, then renames it over path.
func ExportFile(path string, pl *playlist.Playlist) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = tmp.Chmod(0644)

	if err := Export(tmp, pl); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	logging.Debug("exported %d songs to %s", pl.Len(), path)
	return nil
}

// CopyFile duplicates a dataset file byte for byte, used to turn a .txt
// export into a .csv one.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
