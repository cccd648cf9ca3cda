package track

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDurationSecs is used when a duration cannot be parsed.
const DefaultDurationSecs = 180

type Record struct {
	ID           string
	Title        string
	Artist       string
	Album        string
	Genre        string
	DurationSecs int
	Year         int
	Rating       float64
}

func (r *Record) IsValid() bool {
	if r == nil {
		return false
	}
	return r.Title != "" && r.Artist != ""
}

// IsSameTrack compares by id only, two records may share every other field.
func (r *Record) IsSameTrack(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.ID == other.ID
}

func (r Record) String() string {
	return fmt.Sprintf("%s | %s | %s | %s | %s | %s | %d | %.1f",
		r.ID, r.Title, r.Artist, r.Album, r.Genre, FormatDuration(r.DurationSecs), r.Year, r.Rating)
}

// Patch holds optional per-field changes, nil fields are left alone.
type Patch struct {
	Title        *string
	Artist       *string
	Album        *string
	Genre        *string
	DurationSecs *int
	Year         *int
	Rating       *float64
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Artist == nil && p.Album == nil && p.Genre == nil &&
		p.DurationSecs == nil && p.Year == nil && p.Rating == nil
}

func (r *Record) Apply(p Patch) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Artist != nil {
		r.Artist = *p.Artist
	}
	if p.Album != nil {
		r.Album = *p.Album
	}
	if p.Genre != nil {
		r.Genre = *p.Genre
	}
	if p.DurationSecs != nil {
		r.DurationSecs = *p.DurationSecs
	}
	if p.Year != nil {
		r.Year = *p.Year
	}
	if p.Rating != nil {
		r.Rating = *p.Rating
	}
}

// ParseDuration accepts "M:SS" or a bare number of seconds.
func ParseDuration(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultDurationSecs
	}

	if !strings.Contains(raw, ":") {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 0 {
			return DefaultDurationSecs
		}
		return secs
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return DefaultDurationSecs
	}

	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || minutes < 0 {
		return DefaultDurationSecs
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || seconds < 0 {
		return DefaultDurationSecs
	}

	return minutes*60 + seconds
}

func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// NewID builds a timestamp id for manually entered tracks. taken may be nil.
func NewID(now time.Time, taken func(id string) bool) string {
	id := "song_" + now.Format("20060102150405")
	if taken == nil || !taken(id) {
		return id
	}
	// two entries within the same second
	return id + "_" + uuid.NewString()[:8]
}
