package player

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	"karolbroda.com/setlist/internal/track"
)

const (
	mprisPrefix      = "org.mpris.MediaPlayer2."
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisRootIface   = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
)

var ErrNothingPlaying = errors.New("no track currently playing")

// Status is what a player reports for its current track.
type Status struct {
	Record  track.Record
	Playing bool
	TrackID string
}

type Service struct {
	bus     *dbus.Conn
	service string
}

func NewService(bus *dbus.Conn, mprisService string) (*Service, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if mprisService == "" {
		return nil, errors.New("empty mpris service name")
	}
	return &Service{bus: bus, service: mprisService}, nil
}

func (s *Service) Name() string { return s.service }

// ListPlayers returns the mpris services on the bus, sorted by name.
func ListPlayers(bus *dbus.Conn) ([]string, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}

	var names []string
	err := bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return nil, fmt.Errorf("failed to list dbus names: %w", err)
	}

	players := FilterPlayers(names)
	slices.Sort(players)
	return players, nil
}

func FilterPlayers(names []string) []string {
	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, name)
		}
	}
	return players
}

// Identity is the human readable player name, empty when the player has none.
func (s *Service) Identity() string {
	variant, err := s.bus.Object(s.service, mprisPath).GetProperty(mprisRootIface + ".Identity")
	if err != nil {
		return ""
	}
	identity, ok := variant.Value().(string)
	if !ok {
		return ""
	}
	return identity
}

func (s *Service) NowPlaying() (*Status, error) {
	obj := s.bus.Object(s.service, mprisPath)
	if obj == nil {
		return nil, errors.New("nil dbus object")
	}

	prop, err := obj.GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata property: %w", err)
	}

	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", prop.Value())
	}

	rec := RecordFromMetadata(metadata)
	if !rec.IsValid() {
		return nil, ErrNothingPlaying
	}

	status := &Status{
		Record:  rec,
		TrackID: extractString(metadata, "mpris:trackid"),
	}

	// a player without PlaybackStatus is treated as paused
	if playback, err := obj.GetProperty(mprisPlayerIface + ".PlaybackStatus"); err == nil {
		if value, ok := playback.Value().(string); ok {
			status.Playing = value == "Playing"
		}
	}

	return status, nil
}

// RecordFromMetadata maps xesam/mpris metadata onto a record. the id is left
// empty, callers assign one when the record enters a playlist.
func RecordFromMetadata(metadata map[string]dbus.Variant) track.Record {
	rec := track.Record{
		Title:        extractString(metadata, "xesam:title"),
		Artist:       extractFirst(metadata, "xesam:artist"),
		Album:        extractString(metadata, "xesam:album"),
		Genre:        extractFirst(metadata, "xesam:genre"),
		DurationSecs: int(extractDurationSeconds(metadata, "mpris:length")),
		Year:         extractYear(metadata, "xesam:contentCreated"),
	}

	// xesam ratings are 0..1
	if rating, ok := extractFloat(metadata, "xesam:userRating"); ok && rating > 0 {
		rec.Rating = min(rating, 1) * 5
	}
	if rec.DurationSecs == 0 {
		rec.DurationSecs = track.DefaultDurationSecs
	}

	return rec
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case string:
		return typed
	case dbus.ObjectPath:
		return string(typed)
	default:
		return ""
	}
}

func extractFirst(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
		return ""
	case string:
		return typed
	default:
		return ""
	}
}

func extractDurationSeconds(metadata map[string]dbus.Variant, key string) int64 {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}

	switch typed := variant.Value().(type) {
	case int64:
		if typed <= 0 {
			return 0
		}
		return typed / 1_000_000
	case uint64:
		return int64(typed / 1_000_000)
	default:
		return 0
	}
}

func extractFloat(metadata map[string]dbus.Variant, key string) (float64, bool) {
	variant, exists := metadata[key]
	if !exists {
		return 0, false
	}
	value, ok := variant.Value().(float64)
	return value, ok
}

// extractYear reads the leading year of an iso 8601 date.
func extractYear(metadata map[string]dbus.Variant, key string) int {
	raw := extractString(metadata, key)
	if len(raw) < 4 {
		return 0
	}
	year, err := strconv.Atoi(raw[:4])
	if err != nil {
		return 0
	}
	return year
}
