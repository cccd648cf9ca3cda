package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"karolbroda.com/setlist/internal/config"
	"karolbroda.com/setlist/internal/session"
	"karolbroda.com/setlist/internal/terminal"
	"karolbroda.com/setlist/internal/track"
)

// recordFlags holds song fields as typed on the command line.
type recordFlags struct {
	title    string
	artist   string
	album    string
	genre    string
	duration string
	year     string
	rating   string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "song title")
	cmd.Flags().StringVar(&f.artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&f.album, "album", "", "album name")
	cmd.Flags().StringVar(&f.genre, "genre", "", "genre")
	cmd.Flags().StringVar(&f.duration, "duration", "", "duration as M:SS or seconds")
	cmd.Flags().StringVar(&f.year, "year", "", "release year")
	cmd.Flags().StringVar(&f.rating, "rating", "", "rating from 0 to 5")
}

// record builds a new song, the id is assigned by the caller.
func (f *recordFlags) record() (track.Record, error) {
	rec := track.Record{
		Title:  strings.TrimSpace(f.title),
		Artist: strings.TrimSpace(f.artist),
		Album:  strings.TrimSpace(f.album),
		Genre:  strings.TrimSpace(f.genre),
	}

	var err error
	if rec.DurationSecs, err = parseDurationInput(f.duration); err != nil {
		return rec, err
	}
	if rec.Year, err = parseYearInput(f.year); err != nil {
		return rec, err
	}
	if rec.Rating, err = parseRatingInput(f.rating); err != nil {
		return rec, err
	}

	if !rec.IsValid() {
		return rec, errors.New("title and artist are required")
	}
	return rec, nil
}

// patch includes only the flags that were set.
func (f *recordFlags) patch(cmd *cobra.Command) (track.Patch, error) {
	var p track.Patch
	changed := cmd.Flags().Changed

	if changed("title") {
		p.Title = &f.title
	}
	if changed("artist") {
		p.Artist = &f.artist
	}
	if changed("album") {
		p.Album = &f.album
	}
	if changed("genre") {
		p.Genre = &f.genre
	}
	if changed("duration") {
		secs, err := parseDurationInput(f.duration)
		if err != nil {
			return p, err
		}
		p.DurationSecs = &secs
	}
	if changed("year") {
		year, err := parseYearInput(f.year)
		if err != nil {
			return p, err
		}
		p.Year = &year
	}
	if changed("rating") {
		rating, err := parseRatingInput(f.rating)
		if err != nil {
			return p, err
		}
		p.Rating = &rating
	}

	return p, nil
}

func parseDurationInput(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return track.DefaultDurationSecs, nil
	}

	if m, s, ok := strings.Cut(raw, ":"); ok {
		minutes, errM := strconv.Atoi(m)
		seconds, errS := strconv.Atoi(s)
		if errM != nil || errS != nil || minutes < 0 || seconds < 0 || seconds > 59 {
			return 0, fmt.Errorf("invalid duration %q, use M:SS", raw)
		}
		return minutes*60 + seconds, nil
	}

	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0, fmt.Errorf("invalid duration %q, use M:SS", raw)
	}
	return secs, nil
}

func parseYearInput(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 0 {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}

func parseRatingInput(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil || rating < 0 || rating > 5 {
		return 0, fmt.Errorf("invalid rating %q, use 0 to 5", raw)
	}
	return rating, nil
}

func required(field string) func(string) error {
	return func(value string) error {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func discardInt(parse func(string) (int, error)) func(string) error {
	return func(value string) error {
		_, err := parse(value)
		return err
	}
}

// promptRecord asks for whatever the flags left out.
func promptRecord(f *recordFlags) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&f.title).Validate(required("title")),
			huh.NewInput().Title("Artist").Value(&f.artist).Validate(required("artist")),
			huh.NewInput().Title("Album").Value(&f.album),
			huh.NewInput().Title("Genre").Value(&f.genre),
		),
		huh.NewGroup(
			huh.NewInput().Title("Duration").Placeholder("3:30").Value(&f.duration).Validate(discardInt(parseDurationInput)),
			huh.NewInput().Title("Year").Value(&f.year).Validate(discardInt(parseYearInput)),
			huh.NewInput().Title("Rating (1-5)").Value(&f.rating).Validate(func(value string) error {
				_, err := parseRatingInput(value)
				return err
			}),
		),
	)
	return form.Run()
}

var (
	// flags for add
	addFlags recordFlags
	addID    string
	addFirst bool
	addAfter string

	// flags for delete
	deleteFirst bool
	deleteLast  bool

	// flags for update
	updateFlags recordFlags

	// flags for shuffle
	shuffleSeed uint64
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "add a song",
	Long: `add a song at the end of the playlist, at the start with --first, or after another
song with --after. without --title and --artist an interactive form is shown.`,
	Args: cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		if addFirst && addAfter != "" {
			return errors.New("--first and --after cannot be combined")
		}

		if addFlags.title == "" || addFlags.artist == "" {
			if !terminal.IsInteractive() {
				return errors.New("title and artist are required")
			}
			if err := promptRecord(&addFlags); err != nil {
				return err
			}
		}

		rec, err := addFlags.record()
		if err != nil {
			return err
		}

		rec.ID = addID
		if rec.ID == "" {
			rec.ID = track.NewID(time.Now(), func(id string) bool {
				_, taken := s.Playlist.Find(id)
				return taken
			})
		}

		switch {
		case addFirst:
			s.Playlist.InsertFirst(rec)
		case addAfter != "":
			if !s.Playlist.InsertAfter(addAfter, rec) {
				return fmt.Errorf("%w: %s", errNotFound, addAfter)
			}
		default:
			s.Playlist.InsertLast(rec)
		}

		if err := s.Commit(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "added %s (%s)\n", rec.Title, rec.ID)
		return nil
	}),
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "remove a song",
	Long:  `remove a song by id, or the first or last song with --first or --last.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		picked := 0
		for _, set := range []bool{deleteFirst, deleteLast, len(args) == 1} {
			if set {
				picked++
			}
		}
		if picked != 1 {
			return errors.New("give exactly one of an id, --first or --last")
		}

		var rec track.Record
		var ok bool
		switch {
		case deleteFirst:
			rec, ok = s.Playlist.DeleteFirst()
			if !ok {
				return errEmpty
			}
		case deleteLast:
			rec, ok = s.Playlist.DeleteLast()
			if !ok {
				return errEmpty
			}
		default:
			rec, ok = s.Playlist.DeleteByID(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", errNotFound, args[0])
			}
		}

		if err := s.Commit(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%s)\n", rec.Title, rec.ID)
		return nil
	}),
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "change fields of a song",
	Long:  `change the fields given as flags, the id and the song's position stay the same.`,
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		patch, err := updateFlags.patch(cmd)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return errors.New("nothing to update, pass at least one field flag")
		}

		if !s.Playlist.Update(args[0], patch) {
			return fmt.Errorf("%w: %s", errNotFound, args[0])
		}

		if err := s.Commit(); err != nil {
			return err
		}

		rec, _ := s.Playlist.Find(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", rec)
		return nil
	}),
}

var shuffleCmd = &cobra.Command{
	Use:   "shuffle",
	Short: "shuffle the playlist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		if cmd.Flags().Changed("seed") {
			cfg.ShuffleSeed = shuffleSeed
		}

		s, err := openSession(cfg)
		if err != nil {
			return err
		}

		if s.Playlist.IsEmpty() {
			return errEmpty
		}
		s.Shuffle()
		if err := s.Commit(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "shuffled %d songs\n", s.Playlist.Len())
		return nil
	},
}

var sortCmd = &cobra.Command{
	Use:       "sort <title|artist>",
	Short:     "sort the playlist",
	Long:      `sort by title or artist, ignoring case. songs that compare equal keep their order.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"title", "artist"},
	RunE: withSession(func(cmd *cobra.Command, args []string, cfg *config.Config, s *session.Session) error {
		if s.Playlist.IsEmpty() {
			return errEmpty
		}

		switch args[0] {
		case "title":
			s.Playlist.SortByTitle()
		case "artist":
			s.Playlist.SortByArtist()
		}

		if err := s.Commit(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "sorted %d songs by %s\n", s.Playlist.Len(), args[0])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(shuffleCmd)
	rootCmd.AddCommand(sortCmd)

	// flags for add
	addFlags.register(addCmd)
	addCmd.Flags().StringVar(&addID, "id", "", "song id (default: generated from the time)")
	addCmd.Flags().BoolVar(&addFirst, "first", false, "insert at the start")
	addCmd.Flags().StringVar(&addAfter, "after", "", "insert after the song with this id")

	// flags for delete
	deleteCmd.Flags().BoolVar(&deleteFirst, "first", false, "delete the first song")
	deleteCmd.Flags().BoolVar(&deleteLast, "last", false, "delete the last song")

	// flags for update
	updateFlags.register(updateCmd)

	// flags for shuffle
	shuffleCmd.Flags().Uint64Var(&shuffleSeed, "seed", 0, "seed for a repeatable order (default $SETLIST_SHUFFLE_SEED)")
}
