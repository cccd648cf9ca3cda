package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultPlaylistFile = "DATASETUAS.txt"
	DefaultExportFile   = "playlist_export.csv"
	DefaultDisplayLimit = 20
	DefaultMprisService = "org.mpris.MediaPlayer2.spotify"
	appDirName          = "setlist"
)

type Config struct {
	PlaylistFile string
	ExportFile   string
	DisplayLimit int
	StateDir     string
	ShuffleSeed  uint64
	MprisService string
	LogLevel     string
	LogFile      string
}

// Load reads .env (if present) and the environment.
func Load() *Config {
	// a missing .env is fine
	_ = godotenv.Load()

	limit, err := strconv.Atoi(getEnvOrDefault("SETLIST_DISPLAY_LIMIT", strconv.Itoa(DefaultDisplayLimit)))
	if err != nil || limit < 0 {
		limit = DefaultDisplayLimit
	}

	seed, err := strconv.ParseUint(getEnvOrDefault("SETLIST_SHUFFLE_SEED", "0"), 10, 64)
	if err != nil {
		seed = 0
	}

	return &Config{
		PlaylistFile: getEnvOrDefault("SETLIST_FILE", DefaultPlaylistFile),
		ExportFile:   getEnvOrDefault("SETLIST_EXPORT_FILE", DefaultExportFile),
		DisplayLimit: limit,
		StateDir:     getEnvOrDefault("SETLIST_STATE_DIR", defaultStateDir()),
		ShuffleSeed:  seed,
		MprisService: getEnvOrDefault("MPRIS_SERVICE", DefaultMprisService),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		LogFile:      os.Getenv("LOG_FILE"),
	}
}

func defaultStateDir() string {
	// xdg state home takes priority
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, appDirName)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appDirName)
	}
	return filepath.Join(home, ".local", "state", appDirName)
}

func getEnvOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
