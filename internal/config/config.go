package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/ramonehamilton/AOE-Rec-Companion/internal/actions"
	"github.com/ramonehamilton/AOE-Rec-Companion/internal/export"
)

// Environment variables that override file settings.
const (
	EnvConfigPath = "AOEREC_CONFIG"
	EnvDBPath     = "AOEREC_DB_PATH"
)

// Config represents the application configuration.
type Config struct {
	// Action filtering
	Analysis AnalysisConfig `toml:"analysis"`

	// Chart output
	Charts ChartsConfig `toml:"charts"`

	// Table and summary export
	Export ExportConfig `toml:"export"`

	// SQLite match archive
	Archive ArchiveConfig `toml:"archive"`

	// Recording folder watcher
	Watch WatchConfig `toml:"watch"`

	// Application configuration
	App AppConfig `toml:"app"`
}

// AnalysisConfig contains action filtering settings.
type AnalysisConfig struct {
	Exclude []string `toml:"exclude"` // Extra action types dropped before counting
}

// ChartsConfig contains chart rendering settings.
type ChartsConfig struct {
	Width     string `toml:"width"`      // HTML chart width (e.g., "1200px")
	Height    string `toml:"height"`     // HTML chart height per player
	OutputDir string `toml:"output_dir"` // Where chart files are written
	Open      bool   `toml:"open"`       // Open HTML charts in the browser
}

// ExportConfig contains table export settings.
type ExportConfig struct {
	Format     string `toml:"format"`      // "json" or "csv"
	PrettyJSON bool   `toml:"pretty_json"` // Indent JSON output
	Dir        string `toml:"dir"`         // Output directory for generated filenames
}

// ArchiveConfig contains match archive settings.
type ArchiveConfig struct {
	Enabled bool   `toml:"enabled"` // Archive every analysed match
	DBPath  string `toml:"db_path"` // Path to archive database
}

// WatchConfig contains recording folder watcher settings.
type WatchConfig struct {
	Dir      string `toml:"dir"`      // Folder to watch (empty = game default)
	Settle   string `toml:"settle"`   // Wait after the last write before analysing (e.g., "2s")
	Backfill bool   `toml:"backfill"` // Analyse recordings already present at start
}

// AppConfig contains general application settings.
type AppConfig struct {
	DebugMode bool `toml:"debug_mode"` // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Exclude: []string{},
		},
		Charts: ChartsConfig{
			Width:  "1200px",
			Height: "500px",
			Open:   false,
		},
		Export: ExportConfig{
			Format:     string(export.FormatJSON),
			PrettyJSON: true,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			DBPath:  "",
		},
		Watch: WatchConfig{
			Settle:   "2s",
			Backfill: false,
		},
		App: AppConfig{
			DebugMode: false,
		},
	}
}

// Dir returns the application data directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, ".aoe-rec")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadEnv loads KEY=value pairs from the first .env file found among paths
// (".env" when none are given). Variables already set are not overwritten.
// It returns the file that was loaded, or "" when none was found.
func LoadEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("load env file %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// Load loads the configuration from the default location. Returns default
// config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from path. Missing keys keep their
// defaults; a missing file yields the default config.
func LoadFrom(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		config.applyEnv()
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	if p := os.Getenv(EnvDBPath); p != "" {
		c.Archive.DBPath = p
	}
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo saves the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return err
	}

	if _, err := time.ParseDuration(c.Watch.Settle); err != nil {
		return fmt.Errorf("invalid watch settle %q: %w", c.Watch.Settle, err)
	}

	for _, tag := range c.Analysis.Exclude {
		if tag == "" {
			return fmt.Errorf("exclude list contains an empty action type")
		}
	}

	return nil
}

// Exclusions returns the configured extra exclusions, upper-cased.
func (c *Config) Exclusions() []string {
	var tags []string
	for _, tag := range c.Analysis.Exclude {
		tags = append(tags, actions.ParseList(tag)...)
	}
	return tags
}

// GetWatchSettle returns the watch settle delay as a duration.
func (c *Config) GetWatchSettle() (time.Duration, error) {
	return time.ParseDuration(c.Watch.Settle)
}

// DatabasePath returns the archive database path, defaulting to
// archive.db in the application data directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Archive.DBPath != "" {
		return c.Archive.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}
