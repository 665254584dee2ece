package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Downloads DownloadsConfig `toml:"downloads"`
	Tools     ToolsConfig     `toml:"tools"`
	Providers ProvidersConfig `toml:"providers"`
	Database  DatabaseConfig  `toml:"database"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DownloadsConfig contains job orchestration settings.
type DownloadsConfig struct {
	OutputDir         string `toml:"output_dir"`
	MaxSongs          int    `toml:"max_songs"`            // Per-job song cap
	MaxActiveJobs     int    `toml:"max_active_jobs"`      // Concurrent job admission limit
	InterSongDelaySec int    `toml:"inter_song_delay_sec"` // Applied between songs when a job has more than one
}

// ToolsConfig contains external acquisition/transcoder tool settings.
type ToolsConfig struct {
	YTDLPPath           string `toml:"ytdlp_path"`
	FFmpegPath          string `toml:"ffmpeg_path"`
	AudioQuality        string `toml:"audio_quality"`
	FetchTimeoutSec     int    `toml:"fetch_timeout_sec"`
	TagTimeoutSec       int    `toml:"tag_timeout_sec"`
	InterQueryDelaySec  int    `toml:"inter_query_delay_sec"`
	RateLimitBackoffSec int    `toml:"rate_limit_backoff_sec"`
}

// ProvidersConfig contains the metadata/lyrics provider endpoints and limits.
type ProvidersConfig struct {
	MusicBrainzURL string  `toml:"musicbrainz_url"`
	CoverArtURL    string  `toml:"coverart_url"`
	LyricsOvhURL   string  `toml:"lyricsovh_url"`
	LrclibURL      string  `toml:"lrclib_url"`
	TimeoutSec     int     `toml:"timeout_sec"`
	UserAgent      string  `toml:"user_agent"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
}

// DatabaseConfig contains lookup-cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
