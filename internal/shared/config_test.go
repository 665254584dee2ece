package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Port == 0 {
		t.Error("expected default server port")
	}
	if config.Downloads.MaxSongs != 20 {
		t.Errorf("Downloads.MaxSongs = %d, want 20", config.Downloads.MaxSongs)
	}
	if config.Downloads.OutputDir == "" {
		t.Error("expected default output directory")
	}
	if config.Tools.YTDLPPath == "" || config.Tools.FFmpegPath == "" {
		t.Error("expected default tool paths")
	}
	if config.Providers.MusicBrainzURL == "" {
		t.Error("expected default MusicBrainz URL")
	}
	if config.Providers.RequestsPerSec <= 0 {
		t.Error("expected a positive provider rate limit")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not [valid toml"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[server]
host = "0.0.0.0"
port = 9000

[downloads]
output_dir = "music"
max_songs = 5
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if config.Server.Port != 9000 {
			t.Errorf("Server.Port = %d, want 9000", config.Server.Port)
		}
		if config.Downloads.MaxSongs != 5 {
			t.Errorf("Downloads.MaxSongs = %d, want 5", config.Downloads.MaxSongs)
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile() error = %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("created config is not loadable: %v", err)
	}
	if config.Downloads.MaxSongs != DefaultConfig().Downloads.MaxSongs {
		t.Error("created config differs from embedded defaults")
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error when config file already exists")
	}
}
