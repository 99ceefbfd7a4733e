// Package config loads the sous configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultEndpoint = "http://localhost:8000"
	DefaultListen   = ":8000"
)

// Config is the complete sous configuration.
type Config struct {
	// Endpoint is the base URL of the recipe assistant API.
	Endpoint string `toml:"endpoint"`

	// TopK asks the server for this many sources. Zero leaves it to the server.
	TopK int `toml:"top_k"`

	// Timeout bounds a single chat request. Zero waits forever.
	Timeout Duration `toml:"timeout"`

	// LogFile receives logs while the full-screen UI owns the terminal.
	LogFile string `toml:"log_file"`

	Debug bool `toml:"debug"`

	// Style is a glamour style name or "auto".
	Style string `toml:"style"`

	// Width wraps transcript text in line mode. Zero uses 80; the full-screen
	// UI follows the terminal width.
	Width int `toml:"width"`

	Server ServerConfig `toml:"server"`
}

// ServerConfig configures `sous serve`.
type ServerConfig struct {
	Listen string `toml:"listen"`

	// Recipes is a TOML recipe book. Empty uses the built-in sample book.
	Recipes string `toml:"recipes"`

	// DB is the SQLite path for feedback. Empty keeps feedback in memory.
	DB string `toml:"db"`

	// Upstream forwards questions to another recipe API instead of answering locally.
	Upstream string `toml:"upstream"`

	// Vector selects the sqlite-vec index over the keyword index.
	Vector bool `toml:"vector"`
}

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		LogFile:  filepath.Join(os.TempDir(), "sous.log"),
		Style:    "auto",
		Server: ServerConfig{
			Listen: DefaultListen,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if c.TopK < 0 {
		return fmt.Errorf("top_k must not be negative, got %d", c.TopK)
	}
	if c.Width < 0 {
		return fmt.Errorf("width must not be negative, got %d", c.Width)
	}
	if c.Timeout.Duration < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/sous/config.toml, falling back to
// ~/.config/sous/config.toml. Empty when no home directory is known.
func DefaultPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "sous", "config.toml")
}
