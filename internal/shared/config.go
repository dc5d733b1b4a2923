package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	MinVerifierLength = 43
	MaxVerifierLength = 128
	MaxPageSize       = 100
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Fetch    FetchConfig    `toml:"fetch"`
	PKCE     PKCEConfig     `toml:"pkce"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
}

// SpotifyConfig contains the public client registration and service endpoints.
//
// There is no client secret: PKCE is used by public clients.
type SpotifyConfig struct {
	ClientID    string   `toml:"client_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Scopes      []string `toml:"scopes"`
	AuthURL     string   `toml:"auth_url"`
	TokenURL    string   `toml:"token_url"`
	APIURL      string   `toml:"api_url"`
}

// FetchConfig controls playlist pagination.
type FetchConfig struct {
	PageSize       int     `toml:"page_size"`
	MaxPages       int     `toml:"max_pages"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Timeout returns the per-request timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// PKCEConfig contains code verifier settings.
type PKCEConfig struct {
	VerifierLength int `toml:"verifier_length"`
}

// ServerConfig contains HTTP server settings for the loopback callback and the web page.
type ServerConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	SessionSecret string `toml:"session_secret"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
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

// Validate checks the values that would otherwise fail late, after the browser redirect.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" {
		return fmt.Errorf("%w: spotify.client_id is required", ErrMissingCredentials)
	}
	if c.Spotify.RedirectURI == "" {
		return fmt.Errorf("%w: spotify.redirect_uri is required", ErrInvalidConfig)
	}
	if l := c.PKCE.VerifierLength; l < MinVerifierLength || l > MaxVerifierLength {
		return fmt.Errorf("%w: pkce.verifier_length must be between %d and %d, got %d",
			ErrInvalidConfig, MinVerifierLength, MaxVerifierLength, l)
	}
	if c.Fetch.PageSize <= 0 || c.Fetch.PageSize > MaxPageSize {
		return fmt.Errorf("%w: fetch.page_size must be between 1 and %d, got %d",
			ErrInvalidConfig, MaxPageSize, c.Fetch.PageSize)
	}
	if c.Fetch.MaxPages <= 0 {
		return fmt.Errorf("%w: fetch.max_pages must be positive", ErrInvalidConfig)
	}
	return nil
}
