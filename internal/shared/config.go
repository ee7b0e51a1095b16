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

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Library     LibraryConfig     `toml:"library"`
	Transfer    TransferConfig    `toml:"transfer"`
	Matching    MatchingConfig    `toml:"matching"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Logging     LoggingConfig     `toml:"logging"`
}

// LibraryConfig describes where local audio files live.
type LibraryConfig struct {
	Path       string   `toml:"path"`
	Extensions []string `toml:"extensions"`
}

// TransferConfig contains worker pool, retry and rate limit settings.
type TransferConfig struct {
	MaxConcurrency    int     `toml:"max_concurrency"`
	MaxRetries        int     `toml:"max_retries"`
	RetryBackoffMS    int     `toml:"retry_backoff_ms"`
	MaxBackoffMS      int     `toml:"max_backoff_ms"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	DryRun            bool    `toml:"dry_run"`
}

// RetryBackoff returns the base backoff as a [time.Duration].
func (t TransferConfig) RetryBackoff() time.Duration {
	return time.Duration(t.RetryBackoffMS) * time.Millisecond
}

// MaxBackoff returns the backoff cap as a [time.Duration].
func (t TransferConfig) MaxBackoff() time.Duration {
	return time.Duration(t.MaxBackoffMS) * time.Millisecond
}

// MatchingConfig contains thresholds and weights for the matcher.
type MatchingConfig struct {
	FuzzyThreshold      float64 `toml:"fuzzy_threshold"`
	TitleOnlyThreshold  float64 `toml:"title_only_threshold"`
	ArtistOnlyThreshold float64 `toml:"artist_only_threshold"`
	ArtistFloor         float64 `toml:"artist_floor"`
	TitleWeight         float64 `toml:"title_weight"`
	ArtistWeight        float64 `toml:"artist_weight"`
	TieEpsilon          float64 `toml:"tie_epsilon"`
	SearchLimit         int     `toml:"search_limit"`
}

// CatalogConfig selects the remote catalog ("spotify" or "youtube").
type CatalogConfig struct {
	Service string `toml:"service"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	YouTube YouTubeConfig `toml:"youtube"`
}

// SpotifyConfig contains Spotify API credentials.
//
// Tokens are written by `l2s setup spotify`. With a refresh token and client credentials the access
// token is refreshed automatically; otherwise it must already be valid.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token"`
	RefreshToken string    `toml:"refresh_token"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
}

// YouTubeConfig contains YouTube Music proxy settings.
type YouTubeConfig struct {
	ProxyURL string `toml:"proxy_url"`
	AuthFile string `toml:"auth_file"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoggingConfig contains log level and optional log file.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
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

// SaveConfig writes config to path as TOML, replacing the file. Comments from the template are not kept.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// Validate checks ranges and relationships between settings.
func (c *Config) Validate() error {
	t, m := c.Transfer, c.Matching
	switch {
	case t.MaxConcurrency < 1:
		return fmt.Errorf("%w: transfer.max_concurrency must be at least 1", ErrInvalidConfig)
	case t.MaxRetries < 0:
		return fmt.Errorf("%w: transfer.max_retries must not be negative", ErrInvalidConfig)
	case t.RetryBackoffMS < 0 || t.MaxBackoffMS < 0:
		return fmt.Errorf("%w: backoff durations must not be negative", ErrInvalidConfig)
	case t.RequestsPerSecond < 0:
		return fmt.Errorf("%w: transfer.requests_per_second must not be negative", ErrInvalidConfig)
	}

	for name, v := range map[string]float64{
		"fuzzy_threshold":       m.FuzzyThreshold,
		"title_only_threshold":  m.TitleOnlyThreshold,
		"artist_only_threshold": m.ArtistOnlyThreshold,
		"artist_floor":          m.ArtistFloor,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: matching.%s must be within [0,1], got %v", ErrInvalidConfig, name, v)
		}
	}

	if m.TitleWeight <= 0 || m.ArtistWeight < 0 {
		return fmt.Errorf("%w: matching weights must be positive", ErrInvalidConfig)
	}
	if m.TitleWeight < m.ArtistWeight {
		return fmt.Errorf("%w: matching.title_weight must be >= matching.artist_weight", ErrInvalidConfig)
	}

	switch c.Catalog.Service {
	case "spotify", "youtube":
	default:
		return fmt.Errorf("%w: catalog.service must be 'spotify' or 'youtube', got %q", ErrInvalidConfig, c.Catalog.Service)
	}
	return nil
}
