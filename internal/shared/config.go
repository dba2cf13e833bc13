package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix prefixes every environment override, e.g. WARDROBE_BASE_URL.
const EnvPrefix = "WARDROBE"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend  BackendConfig  `toml:"backend"`
	Wardrobe WardrobeConfig `toml:"wardrobe"`
	Images   ImagesConfig   `toml:"images"`
	Line     LineConfig     `toml:"line"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// BackendConfig locates the wardrobe server.
type BackendConfig struct {
	BaseURL          string          `toml:"base_url"`
	TimeoutSeconds   int             `toml:"timeout_seconds"`
	ListRetries      int             `toml:"list_retries"`
	UploadsPerSecond float64         `toml:"uploads_per_second"`
	Endpoints        EndpointsConfig `toml:"endpoints"`
}

// EndpointsConfig holds the server paths for both collections.
type EndpointsConfig struct {
	List          string `toml:"list"`
	Upload        string `toml:"upload"`
	Delete        string `toml:"delete"`
	WannabeList   string `toml:"wannabe_list"`
	WannabeUpload string `toml:"wannabe_upload"`
	WannabeDelete string `toml:"wannabe_delete"`
}

// WardrobeConfig holds the main board's category enumeration.
type WardrobeConfig struct {
	Categories []string `toml:"categories"`
}

// ImagesConfig controls pre-upload image processing.
type ImagesConfig struct {
	MaxDimension int `toml:"max_dimension"`
	JPEGQuality  int `toml:"jpeg_quality"`
}

// LineConfig contains LINE Login channel credentials.
type LineConfig struct {
	ChannelID     string `toml:"channel_id"`
	ChannelSecret string `toml:"channel_secret"`
	RedirectURI   string `toml:"redirect_uri"`
}

// Enabled reports whether a LINE Login channel is configured.
func (c LineConfig) Enabled() bool {
	return c.ChannelID != "" && c.ChannelSecret != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port for [http.Server].
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Timeout returns the HTTP client timeout for backend calls.
func (c BackendConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EnvOverrides are the settings that can be supplied through WARDROBE_* variables or a .env file.
type EnvOverrides struct {
	BaseURL           string `envconfig:"BASE_URL"`
	LineChannelID     string `envconfig:"LINE_CHANNEL_ID"`
	LineChannelSecret string `envconfig:"LINE_CHANNEL_SECRET"`
	LineRedirectURI   string `envconfig:"LINE_REDIRECT_URI"`
	DatabasePath      string `envconfig:"DATABASE_PATH"`
	ServerPort        int    `envconfig:"PORT"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
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

// SaveConfig writes config to path as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// ResolveConfig loads path when it exists and falls back to defaults otherwise, then applies environment overrides.
func ResolveConfig(path, envFile string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if loaded, err := LoadConfig(path); err == nil {
			config = loaded
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	if err := ApplyEnv(config, envFile); err != nil {
		return nil, err
	}

	return config, config.Validate()
}

// ApplyEnv loads envFile (when present) into the process environment and applies WARDROBE_* overrides.
//
// Variables already set in the environment take precedence over the file.
func ApplyEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var env EnvOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if env.BaseURL != "" {
		config.Backend.BaseURL = env.BaseURL
	}
	if env.LineChannelID != "" {
		config.Line.ChannelID = env.LineChannelID
	}
	if env.LineChannelSecret != "" {
		config.Line.ChannelSecret = env.LineChannelSecret
	}
	if env.LineRedirectURI != "" {
		config.Line.RedirectURI = env.LineRedirectURI
	}
	if env.DatabasePath != "" {
		config.Database.Path = env.DatabasePath
	}
	if env.ServerPort != 0 {
		config.Server.Port = env.ServerPort
	}

	return nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend.base_url must be an absolute URL, got %q", ErrInvalidConfig, c.Backend.BaseURL)
	}
	if c.Backend.ListRetries < 0 {
		return fmt.Errorf("%w: backend.list_retries must not be negative", ErrInvalidConfig)
	}
	if len(c.Wardrobe.Categories) == 0 {
		return fmt.Errorf("%w: wardrobe.categories must not be empty", ErrInvalidConfig)
	}
	return nil
}
