package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmcdole/holocron/internal/domain"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides (HOLOCRON_API_BASE_URL, ...)
const EnvPrefix = "HOLOCRON"

// Config holds all application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	UI       UIConfig       `mapstructure:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig holds catalog API configuration
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"` // 0 disables the limiter
	PageSize          int           `mapstructure:"page_size"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// AuthConfig holds the single local account
type AuthConfig struct {
	Username     string `mapstructure:"username"`
	DisplayName  string `mapstructure:"display_name"`
	Password     string `mapstructure:"password"`      // plain, hashed at startup
	PasswordHash string `mapstructure:"password_hash"` // bcrypt, wins over password
}

// StorageConfig holds view-state persistence configuration
type StorageConfig struct {
	Dir string `mapstructure:"dir"` // empty = memory only
}

// ResolverConfig holds reference resolution tuning
type ResolverConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int           `mapstructure:"concurrency"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultView string `mapstructure:"default_view"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://www.swapi.tech/api",
			Timeout:           15 * time.Second,
			RequestsPerSecond: 5,
			PageSize:          10,
			UserAgent:         "Holocron/1.0",
		},
		Auth: AuthConfig{
			Username:    "admin",
			DisplayName: "Administrator",
			Password:    "admin",
		},
		Storage: StorageConfig{
			Dir: defaultDataPath(),
		},
		Resolver: ResolverConfig{
			Timeout:     10 * time.Second,
			Concurrency: 4,
		},
		UI: UIConfig{
			DefaultView: string(domain.ViewTable),
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "holocron", "holocron.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "holocron", "holocron.log")
	}
}

// defaultDataPath returns the default view-state directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "holocron")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "holocron", "state")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "holocron")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "holocron")
	}
}

// LoadConfig loads configuration from file and environment.
// An explicit path must exist; otherwise the default locations are searched.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper registers defaults so environment overrides apply to every key
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.requests_per_second", cfg.API.RequestsPerSecond)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("auth.username", cfg.Auth.Username)
	v.SetDefault("auth.display_name", cfg.Auth.DisplayName)
	v.SetDefault("auth.password", cfg.Auth.Password)
	v.SetDefault("auth.password_hash", cfg.Auth.PasswordHash)

	v.SetDefault("storage.dir", cfg.Storage.Dir)

	v.SetDefault("resolver.timeout", cfg.Resolver.Timeout)
	v.SetDefault("resolver.concurrency", cfg.Resolver.Concurrency)

	v.SetDefault("ui.default_view", cfg.UI.DefaultView)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	return v
}

// Validate rejects configurations the client cannot run with
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second cannot be negative")
	}
	if c.API.PageSize < 0 {
		return fmt.Errorf("api.page_size cannot be negative")
	}
	if c.Auth.Username == "" {
		return fmt.Errorf("auth.username is required")
	}
	if c.Auth.Password == "" && c.Auth.PasswordHash == "" {
		return fmt.Errorf("auth.password or auth.password_hash is required")
	}
	if !domain.ViewMode(c.UI.DefaultView).Valid() {
		return fmt.Errorf("ui.default_view must be %q or %q", domain.ViewTable, domain.ViewGrid)
	}
	if c.Resolver.Concurrency < 1 {
		c.Resolver.Concurrency = 1
	}
	if c.Resolver.Timeout <= 0 {
		c.Resolver.Timeout = c.API.Timeout
	}
	return nil
}

// SaveConfig writes the configuration to file, or to the default config file when file is empty
func SaveConfig(cfg *Config, file string) error {
	if file == "" {
		file = filepath.Join(DefaultConfigDir(), "config.yaml")
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.timeout", cfg.API.Timeout.String())
	v.Set("api.requests_per_second", cfg.API.RequestsPerSecond)
	v.Set("api.page_size", cfg.API.PageSize)
	v.Set("api.user_agent", cfg.API.UserAgent)

	// Never write the plain password back
	v.Set("auth.username", cfg.Auth.Username)
	v.Set("auth.display_name", cfg.Auth.DisplayName)
	v.Set("auth.password_hash", cfg.Auth.PasswordHash)

	v.Set("storage.dir", cfg.Storage.Dir)
	v.Set("resolver.timeout", cfg.Resolver.Timeout.String())
	v.Set("resolver.concurrency", cfg.Resolver.Concurrency)
	v.Set("ui.default_view", cfg.UI.DefaultView)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	if err := v.WriteConfigAs(file); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearData removes all persisted view state
func (c *Config) ClearData() error {
	if c.Storage.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.Storage.Dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear data: %w", err)
	}
	return nil
}
