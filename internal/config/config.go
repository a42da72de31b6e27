package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Instances []domain.Instance `mapstructure:"instances"`
	Selected  SelectedConfig    `mapstructure:"selected"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	Cache     CacheConfig       `mapstructure:"cache"`
	Calendar  CalendarConfig    `mapstructure:"calendar"`
	Search    SearchConfig      `mapstructure:"search"`
	Refresh   RefreshConfig     `mapstructure:"refresh"`
	HTTP      HTTPConfig        `mapstructure:"http"`
	UI        UIConfig          `mapstructure:"ui"`
}

// SelectedConfig holds the selected instance id per type
type SelectedConfig struct {
	Radarr string `mapstructure:"radarr"`
	Sonarr string `mapstructure:"sonarr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// CacheConfig holds snapshot cache configuration. An empty Dir keeps the cache in memory.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// CalendarConfig holds calendar window configuration
type CalendarConfig struct {
	PastDays         int `mapstructure:"past_days"`
	FutureDays       int `mapstructure:"future_days"`
	LookAhead        int `mapstructure:"look_ahead"`
	FutureCutoffDays int `mapstructure:"future_cutoff_days"`
}

// SearchConfig holds lookup search configuration
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// RefreshConfig holds background refresh configuration
type RefreshConfig struct {
	MetadataInterval time.Duration `mapstructure:"metadata_interval"`
}

// HTTPConfig holds API client configuration
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme       string `mapstructure:"theme"`
	DefaultTab  string `mapstructure:"default_tab"`
	ShowOffline bool   `mapstructure:"show_offline"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Calendar: CalendarConfig{
			PastDays:         60,
			FutureDays:       30,
			LookAhead:        7,
			FutureCutoffDays: 365,
		},
		Search: SearchConfig{
			Debounce: 750 * time.Millisecond,
		},
		Refresh: RefreshConfig{
			MetadataInterval: 30 * time.Second,
		},
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			RateLimit: 10,
			Burst:     5,
		},
		UI: UIConfig{
			Theme:      "default",
			DefaultTab: "movies",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "arrdeck", "arrdeck.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "arrdeck", "arrdeck.log")
	}
}

// DefaultConfigDir returns the default config directory for the current OS
func DefaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "arrdeck")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "arrdeck")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "arrdeck", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "arrdeck", "cache")
	}
}

// File is a config file on disk backed by its own viper instance
type File struct {
	mu  sync.Mutex
	v   *viper.Viper
	dir string
}

// Open prepares a config file in dir. Nothing is read until Load.
func Open(dir string) *File {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	// Environment variable overrides (ARRDECK_LOGGING_LEVEL etc.)
	v.SetEnvPrefix("ARRDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &File{v: v, dir: dir}
}

// Path returns the config file path
func (f *File) Path() string {
	return filepath.Join(f.dir, "config.yaml")
}

// Load reads the config file if it exists and applies it over the defaults
func (f *File) Load() (*Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg := DefaultConfig()

	if err := f.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := f.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	for i := range cfg.Instances {
		cfg.Instances[i].Type = domain.InstanceType(strings.ToLower(string(cfg.Instances[i].Type)))
	}

	return cfg, nil
}

// LoadConfig loads configuration from the default location
func LoadConfig() (*Config, *File, error) {
	f := Open(DefaultConfigDir())
	cfg, err := f.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, f, nil
}

// Save writes the full configuration to disk
func (f *File) Save(cfg *Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setInstances(cfg.Instances)
	f.v.Set("selected.radarr", cfg.Selected.Radarr)
	f.v.Set("selected.sonarr", cfg.Selected.Sonarr)

	f.v.Set("logging.file", cfg.Logging.File)
	f.v.Set("logging.level", cfg.Logging.Level)

	f.v.Set("cache.dir", cfg.Cache.Dir)

	f.v.Set("calendar.past_days", cfg.Calendar.PastDays)
	f.v.Set("calendar.future_days", cfg.Calendar.FutureDays)
	f.v.Set("calendar.look_ahead", cfg.Calendar.LookAhead)
	f.v.Set("calendar.future_cutoff_days", cfg.Calendar.FutureCutoffDays)

	f.v.Set("search.debounce", cfg.Search.Debounce.String())
	f.v.Set("refresh.metadata_interval", cfg.Refresh.MetadataInterval.String())

	f.v.Set("http.timeout", cfg.HTTP.Timeout.String())
	f.v.Set("http.rate_limit", cfg.HTTP.RateLimit)
	f.v.Set("http.burst", cfg.HTTP.Burst)

	f.v.Set("ui.theme", cfg.UI.Theme)
	f.v.Set("ui.default_tab", cfg.UI.DefaultTab)
	f.v.Set("ui.show_offline", cfg.UI.ShowOffline)

	return f.write()
}

// SaveInstances persists the registry state only, leaving other settings untouched
func (f *File) SaveInstances(instances []domain.Instance, selected map[domain.InstanceType]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setInstances(instances)
	f.v.Set("selected.radarr", selected[domain.InstanceRadarr])
	f.v.Set("selected.sonarr", selected[domain.InstanceSonarr])

	return f.write()
}

// setInstances stores instances with snake_case keys
func (f *File) setInstances(instances []domain.Instance) {
	list := make([]map[string]any, 0, len(instances))
	for _, inst := range instances {
		entry := map[string]any{
			"id":      inst.ID,
			"label":   inst.Label,
			"url":     inst.URL,
			"api_key": inst.APIKey,
			"type":    string(inst.Type),
		}
		if len(inst.Headers) > 0 {
			entry["headers"] = inst.Headers
		}
		list = append(list, entry)
	}
	f.v.Set("instances", list)
}

func (f *File) write() error {
	// Ensure config directory exists
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := f.v.WriteConfigAs(f.Path()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// The file holds API keys
	if err := os.Chmod(f.Path(), 0600); err != nil {
		return fmt.Errorf("failed to restrict config file: %w", err)
	}
	return nil
}

// SelectedID returns the configured selection for a type
func (c *Config) SelectedID(t domain.InstanceType) string {
	switch t {
	case domain.InstanceRadarr:
		return c.Selected.Radarr
	case domain.InstanceSonarr:
		return c.Selected.Sonarr
	default:
		return ""
	}
}

// IsConfigured returns true if at least one instance exists
func (c *Config) IsConfigured() bool {
	return len(c.Instances) > 0
}

// ClearCache removes all cached data
func ClearCache(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
