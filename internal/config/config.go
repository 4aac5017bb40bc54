package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"filex/internal/constants"
	"filex/internal/logging"
	"filex/internal/navigation"
	"filex/internal/persistence"
	"filex/internal/sortfilter"
)

// Config represents the application configuration
type Config struct {
	Persistence PersistenceConfig `mapstructure:"persistence" json:"persistence"`
	Navigation  NavigationConfig  `mapstructure:"navigation" json:"navigation"`
	Sort        SortConfig        `mapstructure:"sort" json:"sort"`
	Filter      FilterConfig      `mapstructure:"filter" json:"filter"`
	Log         LogConfig         `mapstructure:"log" json:"log"`
}

// PersistenceConfig represents state storage settings
type PersistenceConfig struct {
	StateDir         string `mapstructure:"state_dir" json:"state_dir"`                   // empty means <config dir>/filex/state
	AutoSaveInterval int    `mapstructure:"auto_save_interval" json:"auto_save_interval"` // seconds; 0 disables periodic saves
	AutoSaveEnabled  bool   `mapstructure:"auto_save_enabled" json:"auto_save_enabled"`
	MaxBackups       int    `mapstructure:"max_backups" json:"max_backups"`
}

// NavigationConfig represents navigation feature toggles
type NavigationConfig struct {
	EnableDoubleClick      bool `mapstructure:"enable_double_click" json:"enable_double_click"`
	EnableParentNavigation bool `mapstructure:"enable_parent_navigation" json:"enable_parent_navigation"`
	EnableHistory          bool `mapstructure:"enable_history" json:"enable_history"`
	MaxHistory             int  `mapstructure:"max_history" json:"max_history"`
}

// SortConfig represents file sorting settings
type SortConfig struct {
	SortBy           string `mapstructure:"sort_by" json:"sort_by"`                     // "name", "size", "modified", "type"
	SortOrder        string `mapstructure:"sort_order" json:"sort_order"`               // "asc", "desc"
	DirectoriesFirst bool   `mapstructure:"directories_first" json:"directories_first"` // Whether to show directories before files
}

// FilterConfig represents default listing filters
type FilterConfig struct {
	ShowHidden bool `mapstructure:"show_hidden" json:"show_hidden"`
}

// LogConfig represents logger settings
type LogConfig struct {
	Level       string `mapstructure:"level" json:"level"`
	Development bool   `mapstructure:"development" json:"development"`
}

// Manager provides configuration management functionality
type Manager struct {
	configPath string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		configPath: getConfigPath(),
	}
}

// NewManagerWithPath creates a manager reading and writing path
func NewManagerWithPath(path string) *Manager {
	return &Manager{configPath: path}
}

// Path returns the configuration file location
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads defaults, then the config file if present, then FILEX_*
// environment overrides (e.g. FILEX_PERSISTENCE_MAX_BACKUPS).
func (m *Manager) Load() (*Config, error) {
	v := newViper()
	v.SetConfigFile(m.configPath)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Save saves configuration to file
func (m *Manager) Save(config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	// Create the config directory if it doesn't exist
	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	v.Set("persistence.state_dir", config.Persistence.StateDir)
	v.Set("persistence.auto_save_interval", config.Persistence.AutoSaveInterval)
	v.Set("persistence.auto_save_enabled", config.Persistence.AutoSaveEnabled)
	v.Set("persistence.max_backups", config.Persistence.MaxBackups)
	v.Set("navigation.enable_double_click", config.Navigation.EnableDoubleClick)
	v.Set("navigation.enable_parent_navigation", config.Navigation.EnableParentNavigation)
	v.Set("navigation.enable_history", config.Navigation.EnableHistory)
	v.Set("navigation.max_history", config.Navigation.MaxHistory)
	v.Set("sort.sort_by", config.Sort.SortBy)
	v.Set("sort.sort_order", config.Sort.SortOrder)
	v.Set("sort.directories_first", config.Sort.DirectoriesFirst)
	v.Set("filter.show_hidden", config.Filter.ShowHidden)
	v.Set("log.level", config.Log.Level)
	v.Set("log.development", config.Log.Development)

	if err := v.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate rejects values the components cannot work with
func (c *Config) Validate() error {
	if c.Persistence.MaxBackups < 0 {
		return fmt.Errorf("persistence.max_backups must be non-negative, got %d", c.Persistence.MaxBackups)
	}
	if c.Persistence.AutoSaveInterval < 0 {
		return fmt.Errorf("persistence.auto_save_interval must be non-negative, got %d", c.Persistence.AutoSaveInterval)
	}
	if c.Navigation.MaxHistory <= 0 {
		return fmt.Errorf("navigation.max_history must be positive, got %d", c.Navigation.MaxHistory)
	}
	if _, err := sortfilter.ParseCriterion(c.Sort.SortBy); err != nil {
		return fmt.Errorf("invalid sort.sort_by: %w", err)
	}
	if _, err := sortfilter.ParseDirection(c.Sort.SortOrder); err != nil {
		return fmt.Errorf("invalid sort.sort_order: %w", err)
	}
	return nil
}

// PersistenceConfig converts to the persistence manager settings
func (c *Config) PersistenceConfig() persistence.Config {
	dir := c.Persistence.StateDir
	if dir == "" {
		dir = persistence.DefaultStateDir()
	}
	return persistence.Config{
		StateDir:         dir,
		AutoSaveInterval: time.Duration(c.Persistence.AutoSaveInterval) * time.Second,
		AutoSaveEnabled:  c.Persistence.AutoSaveEnabled,
		MaxBackups:       c.Persistence.MaxBackups,
	}
}

// NavigationConfig converts to controller settings
func (c *Config) NavigationConfig() navigation.Config {
	return navigation.Config{
		EnableDoubleClick:      c.Navigation.EnableDoubleClick,
		EnableParentNavigation: c.Navigation.EnableParentNavigation,
		EnableHistory:          c.Navigation.EnableHistory,
		MaxHistory:             c.Navigation.MaxHistory,
	}
}

// SortConfig converts to the engine's sort settings; invalid values fall
// back to name/ascending.
func (c *Config) SortConfig() sortfilter.SortConfig {
	criterion, _ := sortfilter.ParseCriterion(c.Sort.SortBy)
	direction, _ := sortfilter.ParseDirection(c.Sort.SortOrder)
	return sortfilter.SortConfig{
		Criterion:    criterion,
		Direction:    direction,
		FoldersFirst: c.Sort.DirectoriesFirst,
	}
}

// FilterCriteria returns the default listing filter
func (c *Config) FilterCriteria() sortfilter.FilterCriteria {
	return sortfilter.FilterCriteria{ShowHidden: c.Filter.ShowHidden}
}

// LoggingConfig converts to logger settings
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Log.Level
	cfg.Development = c.Log.Development
	return cfg
}

// newViper returns a viper instance with defaults and env overrides bound
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("persistence.state_dir", "")
	v.SetDefault("persistence.auto_save_interval", int(constants.DefaultAutoSaveInterval/time.Second))
	v.SetDefault("persistence.auto_save_enabled", constants.DefaultAutoSaveEnabled)
	v.SetDefault("persistence.max_backups", constants.DefaultMaxBackups)
	v.SetDefault("navigation.enable_double_click", true)
	v.SetDefault("navigation.enable_parent_navigation", true)
	v.SetDefault("navigation.enable_history", true)
	v.SetDefault("navigation.max_history", constants.MaxNavigationHistory)
	v.SetDefault("sort.sort_by", constants.DefaultSortBy)
	v.SetDefault("sort.sort_order", constants.DefaultSortOrder)
	v.SetDefault("sort.directories_first", constants.DefaultDirectoriesFirst)
	v.SetDefault("filter.show_hidden", constants.DefaultShowHiddenFiles)
	v.SetDefault("log.level", constants.DefaultLogLevel)
	v.SetDefault("log.development", false)
}

// Default returns the built-in configuration without reading a file or
// the environment
func Default() *Config {
	return getDefaultConfig()
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *Config {
	var config Config
	// defaults alone always decode
	_ = newDefaultsOnly().Unmarshal(&config)
	return &config
}

func newDefaultsOnly() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// getConfigPath returns the path to the configuration file following OS conventions
func getConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\filex\config.json
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return constants.ConfigFileName
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, constants.ApplicationName)

	case "darwin":
		// macOS: ~/Library/Application Support/filex/config.json
		home, err := os.UserHomeDir()
		if err != nil {
			return constants.ConfigFileName
		}
		configDir = filepath.Join(home, "Library", "Application Support", constants.ApplicationName)

	default:
		// Linux/Unix: $XDG_CONFIG_HOME/filex/config.json or ~/.config/filex/config.json
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return constants.ConfigFileName
			}
			xdgConfigHome = filepath.Join(home, ".config")
		}
		configDir = filepath.Join(xdgConfigHome, constants.ApplicationName)
	}

	return filepath.Join(configDir, constants.ConfigFileName)
}
