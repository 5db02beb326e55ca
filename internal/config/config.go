package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanchriswhite/godotshot/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendBridge = "bridge"
	BackendX11    = "x11"
)

// Config holds the settings read once at startup.
type Config struct {
	Quality       int    `json:"quality" yaml:"quality" mapstructure:"quality"`
	Format        string `json:"format" yaml:"format" mapstructure:"format"`
	TempDir       string `json:"temp_dir" yaml:"temp_dir" mapstructure:"temp_dir"`
	UseNirCmd     bool   `json:"use_nircmd" yaml:"use_nircmd" mapstructure:"use_nircmd"`
	BridgeRetries int    `json:"bridge_retries" yaml:"bridge_retries" mapstructure:"bridge_retries"`
	Backend       string `json:"backend" yaml:"backend" mapstructure:"backend"`
	LogLevel      string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFile       string `json:"log_file" yaml:"log_file" mapstructure:"log_file"`
	ServerPort    int    `json:"server_port" yaml:"server_port" mapstructure:"server_port"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"quality":        "SCREENSHOT_QUALITY",
	"format":         "SCREENSHOT_FORMAT",
	"temp_dir":       "TEMP_DIR",
	"use_nircmd":     "USE_NIRCMD",
	"bridge_retries": "GODOTSHOT_BRIDGE_RETRIES",
	"backend":        "GODOTSHOT_BACKEND",
	"log_level":      "GODOTSHOT_LOG_LEVEL",
	"log_file":       "GODOTSHOT_LOG_FILE",
	"server_port":    "GODOTSHOT_PORT",
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Quality:    85,
		Format:     "png",
		Backend:    BackendBridge,
		LogLevel:   "info",
		ServerPort: 8080,
	}
}

// Manager loads configuration from defaults, an optional YAML file,
// environment variables and bound command-line flags, in increasing order of
// precedence.
type Manager struct {
	v          *viper.Viper
	configPath string
	config     *Config
}

// DefaultPath returns $HOME/.config/godotshot/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "godotshot", "config.yaml"), nil
}

// NewManager reads configuration through v. An empty configFile means the
// default path; a missing default file is not an error, a missing explicit
// file is.
func NewManager(v *viper.Viper, configFile string) (*Manager, error) {
	if v == nil {
		v = viper.New()
	}

	path := configFile
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	m := &Manager{v: v, configPath: path}
	m.setDefaults()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if configFile != "" || !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Debug().Str("path", path).Msg("No config file, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m.config = &cfg

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Str("backend", cfg.Backend).
		Str("format", cfg.Format).
		Msg("Config loaded")
	return m, nil
}

func (m *Manager) setDefaults() {
	d := Defaults()
	m.v.SetDefault("quality", d.Quality)
	m.v.SetDefault("format", d.Format)
	m.v.SetDefault("temp_dir", d.TempDir)
	m.v.SetDefault("use_nircmd", d.UseNirCmd)
	m.v.SetDefault("bridge_retries", d.BridgeRetries)
	m.v.SetDefault("backend", d.Backend)
	m.v.SetDefault("log_level", d.LogLevel)
	m.v.SetDefault("log_file", d.LogFile)
	m.v.SetDefault("server_port", d.ServerPort)
}

// Get returns the loaded configuration.
func (m *Manager) Get() *Config {
	return m.config
}

// GetViper returns the underlying viper instance.
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// Save writes the current configuration to the config file as YAML.
func (m *Manager) Save() error {
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0o644); err != nil {
		return err
	}

	logger.WithComponent("config").Info().Str("path", m.configPath).Msg("Config saved")
	return nil
}

func (c *Config) normalize() {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	// quality only affects the x11 jpg encoder, so a bad value is not fatal
	if clamped := min(max(c.Quality, 1), 100); clamped != c.Quality {
		logger.WithComponent("config").Warn().
			Int("quality", c.Quality).
			Int("using", clamped).
			Msg("quality out of range 1-100, clamping")
		c.Quality = clamped
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var problems []string
	switch c.Format {
	case "png", "jpg", "jpeg":
	default:
		problems = append(problems, fmt.Sprintf("format must be png or jpg, got %q", c.Format))
	}
	switch c.Backend {
	case BackendBridge, BackendX11:
	default:
		problems = append(problems, fmt.Sprintf("backend must be %s or %s, got %q", BackendBridge, BackendX11, c.Backend))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level %q (use: debug, info, warn, error)", c.LogLevel))
	}
	if c.BridgeRetries < 0 {
		problems = append(problems, "bridge_retries must not be negative")
	}
	if c.ServerPort < 0 || c.ServerPort > 65535 {
		problems = append(problems, fmt.Sprintf("invalid server port %d", c.ServerPort))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
