package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for medtrackd.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Schedule ScheduleConfig `mapstructure:"schedule" yaml:"schedule"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address      string `mapstructure:"address" yaml:"address"`
	Port         int    `mapstructure:"port" yaml:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// StorageConfig holds database locations.
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir" yaml:"data_dir"`
	BadgerPath string `mapstructure:"badger_path" yaml:"badger_path"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// ScheduleConfig holds evaluator settings.
type ScheduleConfig struct {
	TickSeconds int `mapstructure:"tick_seconds" yaml:"tick_seconds"`
}

// TickInterval returns the evaluator tick as a duration.
func (c ScheduleConfig) TickInterval() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// AuthConfig holds session settings.
type AuthConfig struct {
	JWTSecret         string `mapstructure:"jwt_secret" yaml:"jwt_secret,omitempty"`
	SimulatedDelayMS  int    `mapstructure:"simulated_delay_ms" yaml:"simulated_delay_ms"`
	AttemptsPerMinute int    `mapstructure:"attempts_per_minute" yaml:"attempts_per_minute"`
}

// SimulatedDelay returns the reference auth latency as a duration.
func (c AuthConfig) SimulatedDelay() time.Duration {
	return time.Duration(c.SimulatedDelayMS) * time.Millisecond
}

// Load loads configuration from file, env, and defaults. A starter config
// file is written to the data dir on first run.
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.SetDefault("storage.badger_path", filepath.Join(dataDir, "state"))
	v.SetDefault("storage.sqlite_path", filepath.Join(dataDir, "medtrack.db"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "medtrack.yaml")
	}
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (MEDTRACK_SERVER_PORT, MEDTRACK_AUTH_JWT_SECRET, ...)
	v.SetEnvPrefix("MEDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := writeStarterConfig(configPath, &cfg); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	v.SetDefault("schedule.tick_seconds", 60)

	// An empty default keeps the key visible to Unmarshal so the
	// MEDTRACK_AUTH_JWT_SECRET override is actually picked up.
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.simulated_delay_ms", 1500)
	v.SetDefault("auth.attempts_per_minute", 10)
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medtrack")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(home, ".local", "share", "medtrack")
}

// writeStarterConfig drops a commented-out-free YAML snapshot of the
// effective configuration so users have something to edit.
func writeStarterConfig(path string, cfg *Config) error {
	snapshot := *cfg
	snapshot.Auth.JWTSecret = "" // secrets stay out of the starter file
	raw, err := yaml.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to render starter config: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Schedule.TickSeconds <= 0 {
		return fmt.Errorf("schedule.tick_seconds must be positive")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = generateRandomString(32)
	}
	return nil
}

func generateRandomString(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	rand.Read(b)
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return string(b)
}
