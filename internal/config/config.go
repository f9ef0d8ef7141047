package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete hivefile configuration
type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Agent   AgentConfig   `mapstructure:"agent"`
	Lock    LockConfig    `mapstructure:"lock"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// PathsConfig controls where coordination state lives
type PathsConfig struct {
	// CoordinationDir is the directory holding the ledger, registry, event
	// log, and lock files. Overridable via HIVEFILE_PATHS_COORDINATION_DIR.
	CoordinationDir string `mapstructure:"coordination_dir"`
}

// AgentConfig controls the default agent identity
type AgentConfig struct {
	// ID is the agent identity used when an operation is invoked without an
	// explicit agent id. Overridable via HIVEFILE_AGENT_ID.
	ID string `mapstructure:"id"`
}

// LockConfig controls coordination lock behavior
type LockConfig struct {
	// Timeout bounds how long a mutating operation waits for the lock
	// before failing with a retryable lock timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// PollInterval is the retry interval while waiting on a contended lock.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// StaleAfter is the age ceiling past which the unlock verb will treat a
	// lock as abandoned even if its holder pid looks alive.
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// LoggingConfig controls diagnostic logging
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
}

// Default returns the configuration with all default values set
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			CoordinationDir: defaultCoordinationDir(),
		},
		Agent: AgentConfig{},
		Lock: LockConfig{
			Timeout:      10 * time.Second,
			PollInterval: 10 * time.Millisecond,
			StaleAfter:   5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
	}
}

// SetDefaults registers all default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("paths.coordination_dir", defaults.Paths.CoordinationDir)
	viper.SetDefault("agent.id", defaults.Agent.ID)
	viper.SetDefault("lock.timeout", defaults.Lock.Timeout)
	viper.SetDefault("lock.poll_interval", defaults.Lock.PollInterval)
	viper.SetDefault("lock.stale_after", defaults.Lock.StaleAfter)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Paths.CoordinationDir == "" {
		return fmt.Errorf("paths.coordination_dir must not be empty")
	}
	if c.Lock.Timeout <= 0 {
		return fmt.Errorf("lock.timeout must be positive, got %s", c.Lock.Timeout)
	}
	if c.Lock.PollInterval <= 0 {
		return fmt.Errorf("lock.poll_interval must be positive, got %s", c.Lock.PollInterval)
	}
	if c.Lock.StaleAfter <= 0 {
		return fmt.Errorf("lock.stale_after must be positive, got %s", c.Lock.StaleAfter)
	}
	return nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hivefile")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hivefile"
	}
	return filepath.Join(home, ".config", "hivefile")
}

// defaultCoordinationDir returns the default shared coordination directory.
func defaultCoordinationDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hivefile"
	}
	return filepath.Join(home, ".hivefile")
}
