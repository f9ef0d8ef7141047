package cmd

import (
	"strings"

	"github.com/hivefile/hivefile/internal/config"
	"github.com/hivefile/hivefile/internal/coordinator"
	"github.com/hivefile/hivefile/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "hivefile",
	Short: "File-based coordination for concurrent worker agents",
	Long: `Hivefile coordinates many independent worker processes claiming,
progressing, and completing units of work using only a shared filesystem:
an advisory-locked work ledger, an agent registry, and an append-only
event log. No database, no network service.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/hivefile/config.yaml)")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "coordination directory (default is $HOME/.hivefile)")
	rootCmd.PersistentFlags().StringP("agent", "a", "", "agent identity for operations invoked without an explicit agent id")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("paths.coordination_dir", rootCmd.PersistentFlags().Lookup("dir"))
	_ = viper.BindPFlag("agent.id", rootCmd.PersistentFlags().Lookup("agent"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/hivefile")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HIVEFILE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., HIVEFILE_PATHS_COORDINATION_DIR for paths.coordination_dir
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// newEngine builds a coordination engine from the loaded configuration.
func newEngine() (*coordinator.Engine, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.NewLogger(cfg.Paths.CoordinationDir, cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}

	engine, err := coordinator.New(coordinator.Config{
		Dir:              cfg.Paths.CoordinationDir,
		LockTimeout:      cfg.Lock.Timeout,
		LockPollInterval: cfg.Lock.PollInterval,
		Logger:           logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, cfg, nil
}
