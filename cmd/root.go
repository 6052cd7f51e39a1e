package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itiky/collaborate-mirror/config"
)

const (
	FlagConfig   = "config"
	FlagLogLevel = "log-level"
)

// cfg is loaded before any command runs.
var cfg = config.Default()

// rootCmd is a base command.
var rootCmd = &cobra.Command{
	Use:   "collaborate-mirror",
	Short: "Collaborate mirror store server and clients",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := cmd.Flags().GetString(FlagConfig)
		if err != nil {
			return fmt.Errorf("%s flag: %w", FlagConfig, err)
		}

		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cmd.Flags().Changed(FlagLogLevel) {
			if loaded.LogLevel, err = cmd.Flags().GetString(FlagLogLevel); err != nil {
				return fmt.Errorf("%s flag: %w", FlagLogLevel, err)
			}
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}

		level, err := logrus.ParseLevel(loaded.LogLevel)
		if err != nil {
			return fmt.Errorf("%s: %w", FlagLogLevel, err)
		}
		logrus.SetLevel(level)
		cfg = loaded

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalf("rootCmd.Execute: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().String(FlagConfig, "", "(optional) YAML config file path")
	rootCmd.PersistentFlags().String(FlagLogLevel, logrus.InfoLevel.String(), "(optional) log level")
}
