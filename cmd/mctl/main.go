// Package main implements mctl, the terminal companion to the mission-control
// server: sync the database, capture ideas and todos, read the journal, and
// follow the live stream.
package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/tony-c3a/tony-mission-control/internal/config"
	"github.com/tony-c3a/tony-mission-control/internal/datapath"
	"github.com/tony-c3a/tony-mission-control/internal/logger"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "mctl",
	Short:         "Mission control from the terminal",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
}

// loadConfig reads the config and sets up stderr logging for a CLI run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.Init(config.LogConfig{Level: level, Format: "text", Console: true})
	return cfg, nil
}

func openSource(cfg *config.Config) *parser.Source {
	return parser.NewSource(datapath.New(cfg.Data.Root))
}
