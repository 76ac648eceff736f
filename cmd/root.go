// Package cmd holds the CLI commands for the at-a-glance daemon.
package cmd

import (
	"fmt"
	"os"

	"github.com/heytcass/gnome-at-a-glance/pkg/config"
	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "glance",
	Short: "At a Glance – a contextual status daemon for the desktop panel",
	Long: `glance periodically pulls calendar, task, weather, and system signals,
enriches upcoming meetings, and arbitrates everything into one status
line plus a structured snapshot for the panel to render.`,
	Version: version,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
}

// loadConfig resolves and loads configuration, then applies the log level.
func loadConfig() (*models.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	return cfg, nil
}
