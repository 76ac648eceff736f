// Package config loads and saves the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	"gopkg.in/yaml.v3"
)

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, "at-a-glance", "config.yaml"), nil
}

// Load reads the config at path, layered over defaults. A missing file is
// normal and yields the defaults unchanged.
func Load(path string) (*models.Config, error) {
	cfg := models.DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	normalize(cfg)
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg *models.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Rename(tmp, path)
}

// normalize backfills zero values a partial YAML file may have left behind.
func normalize(cfg *models.Config) {
	def := models.DefaultConfig()
	if cfg.UpdateIntervalSec <= 0 {
		cfg.UpdateIntervalSec = def.UpdateIntervalSec
	}
	if cfg.TopLineMaxRunes <= 0 {
		cfg.TopLineMaxRunes = def.TopLineMaxRunes
	}
	if len(cfg.Calendar.Tiers) == 0 {
		cfg.Calendar.Tiers = def.Calendar.Tiers
	}
	if cfg.Calendar.HorizonDays <= 0 {
		cfg.Calendar.HorizonDays = def.Calendar.HorizonDays
	}
	if cfg.Calendar.MaxEvents <= 0 {
		cfg.Calendar.MaxEvents = def.Calendar.MaxEvents
	}
	if cfg.Calendar.CacheTTLMin <= 0 {
		cfg.Calendar.CacheTTLMin = def.Calendar.CacheTTLMin
	}
	if cfg.Calendar.BrokerTimeoutSec <= 0 {
		cfg.Calendar.BrokerTimeoutSec = def.Calendar.BrokerTimeoutSec
	}
	if cfg.Calendar.BrokerMember == "" {
		cfg.Calendar.BrokerMember = def.Calendar.BrokerMember
	}
	if cfg.Meetings.UpcomingHorizonMin <= 0 {
		cfg.Meetings.UpcomingHorizonMin = def.Meetings.UpcomingHorizonMin
	}
	if cfg.Meetings.ContextCacheTTLMin <= 0 {
		cfg.Meetings.ContextCacheTTLMin = def.Meetings.ContextCacheTTLMin
	}
	if cfg.Meetings.MaxPreparationTasks <= 0 {
		cfg.Meetings.MaxPreparationTasks = def.Meetings.MaxPreparationTasks
	}
	if cfg.Advisor.MaxDailyRequests <= 0 {
		cfg.Advisor.MaxDailyRequests = def.Advisor.MaxDailyRequests
	}
	if cfg.Advisor.InsightTTLMin <= 0 {
		cfg.Advisor.InsightTTLMin = def.Advisor.InsightTTLMin
	}
	if cfg.Advisor.PrioritizationTTLMin <= 0 {
		cfg.Advisor.PrioritizationTTLMin = def.Advisor.PrioritizationTTLMin
	}
	if cfg.Advisor.TimeoutSec <= 0 {
		cfg.Advisor.TimeoutSec = def.Advisor.TimeoutSec
	}
	if cfg.System.BatteryThreshold <= 0 {
		cfg.System.BatteryThreshold = def.System.BatteryThreshold
	}
	if cfg.System.PowerSupplyDir == "" {
		cfg.System.PowerSupplyDir = def.System.PowerSupplyDir
	}
}
