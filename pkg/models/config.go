package models

import "time"

// Config holds application configuration, loaded from YAML.
type Config struct {
	UpdateIntervalSec int    `yaml:"update_interval_sec"`
	LogLevel          string `yaml:"log_level"`
	TopLineMaxRunes   int    `yaml:"top_line_max_runes"`
	StatePath         string `yaml:"state_path"` // snapshot JSON for the panel consumer

	Calendar CalendarConfig `yaml:"calendar"`
	Meetings MeetingsConfig `yaml:"meetings"`
	Advisor  AdvisorConfig  `yaml:"advisor"`
	Weather  WeatherConfig  `yaml:"weather"`
	Tasks    TasksConfig    `yaml:"tasks"`
	System   SystemConfig   `yaml:"system"`
}

// CalendarConfig controls the acquisition tier chain. Tiers are tried in
// the order listed; which source is authoritative is a local choice, so
// it is configuration rather than code.
type CalendarConfig struct {
	Tiers            []string `yaml:"tiers"` // subset of: broker, store, file
	CombineTiers     bool     `yaml:"combine_tiers"`
	BrokerDest       string   `yaml:"broker_dest"`
	BrokerPath       string   `yaml:"broker_path"`
	BrokerInterface  string   `yaml:"broker_interface"`
	BrokerMember     string   `yaml:"broker_member"`
	BrokerTimeoutSec int      `yaml:"broker_timeout_sec"`
	StorePath        string   `yaml:"store_path"`
	FilePath         string   `yaml:"file_path"`
	HorizonDays      int      `yaml:"horizon_days"`
	MaxEvents        int      `yaml:"max_events"`
	CacheTTLMin      int      `yaml:"cache_ttl_min"`
	SuppressPatterns []string `yaml:"suppress_patterns"`
	WorkKeywords     []string `yaml:"work_keywords"`
	PersonalKeywords []string `yaml:"personal_keywords"`
}

// MeetingsConfig controls event enrichment.
type MeetingsConfig struct {
	UpcomingHorizonMin  int `yaml:"upcoming_horizon_min"`
	ContextCacheTTLMin  int `yaml:"context_cache_ttl_min"`
	MaxPreparationTasks int `yaml:"max_preparation_tasks"`
}

// AdvisorConfig controls the metered external advisory call.
type AdvisorConfig struct {
	Enabled              bool   `yaml:"enabled"`
	Endpoint             string `yaml:"endpoint"`
	Model                string `yaml:"model"`
	APIKeyEnv            string `yaml:"api_key_env"`
	TimeoutSec           int    `yaml:"timeout_sec"`
	MaxDailyRequests     int    `yaml:"max_daily_requests"`
	InsightTTLMin        int    `yaml:"insight_ttl_min"`
	PrioritizationTTLMin int    `yaml:"prioritization_ttl_min"`
	UsagePath            string `yaml:"usage_path"`
}

// WeatherConfig points at the weather collaborator.
type WeatherConfig struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// TasksConfig points at the task-source collaborator.
type TasksConfig struct {
	URL         string `yaml:"url"`
	APITokenEnv string `yaml:"api_token_env"`
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// SystemConfig controls local machine probes.
type SystemConfig struct {
	BatteryThreshold int    `yaml:"battery_threshold"`
	PowerSupplyDir   string `yaml:"power_supply_dir"`
	CheckUnits       bool   `yaml:"check_units"`
}

// UpdateInterval returns the pipeline cycle interval.
func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateIntervalSec) * time.Second
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		UpdateIntervalSec: 60,
		LogLevel:          "info",
		TopLineMaxRunes:   50,
		StatePath:         "", // resolved under the user state dir when empty
		Calendar: CalendarConfig{
			Tiers:            []string{"broker", "store", "file"},
			BrokerDest:       "org.gnome.Shell.CalendarServer",
			BrokerPath:       "/org/gnome/Shell/CalendarServer",
			BrokerInterface:  "org.gnome.Shell.CalendarServer",
			BrokerMember:     "EventsAddedOrUpdated",
			BrokerTimeoutSec: 5,
			HorizonDays:      7,
			MaxEvents:        12,
			CacheTTLMin:      5,
		},
		Meetings: MeetingsConfig{
			UpcomingHorizonMin:  240,
			ContextCacheTTLMin:  5,
			MaxPreparationTasks: 5,
		},
		Advisor: AdvisorConfig{
			Enabled:              true,
			Endpoint:             "https://api.anthropic.com/v1/messages",
			Model:                "claude-3-5-haiku-20241022",
			APIKeyEnv:            "ANTHROPIC_API_KEY",
			TimeoutSec:           10,
			MaxDailyRequests:     24,
			InsightTTLMin:        60,
			PrioritizationTTLMin: 5,
		},
		Weather: WeatherConfig{
			URL:        "https://wttr.in/?format=j1",
			TimeoutSec: 10,
		},
		Tasks: TasksConfig{
			URL:         "https://api.todoist.com/rest/v2/tasks",
			APITokenEnv: "TODOIST_API_TOKEN",
			TimeoutSec:  10,
		},
		System: SystemConfig{
			BatteryThreshold: 15,
			PowerSupplyDir:   "/sys/class/power_supply",
			CheckUnits:       true,
		},
	}
}
