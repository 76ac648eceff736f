package cmd

import (
	"os"
	"path/filepath"

	"github.com/heytcass/gnome-at-a-glance/pkg/advisor"
	"github.com/heytcass/gnome-at-a-glance/pkg/arbiter"
	"github.com/heytcass/gnome-at-a-glance/pkg/calendar"
	"github.com/heytcass/gnome-at-a-glance/pkg/meeting"
	"github.com/heytcass/gnome-at-a-glance/pkg/models"
	"github.com/heytcass/gnome-at-a-glance/pkg/pipeline"
	"github.com/heytcass/gnome-at-a-glance/pkg/sources"
	log "github.com/sirupsen/logrus"
)

// assemble builds the pipeline object graph from config and returns it
// with a cleanup function for the resources that hold handles.
func assemble(cfg *models.Config) (*pipeline.Pipeline, func(), error) {
	if cfg.StatePath == "" {
		if base, err := os.UserCacheDir(); err == nil {
			cfg.StatePath = filepath.Join(base, "at-a-glance", "snapshot.json")
		}
	}

	usagePath := cfg.Advisor.UsagePath
	if usagePath == "" {
		var err error
		usagePath, err = advisor.DefaultUsagePath()
		if err != nil {
			return nil, nil, err
		}
	}

	filter := calendar.NewFilter(cfg.Calendar)
	storeTier := calendar.NewStoreTier(cfg.Calendar.StorePath)

	tiers := []calendar.Tier{}
	for _, name := range cfg.Calendar.Tiers {
		switch name {
		case "broker":
			tiers = append(tiers, calendar.NewBrokerTier(cfg.Calendar))
		case "store":
			tiers = append(tiers, storeTier)
		case "file":
			tiers = append(tiers, calendar.NewFileTier(cfg.Calendar.FilePath))
		default:
			log.WithField("tier", name).Warn("unknown calendar tier in config, ignoring")
		}
	}
	acquirer := calendar.NewAcquirer(tiers, filter, cfg.Calendar)

	cache := advisor.NewCache(advisor.NewUsageStore(usagePath), cfg.Advisor)
	var adv advisor.Advisor
	if client := advisor.NewClient(cfg.Advisor); client != nil {
		adv = client
	} else {
		log.Debug("advisory client disabled, deterministic fallback only")
	}

	p := pipeline.New(
		cfg,
		acquirer,
		meeting.NewExtractor(cfg.Meetings),
		arbiter.New(adv, cache, cfg),
		sources.NewWeatherSource(cfg.Weather),
		sources.NewTaskSource(cfg.Tasks),
		sources.NewSystemSource(cfg.System),
	)

	cleanup := func() {
		if err := storeTier.Close(); err != nil {
			log.WithError(err).Debug("closing calendar store")
		}
	}
	return p, cleanup, nil
}
