package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/heytcass/gnome-at-a-glance/pkg/pipeline"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the status pipeline until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	p, cleanup, err := buildPipeline()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("status pipeline started")
	if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("status pipeline stopped")
	return nil
}

// buildPipeline constructs the whole object graph from config. All
// shared state lives in these explicitly passed components.
func buildPipeline() (*pipeline.Pipeline, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return assemble(cfg)
}
