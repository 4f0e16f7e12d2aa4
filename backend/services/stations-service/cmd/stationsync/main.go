// Command stationsync runs one catalog sync against the charger feed and exits.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"evcharge/backend/libs/events"
	"evcharge/backend/libs/logging"
	"evcharge/backend/libs/metrics"
	"evcharge/backend/services/stations-service/internal/app"
	"evcharge/backend/services/stations-service/internal/config"
	"evcharge/backend/services/stations-service/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := &cli.Command{
		Name:  "stationsync",
		Usage: "pull the public charger feed into the station catalog once",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "region",
				Aliases: []string{"zcode"},
				Usage:   "region code filter; empty syncs every region",
			},
			&cli.BoolFlag{
				Name:  "use-config-region",
				Usage: "sync the region configured for the scheduler instead of --region",
			},
			&cli.IntFlag{
				Name:  "max-pages",
				Usage: "override the configured page bound",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "override the configured page size",
			},
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "emit a catalog.synced event when Kafka is configured",
			},
		},
		Action: run,
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if n := int(cmd.Int("max-pages")); n > 0 {
		cfg.Sync.MaxPages = n
	}
	if n := int(cmd.Int("page-size")); n > 0 {
		cfg.Sync.PageSize = n
	}
	region := cmd.String("region")
	if cmd.Bool("use-config-region") {
		region = cfg.Sync.Region
	}

	logger, err := logging.NewLogger("stationsync")
	if err != nil {
		return err
	}
	defer logger.Sync()

	sqlDB, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	var publisher events.Publisher = events.NopPublisher{}
	if cmd.Bool("publish") {
		publisher, err = events.New(events.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	pipeline := app.NewPipeline(cfg, repository.NewCatalogRepository(sqlDB), publisher, metrics.New("stationsync"), logger)
	res, err := pipeline.Refresh(ctx, region)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		logger.Warn("write summary", zap.Error(encErr))
	}
	return err
}
