package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukex/wflguard/pkg/config"
	"github.com/dukex/wflguard/pkg/log"
	"github.com/dukex/wflguard/pkg/queue"
	"github.com/dukex/wflguard/pkg/services"
	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
)

func WorkerCommand() *cli.Command {
	return &cli.Command{
		Name:    "worker",
		Aliases: []string{"w"},
		Usage:   "Validate candidates from a Redis queue",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the worker YAML configuration",
				Sources: cli.EnvVars("WORKER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL, overrides the configuration file",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
			},
		}, serviceFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := loadWorkerConfig(command.String("config"), command.String("redis-url"))
			if err != nil {
				return err
			}

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
			}

			logger := log.WithModule("worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Starting worker")

			rt, err := newRuntime(ctx, command, logger, services.WithWorkerID(workerID))
			if err != nil {
				return err
			}
			defer rt.Close(context.WithoutCancel(ctx), logger)

			client, err := queue.NewClient(ctx, cfg.Redis)
			if err != nil {
				return err
			}

			defer func() {
				if err := client.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close Redis client", "error", err)
				}
			}()

			worker, err := queue.NewWorker(client, rt.service, cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := worker.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			logger.Info("Shutting down gracefully...")

			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()

			return worker.Stop(stopCtx)
		},
	}
}

func loadWorkerConfig(path, redisURL string) (config.WorkerConfig, error) {
	cfg := config.DefaultWorkerConfig()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, fmt.Errorf("worker config: %w", err)
		}

		loaded, err := config.LoadWorkerConfig(path)
		if err != nil {
			return cfg, err
		}

		cfg = loaded
	}

	if redisURL != "" {
		cfg.Redis.URL = redisURL
	}

	return cfg, nil
}
