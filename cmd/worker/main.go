package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/app"
	"github.com/unclebandit/membercast/internal/config"
	"github.com/unclebandit/membercast/internal/logger"
	"github.com/unclebandit/membercast/internal/queue"
)

// consumer is the blocking side of the campaign queue.
type consumer interface {
	Consume(ctx context.Context, topic string, handler func(payload any) error) error
}

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.AMQP.URL == "" {
		log.Fatal("AMQP_URL is required for the worker")
	}

	l := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "membercast-worker",
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, l)
	if err != nil {
		l.Fatal("failed to start worker", zap.Error(err))
	}
	defer a.Close()

	aq, err := a.DialAMQP()
	if err != nil {
		l.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}

	l.Info("worker running, waiting for campaign jobs", zap.String("queue", cfg.AMQP.Queue))
	if err := serve(ctx, aq, a.Campaigns, l); err != nil {
		l.Error("worker stopped", zap.Error(err))
	}
}

// serve consumes campaign jobs until ctx is cancelled.
func serve(ctx context.Context, c consumer, runner queue.CampaignRunner, l *zap.Logger) error {
	err := c.Consume(ctx, queue.TopicCampaignSends, queue.CampaignJobHandler(ctx, runner, l))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
