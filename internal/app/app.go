// Package app wires the record store, services and plumbing shared by the
// membercast binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/config"
	"github.com/unclebandit/membercast/internal/db"
	"github.com/unclebandit/membercast/internal/importer"
	"github.com/unclebandit/membercast/internal/metrics"
	"github.com/unclebandit/membercast/internal/queue"
	"github.com/unclebandit/membercast/internal/repository"
	"github.com/unclebandit/membercast/internal/service"
	"github.com/unclebandit/membercast/internal/session"
	"github.com/unclebandit/membercast/internal/sms"
	"github.com/unclebandit/membercast/internal/translate"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *sql.DB
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	CampaignRepo *repository.CampaignRepository

	Members    *service.MemberService
	Settings   *service.SettingsService
	Campaigns  *service.CampaignService
	Translator *translate.Service

	closers []func() error
}

// New opens the record store and builds the services. The campaign service
// has no queue until ConnectQueue is called.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	memberRepo := &repository.MemberRepository{DB: conn}
	settingsRepo := &repository.SettingsRepository{DB: conn}
	campaignRepo := &repository.CampaignRepository{DB: conn}
	outboundRepo := &repository.OutboundMessageRepository{DB: conn}

	settings := &service.SettingsService{SettingsRepo: settingsRepo}
	members := &service.MemberService{
		MemberRepo: memberRepo,
		Importer:   importer.New(logger.Named("importer")),
		Logger:     logger.Named("members"),
		Metrics:    m,
	}

	a := &App{
		Config:       cfg,
		Logger:       logger,
		DB:           conn,
		Registry:     reg,
		Metrics:      m,
		CampaignRepo: campaignRepo,
		Members:      members,
		Settings:     settings,
	}
	a.closers = append(a.closers, conn.Close)

	a.Campaigns = &service.CampaignService{
		CampaignRepo: campaignRepo,
		MemberRepo:   memberRepo,
		OutboundRepo: outboundRepo,
		Sender: &service.Sender{
			Client:      a.smsClient(),
			Logger:      logger.Named("sender"),
			Concurrency: cfg.SMS.Concurrency,
			Metrics:     m,
		},
		Logger:  logger.Named("campaigns"),
		Metrics: m,
	}
	a.Translator = translate.NewService(ctx, cfg.Translate, settings, logger.Named("translate"))
	return a, nil
}

func (a *App) smsClient() sms.Client {
	if a.Config.SMS.Provider == "mock" {
		a.Logger.Warn("using mock sms provider, no messages will leave this process")
		return &sms.Mock{}
	}
	return sms.NewTwilioClient(a.Config.SMS.BaseURL, a.Config.SMS.Timeout(), a.Settings, a.Logger.Named("twilio"))
}

// Sessions returns the import preview store: Redis when an address is
// configured, process memory otherwise.
func (a *App) Sessions(ctx context.Context) (session.Store, error) {
	cfg := a.Config.Redis
	if cfg.Addr == "" {
		return session.NewMemoryStore(cfg.SessionTTL()), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, client.Close)
	a.Logger.Info("import sessions stored in redis", zap.String("addr", cfg.Addr))
	return session.NewRedisStore(client, cfg.SessionTTL()), nil
}

// ConnectQueue attaches a campaign job queue to the campaign service. With
// an AMQP URL jobs go to RabbitMQ for cmd/worker; otherwise they run on an
// in-process queue with a local subscriber.
func (a *App) ConnectQueue(ctx context.Context) (queue.Queue, error) {
	var q queue.Queue
	if url := a.Config.AMQP.URL; url != "" {
		aq, err := a.DialAMQP()
		if err != nil {
			return nil, err
		}
		q = aq
	} else {
		mem := queue.NewInMemoryQueue(a.Logger.Named("queue"))
		if err := queue.StartCampaignSendSubscriber(ctx, mem, a.Campaigns, a.Logger.Named("subscriber")); err != nil {
			return nil, err
		}
		q = mem
	}
	a.Campaigns.Queue = q
	return q, nil
}

// DialAMQP connects to RabbitMQ using the configured campaign queue name.
func (a *App) DialAMQP() (*queue.AMQPQueue, error) {
	aq, err := queue.DialAMQP(a.Config.AMQP.URL, a.Logger.Named("amqp"))
	if err != nil {
		return nil, err
	}
	aq.Queues = map[string]string{queue.TopicCampaignSends: a.Config.AMQP.Queue}
	a.closers = append(a.closers, aq.Close)
	return aq, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
