// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/app"
	"github.com/unclebandit/membercast/internal/config"
	"github.com/unclebandit/membercast/internal/controller"
	"github.com/unclebandit/membercast/internal/handler"
	"github.com/unclebandit/membercast/internal/logger"
	"github.com/unclebandit/membercast/internal/queue"
	"github.com/unclebandit/membercast/internal/scheduler"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadFromEnv(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	l := logger.New(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: "membercast-server",
		File:        cfg.Logging.File,
		MaxSizeMB:   cfg.Logging.MaxSizeMB,
		MaxBackups:  cfg.Logging.MaxBackups,
		MaxAgeDays:  cfg.Logging.MaxAgeDays,
	})
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, l); err != nil {
		l.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, l *zap.Logger) error {
	a, err := app.New(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := a.ConnectQueue(ctx)
	if err != nil {
		return err
	}
	sessions, err := a.Sessions(ctx)
	if err != nil {
		return err
	}

	if cfg.Scheduler.Enabled {
		s := &scheduler.Scheduler{
			Campaigns: a.CampaignRepo,
			Queue:     q,
			Interval:  cfg.Scheduler.Interval(),
			Logger:    l.Named("scheduler"),
		}
		go s.Run(ctx)
	}

	router := handler.NewRouter(handler.Deps{
		Members: &controller.MemberController{MemberService: a.Members},
		Imports: &controller.ImportController{
			MemberService:  a.Members,
			Sessions:       sessions,
			MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
			Logger:         l.Named("imports"),
		},
		Campaigns: &controller.CampaignController{CampaignService: a.Campaigns, Logger: l.Named("campaigns")},
		Settings:  &controller.SettingsController{SettingsService: a.Settings},
		SMS:       &controller.SMSController{CampaignService: a.Campaigns},
		Translate: &controller.TranslateController{Translator: a.Translator},

		Logger:         l.Named("http"),
		Metrics:        a.Metrics,
		Gatherer:       a.Registry,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("server running", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if mem, ok := q.(*queue.InMemoryQueue); ok {
		mem.Wait()
	}
	return nil
}
