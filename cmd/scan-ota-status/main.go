package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/xxxhand/scan-ota-status/internal/config"
	"github.com/xxxhand/scan-ota-status/internal/mail"
	"github.com/xxxhand/scan-ota-status/internal/metrics"
	"github.com/xxxhand/scan-ota-status/internal/mongodb"
	"github.com/xxxhand/scan-ota-status/internal/scanner"
	"github.com/xxxhand/scan-ota-status/internal/scheduler"
	"github.com/xxxhand/scan-ota-status/internal/server"
)

const version = "1.0.0"

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// .env is optional; deployed environments set real variables.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env", "error", err)
	}

	cfg := config.Load()
	if len(cfg.Mail.Receivers) == 0 {
		slog.Error("refusing to start without mail receivers", "hint", "set DEFAULT_MAIL_RECEVIER")
		os.Exit(1)
	}
	if cfg.Mongo.Database == "" {
		slog.Error("refusing to start without a database name", "hint", "set DEFAULT_MONGO_DB_NAME")
		os.Exit(1)
	}

	metrics.Init(version)

	source := mongodb.New(mongodb.Options{
		URI:            cfg.Mongo.URI,
		Database:       cfg.Mongo.Database,
		User:           cfg.Mongo.User,
		Password:       cfg.Mongo.Password,
		MinPoolSize:    cfg.Mongo.MinPoolSize,
		MaxPoolSize:    cfg.Mongo.MaxPoolSize,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})

	channel, err := mail.NewChannel(mail.Options{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
	})
	if err != nil {
		slog.Error("configure mail channel", "error", err)
		os.Exit(1)
	}
	defer channel.Close()

	scan := scanner.New(scanner.Config{
		Window:         cfg.Window,
		CountThreshold: cfg.CountThreshold,
		ReportDir:      cfg.ReportDir,
		MailFrom:       cfg.Mail.User,
		MailSender:     cfg.Mail.Sender,
		Receivers:      cfg.Mail.Receivers,
	}, source, channel, slog.Default())

	sched, err := scheduler.New(cfg.CronExpression, scan)
	if err != nil {
		slog.Error("configure scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()
	slog.Info("scan job scheduled", "expression", cfg.CronExpression, "window", cfg.Window.String(), "threshold", cfg.CountThreshold)

	var srv *http.Server
	if cfg.OpsAddr != "" {
		srv = &http.Server{Addr: cfg.OpsAddr, Handler: server.NewRouter()}
		go func() {
			slog.Info("ops server listening", "addr", cfg.OpsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("ops server error", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	sched.Stop()
	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("ops server shutdown error", "error", err)
		}
	}
	slog.Info("stopped")
}
