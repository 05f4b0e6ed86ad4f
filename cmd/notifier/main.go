package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bantayani/internal/config"
	"bantayani/internal/database/postgres"
	"bantayani/internal/event"
	"bantayani/internal/logging"
	"bantayani/internal/metrics"
	"bantayani/internal/notifier"
	"bantayani/internal/repository"
	"bantayani/internal/worker"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
	if err := run(config.NewNotifier()); err != nil {
		log.Printf("notifier stopped with error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.NotifierConfig) error {
	logFile, err := logging.Setup(cfg.LogDir, "notifier")
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewMetrics(registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Error("error connecting to database, retrying", "error", err)
		postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}
	defer db.Close()

	rabbit, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer rabbit.Close()
	if err := event.DeclareNotificationQueues(rabbit.Channel); err != nil {
		return fmt.Errorf("failed to declare queues: %w", err)
	}

	var push notifier.PushSender
	if fcm, err := notifier.NewFirebaseService(ctx, cfg.FirebaseCfg.CredentialsFile); err != nil {
		slog.Warn("firebase unavailable, push delivery disabled", "error", err)
	} else {
		push = fcm
	}
	var mailer notifier.Mailer
	if email := notifier.NewEmailService(cfg.EmailCfg); email != nil {
		mailer = email
	} else {
		slog.Warn("SMTP not configured, e-mail delivery disabled")
	}

	dispatcher := notifier.NewDispatcher(
		repository.NewUserRepository(db),
		repository.NewDeviceTokenRepository(db),
		push, mailer, m,
	)
	pool := worker.NewWorkingPool("notifications", cfg.Workers, cfg.Workers*2)
	consumer := notifier.NewQueueConsumer(rabbit.Channel, dispatcher, pool)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/checkhealth", func(w http.ResponseWriter, _ *http.Request) {
		if rabbit.IsClosed() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pool.Start(gctx)
		return nil
	})
	g.Go(func() error {
		return consumer.StartConsuming(gctx)
	})
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	slog.Info("notifier started", "workers", cfg.Workers)
	if err := g.Wait(); err != nil {
		slog.Error("notifier stopped with error", "error", err)
		return err
	}
	slog.Info("notifier stopped")
	return nil
}
