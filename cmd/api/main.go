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

	"bantayani/internal/ai/gemini"
	"bantayani/internal/config"
	"bantayani/internal/database/minio"
	"bantayani/internal/database/postgres"
	"bantayani/internal/database/redis"
	"bantayani/internal/event"
	"bantayani/internal/handlers"
	"bantayani/internal/logging"
	"bantayani/internal/metrics"
	"bantayani/internal/realtime"
	"bantayani/internal/repository"
	"bantayani/internal/services"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
	if err := run(config.New()); err != nil {
		log.Printf("API stopped with error: %v", err)
		os.Exit(1)
	}
}

// run owns every resource so its deferred closes finish before main exits.
func run(cfg *config.APIConfig) error {
	logFile, err := logging.Setup(cfg.LogDir, "api")
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m, err := metrics.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	slog.Info("connecting to PostgreSQL", "host", cfg.PostgresCfg.Host, "port", cfg.PostgresCfg.Port, "dbname", cfg.PostgresCfg.DBname)
	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		slog.Error("error connecting to database, retrying", "error", err)
		postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}
	defer db.Close()

	redisClient, err := redis.Connect(ctx, cfg.RedisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	// notifications are best effort; the API runs without a broker
	var notifier services.Notifications
	rabbit, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Warn("RabbitMQ unavailable, notifications disabled", "error", err)
	} else {
		defer rabbit.Close()
		publisher, err := event.NewNotificationPublisher(rabbit, m)
		if err != nil {
			slog.Warn("failed to set up notification publisher", "error", err)
		} else {
			notifier = event.NewNotificationHelper(publisher)
		}
	}

	var identifier services.PestIdentifier
	if clients := gemini.NewClientsFromKeys(ctx, cfg.GeminiAPICfg.APIKeys, cfg.GeminiAPICfg.FlashName, cfg.GeminiAPICfg.ProName); len(clients) > 0 {
		selector := gemini.NewGeminiClientSelector(clients)
		defer selector.Close()
		identifier = selector
	} else {
		slog.Warn("no Gemini API keys configured, identification disabled")
	}

	users := repository.NewUserRepository(db)
	detectionRepo := repository.NewDetectionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	sessions := repository.NewSessionRepository(redisClient, cfg.JWTCfg.SessionTTL)
	changes := event.NewChangeFeed(redisClient, m)

	jwtService := services.NewJWTService(cfg.JWTCfg.Secret, cfg.JWTCfg.Issuer)
	authService := services.NewAuthService(users, sessions, jwtService, cfg.JWTCfg.SessionTTL)
	detectionService := services.NewDetectionService(detectionRepo, users, messageRepo, minioClient, changes, notifier, m)
	farmService := services.NewFarmService(repository.NewFarmRepository(db), changes)
	advisoryService := services.NewAdvisoryService(repository.NewAdvisoryRepository(db), users, changes, notifier)
	messageService := services.NewMessageService(messageRepo, users, changes, notifier)
	deviceService := services.NewDeviceService(repository.NewDeviceTokenRepository(db))
	identifyService := services.NewIdentifyService(identifier, cfg.GeminiAPICfg.RequestsPerMin, m)

	hub := realtime.NewHub(m)
	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(authService),
		Auth:       handlers.NewAuthHandler(authService),
		Detections: handlers.NewDetectionHandler(detectionService),
		Farms:      handlers.NewFarmHandler(farmService),
		Advisories: handlers.NewAdvisoryHandler(advisoryService),
		Messages:   handlers.NewMessageHandler(messageService, deviceService),
		AI:         handlers.NewAIHandler(identifyService),
		Realtime:   hub.Handler,
		Registry:   m.Registry(),
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}).Handler(router.Engine())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		feed, err := changes.Subscribe(gctx)
		if err != nil {
			return err
		}
		return hub.Run(gctx, feed)
	})
	g.Go(func() error {
		slog.Info("BantayAni API listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("API stopped with error", "error", err)
		return err
	}
	slog.Info("API stopped")
	return nil
}
