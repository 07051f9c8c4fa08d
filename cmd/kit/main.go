package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"depremkit/internal/api"
	"depremkit/internal/config"
	"depremkit/internal/database"
	"depremkit/internal/domain"
	"depremkit/internal/events"
	"depremkit/internal/logging"
	"depremkit/internal/metrics"
	"depremkit/internal/models"
	"depremkit/internal/notify"
	"depremkit/internal/recommend"
	"depremkit/internal/repository"
	"depremkit/internal/service"
	"depremkit/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := seedKit(ctx, db, &logger); err != nil {
		return err
	}

	startMetrics(ctx, cfg, &logger)

	bus := events.NewEventBus(logging.Component(&logger, "events"))
	kit := service.NewKitService(db, bus, cfg.Notifications.WarningDays, logging.Component(&logger, "kit"))

	deps := api.Dependencies{
		Kit:       kit,
		Generator: initGenerator(ctx, cfg, &logger),
		Store:     db,
	}

	if cfg.Notifications.Enabled {
		scheduler, reminders, redisClient, err := initNotifications(ctx, cfg, db, &logger)
		if err != nil {
			return err
		}
		if redisClient != nil {
			defer func() { _ = repository.Close(redisClient) }()
		}
		defer scheduler.Stop()

		unsubscribe := reminders.Subscribe(bus)
		defer unsubscribe()

		deps.Scheduler = scheduler
		deps.Reminders = reminders
	} else {
		logger.Info().Msg("notifications are disabled")
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, logging.Component(&logger, "backup"))
		go backupService.Start(ctx)
	}

	return startServers(ctx, cfg, deps, db, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "kit-main").Logger()

	return cfg, logger, closer, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	loc, err := cfg.Database.TimeLocation()
	if err != nil {
		return nil, err
	}

	db := database.New(cfg.Database.Path, logging.Component(logger, "database"), database.WithLocation(loc))
	if err := db.Initialize(ctx); err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	return db, nil
}

// seedKit imports SEED_PATH into an empty kit. A missing file is not an error.
func seedKit(ctx context.Context, db *database.DB, logger *zerolog.Logger) error {
	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "configs/kit.yaml"
	}

	data, err := os.ReadFile(seedPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug().Str("seed_path", seedPath).Msg("no seed file")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("read seed")
		return err
	}

	var seed struct {
		Items []models.NewItem `yaml:"items"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("parse seed")
		return err
	}

	count, err := db.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Debug().Int("items", count).Msg("kit is not empty, seed skipped")
		return nil
	}

	added := 0
	for i := range seed.Items {
		item := seed.Items[i]
		if err := service.ValidateNewItem(&item); err != nil {
			logger.Warn().Err(err).Int("index", i).Msg("seed item skipped")
			continue
		}
		if _, err := db.Add(ctx, item); err != nil {
			return fmt.Errorf("seed item %d: %w", i, err)
		}
		added++
	}
	logger.Info().Int("items", added).Str("seed_path", seedPath).Msg("kit seeded")
	return nil
}

func initNotifications(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	logger *zerolog.Logger,
) (*notify.LocalScheduler, *notify.Reminders, *redis.Client, error) {
	sender, err := initSender(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	repo, redisClient := initNotificationRepository(ctx, cfg, logger)
	scheduler := notify.NewLocalScheduler(repo, sender, worker.DefaultRetryPolicy, logging.Component(logger, "scheduler"))

	hour, minute, err := cfg.Notifications.ReminderClock()
	if err != nil {
		return nil, nil, nil, err
	}
	reminders := notify.NewReminders(db, scheduler, notify.ReminderConfig{
		LeadDays:         cfg.Notifications.LeadDays,
		Hour:             hour,
		Minute:           minute,
		KitCheckInterval: cfg.Notifications.KitCheckInterval,
		WarningDays:      cfg.Notifications.WarningDays,
	}, logging.Component(logger, "reminders"))

	// Восстановленный набор уже содержит проверку набора и напоминания
	restored, err := scheduler.Restore(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("restore notifications")
	}
	if restored == 0 {
		if err := reminders.Refresh(ctx); err != nil {
			logger.Error().Err(err).Msg("initial reminders refresh")
		}
	} else {
		logger.Info().Int("notifications", restored).Msg("notifications restored")
	}

	return scheduler, reminders, redisClient, nil
}

func initSender(cfg *config.Config, logger *zerolog.Logger) (domain.Sender, error) {
	if cfg.Notifications.Sender != config.SenderTelegram {
		return notify.NewLogSender(logging.Component(logger, "sender")), nil
	}

	bot, err := notify.NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return nil, err
	}
	logger.Info().Str("bot", bot.Self.UserName).Int64("chat_id", cfg.Telegram.ChatID).Msg("telegram sender ready")
	return notify.NewTelegramSender(bot, cfg.Telegram.ChatID), nil
}

func initNotificationRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.NotificationRepository, *redis.Client) {
	fallback := repository.NewMemoryNotificationRepository()
	if cfg.Redis.Address == "" {
		return fallback, nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	primary := repository.NewRedisNotificationRepository(redisClient, time.Duration(models.DefaultRedisTTL)*time.Second)
	return repository.NewFailoverNotificationRepository(primary, fallback, logging.Component(logger, "repository")), redisClient
}

func initGenerator(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.Generator {
	canned := recommend.NewCannedGenerator(cfg.Recommender.Delay, nil)
	if cfg.Recommender.APIKey == "" {
		return canned
	}

	gen, err := recommend.NewGenAIGenerator(ctx, cfg.Recommender.APIKey, cfg.Recommender.Model, logging.Component(logger, "genai"))
	if err != nil {
		logger.Warn().Err(err).Msg("genai init failed, using canned recommendations")
		return canned
	}
	logger.Info().Str("model", cfg.Recommender.Model).Msg("genai recommendations enabled")
	return gen
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	cfg *config.Config,
	deps api.Dependencies,
	db *database.DB,
	logger *zerolog.Logger,
) error {
	var httpServer *api.HTTPServer
	if cfg.API.Enabled && cfg.API.HTTP.Enabled {
		httpServer = api.NewHTTPServer(cfg.API, deps, logging.Component(logger, "http"))
		go func() {
			if err := httpServer.Start(); err != nil {
				logger.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	var grpcServer *api.GRPCServer
	if cfg.API.Enabled && cfg.API.GRPC.Enabled {
		var err error
		grpcServer, err = api.NewGRPCServer(cfg.API, db, logger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			if httpServer != nil {
				_ = httpServer.Shutdown(context.Background())
			}
			return err
		}
		go grpcServer.WatchHealth(ctx, 15*time.Second)
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	logger.Info().
		Bool("http", httpServer != nil).
		Bool("grpc", grpcServer != nil).
		Int("http_port", cfg.API.HTTP.Port).
		Int("grpc_port", cfg.API.GRPC.Port).
		Msg("kit service started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("kit service stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
