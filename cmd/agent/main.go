package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apihttp "ozzus/nsca-agent/internal/api/http"
	"ozzus/nsca-agent/internal/checks"
	"ozzus/nsca-agent/internal/config"
	"ozzus/nsca-agent/internal/lib/logger"
	"ozzus/nsca-agent/internal/lib/logger/sl"
	"ozzus/nsca-agent/internal/metrics"
	"ozzus/nsca-agent/internal/nsca"
	"ozzus/nsca-agent/internal/repository"
	"ozzus/nsca-agent/internal/repository/kafka"
	"ozzus/nsca-agent/internal/service"
)

const version = "1.0.0"

func main() {

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	// Загружаем конфигурацию
	cfg, loader, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Настраиваем логгер
	level := new(slog.LevelVar)
	log := logger.New(cfg.Env, os.Stdout, level)
	applyLogLevel(log, level, cfg.LogLevel)

	log.Info("starting application",
		"env", cfg.Env,
		"agent", cfg.Agent.Name,
		"config", loader.ConfigFile(),
	)

	loader.Watch(log, func(next *config.Config) {
		applyLogLevel(log, level, next.LogLevel)
	})

	clientCfg, err := cfg.NSCA.ClientConfig()
	if err != nil {
		log.Error("invalid nsca configuration", sl.Err(err))
		os.Exit(1)
	}

	sender, err := nsca.New(clientCfg, nsca.WithLogger(log.With("component", "nsca")))
	if err != nil {
		log.Error("failed to initialize nsca client", sl.Err(err))
		os.Exit(1)
	}

	var (
		taskRepo repository.TaskRepository
		logs     repository.EventPublisher
	)

	if cfg.Kafka.Enabled {
		log.Info("initializing Kafka components", "brokers", cfg.Kafka.Brokers)

		taskConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Tasks, cfg.Agent.Name, log)
		defer taskConsumer.Close()

		checkCtx, checkCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := taskConsumer.CheckConnection(checkCtx); err != nil {
			log.Warn("kafka is not reachable yet", sl.Err(err))
		}
		checkCancel()

		logsProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Logs)
		defer logsProducer.Close()

		taskRepo = repository.NewKafkaTaskRepository(taskConsumer, log)
		logs = logsProducer
	} else {
		log.Info("using static check definitions", "count", len(cfg.Checks.Definitions))
		taskRepo = repository.NewStaticTaskRepository(cfg.Checks.Definitions)
	}

	resultRepo := repository.NewNscaResultRepository(sender, logs, log)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	agentService := service.NewAgentService(
		taskRepo,
		resultRepo,
		metrics.New(registry),
		log,
		service.Config{
			AgentID:      cfg.Agent.Name,
			PollInterval: cfg.Checks.PollInterval,
			Concurrency:  cfg.Checks.Concurrency,
			NSCAAddress:  sender.Address(),
			Encryption:   sender.Cipher().String(),
		},
	)

	log.Debug("initializing checkers")

	agentService.RegisterChecker(checks.NewHTTPChecker(cfg.GetHTTPTimeout()))
	agentService.RegisterChecker(checks.NewPingChecker(cfg.GetPingTimeout(), 4, false))
	agentService.RegisterChecker(checks.NewTCPChecker(cfg.GetTCPTimeout()))
	agentService.RegisterChecker(checks.NewDNSChecker(cfg.GetDNSTimeout(), nil))

	healthController := apihttp.NewHealthController(agentService, cfg.Agent.Name, version)

	router := apihttp.NewRouter(healthController, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Запускаем агент
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting agent service",
			"nsca", sender.Address(),
			"encryption", sender.Cipher().String(),
		)
		if err := agentService.Start(ctx); err != nil {
			log.Error("agent service failed", sl.Err(err))
			cancel()
		}
	}()

	// Запускаем HTTP сервер
	httpServer := &nethttp.Server{
		Addr:              ":" + cfg.Server.HealthPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("starting health server", "port", cfg.Server.HealthPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error("HTTP server failed", sl.Err(err))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Info("application started and ready",
		"health_port", cfg.Server.HealthPort,
		"agent_id", cfg.Agent.Name,
	)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down agent...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", sl.Err(err))
	}

	wg.Wait()
	log.Info("agent stopped gracefully")
}

// applyLogLevel overrides the environment's default level when the config
// names one.
func applyLogLevel(log *slog.Logger, level *slog.LevelVar, name string) {
	if name == "" {
		return
	}
	l, ok := logger.ParseLevel(name)
	if !ok {
		log.Warn("unknown log level, keeping current", "log_level", name)
		return
	}
	if level.Level() != l {
		level.Set(l)
		log.Info("log level changed", "log_level", l.String())
	}
}
