// Conveyor Agent — выполняет runs и обслуживает HTTP API.
//
// Agent:
//   - Получает заявки run.requested из RabbitMQ (или опросом БД,
//     если брокер недоступен)
//   - Разворачивает матрицу pipeline и выполняет jobs пулом воркеров
//   - Фиксирует статусы run/jobs в PostgreSQL, публикует события
//   - Обслуживает REST API, /healthz и Prometheus /metrics
//
// Агенты масштабируются горизонтально: заявку забирает один из них.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conveyor-ci/conveyor/internal/agent"
	"github.com/conveyor-ci/conveyor/internal/api"
	"github.com/conveyor-ci/conveyor/internal/config"
	"github.com/conveyor-ci/conveyor/internal/mq"
	"github.com/conveyor-ci/conveyor/internal/repo"
	"github.com/conveyor-ci/conveyor/internal/steps"
	"github.com/conveyor-ci/conveyor/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_agent_http_requests_total",
		Help: "Total HTTP requests handled by conveyor-agent",
	})
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-agent")

	cfg, err := config.LoadAgentConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Рабочая директория: шаги checkout/run используют относительные
	// пути от текущей директории процесса.
	if err := os.MkdirAll(cfg.Workdir, 0o755); err != nil {
		logger.Error("failed to create workdir", "workdir", cfg.Workdir, "error", err)
		os.Exit(1)
	}
	if err := os.Chdir(cfg.Workdir); err != nil {
		logger.Error("failed to enter workdir", "workdir", cfg.Workdir, "error", err)
		os.Exit(1)
	}
	logger.Info("workdir ready", "workdir", cfg.Workdir)

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	pipelineRepo := repo.NewPipelineRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	jobRepo := repo.NewJobRepo(pool)
	scheduleRepo := repo.NewScheduleRepo(pool)

	// RabbitMQ: без брокера агент живёт в режиме polling-only
	var publisher *mq.Publisher
	var mqConn *mq.Connection

	mqConn, err = mq.NewConnection(cfg.AMQPURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Реестр шагов: кэш живёт в директории из конфигурации
	registry := steps.NewRegistry()
	registry.Register(steps.NewRunFactory())
	registry.Register(steps.NewCheckoutFactory())
	registry.Register(steps.NewToolchainFactory())
	registry.Register(&steps.CacheRestoreFactory{Store: cfg.CacheDir})
	registry.Register(&steps.CacheSaveFactory{Store: cfg.CacheDir})

	// Создаём агента
	a := agent.New(agent.Config{
		RunRepo:      runRepo,
		JobRepo:      jobRepo,
		PipelineRepo: pipelineRepo,
		Publisher:    publisher,
		Conn:         mqConn,
		Registry:     registry,
		PollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		Logger:       logger,
	})

	if err := a.Start(ctx); err != nil {
		logger.Error("failed to start agent", "error", err)
		os.Exit(1)
	}

	// API handler
	handler := api.NewHandler(api.Config{
		PipelineRepo: pipelineRepo,
		RunRepo:      runRepo,
		JobRepo:      jobRepo,
		ScheduleRepo: scheduleRepo,
		Publisher:    publisher,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		reqTotal.Inc()
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	// HTTP сервер с graceful shutdown
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	// Сначала агент: исходы выполняющихся jobs фиксируются в БД
	a.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("conveyor-agent stopped")
}
