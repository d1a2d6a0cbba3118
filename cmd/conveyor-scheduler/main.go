// Conveyor Scheduler — создаёт runs по расписаниям.
//
// Каждый тик планировщик выбирает созревшие schedules (next_due_at <= now),
// создаёт для них runs и публикует run.requested. От двойного запуска при
// нескольких репликах защищает advisory lock PostgreSQL: тикает только
// лидер, остальные ждут освобождения блокировки.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conveyor-ci/conveyor/internal/config"
	"github.com/conveyor-ci/conveyor/internal/mq"
	"github.com/conveyor-ci/conveyor/internal/repo"
	"github.com/conveyor-ci/conveyor/internal/scheduler"
	"github.com/conveyor-ci/conveyor/internal/telemetry"
)

const schedLockKey int64 = 424242

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	logger := telemetry.SetupLogger()

	cfg, err := config.LoadSchedulerConfig(*configPath)
	if err != nil {
		log.Fatalf("[scheduler] config: %v", err)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Fatalf("[scheduler] db connect: %v", err)
	}
	defer pool.Close()
	log.Printf("[scheduler] db connected")

	scheduleRepo := repo.NewScheduleRepo(pool)
	runRepo := repo.NewRunRepo(pool)
	pipelineRepo := repo.NewPipelineRepo(pool)

	// RabbitMQ опционален: без брокера runs заберёт опрос агента
	var publisher *mq.Publisher
	if conn, err := mq.NewConnection(cfg.AMQPURL, logger); err != nil {
		log.Printf("[scheduler] rabbitmq not available, runs picked up by polling: %v", err)
	} else {
		defer conn.Close()
		if err := mq.SetupTopology(ctx, conn); err != nil {
			log.Printf("[scheduler] topology: %v", err)
		}
		publisher = mq.NewPublisher(conn, logger)
		log.Printf("[scheduler] rabbitmq connected")
	}

	sched := scheduler.New(scheduler.Config{
		ScheduleRepo: scheduleRepo,
		RunRepo:      runRepo,
		PipelineRepo: pipelineRepo,
		Publisher:    publisher,
		Logger:       logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// scheduler loop
	go func() {
		tk := time.NewTicker(time.Duration(cfg.TickIntervalSeconds) * time.Second)
		defer tk.Stop()

		var hasLock bool
		defer func() {
			if hasLock {
				_, _ = pool.Exec(context.Background(), "select pg_advisory_unlock($1)", schedLockKey)
			}
		}()

		for {
			select {
			case <-tk.C:
				// пытаемся стать лидером (или подтвердить лидерство)
				var ok bool
				if !hasLock {
					if err := pool.QueryRow(ctx, "select pg_try_advisory_lock($1)", schedLockKey).Scan(&ok); err != nil {
						log.Printf("[scheduler] lock err: %v", err)
						continue
					}
					hasLock = ok
				}

				if !hasLock {
					// не лидер — пропускаем тик
					continue
				}

				if err := sched.Tick(ctx); err != nil {
					log.Printf("[scheduler] tick err: %v", err)
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	// serve
	port := ":8081"
	if v := os.Getenv("SCHED_PORT"); v != "" {
		port = ":" + v
	}
	log.Printf("[scheduler] listening on %s", port)
	if err := http.ListenAndServe(port, mux); err != nil {
		log.Printf("[scheduler] http error: %v", err)
		cancel()
	}
}
