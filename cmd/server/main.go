package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"neurowatch/internal/activelearning"
	alhandler "neurowatch/internal/activelearning/handler"
	almetrics "neurowatch/internal/activelearning/metrics"
	alredis "neurowatch/internal/activelearning/store/redis"
	"neurowatch/internal/audit"
	auditpg "neurowatch/internal/audit/store/postgres"
	"neurowatch/internal/drift"
	drifthandler "neurowatch/internal/drift/handler"
	driftmetrics "neurowatch/internal/drift/metrics"
	driftpg "neurowatch/internal/drift/store/postgres"
	"neurowatch/internal/eventlog"
	eventlogpg "neurowatch/internal/eventlog/store/postgres"
	"neurowatch/internal/fairness"
	"neurowatch/internal/modelversion"
	modelversionpg "neurowatch/internal/modelversion/store/postgres"
	"neurowatch/internal/monitor"
	monitorhandler "neurowatch/internal/monitor/handler"
	monitormetrics "neurowatch/internal/monitor/metrics"
	"neurowatch/internal/performance"
	"neurowatch/internal/platform/config"
	"neurowatch/internal/platform/httpserver"
	"neurowatch/internal/platform/logger"
	platformmetrics "neurowatch/internal/platform/metrics"
	platformredis "neurowatch/internal/platform/redis"
	"neurowatch/internal/report"
	"neurowatch/internal/retrain"
	retrainmetrics "neurowatch/internal/retrain/metrics"
	"neurowatch/internal/snapshot"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Store selection: postgres when configured, in-memory otherwise.
	var (
		events     eventlog.Store
		eventsAll  snapshot.EventLog
		history    drift.HistoryStore
		historyAll snapshot.DriftHistory
		versions   modelversion.Store
		versAll    snapshot.Versions
		auditStore audit.Store
	)
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("pgx", cfg.Postgres.URL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}

		pgEvents := eventlogpg.New(db)
		pgHistory := driftpg.New(db)
		pgVersions := modelversionpg.New(db)
		events, eventsAll = pgEvents, pgEvents
		history, historyAll = pgHistory, pgHistory
		versions, versAll = pgVersions, pgVersions
		auditStore = auditpg.New(db)
		log.Info("using postgres stores")
	} else {
		memEvents := eventlog.NewInMemoryStore()
		memHistory := drift.NewInMemoryHistoryStore()
		memVersions := modelversion.NewInMemoryStore()
		events, eventsAll = memEvents, memEvents
		history, historyAll = memHistory, memHistory
		versions, versAll = memVersions, memVersions
		auditStore = audit.NewMemoryStore()
		log.Info("using in-memory stores")
	}

	var queueStore interface {
		activelearning.Store
		activelearning.Restorer
	}
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		queueStore = alredis.New(redisClient)
		log.Info("using redis review queue")
	} else {
		queueStore = activelearning.NewInMemoryStore()
	}

	// Audit fan-out: Kafka when brokers are configured.
	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("audit events forwarded to kafka", "topic", cfg.Kafka.Topic)
	}
	auditor := audit.NewPublisher(auditStore, sink, log)
	defer auditor.Close()

	// Services.
	httpMetrics := platformmetrics.New()
	queue := activelearning.NewService(queueStore, cfg.Monitoring, auditor, almetrics.New(), log)
	analyzer := fairness.NewAnalyzer(events, cfg.Monitoring, log)
	monitorSvc := monitor.NewService(events, queue, auditor, analyzer, monitormetrics.New(), log)
	calculator := performance.NewCalculator(events, cfg.Monitoring)
	detector := drift.NewDetector(cfg.Monitoring.DriftThreshold)
	driftSvc := drift.NewService(detector, history, auditor, driftmetrics.New(), log)
	retrainSvc := retrain.NewService(
		retrain.NewPolicy(cfg.Monitoring),
		calculator, driftSvc, versions, events,
		auditor, retrainmetrics.New(), log,
	)
	builder := report.NewBuilder(calculator, monitorSvc, retrainSvc, queue, versions, events, log)
	snapshots := snapshot.NewManager(eventsAll, historyAll, queueStore, versAll, monitorSvc, cfg.Monitoring, log)

	snapshotPath := os.Getenv("NEUROWATCH_SNAPSHOT_PATH")
	if snapshotPath != "" {
		if err := snapshots.LoadFile(ctx, snapshotPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Info("no snapshot to restore", "path", snapshotPath)
			} else {
				log.Error("restore snapshot", "path", snapshotPath, "error", err)
				os.Exit(1)
			}
		} else {
			log.Info("monitoring state restored from snapshot", "path", snapshotPath)
		}
	}

	// Router.
	router := chi.NewRouter()
	monitorhandler.New(monitorSvc, calculator, retrainSvc, builder, versions, snapshots, log, httpMetrics).Register(router)
	drifthandler.New(driftSvc, log, httpMetrics).Register(router)
	alhandler.New(queue, log, httpMetrics).Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("neurowatch listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	if snapshotPath != "" {
		if err := snapshots.SaveFile(shutdownCtx, snapshotPath); err != nil {
			log.Error("save snapshot", "path", snapshotPath, "error", err)
		} else {
			log.Info("monitoring state saved", "path", snapshotPath)
		}
	}
}
