// cmd/admission-workers/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"preschool-admissions/internal/admission/lookup"
	"preschool-admissions/internal/admission/pipeline"
	"preschool-admissions/internal/admission/quality"
	"preschool-admissions/internal/admission/reporting"
	"preschool-admissions/internal/admission/vacancies"
	"preschool-admissions/internal/common/aws"
	"preschool-admissions/internal/common/camunda"
	"preschool-admissions/internal/common/config"
	"preschool-admissions/internal/common/database"
	"preschool-admissions/internal/common/logger"
	"preschool-admissions/internal/common/observability"
	"preschool-admissions/internal/runlog"
	"preschool-admissions/internal/scheduler"
	"preschool-admissions/internal/search"
	"preschool-admissions/internal/sed"
	"preschool-admissions/internal/sheets"

	// Admission pipeline
	ap "preschool-admissions/internal/workers/pipeline/aggregate-pending"
	ca "preschool-admissions/internal/workers/pipeline/classify-applicants"
	cv "preschool-admissions/internal/workers/pipeline/compatibilize-vacancies"
	mv "preschool-admissions/internal/workers/pipeline/map-vacancies"
	sc "preschool-admissions/internal/workers/pipeline/save-compatibilization"

	// Student registry
	se "preschool-admissions/internal/workers/registry/search-enrollments"
	sra "preschool-admissions/internal/workers/registry/search-student-ra"
	sv "preschool-admissions/internal/workers/registry/sync-vacancies"

	// Reporting, data quality, communication and data access
	ni "preschool-admissions/internal/workers/communication/notify-incompatible"
	qa "preschool-admissions/internal/workers/data-access/query-allocations"
	qsr "preschool-admissions/internal/workers/data-access/query-stage-runs"
	fi "preschool-admissions/internal/workers/data-quality/fix-inconsistencies"
	dm "preschool-admissions/internal/workers/reporting/dashboard-metrics"
	vst "preschool-admissions/internal/workers/reporting/vacancy-statistics"
)

const lookupConcurrency = 10

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console", "stderr")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting admission workers...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel meter unavailable, stage metrics disabled", zap.Error(err))
		obs = observability.NewNoop()
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Run journal (PostgreSQL) ---
	var journal runlog.Journal = runlog.NoopJournal{}
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		pj := runlog.NewPostgresJournal(pg.DB, log)
		if err := pj.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("run journal schema failed", zap.Error(err))
		}
		journal = pj
		zapLog.Info("PostgreSQL run journal ready")
	}

	// --- Registry token cache (Redis) ---
	redis := database.NewRedis(cfg.Database.Redis)
	defer redis.Close()
	var tokenCache sed.TokenCache
	err = retryWithBackoff(func() error { return redis.Ping(ctx) }, 5, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Warn("redis unavailable, caching registry tokens in memory", zap.Error(err))
		tokenCache = sed.NewMemoryTokenCache(nil)
	} else {
		tokenCache = sed.NewRedisTokenCache(redis.Client)
		zapLog.Info("Redis connected successfully")
	}
	registry := sed.NewClient(cfg.Registry, tokenCache, log)

	// --- Spreadsheets ---
	creds := sheets.Credentials{JSON: cfg.Sheets.CredentialsJSON, File: cfg.Sheets.CredentialsFile}
	mainStore, err := sheets.NewGoogleStore(ctx, cfg.Sheets.SpreadsheetID, creds, log)
	if err != nil {
		zapLog.Fatal("main spreadsheet unavailable", zap.Error(err))
	}
	var secondaryStore sheets.Store
	if cfg.Sheets.PendingSpreadsheetID != "" {
		store, err := sheets.NewGoogleStore(ctx, cfg.Sheets.PendingSpreadsheetID, creds, log)
		if err != nil {
			zapLog.Fatal("pending spreadsheet unavailable", zap.Error(err))
		}
		secondaryStore = store
	}

	// --- Allocation index (Elasticsearch) ---
	var indexer cv.Indexer
	var searcher qa.Searcher
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		index := cfg.Database.Elasticsearch.AllocationIndex
		if err := esClient.EnsureIndex(ctx, index, search.Mapping); err != nil {
			zapLog.Fatal("allocation index setup failed", zap.Error(err), zap.String("index", index))
		}
		indexer = search.NewAllocationIndexer(esClient.Client, index, log)
		searcher = search.NewAllocationSearcher(esClient.Client, index, log)
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", index))
	}

	// --- AWS ---
	var mailer *aws.SESClient
	if cfg.AWS.SES.Enabled {
		mailer, err = aws.NewSESClient(ctx, cfg.AWS.Region, cfg.AWS.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
	}
	var notifier *aws.SNSClient
	if cfg.AWS.SNS.Enabled {
		notifier, err = aws.NewSNSClient(ctx, cfg.AWS.Region, cfg.AWS.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
	}

	// --- Domain services ---
	pipelineSvc := pipeline.NewService(mainStore, secondaryStore, cfg.Sheets.Tabs, time.Now, obs, log)
	vacancySvc := vacancies.NewService(registry, mainStore, cfg.Sheets.Tabs.Vacancies, log)
	lookupSvc := lookup.NewService(registry, mainStore, cfg.Sheets.Tabs.Main, lookupConcurrency, log)
	dashboard := reporting.NewDashboard(mainStore, cfg.Sheets.Tabs.Main, cfg.Sheets.Tabs.Vacancies, log)
	fixer := quality.NewFixer(mainStore, cfg.Sheets.Tabs.Main, log)

	// --- Workers ---
	var workers []worker.JobWorker
	start := func(taskType string, handler worker.JobHandler) {
		if w := camunda.StartWorker(zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handler, log); w != nil {
			workers = append(workers, w)
		}
	}
	timeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	start(ca.TaskType, ca.NewHandler(&ca.Config{Timeout: timeout(ca.TaskType)}, pipelineSvc, journal, log).Handle)
	start(ap.TaskType, ap.NewHandler(&ap.Config{Timeout: timeout(ap.TaskType)}, pipelineSvc, journal, log).Handle)
	start(mv.TaskType, mv.NewHandler(&mv.Config{Timeout: timeout(mv.TaskType)}, pipelineSvc, journal, log).Handle)

	var completionPublisher cv.Publisher
	if notifier != nil {
		completionPublisher = notifier
	}
	start(cv.TaskType, cv.NewHandler(
		&cv.Config{Timeout: timeout(cv.TaskType), NotifyOnComplete: notifier != nil},
		pipelineSvc, indexer, completionPublisher, journal, log,
	).Handle)
	start(sc.TaskType, sc.NewHandler(&sc.Config{Timeout: timeout(sc.TaskType)}, pipelineSvc, journal, log).Handle)

	start(sv.TaskType, sv.NewHandler(&sv.Config{Timeout: timeout(sv.TaskType)}, vacancySvc, log).Handle)
	start(sra.TaskType, sra.NewHandler(&sra.Config{Timeout: timeout(sra.TaskType), MaxLines: 500}, lookupSvc, log).Handle)
	start(se.TaskType, se.NewHandler(&se.Config{Timeout: timeout(se.TaskType), MaxLines: 500}, lookupSvc, log).Handle)

	start(dm.TaskType, dm.NewHandler(&dm.Config{Timeout: timeout(dm.TaskType)}, dashboard, log).Handle)
	start(vst.TaskType, vst.NewHandler(&vst.Config{Timeout: timeout(vst.TaskType)}, vacancySvc, log).Handle)
	start(fi.TaskType, fi.NewHandler(&fi.Config{Timeout: timeout(fi.TaskType)}, fixer, log).Handle)

	start(qsr.TaskType, qsr.NewHandler(&qsr.Config{Timeout: timeout(qsr.TaskType), DefaultLimit: 20, MaxLimit: 200}, journal, log).Handle)
	if searcher != nil {
		start(qa.TaskType, qa.NewHandler(&qa.Config{Timeout: timeout(qa.TaskType)}, searcher, log).Handle)
	} else {
		zapLog.Warn("elasticsearch disabled, query-allocations worker not started")
	}

	if mailer != nil {
		incompatibles := quality.NewIncompatibles(mainStore, cfg.Sheets.Tabs.Main, mailer, log)
		start(ni.TaskType, ni.NewHandler(&ni.Config{Timeout: timeout(ni.TaskType)}, incompatibles, log).Handle)
	} else {
		zapLog.Warn("ses disabled, notify-incompatible worker not started")
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Scheduler ---
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && notifier != nil {
		sched, err = scheduler.New(cfg.Scheduler, pipelineSvc, notifier, log)
		if err != nil {
			zapLog.Fatal("scheduler setup failed", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			zapLog.Fatal("scheduler start failed", zap.Error(err))
		}
		zapLog.Info("Pending digest scheduled", zap.String("spec", cfg.Scheduler.PendingDigestSpec))
	} else if cfg.Scheduler.Enabled {
		zapLog.Warn("sns disabled, pending digest not scheduled")
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "zeebe unreachable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Admission workers stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
