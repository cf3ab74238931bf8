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
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"cornerstone/internal/directory"
	"cornerstone/internal/payment"
	"cornerstone/internal/platform/config"
	"cornerstone/internal/platform/httpserver"
	"cornerstone/internal/platform/logger"
	platformmetrics "cornerstone/internal/platform/metrics"
	platformredis "cornerstone/internal/platform/redis"
	"cornerstone/internal/registration/audit"
	"cornerstone/internal/registration/catalog"
	"cornerstone/internal/registration/handler"
	regmetrics "cornerstone/internal/registration/metrics"
	"cornerstone/internal/registration/service"
	"cornerstone/internal/registration/store"
	"cornerstone/internal/session"
)

// main wires the registration engine to its infrastructure: Postgres for
// completed snapshots, Redis for drafts and catalog freshness, Kafka for the
// audit trail. Everything degrades gracefully when unconfigured so the
// service runs with zero external dependencies in development.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var snapshots store.SnapshotStore = store.NewInMemoryStore()
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("failed to ensure postgres schema", "error", err)
			os.Exit(1)
		}
		snapshots = pg
		log.Info("snapshot store: postgres")
	} else {
		log.Warn("snapshot store: in-memory, completed registrations will not survive restarts")
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	opts := []service.Option{
		service.WithMetrics(regmetrics.New()),
	}
	if redisClient != nil {
		opts = append(opts,
			service.WithDraftStore(store.NewRedisDraftStore(redisClient, cfg.DraftTTL)),
			service.WithRefreshMarker(catalog.NewRefreshMarker(redisClient, cfg.CatalogRefreshTTL)),
		)
		log.Info("draft store: redis", "ttl", cfg.DraftTTL)
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("failed to connect audit publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		opts = append(opts, service.WithAuditPublisher(publisher))
		log.Info("audit trail: kafka", "topic", cfg.AuditTopic)
	}
	if cfg.PaymentsBaseURL != "" {
		opts = append(opts, service.WithPayments(payment.NewHTTPIntentService(cfg.PaymentsBaseURL, cfg.PaymentsAPIKey)))
	}
	if cfg.DirectoryBaseURL != "" {
		opts = append(opts, service.WithDirectory(directory.NewHTTPLookup(cfg.DirectoryBaseURL)))
	}

	fetcher := catalog.NewHTTPFetcher(cfg.CatalogBaseURL, &http.Client{Timeout: 15 * time.Second})
	svc := service.New(log, snapshots, fetcher, opts...)
	tokens := session.NewManager([]byte(cfg.ResumeTokenKey), cfg.ResumeTokenTTL)

	router := chi.NewRouter()
	handler.New(svc, log, tokens).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", platformmetrics.Handler())
	metricsSrv := httpserver.New(cfg.MetricsAddr, metricsRouter)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("starting cornerstone", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("cornerstone stopped")
}
