// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	casehandler "github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile/handler"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile/service"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/casefile/store"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/catalog"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/lookup"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/notify"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/platform/config"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/platform/httpserver"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/platform/logger"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/platform/metrics"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/platform/middleware"
	platformredis "github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/platform/redis"
	"github.com/HungFPTU/be-sep490-pacsfr-sub000/internal/staff"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: postgres when configured, in-memory otherwise. The
	// in-memory store can be seeded from a legacy portal export.
	var (
		caseStore store.Store
		templates catalog.TemplateSource
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		caseStore = store.NewPostgresStore(db)
		templates = catalog.NewPostgresSource(db)
		log.Info("using postgres persistence")
	} else {
		memStore := store.NewInMemoryStore()
		memTemplates := catalog.NewInMemorySource()
		if cfg.SeedFile != "" {
			if err := seedCases(ctx, memStore, cfg.SeedFile, log); err != nil {
				return err
			}
		}
		caseStore = memStore
		templates = memTemplates
		log.Warn("DATABASE_URL not set, using in-memory persistence")
	}

	// Notification pipeline: controllers publish to a channel, a worker
	// drains it into kafka (or the log when no brokers are configured).
	notifier := notify.NewChannelNotifier(256, log)
	var sink notify.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("kafka sink: %w", err)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
		log.Info("publishing case events to kafka", "topic", cfg.Kafka.Topic)
	} else {
		sink = notify.LogSink{Logger: log}
		log.Warn("KAFKA_BROKERS not set, case events go to the log")
	}

	// OTP challenges live in redis when available so lookup verification
	// survives restarts and scales past one instance.
	var challenges lookup.ChallengeStore
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		challenges = lookup.NewRedisChallengeStore(redisClient.Client)
		log.Info("using redis for lookup challenges")
	} else {
		challenges = lookup.NewInMemoryChallengeStore()
		log.Warn("REDIS_URL not set, lookup challenges are in-memory")
	}

	caseService := service.New(caseStore, templates, notifier, m, log)
	lookupService := lookup.NewService(
		caseService,
		challenges,
		&lookup.LogSender{Logger: log},
		cfg.OTPTTL,
		log,
	)

	jwtService := staff.NewJWTService(cfg.JWTSigningKey, "pacsfr", "pacsfr-staff")
	staffService := staff.NewService(staff.NewInMemoryStore(), jwtService, log)
	if _, err := staffService.Seed(ctx, "admin", "Administrator", "admin-dev-password"); err != nil {
		return fmt.Errorf("seed staff account: %w", err)
	}

	router := buildRouter(cfg, log, m, jwtService, caseService, lookupService, staffService)
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		worker := notify.NewWorker(notifier.Inbox(), sink, log)
		if err := worker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		log.Info("starting pacsfr case service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func buildRouter(
	cfg config.Server,
	log *slog.Logger,
	m *metrics.Metrics,
	jwtService *staff.JWTService,
	caseService *service.Service,
	lookupService *lookup.Service,
	staffService *staff.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public: staff login and citizen tracking.
	r.Group(func(public chi.Router) {
		public.Use(middleware.ContentTypeJSON)
		staff.NewHandler(staffService, log).Register(public)
		lookup.NewHandler(lookupService, log).Register(public)
	})

	// Staff: everything that reads or mutates cases.
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.ContentTypeJSON)
		protected.Use(middleware.RequireStaff(staff.NewJWTServiceAdapter(jwtService), log))
		casehandler.New(caseService, log).Register(protected)
	})

	return r
}

// seedCases loads a legacy portal export into the in-memory store.
func seedCases(ctx context.Context, memStore *store.InMemoryStore, path string, log *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	cases, err := store.DecodeCases(f)
	if err != nil {
		return fmt.Errorf("decode seed file %s: %w", path, err)
	}
	for _, c := range cases {
		if err := memStore.Insert(ctx, c); err != nil {
			return fmt.Errorf("seed case %s: %w", c.CaseCode, err)
		}
	}
	log.Info("seeded cases from legacy export", "file", path, "count", len(cases))
	return nil
}
