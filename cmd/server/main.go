package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"ivory/internal/answers"
	"ivory/internal/casemgmt"
	"ivory/internal/eligibility"
	eligmetrics "ivory/internal/eligibility/metrics"
	jwttoken "ivory/internal/jwt_token"
	"ivory/internal/platform/config"
	"ivory/internal/platform/httpserver"
	"ivory/internal/platform/logger"
	"ivory/internal/platform/metrics"
	"ivory/internal/platform/middleware"
	"ivory/internal/platform/redis"
	recordhandler "ivory/internal/record/handler"
	"ivory/internal/record/service"
	"ivory/internal/session"
	"ivory/internal/wizard"
	wizardhandler "ivory/internal/wizard/handler"
	"ivory/internal/wizard/steps"
	"ivory/pkg/platform/audit"
	"ivory/pkg/platform/audit/publisher"
	auditmemory "ivory/pkg/platform/audit/store/memory"
	auditpostgres "ivory/pkg/platform/audit/store/postgres"
	"ivory/pkg/platform/audit/worker"
	"ivory/pkg/platform/httputil"
)

const auditBuffer = 256

// main wires dependencies and runs the server until SIGINT or SIGTERM.
// Business logic lives in the internal packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.DefaultRegisterer
	m := metrics.NewWithRegistry(reg)

	store, rdb, err := buildSessionStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}
	registry := answers.NewRegistry(store)

	cases, err := buildCaseClient(cfg, reg, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	auditStore, closeAudit, err := buildAudit(gctx, g, cfg, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(log),
		publisher.WithMetrics(publisher.NewMetrics(reg)),
	)
	defer auditor.Close()

	submissions := service.New(cases,
		service.WithAuditor(auditor),
		service.WithMetrics(service.NewMetrics(reg)),
		service.WithLogger(log),
		service.WithTargetDays(cfg.Journey.TargetCompletionDays),
	)
	engine, err := wizard.NewEngine(registry, steps.All(steps.Deps{
		Certificates: cases,
		Submitter:    submissions,
		Journey:      cfg.Journey,
		Upload:       cfg.Upload,
		Eligibility:  eligmetrics.NewWithRegistry(reg),
	}),
		wizard.WithAuditor(auditor),
		wizard.WithMetrics(wizard.NewMetrics(reg)),
		wizard.WithLogger(log),
		wizard.WithDoneKey(answers.SubmissionReference),
	)
	if err != nil {
		return err
	}

	tokens, err := jwttoken.NewSessionTokens(cfg.Session.Secret, config.AnswerTTL)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log, wizardhandler.ProblemWithServicePath))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := rdb.Health(req.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	recordhandler.New(cases, log).Register(r)
	wizardhandler.New(engine, tokens, wizardhandler.Config{
		Session:         cfg.Session,
		MaxRequestBytes: cfg.Upload.MaxRequestBytes,
		FirstStep:       wizard.StepID(eligibility.Root),
	}, m, log).Register(r)

	srv := httpserver.New(cfg.Server.Addr, r)

	g.Go(func() error {
		log.Info("starting ivory", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildSessionStore picks Redis when configured, otherwise memory.
func buildSessionStore(ctx context.Context, cfg config.Config, log *slog.Logger) (session.Store, *redis.Client, error) {
	rdb, err := redis.Open(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if rdb == nil {
		log.Warn("no redis configured, answers are kept in memory")
		return session.NewInMemory(), nil, nil
	}
	return session.NewRedis(rdb.Client), rdb, nil
}

func buildCaseClient(cfg config.Config, reg prometheus.Registerer, log *slog.Logger) (casemgmt.Client, error) {
	if cfg.CaseAPI.BaseURL == "" {
		log.Warn("no case API configured, records are kept in memory")
		return casemgmt.NewInMemory(), nil
	}
	return casemgmt.NewHTTPClient(cfg.CaseAPI,
		casemgmt.WithMetrics(casemgmt.NewMetrics(reg)),
		casemgmt.WithLogger(log),
	)
}

// buildAudit returns the outbox store. With Kafka brokers configured the
// relay runs in g until ctx is done.
func buildAudit(ctx context.Context, g *errgroup.Group, cfg config.Config, log *slog.Logger) (audit.Store, func(), error) {
	if cfg.Audit.DatabaseURL == "" {
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	db, err := auditpostgres.Open(ctx, cfg.Audit.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	outbox := auditpostgres.New(db)
	if err := outbox.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if len(cfg.Audit.KafkaBrokers) == 0 {
		return outbox, func() { _ = db.Close() }, nil
	}

	client, err := worker.NewKafkaClient(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := worker.EnsureTopic(ctx, client, cfg.Audit.KafkaTopic); err != nil {
		client.Close()
		_ = db.Close()
		return nil, nil, err
	}
	relay := worker.NewRelay(outbox, client, cfg.Audit.KafkaTopic, cfg.Audit.RelayInterval, log)
	g.Go(func() error {
		err := relay.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	return outbox, func() {
		client.Close()
		_ = db.Close()
	}, nil
}
