package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"landregistry/internal/activity"
	authservice "landregistry/internal/auth/service"
	"landregistry/internal/auth/store/reviewer"
	"landregistry/internal/auth/store/revocation"
	"landregistry/internal/auth/store/session"
	"landregistry/internal/dashboard"
	jwttoken "landregistry/internal/jwt_token"
	ledgerservice "landregistry/internal/ledger/service"
	ledgerstore "landregistry/internal/ledger/store"
	"landregistry/internal/lookup"
	"landregistry/internal/platform/config"
	"landregistry/internal/platform/httpserver"
	"landregistry/internal/platform/logger"
	"landregistry/internal/platform/metrics"
	"landregistry/internal/platform/postgres"
	"landregistry/internal/platform/redis"
	"landregistry/internal/syncbridge"
	workflow "landregistry/internal/workflow/service"
	workflowstore "landregistry/internal/workflow/store"
	"landregistry/pkg/platform/audit/publishers/compliance"
	auditpg "landregistry/pkg/platform/audit/store/postgres"
	"landregistry/pkg/platform/circuit"
)

const service = "landregistry"

var (
	configFile = pflag.String("config", "", "Path to configuration file")
	envPath    = pflag.String("env-path", "config/", "Path to environment files")
	migrate    = pflag.Bool("migrate", true, "Apply pending database migrations on start")
)

func main() {
	pflag.Parse()

	cfg, err := config.Load(service, *configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Debug: cfg.Debug, SentryDSN: cfg.SentryDSN, Service: service})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Error("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if *migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	}

	cache, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if cache != nil {
		defer cache.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	auditor := compliance.New(auditpg.New(db),
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)

	auth, err := newAuthService(db, cache, cfg, auditor, m, log)
	if err != nil {
		return err
	}

	bridge, err := newBridge(ctx, cfg.Ethereum, reg, log)
	if err != nil {
		return err
	}

	uploads, documents, err := newObjectStores(ctx, cfg.S3, log)
	if err != nil {
		return err
	}

	requests := workflowstore.NewPostgres(db)
	ledger := ledgerservice.New(ledgerstore.NewPostgres(db), ledgerservice.WithLogger(log))
	activities := activity.NewPostgresStore(db)

	wf, err := workflow.New(workflow.Config{
		UnitOfWork: workflow.NewPostgresUnitOfWork(db, workflow.Stores{
			Requests: requests,
			Ledger:   ledger,
			Activity: activities,
			Audit:    auditor,
		}, cfg.Workflow.TxTimeout),
		Requests: requests,
		Bridge:   bridge,
		Content:  documents,
	},
		workflow.WithMetrics(m),
		workflow.WithLogger(log),
		workflow.WithTracerProvider(otel.GetTracerProvider()),
	)
	if err != nil {
		return err
	}

	router := newRouter(routerDeps{
		cfg:       cfg,
		log:       log,
		metrics:   m,
		registry:  reg,
		db:        db,
		auth:      auth,
		workflow:  wf,
		uploads:   uploads,
		dashboard: dashboard.New(wf, ledger, activity.NewService(activities)),
		lookup:    lookup.New(ledger, wf, wf),
	})

	srv := httpserver.New(cfg.Server, router)
	errc := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newAuthService(db *sql.DB, cache *redis.Client, cfg *config.Config, auditor authservice.AuditPublisher, m *metrics.Metrics, log *zap.Logger) (*authservice.Service, error) {
	sessions := session.NewPostgres(db)
	invalidations := revocation.NewPostgres(db)
	opts := []authservice.Option{
		authservice.WithMetrics(m),
		authservice.WithLogger(log),
	}
	if cache != nil {
		opts = append(opts, authservice.WithCache(revocation.NewRedisCache(cache.Client)))
	}
	return authservice.New(authservice.Config{
		Tx:               authservice.NewPostgresTx(db, sessions, invalidations, cfg.Workflow.TxTimeout),
		Sessions:         sessions,
		Invalidations:    invalidations,
		Reviewers:        reviewer.NewPostgres(db),
		Signer:           jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer),
		Auditor:          auditor,
		GovernmentDomain: cfg.Auth.GovernmentDomain,
	}, opts...)
}

// newBridge returns the disabled bridge when no RPC endpoint is configured.
func newBridge(ctx context.Context, cfg config.EthereumConfig, reg prometheus.Registerer, log *zap.Logger) (syncbridge.Bridge, error) {
	if cfg.RPCURL == "" {
		log.Warn("ethereum rpc url not set, blockchain sync disabled")
		return syncbridge.Disabled{}, nil
	}
	eth, err := syncbridge.Dial(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("dial ethereum: %w", err)
	}
	breaker := circuit.New("ethereum",
		circuit.WithFailureThreshold(5),
		circuit.WithCooldown(30*time.Second),
	)
	return syncbridge.NewGuarded(eth, breaker,
		syncbridge.WithMetrics(syncbridge.NewMetrics(reg)),
		syncbridge.WithLogger(log),
	), nil
}
