package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	authservice "landregistry/internal/auth/service"
	"landregistry/internal/auth/store/reviewer"
	"landregistry/internal/auth/store/revocation"
	"landregistry/internal/auth/store/session"
	jwttoken "landregistry/internal/jwt_token"
	"landregistry/internal/platform/config"
	"landregistry/internal/platform/logger"
	"landregistry/internal/platform/postgres"
	"landregistry/pkg/platform/audit/publishers/compliance"
	auditpg "landregistry/pkg/platform/audit/store/postgres"
)

const service = "reviewerctl"

var (
	configFile  = pflag.String("config", "", "Path to configuration file")
	envPath     = pflag.String("env-path", "config/", "Path to environment files")
	address     = pflag.String("email", "", "Reviewer email on the government domain")
	displayName = pflag.String("name", "", "Display name; derived from the email when empty")
)

// main creates or replaces a reviewer credential. The password is read from
// REVIEWER_PASSWORD so it stays out of shell history.
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

	password := os.Getenv("REVIEWER_PASSWORD")
	if *address == "" || password == "" {
		log.Fatal("--email and REVIEWER_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	sessions := session.NewPostgres(db)
	invalidations := revocation.NewPostgres(db)
	auth, err := authservice.New(authservice.Config{
		Tx:               authservice.NewPostgresTx(db, sessions, invalidations, cfg.Workflow.TxTimeout),
		Sessions:         sessions,
		Invalidations:    invalidations,
		Reviewers:        reviewer.NewPostgres(db),
		Signer:           jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer),
		Auditor:          compliance.New(auditpg.New(db), compliance.WithLogger(log.Logger)),
		GovernmentDomain: cfg.Auth.GovernmentDomain,
	}, authservice.WithLogger(log.Logger))
	if err != nil {
		log.Fatal("failed to build auth service", zap.Error(err))
	}

	created, err := auth.RegisterReviewer(ctx, *address, *displayName, password)
	if err != nil {
		log.Fatal("failed to register reviewer", zap.String("email", *address), zap.Error(err))
	}
	log.Info("reviewer registered", zap.String("email", created.Email.String()), zap.String("display_name", created.DisplayName))
}
