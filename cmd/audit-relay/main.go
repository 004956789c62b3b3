package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"landregistry/internal/platform/config"
	"landregistry/internal/platform/kafka"
	"landregistry/internal/platform/logger"
	"landregistry/internal/platform/postgres"
	auditpg "landregistry/pkg/platform/audit/store/postgres"
	"landregistry/pkg/platform/audit/worker"
)

const service = "audit-relay"

var (
	configFile = pflag.String("config", "", "Path to configuration file")
	envPath    = pflag.String("env-path", "config/", "Path to environment files")
	partitions = pflag.Int32("partitions", 3, "Partitions when creating the audit topic")
	replicas   = pflag.Int16("replication", 1, "Replication factor when creating the audit topic")
)

// main ships audit outbox rows to Kafka until interrupted.
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

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Fatal("failed to create kafka producer", zap.Error(err))
	}
	defer producer.Close()

	if err := producer.Ping(ctx); err != nil {
		log.Fatal("kafka unreachable", zap.Strings("brokers", cfg.Kafka.Brokers), zap.Error(err))
	}
	if err := producer.EnsureTopic(ctx, *partitions, *replicas); err != nil {
		log.Fatal("failed to ensure audit topic", zap.String("topic", cfg.Kafka.AuditTopic), zap.Error(err))
	}

	relay := worker.NewRelay(auditpg.New(db), producer, log.Logger,
		worker.WithBatchSize(cfg.Kafka.BatchSize),
		worker.WithPollInterval(cfg.Kafka.PollInterval),
	)
	if err := relay.Run(ctx); err != nil {
		log.Error("audit relay exited", zap.Error(err))
	}
}
