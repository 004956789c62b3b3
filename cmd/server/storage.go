package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"landregistry/internal/platform/config"
	"landregistry/internal/storage"
	"landregistry/internal/storage/content"
	"landregistry/internal/storage/files"
	workflowhandler "landregistry/internal/workflow/handler"
	workflow "landregistry/internal/workflow/service"
)

// newObjectStores falls back to in-memory stores when no buckets are
// configured. Objects then live only as long as the process.
func newObjectStores(ctx context.Context, cfg config.S3Config, log *zap.Logger) (workflowhandler.FileStore, workflow.ContentStore, error) {
	if cfg.FilesBucket == "" || cfg.ContentBucket == "" {
		log.Warn("s3 buckets not configured, using in-memory object storage")
		return files.NewInMemory(), content.NewInMemory(), nil
	}
	client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("s3 client: %w", err)
	}
	return files.NewS3(client, cfg.FilesBucket), content.NewS3(client, cfg.ContentBucket), nil
}
