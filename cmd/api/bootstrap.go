package main

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/mailcomposer/api/internal/platform/config"
	pfirestore "github.com/mailcomposer/api/internal/platform/firestore"
	"github.com/mailcomposer/api/internal/platform/jobs"
	pstorage "github.com/mailcomposer/api/internal/platform/storage"
	"github.com/mailcomposer/api/internal/repositories"
	firestoreRepo "github.com/mailcomposer/api/internal/repositories/firestore"
	mongoRepo "github.com/mailcomposer/api/internal/repositories/mongo"
	"github.com/mailcomposer/api/internal/services"
)

func noopCloser(context.Context) {}

func newBlobStore(ctx context.Context, cfg config.Config) (pstorage.BlobStore, func(context.Context), error) {
	switch cfg.Storage.Backend {
	case config.StorageBackendS3:
		store, err := pstorage.NewS3Store(ctx, pstorage.S3Config{
			Bucket:         cfg.Storage.Bucket,
			Region:         cfg.Storage.S3.Region,
			AccessKeyID:    cfg.Storage.S3.AccessKeyID,
			SecretKey:      cfg.Storage.S3.SecretKey,
			Endpoint:       cfg.Storage.S3.Endpoint,
			BaseURL:        cfg.Storage.PublicBaseURL,
			ForcePathStyle: cfg.Storage.S3.ForcePathStyle,
			PublicRead:     cfg.Storage.PublicRead,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, noopCloser, nil
	default:
		bucket, err := pstorage.NewFirebaseBucket(ctx, pstorage.FirebaseBucketConfig{
			ProjectID:       cfg.Firebase.ProjectID,
			Bucket:          cfg.Storage.Bucket,
			CredentialsFile: cfg.Firebase.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		store, err := pstorage.NewGCSStore(bucket.Handle, pstorage.GCSConfig{
			Bucket:     cfg.Storage.Bucket,
			BaseURL:    cfg.Storage.PublicBaseURL,
			PublicRead: cfg.Storage.PublicRead,
		})
		if err != nil {
			_ = bucket.Close()
			return nil, nil, err
		}
		return store, func(context.Context) { _ = bucket.Close() }, nil
	}
}

func newTemplateRepository(ctx context.Context, cfg config.Config) (repositories.TemplateRepository, error) {
	switch cfg.Persistence.Store {
	case config.TemplateStoreMemory:
		return repositories.NewMemoryTemplateRepository(), nil
	case config.TemplateStoreFirestore:
		provider := pfirestore.NewProvider(cfg.Persistence.Firestore)
		repo, err := firestoreRepo.NewTemplateRepository(provider, cfg.Persistence.Firestore.Collection)
		if err != nil {
			_ = provider.Close()
			return nil, err
		}
		return repo, nil
	case config.TemplateStoreMongo:
		repo, err := mongoRepo.Connect(ctx, mongoRepo.Config{
			URI:            cfg.Persistence.Mongo.URI,
			Database:       cfg.Persistence.Mongo.Database,
			Collection:     cfg.Persistence.Mongo.Collection,
			ConnectTimeout: 10 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.TemplateStoreNone, "":
		return repositories.DiscardTemplateRepository{}, nil
	default:
		return nil, fmt.Errorf("unknown template store %q", cfg.Persistence.Store)
	}
}

func newTemplatePublisher(ctx context.Context, cfg config.Config) (services.TemplateEventPublisher, func(context.Context), error) {
	if cfg.Events.TopicID == "" {
		return nil, noopCloser, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client: %w", err)
	}
	publisher, err := jobs.NewPubSubTemplatePublisher(client.Topic(cfg.Events.TopicID))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return publisher, func(context.Context) {
		publisher.Stop()
		_ = client.Close()
	}, nil
}
