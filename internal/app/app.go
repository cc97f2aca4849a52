package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/photomarathon/pipeline/internal/config"
	"github.com/photomarathon/pipeline/internal/dispatch"
	"github.com/photomarathon/pipeline/internal/events"
	"github.com/photomarathon/pipeline/internal/fetch"
	"github.com/photomarathon/pipeline/internal/finalize"
	"github.com/photomarathon/pipeline/internal/queue"
	"github.com/photomarathon/pipeline/internal/store"
	"github.com/photomarathon/pipeline/internal/submission"
	"github.com/photomarathon/pipeline/internal/upload"
	"github.com/photomarathon/pipeline/internal/variants"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/app")

var _ submission.Finalizer = (*finalize.Finalizer)(nil)

// App holds the wired pipeline shared by the worker and the lambda entry point
type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Store      *store.Store
	Processor  *submission.Processor
	Finalizer  *finalize.Finalizer
	Dispatcher *dispatch.Dispatcher

	redis *redis.Client
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	ctx, span := tracer.Start(ctx, "New")
	defer span.End()

	db, err := store.Open(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to open database")
		return nil, err
	}

	a := &App{Config: cfg, DB: db, Store: store.New(db)}

	fetcher, uploader, err := objectStore(cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize object store")
		return nil, errors.Join(err, a.Close())
	}

	publisher, err := a.publisher(cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to initialize event publisher")
		return nil, errors.Join(err, a.Close())
	}

	generator := variants.NewGenerator(upload.NewRetryUploader(uploader), variants.Config{
		ThumbnailMaxPx: cfg.Variants.ThumbnailMaxPx,
		PreviewMaxPx:   cfg.Variants.PreviewMaxPx,
		JPEGQuality:    cfg.Variants.JPEGQuality,
	})

	a.Finalizer = finalize.NewFinalizer(a.Store, publisher)
	a.Processor = submission.NewProcessor(a.Store, fetcher, generator, a.Finalizer)
	a.Dispatcher = dispatch.NewDispatcher(a.Processor, a.Store, cfg.Worker.Concurrency)

	span.SetStatus(codes.Ok, "initialized pipeline")
	return a, nil
}

// objectStore picks the read and write side of the configured backend. A read base url swaps the read side for
// plain HTTP.
func objectStore(cfg *config.Config) (fetch.Fetcher, upload.Uploader, error) {
	var (
		fetcher  fetch.Fetcher
		uploader upload.Uploader
	)

	switch cfg.ObjectStore.Backend {
	case config.BackendAzure:
		account := cfg.Azure.StorageAccount
		cred, err := azblob.NewSharedKeyCredential(account.Name, account.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize azure credentials: %w", err)
		}
		client, err := azblob.NewClientWithSharedKeyCredential(account.Containers.URL, cred, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize azure client: %w", err)
		}
		fetcher = fetch.NewAzureFetcherFromClient(client, account.Containers.Submissions)
		uploader = upload.NewAzureUploaderFromClient(client, account.Containers.Submissions)
	case config.BackendS3:
		client, err := minio.New(cfg.S3.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, ""),
			Secure: cfg.S3.SSLEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 client: %w", err)
		}
		fetcher = fetch.NewMinioFetcherFromClient(client, cfg.S3.Bucket)
		uploader = upload.NewMinioUploaderFromClient(client, cfg.S3.Bucket)
	default:
		return nil, nil, fmt.Errorf("unknown object store backend %q", cfg.ObjectStore.Backend)
	}

	if cfg.ObjectStore.ReadBaseURL != "" {
		fetcher = fetch.NewRetryingHTTPFetcher(cfg.ObjectStore.ReadBaseURL, cfg.ObjectStore.ReadMaxRetries)
	}

	return fetcher, uploader, nil
}

func (a *App) publisher(cfg *config.Config) (events.Publisher, error) {
	switch cfg.Events.Backend {
	case config.EventsQueue:
		account := cfg.Azure.StorageAccount
		q, err := queue.NewAzureQueuer(account.Name, account.Key, account.Queues.URL, account.Queues.Events)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize events queue: %w", err)
		}
		return events.NewQueuePublisher(q), nil
	case config.EventsRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Events.Redis.Address,
			Password: cfg.Events.Redis.Password,
			DB:       cfg.Events.Redis.DB,
		})
		return events.NewRedisPublisher(a.redis, cfg.Events.Redis.Stream), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

// UploadsQueue is the queue object store notifications arrive on
func (a *App) UploadsQueue() (*queue.AzureQueuer, error) {
	if a.Config.Azure == nil {
		return nil, errors.New("azure config is required to poll the uploads queue")
	}

	account := a.Config.Azure.StorageAccount
	q, err := queue.NewAzureQueuer(account.Name, account.Key, account.Queues.URL, account.Queues.Uploads)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize uploads queue: %w", err)
	}

	return q.
		WithBatchSize(a.Config.Worker.BatchSize).
		WithPollInterval(a.Config.Worker.PollInterval).
		WithMaxDeliveries(a.Config.Worker.MaxDeliveries), nil
}

func (a *App) Close() error {
	var errs []error

	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}

	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}

	return errors.Join(errs...)
}
