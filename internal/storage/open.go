package storage

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/redis/go-redis/v9"

	"github.com/piwi3910/CargoLoad/internal/config"
)

// Open builds the backend selected by cfg.Storage.Backend. The returned
// close function releases backend connections and is never nil.
func Open(ctx context.Context, cfg *config.Config) (BlobStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.StorageS3:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Storage.Region))
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load aws config: %w", err)
		}
		return NewS3Store(awsCfg, cfg.Storage.Bucket), noop, nil
	case config.StorageRedis:
		client, err := OpenRedis(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisStore(client, "cargoload", config.Seconds(cfg.Redis.Expiration)), client.Close, nil
	default:
		return NewLocalStore(cfg.Storage.Root), noop, nil
	}
}

// OpenRedis connects to the configured redis server and pings it.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, config.Seconds(cfg.Redis.ConnectTimeout))
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}
