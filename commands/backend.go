package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"estate_hub/auth"
	"estate_hub/cache"
	"estate_hub/config"
	"estate_hub/models"
	"estate_hub/repository"
	"estate_hub/storage"
)

// backend is the set of repositories every command talks to.
type backend struct {
	pg           *storage.PostgresStore
	cache        *cache.Cache
	tokens       *auth.Tokens
	users        *repository.UserRepository
	properties   *repository.PropertyRepository
	appointments *repository.RecordRepository[models.Appointment]
	inquiries    *repository.RecordRepository[models.Inquiry]
}

// openBackend connects to Postgres and Redis. Blob uploads are only wired when
// withBlobs is set; commands that never add properties skip the S3 client.
func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger, withBlobs bool) (*backend, error) {
	if err := cfg.RequireBackend(); err != nil {
		return nil, err
	}

	pg, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	logger.Info("connected to postgres", zap.String("url", maskConnectionString(cfg.DatabaseURL)))

	c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.TTL)
	if err := c.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
		_ = c.Close()
		c = nil
	}

	var blobs repository.BlobStore
	if withBlobs {
		if cfg.S3.Bucket == "" {
			pg.Close()
			return nil, fmt.Errorf("S3_BUCKET is required")
		}
		s3, err := storage.NewS3Store(ctx, cfg.S3)
		if err != nil {
			pg.Close()
			return nil, err
		}
		blobs = s3
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Expiry)
	identity := auth.NewProvider(pg)

	return &backend{
		pg:           pg,
		cache:        c,
		tokens:       tokens,
		users:        repository.NewUserRepository(pg, identity, tokens, logger),
		properties:   repository.NewPropertyRepository(pg, blobs, c, logger),
		appointments: repository.NewRecordRepository[models.Appointment](pg, logger),
		inquiries:    repository.NewRecordRepository[models.Inquiry](pg, logger),
	}, nil
}

func (b *backend) Close() {
	_ = b.cache.Close()
	b.pg.Close()
}

// maskConnectionString masks the password in a connection string for logging.
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
