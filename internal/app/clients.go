package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/pawclinic-backend/internal/observability"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
	"github.com/yungbote/pawclinic-backend/internal/platform/ratelimit"
	"github.com/yungbote/pawclinic-backend/internal/platform/sendgrid"
	"github.com/yungbote/pawclinic-backend/internal/platform/storage"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

type Clients struct {
	Bucket        storage.BucketService
	StorageConfig storage.Config
	Redis         *goredis.Client
	Limiter       ratelimit.AttemptLimiter
	Mailer        sendgrid.Client
	Metrics       *observability.Metrics
	Images        services.ImageProcessor
	ShutdownOTel  func(context.Context) error
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:      cfg.Otel.Enabled,
		ServiceName:  cfg.Otel.ServiceName,
		Environment:  cfg.AppEnv,
		Version:      Version,
		Endpoint:     cfg.Otel.Endpoint,
		Insecure:     cfg.Otel.Insecure,
		Headers:      cfg.Otel.Headers,
		SamplerRatio: cfg.Otel.SamplerRatio,
	})

	bucket, sc, err := resolveBucketService(ctx, log, cfg)
	if err != nil {
		_ = shutdownOTel(ctx)
		return Clients{}, err
	}

	// Redis backs the login limiter when configured so that attempts are shared across replicas.
	limiterCfg := ratelimit.Config{MaxAttempts: cfg.Login.MaxAttempts, Window: cfg.Login.Window}
	var rdb *goredis.Client
	var limiter ratelimit.AttemptLimiter
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: addr, Password: cfg.RedisPassword})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			_ = shutdownOTel(ctx)
			return Clients{}, fmt.Errorf("connect redis %s: %w", addr, err)
		}
		limiter = ratelimit.NewRedis(rdb, limiterCfg, "pawclinic:login")
		log.Info("Login limiter backed by redis", "addr", addr)
	} else {
		limiter = ratelimit.NewMemory(limiterCfg)
		log.Info("Login limiter backed by memory")
	}

	var mailer sendgrid.Client
	if strings.TrimSpace(cfg.SendGrid.APIKey) != "" {
		mailer, err = sendgrid.New(log, sendgrid.Config{
			APIKey:           cfg.SendGrid.APIKey,
			DefaultFromEmail: cfg.SendGrid.FromEmail,
			DefaultFromName:  cfg.SendGrid.FromName,
			MaxAttempts:      3,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
	} else {
		log.Warn("SENDGRID_API_KEY not set; notifications will only be logged")
	}

	images, err := services.NewImageProcessor()
	if err != nil {
		return Clients{}, fmt.Errorf("init image processor: %w", err)
	}

	return Clients{
		Bucket:        bucket,
		StorageConfig: sc,
		Redis:         rdb,
		Limiter:       limiter,
		Mailer:        mailer,
		Metrics:       metrics,
		Images:        images,
		ShutdownOTel:  shutdownOTel,
	}, nil
}

func (c Clients) Close(ctx context.Context) {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.ShutdownOTel != nil {
		_ = c.ShutdownOTel(ctx)
	}
}
