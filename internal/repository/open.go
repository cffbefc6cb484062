package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"chunkslate/internal/config"
	"chunkslate/internal/pkg/cache"
	"chunkslate/internal/pkg/mongodb"
	"chunkslate/internal/pkg/storagefactory"
)

// CloseFunc 释放存储连接
type CloseFunc func(ctx context.Context) error

// Open 根据 persist.backend 创建键值存储
func Open(ctx context.Context, cfg *config.Config) (Store, CloseFunc, error) {
	nop := func(context.Context) error { return nil }

	switch cfg.Persist.Backend {
	case "memory":
		return NewMemoryStore(), nop, nil

	case "redis":
		c, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
		return NewRedisStore(c), func(context.Context) error { return c.Close() }, nil

	case "mongo":
		client, err := mongodb.New(ctx, &cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, client.Database()); err != nil {
			_ = client.Close(ctx)
			return nil, nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")
		return NewMongoStore(client.Database()), client.Close, nil

	case "storage":
		s, err := storagefactory.NewStorage(ctx, &cfg.Storage)
		if err != nil {
			return nil, nil, fmt.Errorf("create storage: %w", err)
		}
		log.Info().Str("type", s.GetStorageType()).Msg("object storage ready")
		return NewBlobStore(s), nop, nil

	default:
		return nil, nil, fmt.Errorf("unsupported persist backend: %s", cfg.Persist.Backend)
	}
}
