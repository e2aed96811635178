// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"z-multimodal-chat/internal/application/chat"
	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/internal/domain/repository"
	"z-multimodal-chat/internal/infrastructure/genai"
	"z-multimodal-chat/internal/infrastructure/persistence/postgres"
	"z-multimodal-chat/internal/infrastructure/persistence/redis"
	"z-multimodal-chat/internal/infrastructure/storage/gcs"
	"z-multimodal-chat/internal/interfaces/http/handler"
	"z-multimodal-chat/internal/interfaces/http/router"
	"z-multimodal-chat/pkg/logger"
)

// StorageSet GCS 提供者集合
var StorageSet = wire.NewSet(
	wire.FieldsOf(new(*config.Config), "Storage"),
	ProvideGCSClient,
	gcs.NewMediaStore,
	gcs.NewUsageLogStore,
	wire.Bind(new(repository.MediaStore), new(*gcs.MediaStore)),
	wire.Bind(new(repository.UsageLogStore), new(*gcs.UsageLogStore)),
)

// GenAISet 生成模型提供者集合
var GenAISet = wire.NewSet(
	ProvideGenAIClient,
	wire.Bind(new(repository.Generator), new(*genai.Client)),
)

// PostgresSet 可选 PostgreSQL（不可达时停用用量核算）
var PostgresSet = wire.NewSet(
	ProvidePostgresClientOptional,
	ProvideUsageEventRepositoryOptional,
)

// RedisSet 可选 Redis（不可达时停用限流）
var RedisSet = wire.NewSet(
	ProvideRedisClientOptional,
	ProvideRateLimiterOptional,
)

// ChatSet 对话编排提供者集合
var ChatSet = wire.NewSet(
	ProvideRenderer,
	ProvideUsageLogger,
	chat.NewResponder,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewChatHandler,
	handler.NewUsageHandler,
	handler.NewHealthHandler,
	router.New,
)

// ProvideGCSClient 提供 GCS 客户端
func ProvideGCSClient(ctx context.Context, cfg *config.Config) (*gcs.Client, func(), error) {
	client, err := gcs.NewClient(ctx, &cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideGenAIClient 提供生成模型客户端
func ProvideGenAIClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	return genai.NewClient(ctx, &cfg.GCP, &cfg.LLM)
}

// ProvidePostgresClientOptional 提供可选的 PostgreSQL 客户端
func ProvidePostgresClientOptional(ctx context.Context, cfg *config.Config) (*postgres.Client, func(), error) {
	if !cfg.Chat.UsageAccounting {
		return nil, func() {}, nil
	}
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Warn(ctx, "postgres not available, usage accounting disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideUsageEventRepositoryOptional 提供可选的用量核算仓储
// 返回接口类型，客户端缺失时保持 nil 接口
func ProvideUsageEventRepositoryOptional(client *postgres.Client) repository.UsageEventRepository {
	if client == nil {
		return nil
	}
	return postgres.NewUsageEventRepository(client)
}

// ProvideRedisClientOptional 提供可选的 Redis 客户端
func ProvideRedisClientOptional(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	if !cfg.Security.RateLimit.Enabled {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, rate limiting disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRateLimiterOptional 提供可选的限流器
func ProvideRateLimiterOptional(client *redis.Client) *redis.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideRenderer 提供会话渲染器
func ProvideRenderer(cfg *config.Config) *chat.Renderer {
	return chat.NewRenderer(cfg.Chat.MaxPromptSizeMB)
}

// ProvideUsageLogger 提供使用日志记录器
func ProvideUsageLogger(logs repository.UsageLogStore, events repository.UsageEventRepository, cfg *config.Config) *chat.UsageLogger {
	return chat.NewUsageLogger(logs, events, cfg.Chat.UsageAccounting)
}
