// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"time"

	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/pkg/errors"
)

// UsageEventRepository token 用量核算仓储实现
type UsageEventRepository struct {
	client *Client
}

// NewUsageEventRepository 创建用量核算仓储
func NewUsageEventRepository(client *Client) *UsageEventRepository {
	return &UsageEventRepository{client: client}
}

// Create 写入一条用量核算行
func (r *UsageEventRepository) Create(ctx context.Context, event *entity.UsageEvent) error {
	ctx, span := tracer.Start(ctx, "postgres.UsageEventRepository.Create")
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(event).Error; err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.CodeDatabaseError, "failed to create usage event")
	}
	return nil
}

// GetTokenUsage 统计用户在时间窗内的 token 总量
func (r *UsageEventRepository) GetTokenUsage(ctx context.Context, userName string, startInclusive, endExclusive time.Time) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.UsageEventRepository.GetTokenUsage")
	defer span.End()

	var total int64
	if err := r.client.db.WithContext(ctx).
		Model(&entity.UsageEvent{}).
		Where("user_name = ? AND created_at >= ? AND created_at < ?", userName, startInclusive, endExclusive).
		Select("COALESCE(SUM(COALESCE(tokens_total,0)),0)").
		Scan(&total).Error; err != nil {
		span.RecordError(err)
		return 0, errors.Wrap(err, errors.CodeDatabaseError, "failed to get token usage")
	}
	return total, nil
}
