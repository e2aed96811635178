// Package repository 定义数据访问与外部服务接口
package repository

import (
	"context"
	"time"

	"z-multimodal-chat/internal/domain/entity"
)

// Generator 生成模型推理接口
type Generator interface {
	// GenerateText 纯文本推理
	GenerateText(ctx context.Context, text string, cfg entity.SamplingConfig) (*entity.ModelReply, error)
	// GenerateMultimodal 多模态推理，附件以存储定位符 + MIME 类型引用
	GenerateMultimodal(ctx context.Context, fileURI, mimeType, text string, cfg entity.SamplingConfig) (*entity.ModelReply, error)
}

// MediaStore 媒体文件对象存储接口
type MediaStore interface {
	// Upload 按基础文件名上传本地文件，同名对象覆盖，返回桶限定定位符
	Upload(ctx context.Context, localPath string) (string, error)
}

// UsageLogStore 使用日志对象存储接口
type UsageLogStore interface {
	// Write 序列化并写入一条使用日志
	Write(ctx context.Context, record *entity.UsageRecord) error
}

// UsageEventRepository token 用量核算仓储接口
type UsageEventRepository interface {
	// Create 写入一条用量核算行
	Create(ctx context.Context, event *entity.UsageEvent) error
	// GetTokenUsage 统计用户在时间窗内的 token 总量
	GetTokenUsage(ctx context.Context, userName string, startInclusive, endExclusive time.Time) (int64, error)
}
