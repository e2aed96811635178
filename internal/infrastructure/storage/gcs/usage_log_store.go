// Package gcs 提供 Cloud Storage 对象存储实现
package gcs

import (
	"bytes"
	"context"
	"encoding/json"

	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/pkg/errors"
)

// UsageLogStore 使用日志存储，按时间戳和用户名写入日志桶
type UsageLogStore struct {
	client *Client
	bucket string
}

// NewUsageLogStore 创建使用日志存储
func NewUsageLogStore(client *Client, cfg *config.StorageConfig) *UsageLogStore {
	return &UsageLogStore{
		client: client,
		bucket: cfg.LogBucket,
	}
}

// Write 序列化并写入一条使用日志，写入后不再读取
func (s *UsageLogStore) Write(ctx context.Context, record *entity.UsageRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, errors.CodeUsageLogFailed, "failed to marshal usage record")
	}

	if _, err := s.client.putObject(ctx, s.bucket, record.ObjectName(), bytes.NewReader(data)); err != nil {
		return errors.Wrap(err, errors.CodeUsageLogFailed, "failed to store usage record")
	}

	return nil
}
