// Package gcs 提供 Cloud Storage 对象存储实现
package gcs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"z-multimodal-chat/internal/config"
)

// MediaStore 媒体文件存储，按基础文件名写入媒体桶
type MediaStore struct {
	client *Client
	bucket string
}

// NewMediaStore 创建媒体文件存储
func NewMediaStore(client *Client, cfg *config.StorageConfig) *MediaStore {
	return &MediaStore{
		client: client,
		bucket: cfg.FileBucket,
	}
}

// Upload 上传本地文件，返回桶限定定位符
// 同名对象覆盖，失败不重试
func (s *MediaStore) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer f.Close()

	object := filepath.Base(localPath)
	if _, err := s.client.putObject(ctx, s.bucket, object, f); err != nil {
		return "", err
	}

	return Locator(s.bucket, object), nil
}
