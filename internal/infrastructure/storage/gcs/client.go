// Package gcs 提供 Cloud Storage 对象存储实现
package gcs

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/pkg/errors"
	"z-multimodal-chat/pkg/metrics"
)

var tracer = otel.Tracer("gcs")

// Client Cloud Storage 客户端
type Client struct {
	client *storage.Client
	config *config.StorageConfig
}

// NewClient 创建 Cloud Storage 客户端
func NewClient(ctx context.Context, cfg *config.StorageConfig) (*Client, error) {
	c, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &Client{
		client: c,
		config: cfg,
	}, nil
}

// Storage 获取底层 Storage 客户端
func (c *Client) Storage() *storage.Client {
	return c.client
}

// Close 关闭客户端
func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck 健康检查，验证媒体桶可达
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "gcs.HealthCheck")
	defer span.End()

	_, err := c.client.Bucket(c.config.FileBucket).Attrs(ctx)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// putObject 写入对象，同名对象覆盖
func (c *Client) putObject(ctx context.Context, bucket, object string, r io.Reader) (int64, error) {
	ctx, span := tracer.Start(ctx, "gcs.putObject",
		trace.WithAttributes(
			attribute.String("gcs.bucket", bucket),
			attribute.String("gcs.object", object),
		))
	defer span.End()

	if c.config.UploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.UploadTimeout)
		defer cancel()
	}

	w := c.client.Bucket(bucket).Object(object).NewWriter(ctx)
	written, err := io.Copy(w, r)
	if err != nil {
		w.Close()
		span.RecordError(err)
		metrics.StorageUploadsTotal.WithLabelValues(bucket, "error").Inc()
		return 0, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("failed to write object %s/%s", bucket, object))
	}
	if err := w.Close(); err != nil {
		span.RecordError(err)
		metrics.StorageUploadsTotal.WithLabelValues(bucket, "error").Inc()
		return 0, errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("failed to finalize object %s/%s", bucket, object))
	}

	metrics.StorageUploadsTotal.WithLabelValues(bucket, "success").Inc()
	metrics.StorageUploadBytes.WithLabelValues(bucket).Observe(float64(written))
	span.SetAttributes(attribute.Int64("gcs.bytes", written))

	return written, nil
}

// Locator 构造桶限定定位符
func Locator(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}
