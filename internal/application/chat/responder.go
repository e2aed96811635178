// Package chat 实现多模态对话的编排逻辑
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/internal/domain/repository"
	"z-multimodal-chat/pkg/logger"
	"z-multimodal-chat/pkg/metrics"
)

// 固定的用户可见提示
const (
	msgPromptForInput = "Please enter a message."
	msgMediaConflict  = "Sending an image and a video in the same message is not supported."
	msgGenericFailure = "Something went wrong while generating a response. Please try again."
)

// Submission 一次用户提交
type Submission struct {
	// User 提交者标识
	User string
	// Text 输入文本
	Text string
	// ImagePath 本地图像文件路径，可为空
	ImagePath string
	// VideoPath 本地视频文件路径，可为空
	VideoPath string
	// Sampling 采样参数，原样转发
	Sampling entity.SamplingConfig
}

// Responder 响应编排器
// 根据附件组合选择推理路径，执行大小与扩展名校验，并保证每次提交都产生一个模型回合
type Responder struct {
	generator       repository.Generator
	media           repository.MediaStore
	usage           *UsageLogger
	textModel       string
	multimodalModel string
	maxPromptSizeMB float64
}

// NewResponder 创建响应编排器
// usage 可以为 nil（不记录使用日志的部署形态）
func NewResponder(cfg *config.Config, generator repository.Generator, media repository.MediaStore, usage *UsageLogger) *Responder {
	return &Responder{
		generator:       generator,
		media:           media,
		usage:           usage,
		textModel:       cfg.LLM.TextModel,
		multimodalModel: cfg.LLM.MultimodalModel,
		maxPromptSizeMB: cfg.Chat.MaxPromptSizeMB,
	}
}

// Respond 处理一次提交并返回模型回合
// 任何内部失败都转换为带通用提示的模型回合，不会出现无回合的路径
func (r *Responder) Respond(ctx context.Context, sub Submission) entity.TranscriptEntry {
	// 1. 空文本
	if sub.Text == "" {
		metrics.ChatSubmissionsTotal.WithLabelValues("empty_prompt").Inc()
		return entity.ModelTurn(msgPromptForInput)
	}

	// 2. 纯文本
	if sub.ImagePath == "" && sub.VideoPath == "" {
		return r.respondText(ctx, sub)
	}

	// 3. 图像与视频同时出现
	if sub.ImagePath != "" && sub.VideoPath != "" {
		metrics.ChatSubmissionsTotal.WithLabelValues("conflict").Inc()
		return entity.ModelTurn(msgMediaConflict)
	}

	// 4. 单一附件
	return r.respondMultimodal(ctx, sub)
}

// respondText 纯文本推理路径
func (r *Responder) respondText(ctx context.Context, sub Submission) entity.TranscriptEntry {
	started := time.Now()

	reply, err := r.generator.GenerateText(ctx, sub.Text, sub.Sampling)
	if err != nil {
		logger.Error(ctx, "text generation failed", err, "user", sub.User)
		metrics.ChatSubmissionsTotal.WithLabelValues("error").Inc()
		return entity.ModelTurn(msgGenericFailure)
	}

	if r.usage != nil {
		r.usage.Record(ctx, r.usage.Timestamp(started), sub.User, sub.Text, sub.Sampling,
			reply, r.textModel, time.Since(started), "", "")
	}

	metrics.ChatSubmissionsTotal.WithLabelValues("reply").Inc()
	return entity.ModelTurn(reply.Text)
}

// respondMultimodal 单附件推理路径
func (r *Responder) respondMultimodal(ctx context.Context, sub Submission) entity.TranscriptEntry {
	filePath := sub.ImagePath
	if filePath == "" {
		filePath = sub.VideoPath
	}

	// 大小上限校验（严格大于判定）
	sizeMB, err := PromptSizeMB(sub.Text, filePath)
	if err != nil {
		logger.Error(ctx, "failed to calculate prompt size", err, "path", filePath)
		metrics.ChatSubmissionsTotal.WithLabelValues("error").Inc()
		return entity.ModelTurn(msgGenericFailure)
	}
	metrics.ChatPromptSizeMB.Observe(sizeMB)

	if sizeMB > r.maxPromptSizeMB {
		metrics.ChatSubmissionsTotal.WithLabelValues("oversized").Inc()
		return entity.ModelTurn(sizeExceededMessage(sizeMB, r.maxPromptSizeMB))
	}

	// 扩展名校验
	ext, err := Extension(filePath)
	if err != nil {
		logger.Error(ctx, "failed to derive file extension", err, "path", filePath)
		metrics.ChatSubmissionsTotal.WithLabelValues("error").Inc()
		return entity.ModelTurn(msgGenericFailure)
	}
	if !IsSupported(ext) {
		metrics.ChatSubmissionsTotal.WithLabelValues("unsupported").Inc()
		return entity.ModelTurn(supportedExtensionsMessage())
	}

	// 上传到媒体桶
	locator, err := r.media.Upload(ctx, filePath)
	if err != nil {
		logger.Error(ctx, "failed to upload media file", err, "path", filePath)
		metrics.ChatSubmissionsTotal.WithLabelValues("error").Inc()
		return entity.ModelTurn(msgGenericFailure)
	}

	mimeType, err := MIMEType(ext)
	if err != nil {
		logger.Error(ctx, "failed to derive mime type", err, "extension", ext)
		metrics.ChatSubmissionsTotal.WithLabelValues("error").Inc()
		return entity.ModelTurn(msgGenericFailure)
	}

	started := time.Now()

	reply, err := r.generator.GenerateMultimodal(ctx, locator, mimeType, sub.Text, sub.Sampling)
	if err != nil {
		logger.Error(ctx, "multimodal generation failed", err, "user", sub.User, "locator", locator)
		metrics.ChatSubmissionsTotal.WithLabelValues("error").Inc()
		return entity.ModelTurn(msgGenericFailure)
	}

	if r.usage != nil {
		r.usage.Record(ctx, r.usage.Timestamp(started), sub.User, sub.Text, sub.Sampling,
			reply, r.multimodalModel, time.Since(started), locator, filePath)
	}

	metrics.ChatSubmissionsTotal.WithLabelValues("reply").Inc()
	return entity.ModelTurn(reply.Text)
}

// sizeExceededMessage 超限提示，包含配置上限与当前大小（保留一位小数）
func sizeExceededMessage(actualMB, limitMB float64) string {
	return fmt.Sprintf(
		"The combined size of the text and the image/video must be under %.1fMB. The current prompt size is %.1fMB.",
		limitMB, actualMB,
	)
}

// supportedExtensionsMessage 列出全部支持的扩展名
func supportedExtensionsMessage() string {
	return fmt.Sprintf(
		"Supported image formats are %s, and supported video formats are %s.",
		strings.Join(SupportedImageExtensions, ", "),
		strings.Join(SupportedVideoExtensions, ", "),
	)
}
