// Package chat 实现多模态对话的编排逻辑
package chat

import (
	"context"
	"time"

	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/internal/domain/repository"
	"z-multimodal-chat/pkg/logger"
)

// usageTimestampLayout 使用日志对象名中的时间戳格式
const usageTimestampLayout = "20060102-150405"

// UsageLogger 负责组装并持久化使用日志
// 写日志桶失败或核算行写库失败都不影响对话结果
type UsageLogger struct {
	logs       repository.UsageLogStore
	events     repository.UsageEventRepository
	accounting bool
	location   *time.Location
}

// NewUsageLogger 创建使用日志记录器
// events 可以为 nil（未启用核算时）
func NewUsageLogger(logs repository.UsageLogStore, events repository.UsageEventRepository, accounting bool) *UsageLogger {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		loc = time.UTC
	}
	return &UsageLogger{
		logs:       logs,
		events:     events,
		accounting: accounting,
		location:   loc,
	}
}

// Timestamp 生成使用日志的时间戳键
func (l *UsageLogger) Timestamp(t time.Time) string {
	return t.In(l.location).Format(usageTimestampLayout)
}

// Record 组装并写入一条使用日志，错误只记不抛
func (l *UsageLogger) Record(
	ctx context.Context,
	timestamp string,
	user string,
	text string,
	sampling entity.SamplingConfig,
	reply *entity.ModelReply,
	model string,
	callDuration time.Duration,
	gcsFilePath string,
	localFilePath string,
) {
	record := BuildUsageRecord(ctx, timestamp, user, text, sampling, reply, gcsFilePath, localFilePath)

	if l.logs != nil {
		if err := l.logs.Write(ctx, record); err != nil {
			logger.Error(ctx, "failed to write usage log", err, "object", record.ObjectName())
		}
	}

	if l.accounting && l.events != nil {
		if err := l.events.Create(ctx, entity.NewUsageEvent(record, model, callDuration)); err != nil {
			logger.Error(ctx, "failed to create usage event", err, "user", user)
		}
	}
}

// BuildUsageRecord 组装使用日志
// gcsFilePath 为空表示纯文本调用；视频时长提取失败时固定为 0
func BuildUsageRecord(
	ctx context.Context,
	timestamp string,
	user string,
	text string,
	sampling entity.SamplingConfig,
	reply *entity.ModelReply,
	gcsFilePath string,
	localFilePath string,
) *entity.UsageRecord {
	var imagePath, videoPath *string
	videoDuration := 0

	if gcsFilePath != "" {
		if ext, err := Extension(gcsFilePath); err == nil {
			switch kind, _ := MediaKind(ext); kind {
			case entity.MediaKindImage:
				imagePath = &gcsFilePath
			case entity.MediaKindVideo:
				videoPath = &gcsFilePath
				if d, err := VideoDurationSeconds(localFilePath); err == nil {
					videoDuration = d
				} else {
					// 提取失败时按约定回落为 0
					logger.Error(ctx, "failed to probe video duration", err, "path", localFilePath)
				}
			}
		} else {
			logger.Error(ctx, "failed to classify logged media path", err, "path", gcsFilePath)
		}
	}

	return &entity.UsageRecord{
		CurrentTimeStr: timestamp,
		User:           user,
		Prompt: entity.UsagePrompt{
			Text:          text,
			ImagePath:     imagePath,
			VideoPath:     videoPath,
			VideoDuration: videoDuration,
			Config:        sampling,
		},
		Response: entity.UsageResponse{
			Text:             reply.Text,
			FinishReason:     reply.FinishReason,
			FinishMessage:    reply.FinishMessage,
			SafetyRatings:    reply.SafetyRatings,
			CitationMetadata: reply.Citations,
		},
		UsageMetadata: reply.Usage,
	}
}
