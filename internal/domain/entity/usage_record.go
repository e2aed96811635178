// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/lib/pq"
)

// UsageRecord 一次推理调用的完整使用日志
// 创建一次、写入日志桶一次，之后不再变更或读取
type UsageRecord struct {
	CurrentTimeStr string        `json:"current_time_str"`
	User           string        `json:"user"`
	Prompt         UsagePrompt   `json:"prompt"`
	Response       UsageResponse `json:"response"`
	UsageMetadata  TokenUsage    `json:"usage_metadata"`
}

// UsagePrompt 使用日志的提示部分
type UsagePrompt struct {
	Text string `json:"text"`
	// ImagePath 图像附件的存储定位符（gs://...），无则为空
	ImagePath *string `json:"image_path"`
	// VideoPath 视频附件的存储定位符，无则为空
	VideoPath *string `json:"video_path"`
	// VideoDuration 视频时长（秒，向上取整），提取失败时为 0
	VideoDuration int            `json:"video_duration"`
	Config        SamplingConfig `json:"config"`
}

// UsageResponse 使用日志的响应部分
type UsageResponse struct {
	Text             string         `json:"text"`
	FinishReason     string         `json:"finish_reason"`
	FinishMessage    string         `json:"finish_message"`
	SafetyRatings    []SafetyRating `json:"safety_ratings"`
	CitationMetadata []Citation     `json:"citation_metadata"`
}

// ObjectName 使用日志在日志桶中的对象名
func (r *UsageRecord) ObjectName() string {
	return "output/" + r.CurrentTimeStr + "-" + r.User + ".json"
}

// UsageEvent token 用量核算行，写入 Postgres 供配额/报表查询
type UsageEvent struct {
	ID                string         `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserName          string         `json:"user_name" gorm:"type:varchar(128);index;not null"`
	Model             string         `json:"model" gorm:"type:varchar(64);not null"`
	TokensPrompt      int            `json:"tokens_prompt" gorm:"not null;default:0"`
	TokensCandidates  int            `json:"tokens_candidates" gorm:"not null;default:0"`
	TokensTotal       int            `json:"tokens_total" gorm:"not null;default:0"`
	DurationMs        int            `json:"duration_ms" gorm:"not null;default:0"`
	BlockedCategories pq.StringArray `json:"blocked_categories" gorm:"type:text[]"`
	CreatedAt         time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

func (UsageEvent) TableName() string {
	return "llm_usage_events"
}

// NewUsageEvent 从使用日志派生核算行
func NewUsageEvent(record *UsageRecord, model string, duration time.Duration) *UsageEvent {
	var blocked []string
	for _, r := range record.Response.SafetyRatings {
		if r.Blocked {
			blocked = append(blocked, r.Category)
		}
	}
	return &UsageEvent{
		UserName:          record.User,
		Model:             model,
		TokensPrompt:      record.UsageMetadata.PromptTokenCount,
		TokensCandidates:  record.UsageMetadata.CandidatesTokenCount,
		TokensTotal:       record.UsageMetadata.TotalTokenCount,
		DurationMs:        int(duration.Milliseconds()),
		BlockedCategories: blocked,
		CreatedAt:         time.Now(),
	}
}
