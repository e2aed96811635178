// Package entity 定义领域实体
package entity

// TranscriptEntry 会话记录中的一个回合
// 用户回合为 (user, nil)，模型回合为 (nil, model)
type TranscriptEntry struct {
	User  *string `json:"user"`
	Model *string `json:"model"`
}

// UserTurn 创建用户回合
func UserTurn(content string) TranscriptEntry {
	return TranscriptEntry{User: &content}
}

// ModelTurn 创建模型回合
func ModelTurn(content string) TranscriptEntry {
	return TranscriptEntry{Model: &content}
}

// SamplingConfig 采样参数，原样转发给推理后端
type SamplingConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// MediaKind 附件媒体类型
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// SafetyRating 安全评级
type SafetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
	Blocked     bool   `json:"blocked"`
}

// Citation 引用元数据
type Citation struct {
	StartIndex      int    `json:"startIndex"`
	EndIndex        int    `json:"endIndex"`
	URI             string `json:"uri"`
	Title           string `json:"title"`
	License         string `json:"license"`
	PublicationDate string `json:"publicationDate"`
}

// TokenUsage token 用量统计
type TokenUsage struct {
	PromptTokenCount     int `json:"prompt_token_count"`
	CandidatesTokenCount int `json:"candidates_token_count"`
	TotalTokenCount      int `json:"total_token_count"`
}

// ModelReply 一次推理调用的结果
type ModelReply struct {
	Text          string
	FinishReason  string
	FinishMessage string
	SafetyRatings []SafetyRating
	Citations     []Citation
	Usage         TokenUsage
}
