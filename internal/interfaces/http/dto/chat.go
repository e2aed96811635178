// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"z-multimodal-chat/internal/domain/entity"
)

// ChatMessageRequest 对话提交请求（multipart/form-data）
// 图像附件字段名为 image，视频附件字段名为 video
type ChatMessageRequest struct {
	// Message 输入文本
	Message string `form:"message"`
	// Temperature 采样温度，空值使用服务端默认
	Temperature *float64 `form:"temperature" binding:"omitempty,gte=0,lte=1"`
	// TopP nucleus 采样阈值
	TopP *float64 `form:"top_p" binding:"omitempty,gte=0.1,lte=1"`
	// TopK 采样候选数
	TopK *int `form:"top_k" binding:"omitempty,gte=1,lte=40"`
	// MaxOutputTokens 输出 token 上限
	MaxOutputTokens *int `form:"max_output_tokens" binding:"omitempty,gte=1,lte=2048"`
}

// Sampling 合并请求参数与服务端默认值
func (r *ChatMessageRequest) Sampling(defaults entity.SamplingConfig) entity.SamplingConfig {
	cfg := defaults
	if r.Temperature != nil {
		cfg.Temperature = *r.Temperature
	}
	if r.TopP != nil {
		cfg.TopP = *r.TopP
	}
	if r.TopK != nil {
		cfg.TopK = *r.TopK
	}
	if r.MaxOutputTokens != nil {
		cfg.MaxOutputTokens = *r.MaxOutputTokens
	}
	return cfg
}

// TranscriptTurn 会话记录中的一个回合
// user 与 model 恰好一个非空
type TranscriptTurn struct {
	User  *string `json:"user"`
	Model *string `json:"model"`
}

// ChatMessageResponse 对话提交响应
// 客户端把 turns 追加到本地会话记录末尾
type ChatMessageResponse struct {
	Turns []TranscriptTurn `json:"turns"`
}

// NewChatMessageResponse 从领域回合构建响应
func NewChatMessageResponse(entries []entity.TranscriptEntry) ChatMessageResponse {
	turns := make([]TranscriptTurn, 0, len(entries))
	for _, e := range entries {
		turns = append(turns, TranscriptTurn{User: e.User, Model: e.Model})
	}
	return ChatMessageResponse{Turns: turns}
}

// SamplingDefaults UI 滑块初始值
type SamplingDefaults struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
	MaxOutputTokens int     `json:"max_output_tokens"`
}

// ChatConfigResponse 客户端初始化所需的对话配置
type ChatConfigResponse struct {
	User                     string           `json:"user"`
	MaxPromptSizeMB          float64          `json:"max_prompt_size_mb"`
	Sampling                 SamplingDefaults `json:"sampling"`
	SupportedImageExtensions []string         `json:"supported_image_extensions"`
	SupportedVideoExtensions []string         `json:"supported_video_extensions"`
}
