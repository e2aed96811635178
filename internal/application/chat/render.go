// Package chat 实现多模态对话的编排逻辑
package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"os"

	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/pkg/logger"
)

// 附件超限时的占位提示
const (
	imageNotDisplayed = "[This image is not displayed]"
	videoNotDisplayed = "[This video is not displayed]"
)

// Renderer 负责生成会话记录中的用户回合
// 小于上限的附件内嵌为 data URL，超限替换为占位提示
type Renderer struct {
	maxPromptSizeMB float64
}

// NewRenderer 创建渲染器
func NewRenderer(maxPromptSizeMB float64) *Renderer {
	return &Renderer{maxPromptSizeMB: maxPromptSizeMB}
}

// UserTurns 渲染一次提交产生的用户回合
// 图像和视频各自成为一个回合，两者都缺省时退化为纯文本回合
// 回合内容作为 HTML 展示，输入文本统一转义
func (r *Renderer) UserTurns(ctx context.Context, text, imagePath, videoPath string) []entity.TranscriptEntry {
	var turns []entity.TranscriptEntry
	text = html.EscapeString(text)

	if imagePath == "" && videoPath == "" {
		turns = append(turns, entity.UserTurn(text))
		return turns
	}

	if imagePath != "" {
		turns = append(turns, entity.UserTurn(r.mediaTurn(ctx, text, imagePath, entity.MediaKindImage)))
	}

	if videoPath != "" {
		turns = append(turns, entity.UserTurn(r.mediaTurn(ctx, text, videoPath, entity.MediaKindVideo)))
	}

	return turns
}

// mediaTurn 渲染带附件的用户回合内容
func (r *Renderer) mediaTurn(ctx context.Context, text, path string, kind entity.MediaKind) string {
	placeholder := imageNotDisplayed
	if kind == entity.MediaKindVideo {
		placeholder = videoNotDisplayed
	}

	sizeMB, err := PromptSizeMB("", path)
	if err != nil {
		logger.Error(ctx, "failed to size attachment for rendering", err, "path", path)
		return placeholder + " " + text
	}
	if sizeMB > r.maxPromptSizeMB {
		return placeholder + " " + text
	}

	ext, err := Extension(path)
	if err != nil {
		logger.Error(ctx, "failed to derive attachment extension", err, "path", path)
		return placeholder + " " + text
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error(ctx, "failed to read attachment for rendering", err, "path", path)
		return placeholder + " " + text
	}

	encoded := base64.StdEncoding.EncodeToString(data)

	if kind == entity.MediaKindImage {
		dataURL := fmt.Sprintf("data:image/%s;base64,%s", ext, encoded)
		return fmt.Sprintf(`<img src="%s" alt="Uploaded image"> %s`, dataURL, text)
	}

	dataURL := fmt.Sprintf("data:video/%s;base64,%s", ext, encoded)
	return fmt.Sprintf(`<video controls><source src="%s" type="video/%s"></video> %s`, dataURL, ext, text)
}
