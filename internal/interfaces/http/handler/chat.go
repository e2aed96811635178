// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"z-multimodal-chat/internal/application/chat"
	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/internal/interfaces/http/dto"
	"z-multimodal-chat/internal/interfaces/http/middleware"
	apperrors "z-multimodal-chat/pkg/errors"
	"z-multimodal-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	cfg       *config.Config
	renderer  *chat.Renderer
	responder *chat.Responder
}

// NewChatHandler 创建对话处理器
func NewChatHandler(cfg *config.Config, renderer *chat.Renderer, responder *chat.Responder) *ChatHandler {
	return &ChatHandler{
		cfg:       cfg,
		renderer:  renderer,
		responder: responder,
	}
}

// SendMessage 提交一条对话消息
// @Summary 提交对话消息
// @Description 接收文本与可选的图像/视频附件，返回本次提交产生的会话回合
// @Tags Chat
// @Accept multipart/form-data
// @Produce json
// @Param message formData string false "输入文本"
// @Param image formData file false "图像附件"
// @Param video formData file false "视频附件"
// @Success 200 {object} dto.Response[dto.ChatMessageResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/chat/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.UserNameFromGin(c)

	if h.cfg.Server.HTTP.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.cfg.Server.HTTP.MaxUploadBytes)
	}

	var req dto.ChatMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			dto.Err(c, apperrors.Wrap(err, apperrors.CodePromptTooLarge, "request body too large"))
			return
		}
		dto.Err(c, apperrors.New(apperrors.CodeInvalidParam, "invalid request").WithDetail(err.Error()))
		return
	}

	// 附件落盘到请求级临时目录，处理完立即清理
	tmpDir, err := os.MkdirTemp("", "chat-upload-*")
	if err != nil {
		logger.Error(ctx, "failed to create upload directory", err)
		dto.Err(c, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to process attachments"))
		return
	}
	defer os.RemoveAll(tmpDir)

	imagePath, err := h.saveAttachment(c, "image", tmpDir)
	if err != nil {
		dto.Err(c, apperrors.Wrap(err, apperrors.CodeInvalidFilePath, "invalid image attachment"))
		return
	}
	videoPath, err := h.saveAttachment(c, "video", tmpDir)
	if err != nil {
		dto.Err(c, apperrors.Wrap(err, apperrors.CodeInvalidFilePath, "invalid video attachment"))
		return
	}

	sub := chat.Submission{
		User:      user,
		Text:      req.Message,
		ImagePath: imagePath,
		VideoPath: videoPath,
		Sampling:  req.Sampling(h.samplingDefaults()),
	}

	modelTurn := h.responder.Respond(ctx, sub)

	var turns []entity.TranscriptEntry
	if req.Message != "" || imagePath != "" || videoPath != "" {
		turns = h.renderer.UserTurns(ctx, req.Message, imagePath, videoPath)
	}
	turns = append(turns, modelTurn)

	dto.Success(c, dto.NewChatMessageResponse(turns))
}

// GetConfig 返回客户端初始化配置
// @Summary 获取对话配置
// @Tags Chat
// @Produce json
// @Success 200 {object} dto.Response[dto.ChatConfigResponse]
// @Router /v1/chat/config [get]
func (h *ChatHandler) GetConfig(c *gin.Context) {
	defaults := h.samplingDefaults()
	dto.Success(c, dto.ChatConfigResponse{
		User:            middleware.UserNameFromGin(c),
		MaxPromptSizeMB: h.cfg.Chat.MaxPromptSizeMB,
		Sampling: dto.SamplingDefaults{
			Temperature:     defaults.Temperature,
			TopP:            defaults.TopP,
			TopK:            defaults.TopK,
			MaxOutputTokens: defaults.MaxOutputTokens,
		},
		SupportedImageExtensions: chat.SupportedImageExtensions,
		SupportedVideoExtensions: chat.SupportedVideoExtensions,
	})
}

// saveAttachment 把指定字段的上传文件写入临时目录
// 保留客户端原始文件名的基础部分，扩展名与对象名都依赖它
func (h *ChatHandler) saveAttachment(c *gin.Context, field, dir string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}

	dst := filepath.Join(dir, sanitizeFilename(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// sanitizeFilename 去除客户端文件名中的路径成分
func sanitizeFilename(name string) string {
	base := filepath.Base(filepath.Clean(name))
	if base == "." || base == string(filepath.Separator) {
		return "upload"
	}
	return base
}

// samplingDefaults 服务端采样默认值
func (h *ChatHandler) samplingDefaults() entity.SamplingConfig {
	s := h.cfg.LLM.Sampling
	return entity.SamplingConfig{
		Temperature:     s.Temperature,
		TopP:            s.TopP,
		TopK:            s.TopK,
		MaxOutputTokens: s.MaxOutputTokens,
	}
}
