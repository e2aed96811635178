// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"z-multimodal-chat/internal/domain/repository"
	"z-multimodal-chat/internal/interfaces/http/dto"
	"z-multimodal-chat/internal/interfaces/http/middleware"
	apperrors "z-multimodal-chat/pkg/errors"
	"z-multimodal-chat/pkg/logger"
)

// 统计窗口的默认与上限（小时）
const (
	defaultUsageWindowHours = 24
	maxUsageWindowHours     = 24 * 31
)

// UsageHandler token 用量查询处理器
// events 为 nil 表示部署未启用用量核算
type UsageHandler struct {
	events repository.UsageEventRepository
}

// NewUsageHandler 创建用量查询处理器
func NewUsageHandler(events repository.UsageEventRepository) *UsageHandler {
	return &UsageHandler{events: events}
}

// GetSummary 统计当前用户在时间窗内的 token 总量
// @Summary 查询 token 用量
// @Tags Chat
// @Produce json
// @Param hours query int false "统计窗口（小时），默认 24"
// @Success 200 {object} dto.Response[dto.UsageSummaryResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/chat/usage [get]
func (h *UsageHandler) GetSummary(c *gin.Context) {
	if h.events == nil {
		dto.Err(c, apperrors.New(apperrors.CodeServiceUnavailable, "usage accounting is not enabled"))
		return
	}

	hours := defaultUsageWindowHours
	if raw := c.Query("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxUsageWindowHours {
			dto.Err(c, apperrors.New(apperrors.CodeInvalidParam, "invalid hours parameter").WithDetail(raw))
			return
		}
		hours = v
	}

	user := middleware.UserNameFromGin(c)
	end := time.Now()
	start := end.Add(-time.Duration(hours) * time.Hour)

	total, err := h.events.GetTokenUsage(c.Request.Context(), user, start, end)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to query token usage", err, "user", user)
		dto.Err(c, err)
		return
	}

	dto.Success(c, dto.UsageSummaryResponse{
		User:        user,
		WindowHours: hours,
		TokensTotal: total,
	})
}
