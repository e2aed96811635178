package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/internal/domain/repository"
	"z-multimodal-chat/internal/interfaces/http/dto"
	"z-multimodal-chat/internal/interfaces/http/middleware"
	apperrors "z-multimodal-chat/pkg/errors"
)

type stubUsageEventRepo struct {
	total      int64
	lastUser   string
	lastWindow time.Duration
}

func (r *stubUsageEventRepo) Create(_ context.Context, _ *entity.UsageEvent) error {
	return nil
}

func (r *stubUsageEventRepo) GetTokenUsage(_ context.Context, userName string, start, end time.Time) (int64, error) {
	r.lastUser = userName
	r.lastWindow = end.Sub(start)
	return r.total, nil
}

func newUsageRouter(events repository.UsageEventRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(middleware.Identity())
	engine.GET("/v1/chat/usage", NewUsageHandler(events).GetSummary)
	return engine
}

func getUsage(t *testing.T, engine *gin.Engine, target, iapUser string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if iapUser != "" {
		req.Header.Set(middleware.IAPUserHeader, iapUser)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestGetSummaryDefaultWindow(t *testing.T) {
	repo := &stubUsageEventRepo{total: 1234}
	engine := newUsageRouter(repo)

	rec := getUsage(t, engine, "/v1/chat/usage", "accounts.google.com:alice@example.com")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.Response[dto.UsageSummaryResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Data.User)
	assert.Equal(t, 24, resp.Data.WindowHours)
	assert.Equal(t, int64(1234), resp.Data.TokensTotal)
	assert.Equal(t, "alice", repo.lastUser)
	assert.Equal(t, 24*time.Hour, repo.lastWindow)
}

func TestGetSummaryCustomWindow(t *testing.T) {
	repo := &stubUsageEventRepo{total: 42}
	engine := newUsageRouter(repo)

	rec := getUsage(t, engine, "/v1/chat/usage?hours=6", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.Response[dto.UsageSummaryResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "anonymous", resp.Data.User)
	assert.Equal(t, 6, resp.Data.WindowHours)
	assert.Equal(t, 6*time.Hour, repo.lastWindow)
}

func TestGetSummaryInvalidWindow(t *testing.T) {
	engine := newUsageRouter(&stubUsageEventRepo{})

	for _, hours := range []string{"abc", "0", "-3", "100000"} {
		rec := getUsage(t, engine, "/v1/chat/usage?hours="+hours, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, "hours=%s", hours)

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, string(apperrors.CodeInvalidParam), resp.Error.ErrorCode)
	}
}

func TestGetSummaryAccountingDisabled(t *testing.T) {
	engine := newUsageRouter(nil)

	rec := getUsage(t, engine, "/v1/chat/usage", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(apperrors.CodeServiceUnavailable), resp.Error.ErrorCode)
}
