package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-multimodal-chat/internal/application/chat"
	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/internal/interfaces/http/dto"
	"z-multimodal-chat/internal/interfaces/http/middleware"
	apperrors "z-multimodal-chat/pkg/errors"
)

type stubGenerator struct {
	textCalls       int
	multimodalCalls int
	lastFileURI     string
	lastMIMEType    string
}

func (g *stubGenerator) GenerateText(_ context.Context, _ string, _ entity.SamplingConfig) (*entity.ModelReply, error) {
	g.textCalls++
	return &entity.ModelReply{Text: "stub reply", FinishReason: "STOP"}, nil
}

func (g *stubGenerator) GenerateMultimodal(_ context.Context, fileURI, mimeType, _ string, _ entity.SamplingConfig) (*entity.ModelReply, error) {
	g.multimodalCalls++
	g.lastFileURI = fileURI
	g.lastMIMEType = mimeType
	return &entity.ModelReply{Text: "stub reply", FinishReason: "STOP"}, nil
}

type stubMediaStore struct {
	uploads int
}

func (s *stubMediaStore) Upload(_ context.Context, localPath string) (string, error) {
	s.uploads++
	return "gs://media/uploaded", nil
}

func handlerConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LLM.TextModel = "gemini-pro"
	cfg.LLM.MultimodalModel = "gemini-pro-vision"
	cfg.LLM.Sampling.Temperature = 0.4
	cfg.LLM.Sampling.TopP = 1.0
	cfg.LLM.Sampling.TopK = 32
	cfg.LLM.Sampling.MaxOutputTokens = 1024
	cfg.Chat.MaxPromptSizeMB = 4.0
	return cfg
}

func newChatRouter(gen *stubGenerator, media *stubMediaStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := handlerConfig()
	responder := chat.NewResponder(cfg, gen, media, nil)
	renderer := chat.NewRenderer(cfg.Chat.MaxPromptSizeMB)
	h := NewChatHandler(cfg, renderer, responder)

	engine := gin.New()
	engine.Use(middleware.Identity())
	engine.GET("/v1/chat/config", h.GetConfig)
	engine.POST("/v1/chat/messages", h.SendMessage)
	return engine
}

func postMultipart(t *testing.T, engine *gin.Engine, fields map[string]string, files map[string][]byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for field, data := range files {
		part, err := w.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/messages", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeChatResponse(t *testing.T, rec *httptest.ResponseRecorder) dto.ChatMessageResponse {
	t.Helper()
	var resp dto.Response[dto.ChatMessageResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Data
}

func TestSendMessageTextOnly(t *testing.T) {
	gen := &stubGenerator{}
	engine := newChatRouter(gen, &stubMediaStore{})

	rec := postMultipart(t, engine, map[string]string{"message": "hello"}, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeChatResponse(t, rec)
	require.Len(t, data.Turns, 2)
	require.NotNil(t, data.Turns[0].User)
	assert.Equal(t, "hello", *data.Turns[0].User)
	require.NotNil(t, data.Turns[1].Model)
	assert.Equal(t, "stub reply", *data.Turns[1].Model)
	assert.Equal(t, 1, gen.textCalls)
}

func TestSendMessageEmptyText(t *testing.T) {
	gen := &stubGenerator{}
	engine := newChatRouter(gen, &stubMediaStore{})

	rec := postMultipart(t, engine, map[string]string{"message": ""}, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// 空文本不产生用户回合，只有提示回合
	data := decodeChatResponse(t, rec)
	require.Len(t, data.Turns, 1)
	require.NotNil(t, data.Turns[0].Model)
	assert.Equal(t, "Please enter a message.", *data.Turns[0].Model)
	assert.Zero(t, gen.textCalls)
}

func TestSendMessageWithImage(t *testing.T) {
	gen := &stubGenerator{}
	media := &stubMediaStore{}
	engine := newChatRouter(gen, media)

	rec := postMultipart(t, engine,
		map[string]string{"message": "what is this"},
		map[string][]byte{"image": {0x89, 0x50, 0x4e, 0x47}},
		nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeChatResponse(t, rec)
	require.Len(t, data.Turns, 2)
	assert.Contains(t, *data.Turns[0].User, "data:image/png")
	assert.Equal(t, "stub reply", *data.Turns[1].Model)
	assert.Equal(t, 1, gen.multimodalCalls)
	assert.Equal(t, "image/png", gen.lastMIMEType)
	assert.Equal(t, 1, media.uploads)
}

func TestSendMessageImageWithoutText(t *testing.T) {
	gen := &stubGenerator{}
	media := &stubMediaStore{}
	engine := newChatRouter(gen, media)

	rec := postMultipart(t, engine,
		map[string]string{"message": ""},
		map[string][]byte{"image": {0x89, 0x50, 0x4e, 0x47}},
		nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)

	// 附件回合照常渲染，模型回合提示输入文本
	data := decodeChatResponse(t, rec)
	require.Len(t, data.Turns, 2)
	require.NotNil(t, data.Turns[0].User)
	assert.Contains(t, *data.Turns[0].User, "data:image/png")
	require.NotNil(t, data.Turns[1].Model)
	assert.Equal(t, "Please enter a message.", *data.Turns[1].Model)
	assert.Zero(t, gen.textCalls)
	assert.Zero(t, gen.multimodalCalls)
}

func TestSendMessageInvalidSampling(t *testing.T) {
	engine := newChatRouter(&stubGenerator{}, &stubMediaStore{})

	rec := postMultipart(t, engine, map[string]string{
		"message":     "hello",
		"temperature": "3.5",
	}, nil, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(apperrors.CodeInvalidParam), resp.Error.ErrorCode)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestGetConfigReportsIdentity(t *testing.T) {
	engine := newChatRouter(&stubGenerator{}, &stubMediaStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/config", nil)
	req.Header.Set(middleware.IAPUserHeader, "accounts.google.com:alice@example.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.Response[dto.ChatConfigResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Data.User)
	assert.InDelta(t, 4.0, resp.Data.MaxPromptSizeMB, 1e-9)
	assert.Equal(t, 32, resp.Data.Sampling.TopK)
	assert.Contains(t, resp.Data.SupportedVideoExtensions, "mpegps")
}

func TestGetConfigAnonymousUser(t *testing.T) {
	engine := newChatRouter(&stubGenerator{}, &stubMediaStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/chat/config", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var resp dto.Response[dto.ChatConfigResponse]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "anonymous", resp.Data.User)
}
