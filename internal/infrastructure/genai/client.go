// Package genai 提供 Vertex AI 生成模型客户端封装
package genai

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	googlegenai "google.golang.org/genai"

	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/internal/domain/entity"
	"z-multimodal-chat/pkg/errors"
	"z-multimodal-chat/pkg/metrics"
)

var tracer = otel.Tracer("genai")

// Client 生成模型客户端
// 文本与多模态调用共用一个底层连接，按配置选择模型
type Client struct {
	client *googlegenai.Client
	cfg    *config.LLMConfig
}

// NewClient 创建生成模型客户端
func NewClient(ctx context.Context, gcp *config.GCPConfig, cfg *config.LLMConfig) (*Client, error) {
	c, err := googlegenai.NewClient(ctx, &googlegenai.ClientConfig{
		Project:  gcp.ProjectID,
		Location: gcp.Location,
		Backend:  googlegenai.BackendVertexAI,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeLLMProviderError, "failed to create genai client")
	}

	return &Client{
		client: c,
		cfg:    cfg,
	}, nil
}

// GenerateText 纯文本推理
func (c *Client) GenerateText(ctx context.Context, text string, sampling entity.SamplingConfig) (*entity.ModelReply, error) {
	ctx, span := tracer.Start(ctx, "genai.GenerateText",
		trace.WithAttributes(attribute.String("llm.model", c.cfg.TextModel)))
	defer span.End()

	contents := []*googlegenai.Content{
		googlegenai.NewContentFromParts([]*googlegenai.Part{
			googlegenai.NewPartFromText(text),
		}, googlegenai.RoleUser),
	}

	return c.generate(ctx, c.cfg.TextModel, contents, sampling)
}

// GenerateMultimodal 多模态推理，附件以存储定位符引用
func (c *Client) GenerateMultimodal(ctx context.Context, fileURI, mimeType, text string, sampling entity.SamplingConfig) (*entity.ModelReply, error) {
	ctx, span := tracer.Start(ctx, "genai.GenerateMultimodal",
		trace.WithAttributes(
			attribute.String("llm.model", c.cfg.MultimodalModel),
			attribute.String("llm.file_uri", fileURI),
			attribute.String("llm.mime_type", mimeType),
		))
	defer span.End()

	// 文件部分在前，文本部分在后
	contents := []*googlegenai.Content{
		googlegenai.NewContentFromParts([]*googlegenai.Part{
			googlegenai.NewPartFromURI(fileURI, mimeType),
			googlegenai.NewPartFromText(text),
		}, googlegenai.RoleUser),
	}

	return c.generate(ctx, c.cfg.MultimodalModel, contents, sampling)
}

// generate 发起推理调用并转换响应
func (c *Client) generate(ctx context.Context, model string, contents []*googlegenai.Content, sampling entity.SamplingConfig) (*entity.ModelReply, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	genCfg := &googlegenai.GenerateContentConfig{
		Temperature:     googlegenai.Ptr(float32(sampling.Temperature)),
		TopP:            googlegenai.Ptr(float32(sampling.TopP)),
		TopK:            googlegenai.Ptr(float32(sampling.TopK)),
		MaxOutputTokens: int32(sampling.MaxOutputTokens),
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, genCfg)
	metrics.LLMCallDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(model, "error").Inc()
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeGenerationFailed, fmt.Sprintf("generate content failed for %s", model))
	}
	metrics.LLMCallTotal.WithLabelValues(model, "success").Inc()

	reply, err := toModelReply(resp)
	if err != nil {
		return nil, err
	}

	metrics.LLMTokensUsed.WithLabelValues(model, "prompt").Add(float64(reply.Usage.PromptTokenCount))
	metrics.LLMTokensUsed.WithLabelValues(model, "candidates").Add(float64(reply.Usage.CandidatesTokenCount))

	return reply, nil
}

// toModelReply 把 SDK 响应转换为领域对象
func toModelReply(resp *googlegenai.GenerateContentResponse) (*entity.ModelReply, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	cand := resp.Candidates[0]

	reply := &entity.ModelReply{
		Text:          resp.Text(),
		FinishReason:  string(cand.FinishReason),
		FinishMessage: cand.FinishMessage,
		SafetyRatings: toSafetyRatings(cand.SafetyRatings),
		Citations:     toCitations(cand.CitationMetadata),
	}

	if resp.UsageMetadata != nil {
		reply.Usage = entity.TokenUsage{
			PromptTokenCount:     int(resp.UsageMetadata.PromptTokenCount),
			CandidatesTokenCount: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokenCount:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return reply, nil
}

// toSafetyRatings 安全评级转列表
func toSafetyRatings(ratings []*googlegenai.SafetyRating) []entity.SafetyRating {
	out := make([]entity.SafetyRating, 0, len(ratings))
	for _, r := range ratings {
		if r == nil {
			continue
		}
		out = append(out, entity.SafetyRating{
			Category:    string(r.Category),
			Probability: string(r.Probability),
			Blocked:     r.Blocked,
		})
	}
	return out
}

// toCitations 引用元数据转列表
func toCitations(meta *googlegenai.CitationMetadata) []entity.Citation {
	if meta == nil {
		return nil
	}
	out := make([]entity.Citation, 0, len(meta.Citations))
	for _, c := range meta.Citations {
		if c == nil {
			continue
		}
		citation := entity.Citation{
			StartIndex: int(c.StartIndex),
			EndIndex:   int(c.EndIndex),
			URI:        c.URI,
			Title:      c.Title,
			License:    c.License,
		}
		if !c.PublicationDate.IsZero() {
			citation.PublicationDate = c.PublicationDate.String()
		}
		out = append(out, citation)
	}
	return out
}
