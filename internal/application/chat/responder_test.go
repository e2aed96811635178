package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"z-multimodal-chat/internal/config"
	"z-multimodal-chat/internal/domain/entity"
)

// fakeGenerator 记录推理调用
type fakeGenerator struct {
	textCalls       int
	multimodalCalls int
	lastFileURI     string
	lastMIMEType    string
	lastText        string
	reply           *entity.ModelReply
	err             error
}

func (g *fakeGenerator) GenerateText(_ context.Context, text string, _ entity.SamplingConfig) (*entity.ModelReply, error) {
	g.textCalls++
	g.lastText = text
	if g.err != nil {
		return nil, g.err
	}
	return g.reply, nil
}

func (g *fakeGenerator) GenerateMultimodal(_ context.Context, fileURI, mimeType, text string, _ entity.SamplingConfig) (*entity.ModelReply, error) {
	g.multimodalCalls++
	g.lastFileURI = fileURI
	g.lastMIMEType = mimeType
	g.lastText = text
	if g.err != nil {
		return nil, g.err
	}
	return g.reply, nil
}

// fakeMediaStore 记录上传调用
type fakeMediaStore struct {
	uploads []string
	err     error
}

func (s *fakeMediaStore) Upload(_ context.Context, localPath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, localPath)
	return "gs://media/" + filepath.Base(localPath), nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LLM.TextModel = "gemini-pro"
	cfg.LLM.MultimodalModel = "gemini-pro-vision"
	cfg.Chat.MaxPromptSizeMB = 4.0
	return cfg
}

func newTestResponder(gen *fakeGenerator, media *fakeMediaStore, logs *fakeUsageLogStore) *Responder {
	var usage *UsageLogger
	if logs != nil {
		usage = NewUsageLogger(logs, nil, false)
	}
	return NewResponder(testConfig(), gen, media, usage)
}

func modelText(t *testing.T, turn entity.TranscriptEntry) string {
	t.Helper()
	require.NotNil(t, turn.Model)
	require.Nil(t, turn.User)
	return *turn.Model
}

func TestRespondEmptyText(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	media := &fakeMediaStore{}
	r := newTestResponder(gen, media, nil)

	turn := r.Respond(context.Background(), Submission{User: "alice"})

	assert.Equal(t, "Please enter a message.", modelText(t, turn))
	assert.Zero(t, gen.textCalls)
	assert.Zero(t, gen.multimodalCalls)
	assert.Empty(t, media.uploads)
}

func TestRespondTextOnly(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	logs := &fakeUsageLogStore{}
	r := newTestResponder(gen, &fakeMediaStore{}, logs)

	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "hello"})

	assert.Equal(t, "the answer", modelText(t, turn))
	assert.Equal(t, 1, gen.textCalls)
	assert.Zero(t, gen.multimodalCalls)
	assert.Equal(t, "hello", gen.lastText)

	require.Len(t, logs.records, 1)
	assert.Equal(t, "hello", logs.records[0].Prompt.Text)
	assert.Nil(t, logs.records[0].Prompt.ImagePath)
}

func TestRespondMediaConflict(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	media := &fakeMediaStore{}
	r := newTestResponder(gen, media, nil)

	turn := r.Respond(context.Background(), Submission{
		User:      "alice",
		Text:      "both",
		ImagePath: "/tmp/a.png",
		VideoPath: "/tmp/b.mp4",
	})

	assert.Equal(t, "Sending an image and a video in the same message is not supported.", modelText(t, turn))
	assert.Zero(t, gen.textCalls)
	assert.Zero(t, gen.multimodalCalls)
	assert.Empty(t, media.uploads)
}

func TestRespondImage(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	media := &fakeMediaStore{}
	logs := &fakeUsageLogStore{}
	r := newTestResponder(gen, media, logs)

	imagePath := writeAttachment(t, "photo.png", []byte{0x89, 0x50})
	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "look", ImagePath: imagePath})

	assert.Equal(t, "the answer", modelText(t, turn))
	assert.Equal(t, 1, gen.multimodalCalls)
	assert.Zero(t, gen.textCalls)
	assert.Equal(t, "gs://media/photo.png", gen.lastFileURI)
	assert.Equal(t, "image/png", gen.lastMIMEType)
	assert.Equal(t, []string{imagePath}, media.uploads)

	require.Len(t, logs.records, 1)
	require.NotNil(t, logs.records[0].Prompt.ImagePath)
	assert.Equal(t, "gs://media/photo.png", *logs.records[0].Prompt.ImagePath)
}

func TestRespondVideoMIMEType(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	media := &fakeMediaStore{}
	r := newTestResponder(gen, media, nil)

	videoPath := writeAttachment(t, "clip.mov", []byte("mov"))
	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "watch", VideoPath: videoPath})

	assert.Equal(t, "the answer", modelText(t, turn))
	assert.Equal(t, "video/mov", gen.lastMIMEType)
	assert.Equal(t, "gs://media/clip.mov", gen.lastFileURI)
}

func TestRespondJPEGMIMEType(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	r := newTestResponder(gen, &fakeMediaStore{}, nil)

	imagePath := writeAttachment(t, "photo.jpg", []byte{0xff, 0xd8})
	r.Respond(context.Background(), Submission{User: "alice", Text: "look", ImagePath: imagePath})

	// jpg 与 jpeg 统一映射为 image/jpeg
	assert.Equal(t, "image/jpeg", gen.lastMIMEType)
}

func TestRespondOversizedPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	media := &fakeMediaStore{}
	cfg := testConfig()
	cfg.Chat.MaxPromptSizeMB = 0.000001
	r := NewResponder(cfg, gen, media, nil)

	imagePath := writeAttachment(t, "big.png", make([]byte, 1048576))
	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "big", ImagePath: imagePath})

	msg := modelText(t, turn)
	assert.Contains(t, msg, "must be under 0.0MB")
	assert.Contains(t, msg, "The current prompt size is 1.0MB.")
	assert.Zero(t, gen.multimodalCalls)
	assert.Empty(t, media.uploads)
}

func TestRespondSizeEqualToCeilingPasses(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	media := &fakeMediaStore{}
	cfg := testConfig()
	cfg.Chat.MaxPromptSizeMB = 1.0
	r := NewResponder(cfg, gen, media, nil)

	// 文本 1 字节 + 文件 1048575 字节合计正好 1MB，严格大于才拒绝
	imagePath := writeAttachment(t, "exact.png", make([]byte, 1048575))
	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "x", ImagePath: imagePath})

	assert.Equal(t, "the answer", modelText(t, turn))
	assert.Equal(t, 1, gen.multimodalCalls)
}

func TestRespondUnsupportedExtension(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	media := &fakeMediaStore{}
	r := newTestResponder(gen, media, nil)

	path := writeAttachment(t, "document.pdf", []byte("%PDF"))
	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "read", ImagePath: path})

	msg := modelText(t, turn)
	assert.Contains(t, msg, "png, jpeg, jpg")
	assert.Contains(t, msg, "mp4, mov, mpeg, mpg, avi, wmv, mpegps, flv")
	assert.Zero(t, gen.multimodalCalls)
	assert.Empty(t, media.uploads)
}

func TestRespondMissingAttachmentFile(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	r := newTestResponder(gen, &fakeMediaStore{}, nil)

	turn := r.Respond(context.Background(), Submission{
		User:      "alice",
		Text:      "look",
		ImagePath: filepath.Join(t.TempDir(), "gone.png"),
	})

	assert.Equal(t, "Something went wrong while generating a response. Please try again.", modelText(t, turn))
	assert.Zero(t, gen.multimodalCalls)
}

func TestRespondUploadFailure(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	media := &fakeMediaStore{err: errors.New("bucket unavailable")}
	r := newTestResponder(gen, media, nil)

	imagePath := writeAttachment(t, "photo.png", []byte{0x89})
	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "look", ImagePath: imagePath})

	assert.Equal(t, "Something went wrong while generating a response. Please try again.", modelText(t, turn))
	assert.Zero(t, gen.multimodalCalls)
}

func TestRespondGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("backend unavailable")}
	logs := &fakeUsageLogStore{}
	r := newTestResponder(gen, &fakeMediaStore{}, logs)

	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "hello"})

	assert.Equal(t, "Something went wrong while generating a response. Please try again.", modelText(t, turn))
	assert.Empty(t, logs.records)
}

func TestRespondUsageLoggerOptional(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	r := newTestResponder(gen, &fakeMediaStore{}, nil)

	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "hello"})
	assert.Equal(t, "the answer", modelText(t, turn))
}

func TestRespondCaseInsensitiveExtension(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply()}
	r := newTestResponder(gen, &fakeMediaStore{}, nil)

	path := filepath.Join(t.TempDir(), "PHOTO.PNG")
	require.NoError(t, os.WriteFile(path, []byte{0x89}, 0o644))

	turn := r.Respond(context.Background(), Submission{User: "alice", Text: "look", ImagePath: path})

	assert.Equal(t, "the answer", modelText(t, turn))
	assert.Equal(t, "image/png", gen.lastMIMEType)
}
