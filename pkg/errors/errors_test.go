package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesHTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		code   ErrorCode
		status int
	}{
		{"invalid param", CodeInvalidParam, http.StatusBadRequest},
		{"invalid file path", CodeInvalidFilePath, http.StatusBadRequest},
		{"prompt too large", CodePromptTooLarge, http.StatusRequestEntityTooLarge},
		{"unsupported media", CodeUnsupportedMedia, http.StatusUnsupportedMediaType},
		{"too many requests", CodeTooManyRequests, http.StatusTooManyRequests},
		{"service unavailable", CodeServiceUnavailable, http.StatusServiceUnavailable},
		{"storage error", CodeStorageError, http.StatusInternalServerError},
		{"database error", CodeDatabaseError, http.StatusInternalServerError},
		{"unknown", CodeUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom")
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.status, err.HTTPStatus)
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Wrap(cause, CodeCacheError, "rate limit window query failed")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), string(CodeCacheError))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithDetail(t *testing.T) {
	err := New(CodeInvalidFilePath, "file has no extension").WithDetail("upload.")
	assert.Equal(t, "upload.", err.Detail)
}

func TestAsAppError(t *testing.T) {
	t.Run("returns AppError as-is", func(t *testing.T) {
		orig := New(CodeGenerationFailed, "generate content failed")
		got := AsAppError(orig)
		assert.Same(t, orig, got)
	})

	t.Run("unwraps nested AppError", func(t *testing.T) {
		orig := New(CodeStorageError, "failed to write object")
		wrapped := fmt.Errorf("upload media: %w", orig)
		got := AsAppError(wrapped)
		assert.Same(t, orig, got)
	})

	t.Run("classifies plain error as unknown", func(t *testing.T) {
		cause := stderrors.New("boom")
		got := AsAppError(cause)
		assert.Equal(t, CodeUnknown, got.Code)
		assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
		require.ErrorIs(t, got, cause)
	})
}
