package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_BUCKET", "my-bucket")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "bucket: ${TEST_BUCKET}", "bucket: my-bucket"},
		{"set variable ignores default", "bucket: ${TEST_BUCKET:other}", "bucket: my-bucket"},
		{"unset with default", "port: ${TEST_UNSET_PORT:7860}", "port: 7860"},
		{"unset without default stays", "id: ${TEST_UNSET_ID}", "id: ${TEST_UNSET_ID}"},
		{"empty default", "password: ${TEST_UNSET_PASSWORD:}", "password: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.input))
		})
	}
}

func validConfig() *Config {
	cfg := &Config{}
	cfg.GCP.ProjectID = "proj"
	cfg.GCP.Location = "asia-northeast1"
	cfg.Storage.FileBucket = "files"
	cfg.Storage.LogBucket = "logs"
	cfg.Chat.MaxPromptSizeMB = 4.0
	return cfg
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	t.Run("missing project", func(t *testing.T) {
		cfg := validConfig()
		cfg.GCP.ProjectID = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing file bucket", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.FileBucket = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive size ceiling", func(t *testing.T) {
		cfg := validConfig()
		cfg.Chat.MaxPromptSizeMB = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("unresolved project placeholder", func(t *testing.T) {
		cfg := validConfig()
		cfg.GCP.ProjectID = "${PROJECT_ID}"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PROJECT_ID")
	})

	t.Run("unresolved bucket placeholder", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.FileBucket = "${FILE_BUCKET_NAME}"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FILE_BUCKET_NAME")
	})
}
