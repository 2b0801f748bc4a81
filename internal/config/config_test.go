package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://3en-sho7nah-production.up.railway.app/check-item", cfg.Classifier.URL)
	assert.Zero(t, cfg.Classifier.Timeout)
	assert.Equal(t, PreviewBackendMemory, cfg.Preview.Backend)
	assert.Equal(t, int64(10*1024*1024), cfg.App.MaxUploadSize)
	assert.Len(t, cfg.App.AllowedFormats, 8)
	assert.Equal(t, "en", cfg.App.DefaultLanguage)
	assert.Equal(t, 30*time.Minute, cfg.App.SessionTTL)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CLASSIFIER_URL", "http://classifier.local/check-item")
	t.Setenv("CLASSIFIER_TIMEOUT", "45s")
	t.Setenv("PREVIEW_BACKEND", "s3")
	t.Setenv("APP_DEFAULT_LANGUAGE", "ar")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://classifier.local/check-item", cfg.Classifier.URL)
	assert.Equal(t, 45*time.Second, cfg.Classifier.Timeout)
	assert.Equal(t, PreviewBackendS3, cfg.Preview.Backend)
	assert.Equal(t, "ar", cfg.App.DefaultLanguage)
}

func TestLoad_AllowedFormatsList(t *testing.T) {
	tests := map[string]string{
		"comma":       "image/png,image/jpeg",
		"comma space": "image/png, image/jpeg",
		"space":       "image/png image/jpeg",
		"trailing":    "image/png,image/jpeg,",
	}
	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("APP_ALLOWED_FORMATS", value)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, []string{"image/png", "image/jpeg"}, cfg.App.AllowedFormats)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"backend":  {"PREVIEW_BACKEND", "disk"},
		"language": {"APP_DEFAULT_LANGUAGE", "fr"},
		"size":     {"APP_MAX_UPLOAD_SIZE", "0"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
