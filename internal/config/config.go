package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"shipcheck/internal/classifier"
)

const (
	PreviewBackendMemory = "memory"
	PreviewBackendS3     = "s3"
)

type Config struct {
	Server     ServerConfig
	Classifier ClassifierConfig
	Preview    PreviewConfig
	S3         S3Config
	App        AppConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type ClassifierConfig struct {
	URL string
	// Timeout of zero leaves requests unbounded.
	Timeout time.Duration
}

type PreviewConfig struct {
	Backend      string
	MaxDimension int
	Quality      int
	URLTTL       time.Duration
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

type AppConfig struct {
	MaxUploadSize   int64
	AllowedFormats  []string
	DefaultLanguage string
	SessionTTL      time.Duration
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_HOST", "localhost")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("CLASSIFIER_URL", classifier.DefaultURL)
	v.SetDefault("CLASSIFIER_TIMEOUT", "0s")
	v.SetDefault("PREVIEW_BACKEND", PreviewBackendMemory)
	v.SetDefault("PREVIEW_MAX_DIMENSION", 512)
	v.SetDefault("PREVIEW_QUALITY", 80)
	v.SetDefault("PREVIEW_URL_TTL", "1h")
	v.SetDefault("S3_ENDPOINT", "http://localhost:9000")
	v.SetDefault("S3_ACCESS_KEY_ID", "minioadmin")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "minioadmin")
	v.SetDefault("S3_USE_SSL", false)
	v.SetDefault("S3_BUCKET_NAME", "previews")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("APP_MAX_UPLOAD_SIZE", 10*1024*1024) // 10MB
	v.SetDefault("APP_ALLOWED_FORMATS", []string{
		"image/jpeg", "image/jpg", "image/png", "image/webp",
		"image/gif", "image/bmp", "image/tiff", "image/svg+xml",
	})
	v.SetDefault("APP_DEFAULT_LANGUAGE", "en")
	v.SetDefault("APP_SESSION_TTL", "30m")
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetString("SERVER_PORT"),
		},
		Classifier: ClassifierConfig{
			URL:     v.GetString("CLASSIFIER_URL"),
			Timeout: v.GetDuration("CLASSIFIER_TIMEOUT"),
		},
		Preview: PreviewConfig{
			Backend:      v.GetString("PREVIEW_BACKEND"),
			MaxDimension: v.GetInt("PREVIEW_MAX_DIMENSION"),
			Quality:      v.GetInt("PREVIEW_QUALITY"),
			URLTTL:       v.GetDuration("PREVIEW_URL_TTL"),
		},
		S3: S3Config{
			Endpoint:        v.GetString("S3_ENDPOINT"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			UseSSL:          v.GetBool("S3_USE_SSL"),
			BucketName:      v.GetString("S3_BUCKET_NAME"),
			Region:          v.GetString("S3_REGION"),
		},
		App: AppConfig{
			MaxUploadSize:   v.GetInt64("APP_MAX_UPLOAD_SIZE"),
			AllowedFormats:  splitList(v.GetStringSlice("APP_ALLOWED_FORMATS")),
			DefaultLanguage: v.GetString("APP_DEFAULT_LANGUAGE"),
			SessionTTL:      v.GetDuration("APP_SESSION_TTL"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Preview.Backend {
	case PreviewBackendMemory, PreviewBackendS3:
	default:
		return fmt.Errorf("PREVIEW_BACKEND must be %q or %q, got %q",
			PreviewBackendMemory, PreviewBackendS3, c.Preview.Backend)
	}
	if c.App.MaxUploadSize <= 0 {
		return fmt.Errorf("APP_MAX_UPLOAD_SIZE must be positive")
	}
	if len(c.App.AllowedFormats) == 0 {
		return fmt.Errorf("APP_ALLOWED_FORMATS must not be empty")
	}
	switch c.App.DefaultLanguage {
	case "en", "ar":
	default:
		return fmt.Errorf("APP_DEFAULT_LANGUAGE must be en or ar, got %q", c.App.DefaultLanguage)
	}
	return nil
}

// splitList accepts both space and comma separated environment values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
