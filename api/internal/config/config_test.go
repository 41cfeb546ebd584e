package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ANALYSIS_ENGINE", "gpt")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Errorf("OpenAIModel = %q, want gpt-4o", cfg.OpenAIModel)
	}
	if cfg.OpenAIMaxTokens != 2000 {
		t.Errorf("OpenAIMaxTokens = %d, want 2000", cfg.OpenAIMaxTokens)
	}
	if cfg.OpenAITemperature != 0.3 {
		t.Errorf("OpenAITemperature = %v, want 0.3", cfg.OpenAITemperature)
	}
	if cfg.Images.MaxSize != 10*1024*1024 {
		t.Errorf("Images.MaxSize = %d, want 10 MiB", cfg.Images.MaxSize)
	}
	want := []string{"image/jpeg", "image/png", "image/webp"}
	if strings.Join(cfg.Images.SupportedTypes, ",") != strings.Join(want, ",") {
		t.Errorf("SupportedTypes = %v, want %v", cfg.Images.SupportedTypes, want)
	}
	if cfg.Images.CacheCapacity != 5 {
		t.Errorf("CacheCapacity = %d, want 5", cfg.Images.CacheCapacity)
	}
	if cfg.Images.MaxWidth != 1920 || cfg.Images.MaxHeight != 1080 {
		t.Errorf("bounds = %dx%d, want 1920x1080", cfg.Images.MaxWidth, cfg.Images.MaxHeight)
	}
	if cfg.Images.MaxPixels != 50_000_000 {
		t.Errorf("Images.MaxPixels = %d, want 50000000", cfg.Images.MaxPixels)
	}
	if cfg.AnalysisTimeout != 0 {
		t.Errorf("AnalysisTimeout = %v, want 0 (no deadline by default)", cfg.AnalysisTimeout)
	}
	if !cfg.MockMode() {
		t.Error("MockMode should be true without OPENAI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate in development should pass, got %v", err)
	}
}

func TestLoad_ZeroTemperature(t *testing.T) {
	t.Setenv("OPENAI_TEMPERATURE", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.OpenAITemperature != 0 {
		t.Errorf("OpenAITemperature = %v, want 0", cfg.OpenAITemperature)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ANALYSIS_ENGINE", " Gemini ")
	t.Setenv("IMAGE_FORMAT", "WEBP")
	t.Setenv("IMAGE_CACHE_CAPACITY", "12")
	t.Setenv("IMAGE_SUPPORTED_TYPES", "image/png")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Engine != "gemini" {
		t.Errorf("Engine = %q, want gemini", cfg.Engine)
	}
	if cfg.Images.Format != "webp" {
		t.Errorf("Format = %q, want webp", cfg.Images.Format)
	}
	if cfg.Images.CacheCapacity != 12 {
		t.Errorf("CacheCapacity = %d, want 12", cfg.Images.CacheCapacity)
	}
	if len(cfg.Images.SupportedTypes) != 1 || cfg.Images.SupportedTypes[0] != "image/png" {
		t.Errorf("SupportedTypes = %v", cfg.Images.SupportedTypes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "production without key",
			mutate:  func(c *Config) { c.AppEnv = "production" },
			wantErr: "OPENAI_API_KEY",
		},
		{
			name:   "production with key",
			mutate: func(c *Config) { c.AppEnv = "production"; c.OpenAIAPIKey = "sk-test" },
		},
		{
			name:    "quality out of range",
			mutate:  func(c *Config) { c.Images.Quality = 1.5 },
			wantErr: "IMAGE_QUALITY",
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Images.Format = "gif" },
			wantErr: "IMAGE_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				AppEnv: "development",
				Images: Images{MaxSize: 1, Quality: 0.8, Format: "jpeg"},
			}
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
