package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Images — лимиты приёма и параметры сжатия по умолчанию.
type Images struct {
	MaxSize        int64    `env:"MAX_SIZE" envDefault:"10485760"` // 10 MiB
	SupportedTypes []string `env:"SUPPORTED_TYPES" envSeparator:"," envDefault:"image/jpeg,image/png,image/webp"`
	CacheCapacity  int      `env:"CACHE_CAPACITY" envDefault:"5"`

	MaxWidth  int     `env:"MAX_WIDTH" envDefault:"1920"`
	MaxHeight int     `env:"MAX_HEIGHT" envDefault:"1080"`
	Quality   float64 `env:"QUALITY" envDefault:"0.8"`
	Format    string  `env:"FORMAT" envDefault:"jpeg"`
	// w*h из заголовка файла; больше — отказ до декодирования
	MaxPixels int `env:"MAX_PIXELS" envDefault:"50000000"`
}

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`

	// Движок анализа по умолчанию: "gpt" | "gemini"
	Engine string `env:"ANALYSIS_ENGINE" envDefault:"gpt"`
	// true — ошибки анализа не маскируются демо-результатом
	StrictAnalysis bool `env:"ANALYSIS_STRICT" envDefault:"false"`
	// Файл с промптом; пусто — встроенный
	PromptFile string `env:"ANALYSIS_PROMPT_FILE"`
	// Верхняя граница на один вызов модели; 0 — без таймаута, жизнь вызова задаёт ctx
	AnalysisTimeout time.Duration `env:"ANALYSIS_TIMEOUT" envDefault:"0s"`

	OpenAIAPIKey      string  `env:"OPENAI_API_KEY"`
	OpenAIBaseURL     string  `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel       string  `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	OpenAIMaxTokens   int     `env:"OPENAI_MAX_TOKENS" envDefault:"2000"`
	OpenAITemperature float32 `env:"OPENAI_TEMPERATURE" envDefault:"0.3"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	WebhookURL       string `env:"WEBHOOK_URL"`

	RateLimitRPM   int `env:"RATE_LIMIT_RPM" envDefault:"30"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"5"`

	Images Images `envPrefix:"IMAGE_"`
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	cfg.Images.Format = strings.ToLower(strings.TrimSpace(cfg.Images.Format))
	return cfg, nil
}

func (c *Config) IsProduction() bool { return strings.EqualFold(c.AppEnv, "production") }

func (c *Config) IsDevelopment() bool { return strings.EqualFold(c.AppEnv, "development") }

// MockMode — у выбранного движка нет ключа, анализ будет отдавать демо-данные.
func (c *Config) MockMode() bool {
	if c.Engine == "gemini" {
		return strings.TrimSpace(c.GeminiAPIKey) == ""
	}
	return strings.TrimSpace(c.OpenAIAPIKey) == ""
}

// Validate проверяет обязательные для продакшена переменные.
// Ошибка не фатальна: вызывающий код пишет её в лог как предупреждение.
func (c *Config) Validate() error {
	var errs []error
	if c.IsProduction() && strings.TrimSpace(c.OpenAIAPIKey) == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required in production"))
	}
	if c.Images.MaxSize <= 0 {
		errs = append(errs, errors.New("IMAGE_MAX_SIZE must be > 0"))
	}
	if c.Images.Quality < 0 || c.Images.Quality > 1 {
		errs = append(errs, fmt.Errorf("IMAGE_QUALITY must be within [0,1], got %v", c.Images.Quality))
	}
	switch c.Images.Format {
	case "jpeg", "png", "webp":
	default:
		errs = append(errs, fmt.Errorf("IMAGE_FORMAT %q is not supported", c.Images.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("environment validation failed: %w", errors.Join(errs...))
	}
	return nil
}
