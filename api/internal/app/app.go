// Package app собирает общие компоненты из конфигурации: движки анализа,
// анализатор, конвейер изображений и лимитер. Используется всеми бинарниками.
package app

import (
	"fmt"
	"log/slog"

	"study-booster/api/internal/analysis"
	"study-booster/api/internal/analysis/gemini"
	"study-booster/api/internal/analysis/openai"
	"study-booster/api/internal/config"
	"study-booster/api/internal/images"
	"study-booster/api/internal/ratelimit"
)

type App struct {
	Config   *config.Config
	Engines  *analysis.Engines
	Analyzer *analysis.Analyzer
	Pipeline *images.Pipeline
	Limiter  *ratelimit.Limiter
}

func Build(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		// не фатально: без ключа сервис работает на демо-данных
		slog.Warn("config validation", "err", err)
	}

	oa := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	if cfg.OpenAIMaxTokens > 0 {
		oa.MaxTokens = cfg.OpenAIMaxTokens
	}
	// 0 — допустимая температура, значение по умолчанию даёт envDefault
	oa.Temperature = cfg.OpenAITemperature
	engs := &analysis.Engines{
		OpenAI: oa,
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
	}

	def, err := engs.GetEngine(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("ANALYSIS_ENGINE: %w", err)
	}

	prompt, err := analysis.LoadPrompt(cfg.PromptFile)
	if err != nil {
		return nil, err
	}
	an := analysis.NewAnalyzer(def, prompt)
	an.Strict = cfg.StrictAnalysis
	an.Timeout = cfg.AnalysisTimeout

	im := cfg.Images
	pipe := images.NewPipeline(
		images.NewValidator(im.MaxSize, im.SupportedTypes),
		images.NewCache(im.CacheCapacity),
		images.Options{MaxWidth: im.MaxWidth, MaxHeight: im.MaxHeight, Quality: im.Quality, Format: im.Format, MaxPixels: im.MaxPixels},
	)

	if cfg.MockMode() {
		slog.Warn("analysis engine has no API key, mock results will be returned", "engine", def.Name())
	}
	slog.Info("components ready",
		"engine", def.Name(), "model", def.GetModel(), "strict", an.Strict,
		"cache_capacity", pipe.Cache.Capacity(), "format", pipe.Options.Format)

	return &App{
		Config:   cfg,
		Engines:  engs,
		Analyzer: an,
		Pipeline: pipe,
		Limiter:  ratelimit.New(cfg.RateLimitRPM, cfg.RateLimitBurst),
	}, nil
}
