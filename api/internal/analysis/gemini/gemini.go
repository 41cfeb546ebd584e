// Package gemini — движок анализа через Google Gemini (generative-ai-go).
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"study-booster/api/internal/apperr"
	"study-booster/api/internal/util"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.3
)

type Engine struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

func New(apiKey, model string) *Engine {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey:      strings.TrimSpace(apiKey),
		Model:       strings.TrimSpace(model),
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
	}
}

// WithModel возвращает копию движка с другой моделью.
func (e *Engine) WithModel(model string) *Engine {
	cp := *e
	if m := strings.TrimSpace(model); m != "" {
		cp.Model = m
	}
	return &cp
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }
func (e *Engine) Configured() bool { return e.APIKey != "" }

// Complete — один запрос: текст промпта + картинка. Без повторов.
func (e *Engine) Complete(ctx context.Context, prompt, image string) (string, error) {
	if !e.Configured() {
		return "", apperr.New(apperr.APIKeyMissing, "GEMINI_API_KEY is empty")
	}

	imgBytes, mimeFromDataURL, err := util.DecodeBase64MaybeDataURL(image)
	if err != nil {
		return "", apperr.Wrap(apperr.DataValidation, fmt.Errorf("gemini: bad base64: %w", err))
	}
	finalMIME := util.PickMIME("", mimeFromDataURL, imgBytes)

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return "", apperr.Wrap(apperr.APINetworkError, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", errors.New("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(e.Temperature),
		MaxOutputTokens: ptrInt32(e.MaxTokens),
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: finalMIME, Data: imgBytes},
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", apperr.From(ctx.Err())
		}
		return "", apperr.Wrap(apperr.APIServerError, fmt.Errorf("gemini: %w", err))
	}
	txt := strings.TrimSpace(firstText(resp))
	if txt == "" {
		return "", apperr.New(apperr.APIServerError, "gemini: empty response")
	}
	return txt, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32 { return &v }
