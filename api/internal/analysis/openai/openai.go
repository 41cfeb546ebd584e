// Package openai — движок анализа через OpenAI Chat Completions (vision).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"study-booster/api/internal/apperr"
	"study-booster/api/internal/util"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o"
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.3
)

type Engine struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	httpc       *http.Client
}

func New(key, model, baseURL string) *Engine {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &Engine{
		APIKey:      strings.TrimSpace(key),
		Model:       strings.TrimSpace(model),
		BaseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		// Timeout=0: время жизни запроса задаёт ctx
		httpc: &http.Client{Timeout: 0, Transport: tr},
	}
}

// WithHTTPClient подменяет HTTP-клиент (тесты, трассировка).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

// WithModel возвращает копию движка с другой моделью; исходный не меняется.
func (e *Engine) WithModel(model string) *Engine {
	cp := *e
	if m := strings.TrimSpace(model); m != "" {
		cp.Model = m
	}
	return &cp
}

func (e *Engine) Name() string     { return "gpt" }
func (e *Engine) GetModel() string { return e.Model }
func (e *Engine) Configured() bool { return e.APIKey != "" }

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type message struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float32   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete отправляет промпт и изображение одним сообщением пользователя и
// возвращает текст первого варианта ответа.
func (e *Engine) Complete(ctx context.Context, prompt, image string) (string, error) {
	if !e.Configured() {
		return "", apperr.New(apperr.APIKeyMissing, "OPENAI_API_KEY is empty")
	}

	body := chatRequest{
		Model: e.Model,
		Messages: []message{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: image, Detail: "high"}},
			},
		}},
		MaxTokens:   e.MaxTokens,
		Temperature: e.Temperature,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openai: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.APINetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		x, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", statusError(resp.StatusCode, x)
	}

	var raw chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", apperr.Wrap(apperr.APIServerError, fmt.Errorf("openai: decode: %w", err))
	}
	if len(raw.Choices) == 0 {
		return "", apperr.New(apperr.APIServerError, "openai: empty response")
	}
	return strings.TrimSpace(raw.Choices[0].Message.Content), nil
}

func statusError(status int, body []byte) *apperr.Error {
	msg := "Unknown error"
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		if m := strings.TrimSpace(env.Error.Message); m != "" {
			msg = m
		}
	} else if s := strings.TrimSpace(string(body)); s != "" {
		// не JSON: например, HTML-страница прокси
		msg = util.Truncate(s, 300)
	}

	code := apperr.APIServerError
	switch {
	case status == http.StatusTooManyRequests:
		code = apperr.APIRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = apperr.APIKeyMissing
	}
	return apperr.New(code, fmt.Sprintf("OpenAI API error %d: %s", status, msg)).WithDetail("status", status)
}
