package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"study-booster/api/internal/apperr"
)

// ErrNoImage — запрос без изображения.
var ErrNoImage = errors.New("画像データが提供されていません")

// Analyzer отправляет изображение выбранному движку и разбирает ответ.
//
// Любой сбой (нет ключа, сеть, не-2xx, пустой или нечитаемый ответ) пишется в лог
// и заменяется демо-результатом Fallback. Повторов нет. В строгом режиме
// вместо демо-результата возвращается *apperr.Error.
type Analyzer struct {
	Engine  Engine
	Strict  bool
	Timeout time.Duration

	prompt atomic.Pointer[string]
	now    func() time.Time
}

func NewAnalyzer(e Engine, prompt string) *Analyzer {
	a := &Analyzer{Engine: e, now: time.Now}
	a.SetPrompt(prompt)
	return a
}

// Prompt — текущая инструкция для модели.
func (a *Analyzer) Prompt() string {
	if p := a.prompt.Load(); p != nil {
		return *p
	}
	return DefaultPrompt
}

// SetPrompt меняет инструкцию на лету; пустая строка возвращает встроенную.
func (a *Analyzer) SetPrompt(p string) {
	if strings.TrimSpace(p) == "" {
		p = DefaultPrompt
	}
	a.prompt.Store(&p)
}

func (a *Analyzer) Analyze(ctx context.Context, image string) (Result, error) {
	return a.AnalyzeWith(ctx, a.Engine, image)
}

// AnalyzeWith — то же, что Analyze, но с явно выбранным движком (например, по чату).
func (a *Analyzer) AnalyzeWith(ctx context.Context, e Engine, image string) (Result, error) {
	start := a.clock()
	if strings.TrimSpace(image) == "" {
		return Result{}, apperr.Wrap(apperr.DataValidation, ErrNoImage).WithUserMessage(ErrNoImage.Error())
	}

	if e == nil || !e.Configured() {
		name := "none"
		if e != nil {
			name = e.Name()
		}
		if a.Strict {
			return Result{}, apperr.Wrap(apperr.APIKeyMissing, fmt.Errorf("%w: %s", ErrNotConfigured, name))
		}
		slog.Warn("analysis engine not configured, using mock data", "engine", name)
		return a.fallback(start, len(image)), nil
	}

	callCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	content, err := e.Complete(callCtx, a.Prompt(), image)
	if err == nil && strings.TrimSpace(content) == "" {
		err = apperr.New(apperr.APIServerError, e.Name()+" returned empty response")
	}
	var parsed Analysis
	if err == nil {
		parsed, err = ParseReply(content)
		if err != nil {
			slog.Debug("unparsable model reply", "engine", e.Name(), "content", content)
			err = apperr.Wrap(apperr.APIServerError, err)
		}
	}
	if err != nil {
		if a.Strict {
			return Result{}, apperr.From(err)
		}
		slog.Error("image analysis failed, using mock data", "engine", e.Name(), "model", e.GetModel(), "err", err)
		return a.fallback(start, 0), nil
	}

	done := a.clock()
	return Result{
		Success:  true,
		Analysis: parsed,
		Metadata: Metadata{
			ProcessingTime: done.Sub(start).Milliseconds(),
			Timestamp:      done.UTC().Format(time.RFC3339),
			ImageSize:      len(image),
			AIModel:        e.GetModel(),
		},
	}, nil
}

func (a *Analyzer) fallback(start time.Time, imageSize int) Result {
	done := a.clock()
	return Result{
		Success:  true,
		Analysis: Fallback(),
		Metadata: Metadata{
			ProcessingTime: done.Sub(start).Milliseconds(),
			Timestamp:      done.UTC().Format(time.RFC3339),
			ImageSize:      imageSize,
			AIModel:        FallbackModel,
			Fallback:       true,
		},
	}
}

func (a *Analyzer) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}
	return a.now()
}
