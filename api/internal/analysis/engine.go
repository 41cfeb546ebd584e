package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotConfigured — у движка нет ключа доступа.
var ErrNotConfigured = errors.New("analysis engine is not configured")

// Engine — один вызов vision-модели: промпт + изображение (data:URI) → сырой текст ответа.
type Engine interface {
	Name() string
	GetModel() string
	Configured() bool
	Complete(ctx context.Context, prompt, image string) (string, error)
}

type Engines struct {
	OpenAI Engine
	Gemini Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gpt", "openai", "":
		if e.OpenAI == nil {
			return nil, errors.New("openai engine is not registered")
		}
		return e.OpenAI, nil
	case "gemini":
		if e.Gemini == nil {
			return nil, errors.New("gemini engine is not registered")
		}
		return e.Gemini, nil
	default:
		return nil, fmt.Errorf("unknown engine %q; use 'gpt' or 'gemini'", name)
	}
}

// Names — зарегистрированные движки в порядке предпочтения.
func (e *Engines) Names() []string {
	var out []string
	if e.OpenAI != nil {
		out = append(out, "gpt")
	}
	if e.Gemini != nil {
		out = append(out, "gemini")
	}
	return out
}

// Manager хранит выбор движка по чатам; без выбора — движок по умолчанию.
type Manager struct {
	def Engine
	m   sync.Map // chatID -> Engine
}

func NewManager(defaultEngine Engine) *Manager {
	return &Manager{def: defaultEngine}
}

func (m *Manager) Get(chatID int64) Engine {
	if v, ok := m.m.Load(chatID); ok {
		return v.(Engine)
	}
	return m.def
}

func (m *Manager) Set(chatID int64, e Engine) {
	m.m.Store(chatID, e)
}

func (m *Manager) Reset(chatID int64) {
	m.m.Delete(chatID)
}
