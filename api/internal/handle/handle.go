package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"study-booster/api/internal/analysis"
	"study-booster/api/internal/apperr"
	"study-booster/api/internal/images"
)

// Значение по умолчанию для X-Request-Timeout.
const defaultRequestTimeout = 180 * time.Second

type Handle struct {
	pipeline   *images.Pipeline
	cache      *images.Cache
	analyzer   *analysis.Analyzer
	engs       *analysis.Engines
	promptPath string
}

func New(p *images.Pipeline, a *analysis.Analyzer, engs *analysis.Engines) *Handle {
	return &Handle{
		pipeline: p,
		cache:    p.Cache,
		analyzer: a,
		engs:     engs,
	}
}

// WithPromptFile включает сохранение промпта на диск в UpdatePrompt.
func (h *Handle) WithPromptFile(path string) *Handle {
	h.promptPath = path
	return h
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody — поле error для простых клиентов плюс полное описание ошибки.
type errorBody struct {
	Error string `json:"error"`
	apperr.View
}

func writeError(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	writeJSON(w, ae.HTTPStatus(), errorBody{Error: ae.UserMessage, View: ae.View()})
}

// WriteError — то же для middleware за пределами пакета.
func WriteError(w http.ResponseWriter, err error) { writeError(w, err) }

// requestContext ограничивает обработку X-Request-Timeout (секунды) или ?timeoutSec.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	deadline := defaultRequestTimeout
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return context.WithTimeout(r.Context(), deadline)
}

// engineFor выбирает движок по имени; пустое имя — движок анализатора.
func (h *Handle) engineFor(name string) (analysis.Engine, error) {
	if name == "" || h.engs == nil {
		return h.analyzer.Engine, nil
	}
	e, err := h.engs.GetEngine(name)
	if err != nil {
		return nil, apperr.Wrap(apperr.DataValidation, err)
	}
	return e, nil
}

type healthResponse struct {
	Status   string   `json:"status"`
	Engine   string   `json:"engine"`
	Model    string   `json:"model"`
	MockMode bool     `json:"mockMode"`
	Engines  []string `json:"engines"`
	Images   int      `json:"images"`
	Capacity int      `json:"capacity"`
}

func (h *Handle) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Engine:   "none",
		MockMode: true,
		Images:   h.cache.Len(),
		Capacity: h.cache.Capacity(),
	}
	if e := h.analyzer.Engine; e != nil {
		resp.Engine = e.Name()
		resp.Model = e.GetModel()
		resp.MockMode = !e.Configured()
	}
	if h.engs != nil {
		resp.Engines = h.engs.Names()
	}
	writeJSON(w, http.StatusOK, resp)
}
