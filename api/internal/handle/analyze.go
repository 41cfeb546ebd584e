package handle

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"study-booster/api/internal/analysis"
	"study-booster/api/internal/apperr"
)

// Тело запроса анализа: изображение data:URI, движок необязателен.
type AnalyzeRequest struct {
	Image  string `json:"image"`
	Engine string `json:"engine,omitempty"`
}

// лимит на JSON с изображением: 10 MiB файла в base64 плюс запас
const maxAnalyzeBody = 16 << 20

func (h *Handle) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBody))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, apperr.New(apperr.ImageTooLarge, "request body too large"))
			return
		}
		writeError(w, apperr.Wrap(apperr.DataValidation, err).WithDetail("reason", "bad json"))
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": analysis.ErrNoImage.Error()})
		return
	}
	h.analyze(w, r, req.Engine, req.Image)
}

// AnalyzeStored анализирует изображение из кэша по id.
func (h *Handle) AnalyzeStored(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := h.cache.Get(id)
	if !ok {
		writeError(w, apperr.New(apperr.DataNotFound, "image "+id+" not found"))
		return
	}
	h.analyze(w, r, r.URL.Query().Get("engine"), rec.Data)
}

func (h *Handle) analyze(w http.ResponseWriter, r *http.Request, engineName, image string) {
	e, err := h.engineFor(engineName)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()

	res, err := h.analyzer.AnalyzeWith(ctx, e, image)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
