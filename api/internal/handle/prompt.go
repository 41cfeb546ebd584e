package handle

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"study-booster/api/internal/apperr"
)

const maxPromptSize = 2 << 20

type UpdatePromptRequest struct {
	Text string `json:"text"`
}

type PromptResponse struct {
	OK      bool   `json:"ok"`
	Path    string `json:"path,omitempty"`
	Size    int    `json:"size"`
	Updated string `json:"updated_at,omitempty"`
	Text    string `json:"text,omitempty"`
}

func (h *Handle) GetPrompt(w http.ResponseWriter, r *http.Request) {
	p := h.analyzer.Prompt()
	writeJSON(w, http.StatusOK, PromptResponse{OK: true, Path: h.promptPath, Size: len(p), Text: p})
}

// UpdatePrompt меняет промпт анализа. Если задан файл промпта, новый текст
// сначала атомарно записывается на диск (temp + rename), затем применяется.
func (h *Handle) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req UpdatePromptRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxPromptSize+1024))
	if err := dec.Decode(&req); err != nil {
		writeError(w, apperr.Wrap(apperr.DataValidation, err).WithDetail("reason", "bad json"))
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, apperr.New(apperr.DataValidation, "text is required"))
		return
	}
	if len(text) > maxPromptSize {
		writeError(w, apperr.New(apperr.DataValidation, "text too large (max 2 MiB)"))
		return
	}

	if h.promptPath != "" {
		if err := writeFileAtomic(h.promptPath, text); err != nil {
			slog.Error("prompt persist failed", "path", h.promptPath, "err", err)
			writeError(w, apperr.Wrap(apperr.Unknown, err))
			return
		}
	}
	h.analyzer.SetPrompt(text)
	slog.Info("analysis prompt updated", "size", len(text), "path", h.promptPath)

	writeJSON(w, http.StatusOK, PromptResponse{
		OK:      true,
		Path:    h.promptPath,
		Size:    len(text),
		Updated: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeFileAtomic(dst, text string) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(dst)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	_ = tmp.Chmod(0o644)
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
