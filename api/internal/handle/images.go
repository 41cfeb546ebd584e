package handle

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"study-booster/api/internal/apperr"
	"study-booster/api/internal/images"
	"study-booster/api/internal/util"
)

// запас на заголовки multipart сверх лимита файла
const multipartOverhead = 1 << 20

type uploadResponse struct {
	ID    string        `json:"id"`
	Image images.Record `json:"image"`
}

// UploadImage принимает multipart-поле "file" и прогоняет его через конвейер.
func (h *Handle) UploadImage(w http.ResponseWriter, r *http.Request) {
	limit := h.pipeline.Validator.MaxSize + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, h.pipeline.Validator.Validate(h.pipeline.Validator.MaxSize+1, "").Err())
			return
		}
		writeError(w, apperr.Wrap(apperr.DataValidation, err).WithDetail("reason", "bad multipart form"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	f, fh, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.New(apperr.DataValidation, "form field \"file\" is required"))
		return
	}
	defer f.Close()

	ctx, cancel := requestContext(r)
	defer cancel()

	rec, err := h.pipeline.Optimize(ctx, images.Upload{
		Name:     fh.Filename,
		Size:     fh.Size,
		MimeType: declaredType(fh, f),
		Body:     f,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{ID: rec.ID, Image: rec})
}

// declaredType — Content-Type части; если клиент его не прислал, смотрим на сигнатуру.
func declaredType(fh *multipart.FileHeader, f multipart.File) string {
	ct := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	head := make([]byte, 512)
	n, _ := f.Read(head)
	_, _ = f.Seek(0, 0)
	return util.SniffMimeHTTP(head[:n])
}

func (h *Handle) ImageStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

func (h *Handle) GetImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, ok := h.cache.Get(id)
	if !ok {
		writeError(w, apperr.New(apperr.DataNotFound, "image "+id+" not found"))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handle) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.cache.Remove(id) {
		writeError(w, apperr.New(apperr.DataNotFound, "image "+id+" not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handle) ClearImages(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}
