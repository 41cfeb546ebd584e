package images

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"study-booster/api/internal/apperr"
)

// Upload — файл от клиента: заявленные размер и тип плюс содержимое.
type Upload struct {
	Name     string
	Size     int64
	MimeType string
	Body     io.Reader
}

// Pipeline связывает шаги приёма: проверка → base64 → сжатие → сохранение.
type Pipeline struct {
	Validator *Validator
	Cache     *Cache
	Options   Options
}

func NewPipeline(v *Validator, c *Cache, opts Options) *Pipeline {
	return &Pipeline{Validator: v, Cache: c, Options: opts.withDefaults()}
}

// Optimize проводит файл через весь конвейер и возвращает сохранённую запись.
// Ошибки всегда *apperr.Error.
func (p *Pipeline) Optimize(ctx context.Context, up Upload) (Record, error) {
	if res := p.Validator.Validate(up.Size, up.MimeType); !res.Valid {
		slog.Info("image rejected", "name", up.Name, "size", up.Size, "mime", up.MimeType, "code", res.Code)
		return Record{}, res.Err()
	}

	encoded, err := Encode(up.Body, up.MimeType)
	if err != nil {
		return Record{}, apperr.Wrap(apperr.ImageProcessingFailed, err)
	}

	compressed, err := Compress(ctx, encoded, p.Options)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Record{}, apperr.From(err)
		}
		return Record{}, apperr.Wrap(apperr.ImageProcessingFailed, err)
	}

	opts := p.Options
	id := p.Cache.Save(compressed, &opts)
	rec, ok := p.Cache.Get(id)
	if !ok {
		// запись могла быть вытеснена конкурентными сохранениями
		return Record{}, apperr.New(apperr.DataNotFound, "image evicted before read")
	}
	slog.Info("image stored", "id", id, "name", up.Name, "in_size", up.Size, "out_size", rec.Size, "format", rec.MimeType)
	return rec, nil
}
