package images

import (
	"fmt"
	"math"
	"strings"

	"study-booster/api/internal/apperr"
)

const (
	DefaultMaxSize = 10 * 1024 * 1024 // 10 MiB
)

var DefaultSupportedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Validation — результат проверки. Error заполнен только при Valid=false.
type Validation struct {
	Valid bool        `json:"valid"`
	Error string      `json:"error,omitempty"`
	Code  apperr.Code `json:"code,omitempty"`
}

// Validator проверяет заявленный размер и MIME-тип файла до чтения содержимого.
type Validator struct {
	MaxSize        int64
	SupportedTypes []string
}

func NewValidator(maxSize int64, supported []string) *Validator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(supported) == 0 {
		supported = DefaultSupportedTypes
	}
	return &Validator{MaxSize: maxSize, SupportedTypes: supported}
}

// Validate никогда не возвращает ошибку: причина отказа лежит в Validation.Error.
func (v *Validator) Validate(size int64, mimeType string) Validation {
	if size > v.MaxSize {
		mb := int(math.Round(float64(v.MaxSize) / 1024 / 1024))
		return Validation{
			Error: fmt.Sprintf("ファイルサイズが大きすぎます。%dMB以下の画像を選択してください。", mb),
			Code:  apperr.ImageTooLarge,
		}
	}
	if !v.isSupported(mimeType) {
		return Validation{
			Error: "サポートされていない画像形式です。JPEG、PNG、WebP形式の画像を選択してください。",
			Code:  apperr.ImageInvalidFormat,
		}
	}
	return Validation{Valid: true}
}

// Err превращает отрицательный результат в *apperr.Error; для Valid=true — nil.
func (r Validation) Err() error {
	if r.Valid {
		return nil
	}
	return apperr.New(r.Code, r.Error).WithUserMessage(r.Error)
}

func (v *Validator) isSupported(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	// "image/jpeg; charset=..." и т.п.
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	for _, s := range v.SupportedTypes {
		if strings.EqualFold(s, mt) {
			return true
		}
	}
	return false
}
