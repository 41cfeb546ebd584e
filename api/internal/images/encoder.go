package images

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"study-booster/api/internal/util"
)

// ErrRead — содержимое файла не удалось прочитать. Повторов внутри нет.
var ErrRead = errors.New("ファイルの読み込みに失敗しました。")

// Encode читает файл целиком и возвращает data:URI с MIME и base64.
// Пустой mimeType заменяется определённым по сигнатуре.
func Encode(r io.Reader, mimeType string) (string, error) {
	if r == nil {
		return "", fmt.Errorf("%w: nil reader", ErrRead)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRead, err)
	}
	return EncodeBytes(b, mimeType), nil
}

func EncodeBytes(b []byte, mimeType string) string {
	mt := strings.TrimSpace(mimeType)
	if mt == "" {
		mt = util.SniffMimeHTTP(b)
	}
	return util.MakeDataURL(mt, base64.StdEncoding.EncodeToString(b))
}
