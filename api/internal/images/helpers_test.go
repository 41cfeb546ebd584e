package images

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"study-booster/api/internal/util"
)

// newTestImage рисует простую картинку с градиентом, чтобы кодеры не вырождались.
func newTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	return img
}

func jpegBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, newTestImage(width, height), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, newTestImage(width, height)); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func dataURL(mime string, b []byte) string {
	return util.MakeDataURL(mime, base64.StdEncoding.EncodeToString(b))
}

// decodeDataURLConfig возвращает формат и размеры закодированного изображения.
func decodeDataURLConfig(t *testing.T, s string) (string, int, int) {
	t.Helper()
	if !strings.HasPrefix(s, "data:image/") {
		t.Fatalf("not an image data url: %.40s", s)
	}
	raw, _, err := util.DecodeBase64MaybeDataURL(s)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to decode image config: %v", err)
	}
	return format, cfg.Width, cfg.Height
}

// pngHeaderOnly — PNG из одного заголовка IHDR: заявляет w×h серых пикселей,
// а весит несколько десятков байт.
func pngHeaderOnly(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(typ string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		buf.WriteString(typ)
		buf.Write(data)
		crc := crc32.NewIEEE()
		crc.Write([]byte(typ))
		crc.Write(data)
		_ = binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale
	chunk("IHDR", ihdr)
	chunk("IEND", nil)
	return buf.Bytes()
}
