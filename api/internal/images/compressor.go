package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decoder

	"study-booster/api/internal/util"
)

const (
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1080
	DefaultQuality   = 0.8
	DefaultFormat    = "jpeg"
	// 50 Мп: снимки телефонов проходят, «PNG-бомбы» 16000×16000 — нет
	DefaultMaxPixels = 50_000_000
)

// ErrDecode — исходные данные не являются изображением поддерживаемого формата.
var ErrDecode = errors.New("画像の読み込みに失敗しました。")

// Options — параметры сжатия; нулевые значения означают значения по умолчанию.
type Options struct {
	MaxWidth  int     `json:"maxWidth,omitempty"`
	MaxHeight int     `json:"maxHeight,omitempty"`
	Quality   float64 `json:"quality,omitempty"` // 0..1
	Format    string  `json:"format,omitempty"`  // jpeg | png | webp
	// Предел заявленных в заголовке пикселей (w*h), проверяется до декодирования
	MaxPixels int `json:"maxPixels,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	switch o.Format {
	case "jpg":
		o.Format = "jpeg"
	case "jpeg", "png", "webp":
	default:
		o.Format = DefaultFormat
	}
	return o
}

// ScaleDimensions вписывает w×h в maxW×maxH с сохранением пропорций.
// Только уменьшение: если обе стороны в пределах, размеры не меняются.
func ScaleDimensions(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return w, h
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * ratio))
	nh := int(math.Round(float64(h) * ratio))
	nw = max(1, min(nw, maxW))
	nh = max(1, min(nh, maxH))
	return nw, nh
}

// Compress декодирует data:URI (или голый base64), уменьшает до границ и
// перекодирует в нужный формат. Результат — новый data:URI.
func Compress(ctx context.Context, data string, opt Options) (string, error) {
	opt = opt.withDefaults()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, _, err := util.DecodeBase64MaybeDataURL(data)
	if err != nil {
		return "", fmt.Errorf("%w: bad base64: %v", ErrDecode, err)
	}
	// размеры из заголовка: маленький файл может заявить гигантское полотно
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > int64(opt.MaxPixels) {
		return "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, opt.MaxPixels)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := src.Bounds()
	nw, nh := ScaleDimensions(b.Dx(), b.Dy(), opt.MaxWidth, opt.MaxHeight)
	var out image.Image = src
	if nw != b.Dx() || nh != b.Dy() {
		out = imaging.Resize(src, nw, nh, imaging.Lanczos)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	buf, err := encode(out, opt)
	if err != nil {
		return "", err
	}
	return util.MakeDataURL("image/"+opt.Format, base64.StdEncoding.EncodeToString(buf)), nil
}

func encode(img image.Image, opt Options) ([]byte, error) {
	var buf bytes.Buffer
	q := int(math.Round(opt.Quality * 100))
	q = max(1, min(q, 100))

	switch opt.Format {
	case "png":
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		if opt.Quality < 0.5 {
			enc.CompressionLevel = png.BestCompression
		}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "webp":
		if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: float32(q)}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	default:
		// JPEG без альфы: прозрачное кладём на белый фон
		b := img.Bounds()
		flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)
		if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: q}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	}
	return buf.Bytes(), nil
}
