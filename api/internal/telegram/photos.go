package telegram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-booster/api/internal/apperr"
	"study-booster/api/internal/images"
	"study-booster/api/internal/util"
)

var httpc = &http.Client{Timeout: 60 * time.Second}

func (r *Router) acceptPhoto(ctx context.Context, msg tgbotapi.Message) {
	cid := msg.Chat.ID
	ph := msg.Photo[len(msg.Photo)-1]
	// Telegram пережимает фото в JPEG
	if res := r.Pipeline.Validator.Validate(int64(ph.FileSize), "image/jpeg"); !res.Valid {
		r.send(cid, "⚠️ "+res.Error)
		return
	}
	imgBytes, err := r.fetch(ctx, ph.FileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}

	key := fmt.Sprintf("chat:%d", cid)
	if msg.MediaGroupID != "" {
		key = "grp:" + msg.MediaGroupID
	}

	var first bool
	for {
		bi, _ := batches.LoadOrStore(key, &photoBatch{
			ChatID: cid, Key: key, MediaGroupID: msg.MediaGroupID, images: make([][]byte, 0, 4),
		})
		b := bi.(*photoBatch)

		b.mu.Lock()
		if b.closed {
			// партию уже забрали: убираем её из карты и заводим новую
			b.mu.Unlock()
			batches.CompareAndDelete(key, b)
			continue
		}
		b.images = append(b.images, imgBytes)
		first = len(b.images) == 1
		if b.timer != nil {
			b.timer.Stop()
		}
		b.timer = time.AfterFunc(debounce, func() { r.processBatch(ctx, b) })
		b.mu.Unlock()
		break
	}

	if first {
		r.send(cid, "📷 写真を受け取りました。複数ページの場合は続けて送ってください。")
	}
}

// acceptDocument — изображение, отправленное файлом (без пережатия Telegram).
func (r *Router) acceptDocument(ctx context.Context, msg tgbotapi.Message) {
	cid := msg.Chat.ID
	doc := msg.Document
	if res := r.Pipeline.Validator.Validate(int64(doc.FileSize), doc.MimeType); !res.Valid {
		r.send(cid, "⚠️ "+res.Error)
		return
	}
	data, err := r.fetch(ctx, doc.FileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.runAnalysis(ctx, cid, data, doc.MimeType, doc.FileName)
}

func (r *Router) processBatch(ctx context.Context, b *photoBatch) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	pages := append([][]byte(nil), b.images...)
	chatID, key := b.ChatID, b.Key
	batches.CompareAndDelete(key, b)
	b.mu.Unlock()

	if len(pages) == 0 {
		return
	}

	merged, err := combineAsOne(pages)
	if err != nil {
		r.SendError(chatID, apperr.Wrap(apperr.ImageProcessingFailed, fmt.Errorf("merge pages: %w", err)))
		return
	}
	r.runAnalysis(ctx, chatID, merged, "image/jpeg", key)
}

// runAnalysis: конвейер изображений → анализ выбранным движком → ответ с кнопкой викторины.
func (r *Router) runAnalysis(ctx context.Context, chatID int64, data []byte, mime, name string) {
	if !r.allow(chatID) {
		return
	}
	r.send(chatID, "🔍 解析しています…")

	rec, err := r.Pipeline.Optimize(ctx, images.Upload{
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mime,
		Body:     bytes.NewReader(data),
	})
	if err != nil {
		r.SendError(chatID, err)
		return
	}

	res, err := r.Analyzer.AnalyzeWith(ctx, r.EngManager.Get(chatID), rec.Data)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	rememberAnalysis(chatID, res.Analysis)

	out := tgbotapi.NewMessage(chatID, util.Truncate(FormatResult(res), maxMessageRunes))
	if len(res.Analysis.Quiz) > 0 {
		out.ReplyMarkup = makeQuizKeyboard()
	}
	if _, err := r.Bot.Send(out); err != nil {
		r.SendError(chatID, apperr.Wrap(apperr.NetworkError, err))
	}
}

func (r *Router) fetch(ctx context.Context, fileID string) ([]byte, error) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, apperr.Wrap(apperr.NetworkError, err)
	}
	limit := r.Pipeline.Validator.MaxSize
	return download(ctx, url, limit)
}

func download(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.NetworkError, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, apperr.New(apperr.NetworkError, fmt.Sprintf("download status %d: %s", resp.StatusCode, string(b)))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.NetworkError, err)
	}
	if int64(len(b)) > limit {
		return nil, apperr.New(apperr.ImageTooLarge, "downloaded file exceeds limit")
	}
	return b, nil
}

// combineAsOne склеивает страницы по вертикали на белом фоне (по центру) и
// при необходимости уменьшает результат до maxPixels. Одна страница возвращается как есть.
func combineAsOne(pages [][]byte) ([]byte, error) {
	if len(pages) == 1 {
		return pages[0], nil
	}

	decoded := make([]image.Image, 0, len(pages))
	maxW, sumH := 0, 0
	for _, b := range pages {
		img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
		maxW = max(maxW, img.Bounds().Dx())
		sumH += img.Bounds().Dy()
	}
	if maxW == 0 || sumH == 0 {
		return nil, fmt.Errorf("empty images")
	}

	dst := imaging.New(maxW, sumH, color.White)
	y := 0
	for _, img := range decoded {
		w := img.Bounds().Dx()
		dst = imaging.Paste(dst, img, image.Pt((maxW-w)/2, y))
		y += img.Bounds().Dy()
	}

	var final image.Image = dst
	if total := maxW * sumH; total > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(total))
		newW := max(1, int(float64(maxW)*scale+0.5))
		newH := max(1, int(float64(sumH)*scale+0.5))
		final = imaging.Resize(dst, newW, newH, imaging.Box)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, final, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
