package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-booster/api/internal/analysis"
	"study-booster/api/internal/analysis/gemini"
	"study-booster/api/internal/analysis/openai"
	"study-booster/api/internal/apperr"
	"study-booster/api/internal/images"
	"study-booster/api/internal/ratelimit"
	"study-booster/api/internal/util"
)

// лимит Telegram 4096 символов, оставляем запас под разметку
const maxMessageRunes = 3900

// Bot — часть *tgbotapi.BotAPI, которой пользуется роутер.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot        Bot
	EngManager *analysis.Manager
	Engines    *analysis.Engines
	Pipeline   *images.Pipeline
	Analyzer   *analysis.Analyzer
	Limiter    *ratelimit.Limiter
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// callback-кнопки
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message

	if msg.IsCommand() {
		r.HandleCommand(msg)
		return
	}
	if len(msg.Photo) > 0 {
		r.acceptPhoto(ctx, *msg)
		return
	}
	if msg.Document != nil {
		r.acceptDocument(ctx, *msg)
		return
	}
	if strings.TrimSpace(msg.Text) != "" {
		r.send(msg.Chat.ID, "問題の写真を送ってください。/start で使い方を表示します。")
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		r.send(cid, startText)
	case "health":
		e := r.EngManager.Get(cid)
		status := "✅ OK: " + e.Name() + " (" + e.GetModel() + ")"
		if !e.Configured() {
			status += "\n⚠️ APIキー未設定のため、デモ結果を返します。"
		}
		r.send(cid, status)
	case "engine":
		r.handleEngineCommand(cid, msg.CommandArguments())
	case "stats":
		r.send(cid, FormatStats(r.Pipeline.Cache.Stats(), r.Pipeline.Cache.Capacity()))
	case "clear":
		r.Pipeline.Cache.Clear()
		lastResults.Delete(cid)
		r.send(cid, "🧹 保存された画像を削除しました。")
	default:
		r.send(cid, "不明なコマンドです。/start で使い方を表示します。")
	}
}

const startText = `📚 StudyBooster
問題の写真を送ると、科目・解答・ステップごとの解説・関連クイズを返します。
複数ページの問題は続けて送ってください。1枚にまとめて解析します。

コマンド:
/engine — 解析エンジンの確認・切替 (gpt | gemini [model])
/stats — 保存中の画像
/clear — 画像を削除
/health — 状態確認`

// handleEngineCommand переключает движок чата.
// Форматы:
//
//	/engine
//	/engine gpt [model]
//	/engine gemini [model]
func (r *Router) handleEngineCommand(chatID int64, args string) {
	name, model := ParseEngineArgs(args)
	if name == "" {
		cur := r.EngManager.Get(chatID)
		r.send(chatID, "現在のエンジン: "+cur.Name()+" ("+cur.GetModel()+")\n使い方:\n/engine gpt [model]\n/engine gemini [model]")
		return
	}

	eng, err := r.Engines.GetEngine(name)
	if err != nil {
		r.send(chatID, "不明なエンジンです。利用可能: "+strings.Join(r.Engines.Names(), " | "))
		return
	}
	if model != "" {
		// копия с другой моделью, общий экземпляр не трогаем
		switch e := eng.(type) {
		case *openai.Engine:
			eng = e.WithModel(model)
		case *gemini.Engine:
			eng = e.WithModel(model)
		}
	}
	r.EngManager.Set(chatID, eng)

	text := "✅ エンジン: " + eng.Name() + " (" + eng.GetModel() + ")"
	if !eng.Configured() {
		text += "\n⚠️ APIキーが設定されていないため、デモ結果になります。"
	}
	r.send(chatID, text)
}

// ParseEngineArgs разбирает "gpt gpt-4o-mini" → ("gpt", "gpt-4o-mini").
func ParseEngineArgs(args string) (name, model string) {
	f := strings.Fields(args)
	if len(f) == 0 {
		return "", ""
	}
	name = strings.ToLower(f[0])
	if len(f) > 1 {
		model = f[1]
	}
	return name, model
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, util.Truncate(text, maxMessageRunes))
	if _, err := r.Bot.Send(msg); err != nil {
		slog.Warn("telegram send failed", "chat_id", chatID, "err", err)
	}
}

// SendError показывает пользователю текст из таксономии ошибок.
func (r *Router) SendError(chatID int64, err error) {
	ae := apperr.From(err)
	slog.Error("telegram request failed", "chat_id", chatID, "code", ae.Code, "err", err)
	text := "⚠️ " + ae.UserMessage
	if ae.Retryable() {
		text += "\nもう一度写真を送ってください。"
	}
	r.send(chatID, text)
}

func (r *Router) allow(chatID int64) bool {
	if r.Limiter.Allow(fmt.Sprintf("chat:%d", chatID)) {
		return true
	}
	r.SendError(chatID, apperr.New(apperr.APIRateLimit, "chat rate limited"))
	return false
}
