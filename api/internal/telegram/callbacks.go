package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	if cb.Data == cbQuizShow {
		r.clearKeyboard(cid, cb.Message.MessageID)
		r.askQuestion(cid, 0)
		return
	}
	if q, o, ok := parseQuizAnswer(cb.Data); ok {
		r.clearKeyboard(cid, cb.Message.MessageID)
		r.onQuizAnswer(cid, q, o)
	}
}

func (r *Router) askQuestion(chatID int64, idx int) {
	a, ok := lastAnalysis(chatID)
	if !ok || idx >= len(a.Quiz) {
		r.send(chatID, "クイズがありません。先に問題の写真を送ってください。")
		return
	}
	item := a.Quiz[idx]
	msg := tgbotapi.NewMessage(chatID, FormatQuestion(idx, len(a.Quiz), item))
	if len(item.Options) > 0 {
		msg.ReplyMarkup = makeAnswerKeyboard(idx, item.Options)
	}
	_, _ = r.Bot.Send(msg)
}

func (r *Router) onQuizAnswer(chatID int64, idx, option int) {
	a, ok := lastAnalysis(chatID)
	if !ok || idx >= len(a.Quiz) {
		r.send(chatID, "このクイズは期限切れです。もう一度写真を送ってください。")
		return
	}
	r.send(chatID, FormatVerdict(a.Quiz[idx], option))

	if next := idx + 1; next < len(a.Quiz) {
		r.askQuestion(chatID, next)
		return
	}
	r.send(chatID, "🎉 クイズ終了！次の問題の写真も送ってみてください。")
}

func (r *Router) clearKeyboard(chatID int64, msgID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, msgID, tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = r.Bot.Send(edit)
}
