package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const cbQuizShow = "quiz_show"

func makeQuizKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("📝 クイズに挑戦", cbQuizShow)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}

// Варианты ответа: по кнопке в строке, данные "quiz:<вопрос>:<вариант>".
func makeAnswerKeyboard(question int, options []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for i, opt := range options {
		label := fmt.Sprintf("%c. %s", 'A'+i, opt)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, quizAnswerData(question, i)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func quizAnswerData(question, option int) string {
	return fmt.Sprintf("quiz:%d:%d", question, option)
}

// parseQuizAnswer — обратная операция к quizAnswerData.
func parseQuizAnswer(data string) (question, option int, ok bool) {
	rest, found := strings.CutPrefix(data, "quiz:")
	if !found {
		return 0, 0, false
	}
	qs, ostr, found := strings.Cut(rest, ":")
	if !found {
		return 0, 0, false
	}
	q, err1 := strconv.Atoi(qs)
	o, err2 := strconv.Atoi(ostr)
	if err1 != nil || err2 != nil || q < 0 || o < 0 {
		return 0, 0, false
	}
	return q, o, true
}
