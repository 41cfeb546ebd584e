package telegram

import (
	"fmt"
	"strings"

	"study-booster/api/internal/analysis"
	"study-booster/api/internal/images"
)

// FormatResult — текст ответа на фото: предмет, ответ, шаги, понятия, применение.
func FormatResult(res analysis.Result) string {
	a := res.Analysis
	var sb strings.Builder

	fmt.Fprintf(&sb, "📘 %s｜%s（難易度: %s）\n", a.Subject, a.Topic, a.Difficulty)
	if q := strings.TrimSpace(a.Question); q != "" {
		fmt.Fprintf(&sb, "\n❓ 問題\n%s\n", q)
	}
	fmt.Fprintf(&sb, "\n✅ 解答\n%s\n", a.Answer)
	if e := strings.TrimSpace(a.Explanation); e != "" {
		fmt.Fprintf(&sb, "\n💡 解説\n%s\n", e)
	}

	if len(a.Steps) > 0 {
		sb.WriteString("\n🧭 ステップ\n")
		for _, s := range a.Steps {
			fmt.Fprintf(&sb, "%d. %s\n", s.Step, s.Description)
			if s.Equation != "" {
				fmt.Fprintf(&sb, "   %s\n", s.Equation)
			}
		}
	}
	if len(a.RelatedConcepts) > 0 {
		fmt.Fprintf(&sb, "\n🔗 関連: %s\n", strings.Join(a.RelatedConcepts, "、"))
	}
	if a.Application.Title != "" || a.Application.Description != "" {
		fmt.Fprintf(&sb, "\n🌍 %s\n%s\n", a.Application.Title, a.Application.Description)
	}

	fmt.Fprintf(&sb, "\n信頼度: %d%%", int(a.Confidence*100+0.5))
	if res.Metadata.Fallback {
		sb.WriteString("\n⚠️ デモ結果です（AIに接続できませんでした）。")
	}
	return strings.TrimSpace(sb.String())
}

func FormatQuestion(idx, total int, q analysis.QuizItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 クイズ %d/%d\n%s\n", idx+1, total, q.Question)
	for i, opt := range q.Options {
		fmt.Fprintf(&sb, "\n%c. %s", 'A'+i, opt)
	}
	return sb.String()
}

// FormatVerdict — реакция на выбранный вариант.
func FormatVerdict(q analysis.QuizItem, option int) string {
	correct := q.CorrectIndex()
	var sb strings.Builder
	switch {
	case correct < 0:
		sb.WriteString("🤔 この問題の正解が判定できませんでした。")
	case option == correct:
		sb.WriteString("🎯 正解！")
	default:
		fmt.Fprintf(&sb, "❌ 不正解。正解は %c. %s", 'A'+correct, q.Options[correct])
	}
	if e := strings.TrimSpace(q.Explanation); e != "" {
		sb.WriteString("\n" + e)
	}
	return sb.String()
}

func FormatStats(st images.Stats, capacity int) string {
	if st.Count == 0 {
		return fmt.Sprintf("🗂 保存中の画像はありません（上限 %d 枚）。", capacity)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🗂 保存中の画像: %d/%d（合計 %s）\n", st.Count, capacity, humanBytes(st.TotalSize))
	for _, r := range st.Records {
		fmt.Fprintf(&sb, "• %s  %s  %s  %s\n", r.ID, r.MimeType, humanBytes(r.Size), r.CreatedAt.Format("15:04:05"))
	}
	return strings.TrimSpace(sb.String())
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
