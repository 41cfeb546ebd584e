package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"study-booster/api/internal/util"
)

// ErrBadReply — ответ модели не удалось разобрать как JSON анализа.
var ErrBadReply = errors.New("AI response parsing failed")

const (
	defaultSubject     = "数学"
	defaultTopic       = "一般問題"
	defaultDifficulty  = "中級"
	defaultQuestion    = "問題を読み取れませんでした"
	defaultAnswer      = "解析できませんでした"
	defaultExplanation = "詳細な解説を生成できませんでした"
	defaultConfidence  = 0.8
	defaultAppTitle    = "実生活での応用"
	defaultAppDesc     = "この問題で学んだ内容は、実生活の様々な場面で応用できます。"
)

// ParseReply вытаскивает JSON из текста модели (```json-блок, затем внешние {…},
// затем весь текст) и заполняет отсутствующие поля значениями по умолчанию.
func ParseReply(content string) (Analysis, error) {
	raw := util.ExtractJSON(content)
	if raw == "" {
		return Analysis{}, fmt.Errorf("%w: empty content", ErrBadReply)
	}
	// "null", массив или число декодируются без ошибки, но анализа в них нет
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return Analysis{}, fmt.Errorf("%w: reply is not a JSON object", ErrBadReply)
	}
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	applyDefaults(&a)
	return a, nil
}

func applyDefaults(a *Analysis) {
	setIfBlank(&a.Subject, defaultSubject)
	setIfBlank(&a.Topic, defaultTopic)
	setIfBlank(&a.Difficulty, defaultDifficulty)
	setIfBlank(&a.Question, defaultQuestion)
	setIfBlank(&a.Answer, defaultAnswer)
	setIfBlank(&a.Explanation, defaultExplanation)

	if a.Steps == nil {
		a.Steps = []Step{}
	}
	for i := range a.Steps {
		if a.Steps[i].Step <= 0 {
			a.Steps[i].Step = i + 1
		}
	}
	if a.RelatedConcepts == nil {
		a.RelatedConcepts = []string{}
	}
	if a.Quiz == nil {
		a.Quiz = []QuizItem{}
	}
	for i := range a.Quiz {
		if a.Quiz[i].Options == nil {
			a.Quiz[i].Options = []string{}
		}
	}

	switch {
	case a.Confidence <= 0:
		// 0 и отсутствие поля неразличимы, как и в исходном контракте
		a.Confidence = defaultConfidence
	case a.Confidence > 1:
		a.Confidence = 1
	}

	if strings.TrimSpace(a.Application.Title) == "" && strings.TrimSpace(a.Application.Description) == "" {
		a.Application = Application{Title: defaultAppTitle, Description: defaultAppDesc}
	}
}

func setIfBlank(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}
