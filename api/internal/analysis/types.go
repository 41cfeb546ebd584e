package analysis

// Result — ответ анализа для клиентов. Success всегда true: сбои движка
// маскируются демо-результатом (кроме строгого режима).
type Result struct {
	Success  bool     `json:"success"`
	Analysis Analysis `json:"analysis"`
	Metadata Metadata `json:"metadata"`
}

type Analysis struct {
	Subject         string      `json:"subject"`
	Topic           string      `json:"topic"`
	Difficulty      string      `json:"difficulty"`
	Question        string      `json:"question"`
	Answer          string      `json:"answer"`
	Explanation     string      `json:"explanation"`
	Steps           []Step      `json:"steps"`
	RelatedConcepts []string    `json:"relatedConcepts"`
	Confidence      float64     `json:"confidence"`
	Application     Application `json:"application"`
	Quiz            []QuizItem  `json:"quiz"`
}

type Step struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
	Equation    string `json:"equation,omitempty"`
}

type Application struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// QuizItem — вопрос с четырьмя вариантами; Correct — буква A..D.
type QuizItem struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     string   `json:"correct"`
	Explanation string   `json:"explanation"`
}

// CorrectIndex переводит букву ответа в индекс варианта, -1 если буква не распознана.
func (q QuizItem) CorrectIndex() int {
	if len(q.Correct) == 0 {
		return -1
	}
	c := q.Correct[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	i := int(c - 'A')
	if i < 0 || i >= len(q.Options) {
		return -1
	}
	return i
}

type Metadata struct {
	ProcessingTime int64  `json:"processingTime"` // ms
	Timestamp      string `json:"timestamp"`      // RFC 3339
	ImageSize      int    `json:"imageSize"`
	AIModel        string `json:"aiModel"`
	Fallback       bool   `json:"fallback,omitempty"`
}
