package analysis

import (
	"errors"
	"testing"
)

func TestParseReply_Fenced(t *testing.T) {
	content := "Here is the result:\n```json\n{\"subject\":\"物理\",\"topic\":\"力学\",\"difficulty\":\"上級\",\"question\":\"q\",\"answer\":\"a\",\"explanation\":\"e\",\"confidence\":0.9}\n```\nThanks"

	a, err := ParseReply(content)
	if err != nil {
		t.Fatalf("ParseReply failed: %v", err)
	}
	if a.Subject != "物理" || a.Topic != "力学" || a.Difficulty != "上級" {
		t.Errorf("unexpected header fields: %+v", a)
	}
	if a.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", a.Confidence)
	}
}

func TestParseReply_BareObjectWithProse(t *testing.T) {
	content := `分析結果です: {"subject":"英語","steps":[{"description":"主語を探す"},{"step":7,"description":"動詞"}],"quiz":[{"question":"?","options":["a","b","c","d"],"correct":"B"}]} 以上`

	a, err := ParseReply(content)
	if err != nil {
		t.Fatalf("ParseReply failed: %v", err)
	}
	if a.Subject != "英語" {
		t.Errorf("Subject = %q", a.Subject)
	}
	if len(a.Steps) != 2 || a.Steps[0].Step != 1 || a.Steps[1].Step != 7 {
		t.Errorf("steps numbering = %+v", a.Steps)
	}
	if len(a.Quiz) != 1 || a.Quiz[0].CorrectIndex() != 1 {
		t.Errorf("quiz = %+v", a.Quiz)
	}
}

func TestParseReply_Defaults(t *testing.T) {
	a, err := ParseReply(`{}`)
	if err != nil {
		t.Fatalf("ParseReply failed: %v", err)
	}
	checks := map[string][2]string{
		"subject":     {a.Subject, "数学"},
		"topic":       {a.Topic, "一般問題"},
		"difficulty":  {a.Difficulty, "中級"},
		"question":    {a.Question, "問題を読み取れませんでした"},
		"answer":      {a.Answer, "解析できませんでした"},
		"explanation": {a.Explanation, "詳細な解説を生成できませんでした"},
		"app title":   {a.Application.Title, "実生活での応用"},
		"app desc":    {a.Application.Description, "この問題で学んだ内容は、実生活の様々な場面で応用できます。"},
	}
	for name, c := range checks {
		if c[0] != c[1] {
			t.Errorf("%s = %q, want %q", name, c[0], c[1])
		}
	}
	if a.Confidence != 0.8 {
		t.Errorf("Confidence = %v, want 0.8", a.Confidence)
	}
	if a.Steps == nil || a.RelatedConcepts == nil || a.Quiz == nil {
		t.Errorf("collections must be empty, not nil: %+v", a)
	}
}

func TestParseReply_ConfidenceClamp(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`{"confidence": 1.7}`, 1},
		{`{"confidence": -0.2}`, 0.8},
		{`{"confidence": 0}`, 0.8},
		{`{"confidence": 0.42}`, 0.42},
	}
	for _, tt := range tests {
		a, err := ParseReply(tt.in)
		if err != nil {
			t.Fatalf("ParseReply(%s) failed: %v", tt.in, err)
		}
		if a.Confidence != tt.want {
			t.Errorf("ParseReply(%s).Confidence = %v, want %v", tt.in, a.Confidence, tt.want)
		}
	}
}

func TestParseReply_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "申し訳ありませんが、画像を読み取れません。", `{"subject": }`, `{"steps": "one"}`,
		"null", "```json\nnull\n```", "[1, 2]", "42"} {
		if _, err := ParseReply(in); !errors.Is(err, ErrBadReply) {
			t.Errorf("ParseReply(%q) error = %v, want ErrBadReply", in, err)
		}
	}
}

func TestFallback(t *testing.T) {
	a := Fallback()
	if a.Subject != "数学" || a.Topic != "二次方程式" || a.Answer != "x = 2, 3" {
		t.Errorf("unexpected fallback header: %+v", a)
	}
	if len(a.Steps) != 4 || len(a.RelatedConcepts) != 3 || len(a.Quiz) != 1 {
		t.Errorf("fallback collections: steps=%d concepts=%d quiz=%d", len(a.Steps), len(a.RelatedConcepts), len(a.Quiz))
	}
	if a.Quiz[0].CorrectIndex() != 0 || len(a.Quiz[0].Options) != 4 {
		t.Errorf("fallback quiz = %+v", a.Quiz[0])
	}

	// копии независимы
	a.Steps[0].Description = "changed"
	if Fallback().Steps[0].Description == "changed" {
		t.Error("Fallback shares state between calls")
	}
}

func TestQuizItem_CorrectIndex(t *testing.T) {
	q := QuizItem{Options: []string{"a", "b", "c", "d"}}
	for in, want := range map[string]int{"A": 0, "d": 3, "E": -1, "": -1, "C) 12": 2} {
		q.Correct = in
		if got := q.CorrectIndex(); got != want {
			t.Errorf("CorrectIndex(%q) = %d, want %d", in, got, want)
		}
	}
}
