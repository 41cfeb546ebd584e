package analysis

import (
	"fmt"
	"os"
	"strings"
)

// DefaultPrompt — инструкция для модели и JSON-схема ответа.
const DefaultPrompt = `
あなたは優秀な数学・理科・英語の家庭教師です。画像に写っている問題を分析し、以下の形式でJSONを返してください。

{
  "subject": "科目名（数学、物理、化学、生物、英語など）",
  "topic": "具体的なトピック（例：二次方程式、力学、有機化学など）",
  "difficulty": "難易度（初級、中級、上級）",
  "question": "問題文を正確に抽出",
  "answer": "最終的な答え",
  "explanation": "詳細な解説（段階的に説明）",
  "steps": [
    {
      "step": 1,
      "description": "ステップの説明",
      "equation": "数式や計算過程"
    }
  ],
  "relatedConcepts": ["関連する概念1", "関連する概念2"],
  "confidence": 0.95,
  "application": {
    "title": "実生活での応用例のタイトル",
    "description": "応用例の詳細説明"
  },
  "quiz": [
    {
      "question": "関連するクイズ問題",
      "options": ["選択肢A", "選択肢B", "選択肢C", "選択肢D"],
      "correct": "A",
      "explanation": "正解の理由"
    }
  ]
}

注意事項：
- 画像が数学問題の場合は、計算過程を詳しく説明してください
- 画像が理科問題の場合は、物理法則や化学反応を説明してください
- 画像が英語問題の場合は、文法や語彙を説明してください
- 必ずJSON形式で返してください
- 日本語で回答してください
`

// LoadPrompt читает промпт из файла; пустой путь — встроенный DefaultPrompt.
// Пустой файл считается ошибкой, чтобы не отправить модели пустую инструкцию.
func LoadPrompt(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultPrompt, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", path, err)
	}
	p := strings.TrimSpace(string(b))
	if p == "" {
		return "", fmt.Errorf("prompt %q is empty", path)
	}
	return p, nil
}
