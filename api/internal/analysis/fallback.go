package analysis

// FallbackModel — значение metadata.aiModel у демо-результата.
const FallbackModel = "mock-data"

// Fallback возвращает фиксированный демо-анализ (квадратное уравнение).
// Каждый вызов отдаёт новую копию, вызывающий код может её менять.
func Fallback() Analysis {
	return Analysis{
		Subject:     "数学",
		Topic:       "二次方程式",
		Difficulty:  "中級",
		Question:    "x² - 5x + 6 = 0 を解け",
		Answer:      "x = 2, 3",
		Explanation: "この二次方程式は因数分解で解くことができます。\n\nx² - 5x + 6 = 0\n(x - 2)(x - 3) = 0\n\nしたがって、x = 2 または x = 3 が解となります。",
		Steps: []Step{
			{Step: 1, Description: "二次方程式を因数分解の形に変形する", Equation: "x² - 5x + 6 = (x - 2)(x - 3)"},
			{Step: 2, Description: "因数分解した式を0とおく", Equation: "(x - 2)(x - 3) = 0"},
			{Step: 3, Description: "各因数を0とおいて解を求める", Equation: "x - 2 = 0 または x - 3 = 0"},
			{Step: 4, Description: "解を計算する", Equation: "x = 2 または x = 3"},
		},
		RelatedConcepts: []string{"因数分解", "二次方程式の解の公式", "判別式"},
		Confidence:      0.95,
		Application: Application{
			Title:       "ロケットの軌道計算への応用",
			Description: "二次方程式は、ロケットの軌道計算や衛星の軌道設計において重要な役割を果たします。実際の宇宙開発では、このような数学的計算が基盤となっています。",
		},
		Quiz: []QuizItem{
			{
				Question:    "二次方程式 x² - 7x + 12 = 0 の解は？",
				Options:     []string{"x = 3, 4", "x = 2, 5", "x = 1, 6", "x = 0, 7"},
				Correct:     "A",
				Explanation: "因数分解すると (x - 3)(x - 4) = 0 となり、x = 3, 4 が解です。",
			},
		},
	}
}
