package util

import (
	"regexp"
	"strings"
)

var reFencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSON вытаскивает JSON-объект из ответа модели:
// сначала блок ```json … ```, затем самый внешний {…}, иначе весь текст.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if m := reFencedJSON.FindStringSubmatch(s); len(m) == 2 && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// Truncate обрезает строку по рунам и добавляет многоточие.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
