package telegram

import (
	"sync"
	"time"

	"study-booster/api/internal/analysis"
)

const (
	debounce  = 1200 * time.Millisecond
	maxPixels = 18_000_000
)

type photoBatch struct {
	ChatID       int64
	Key          string // "grp:<mediaGroupID>" | "chat:<chatID>"
	MediaGroupID string

	mu     sync.Mutex
	images [][]byte
	timer  *time.Timer
	closed bool // уже забран processBatch, новые фото сюда не добавляются
}

var (
	batches     sync.Map // key -> *photoBatch
	lastResults sync.Map // chatID -> analysis.Analysis
)

func rememberAnalysis(chatID int64, a analysis.Analysis) { lastResults.Store(chatID, a) }

func lastAnalysis(chatID int64) (analysis.Analysis, bool) {
	v, ok := lastResults.Load(chatID)
	if !ok {
		return analysis.Analysis{}, false
	}
	return v.(analysis.Analysis), true
}
