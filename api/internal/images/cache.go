package images

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"study-booster/api/internal/util"
)

const DefaultCacheCapacity = 5

// Record — сохранённое изображение. После создания не меняется.
type Record struct {
	ID            string    `json:"id"`
	Data          string    `json:"data"`
	Size          int       `json:"size"`
	MimeType      string    `json:"mimeType"`
	CreatedAt     time.Time `json:"createdAt"`
	WasCompressed bool      `json:"compressed"`
}

// Summary — запись без полезной нагрузки, для статистики.
type Summary struct {
	ID        string    `json:"id"`
	Size      int       `json:"size"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}

type Stats struct {
	Count     int       `json:"count"`
	TotalSize int       `json:"totalSize"`
	Records   []Summary `json:"images"`
}

// Cache — ограниченное хранилище изображений с вытеснением по порядку вставки (FIFO).
//
// Внутри lru.Cache, но чтение идёт только через Peek, поэтому доступ не
// продлевает жизнь записи и самой старой всегда остаётся первая вставленная.
// Безопасен для конкурентного использования.
type Cache struct {
	lru      *lru.Cache[string, Record]
	capacity int
	now      func() time.Time
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &Cache{capacity: capacity, now: time.Now}
	l, err := lru.NewWithEvict[string, Record](capacity, func(id string, r Record) {
		slog.Debug("image released", "id", id, "size", r.Size)
	})
	if err != nil {
		// возможна только при capacity <= 0, что отсечено выше
		panic(fmt.Sprintf("images: lru init: %v", err))
	}
	c.lru = l
	return c
}

func (c *Cache) Capacity() int { return c.capacity }

// Save сохраняет data и возвращает новый id. opts != nil помечает запись как сжатую.
// Если ёмкость превышена, удаляется самая старая запись.
func (c *Cache) Save(data string, opts *Options) string {
	now := c.now()
	rec := Record{
		ID:            newID(now),
		Data:          data,
		Size:          payloadSize(data),
		MimeType:      mimeSubtype(data),
		CreatedAt:     now.UTC(),
		WasCompressed: opts != nil,
	}
	c.lru.Add(rec.ID, rec)
	return rec.ID
}

func (c *Cache) Get(id string) (Record, bool) {
	return c.lru.Peek(id)
}

func (c *Cache) Remove(id string) bool {
	return c.lru.Remove(id)
}

func (c *Cache) Clear() {
	c.lru.Purge()
}

func (c *Cache) Len() int { return c.lru.Len() }

// Stats считается на лету, от самой старой записи к самой новой.
func (c *Cache) Stats() Stats {
	st := Stats{Records: []Summary{}}
	for _, id := range c.lru.Keys() {
		r, ok := c.lru.Peek(id)
		if !ok {
			continue
		}
		st.Count++
		st.TotalSize += r.Size
		st.Records = append(st.Records, Summary{
			ID:        r.ID,
			Size:      r.Size,
			MimeType:  r.MimeType,
			CreatedAt: r.CreatedAt,
		})
	}
	return st
}

// img_<unix ms>_<9 символов случайного суффикса>
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("img_%d_%s", now.UnixMilli(), suffix)
}

// payloadSize — примерный размер декодированных байт по длине base64 с учётом '='.
func payloadSize(data string) int {
	p := util.Base64Payload(data)
	padding := 0
	switch {
	case strings.HasSuffix(p, "=="):
		padding = 2
	case strings.HasSuffix(p, "="):
		padding = 1
	}
	return int(math.Round(float64(len(p))*3/4 - float64(padding)))
}

func mimeSubtype(data string) string {
	if s := util.DataURLSubtype(data); s != "" {
		return s
	}
	return "unknown"
}
