package images

import (
	"regexp"
	"testing"
	"time"
)

func TestCache_FIFOEviction(t *testing.T) {
	c := NewCache(3)

	first := c.Save("data:image/jpeg;base64,QUJD", nil)
	second := c.Save("data:image/jpeg;base64,QUJD", nil)
	// чтение не должно продлевать жизнь записи
	for i := 0; i < 5; i++ {
		if _, ok := c.Get(first); !ok {
			t.Fatalf("first record missing before eviction")
		}
	}
	c.Save("data:image/jpeg;base64,QUJD", nil)
	c.Save("data:image/jpeg;base64,QUJD", nil)

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if _, ok := c.Get(first); ok {
		t.Errorf("oldest record %s survived eviction", first)
	}
	if _, ok := c.Get(second); !ok {
		t.Errorf("second record %s evicted too early", second)
	}
}

func TestCache_DefaultCapacity(t *testing.T) {
	c := NewCache(0)
	if c.Capacity() != DefaultCacheCapacity {
		t.Fatalf("Capacity = %d, want %d", c.Capacity(), DefaultCacheCapacity)
	}
	for i := 0; i < DefaultCacheCapacity+3; i++ {
		c.Save("QUJD", nil)
	}
	if c.Len() != DefaultCacheCapacity {
		t.Errorf("Len = %d, want %d", c.Len(), DefaultCacheCapacity)
	}
}

func TestCache_Remove(t *testing.T) {
	c := NewCache(5)
	id := c.Save("data:image/png;base64,QUJD", nil)

	if c.Remove("img_0_missing") {
		t.Errorf("Remove of unknown id returned true")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d after no-op remove", c.Len())
	}
	if !c.Remove(id) {
		t.Fatalf("Remove(%s) = false", id)
	}
	if _, ok := c.Get(id); ok {
		t.Errorf("Get after Remove found record")
	}
	if c.Remove(id) {
		t.Errorf("second Remove returned true")
	}
}

func TestCache_RecordFields(t *testing.T) {
	c := NewCache(10)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	tests := []struct {
		name           string
		data           string
		opts           *Options
		wantSize       int
		wantMime       string
		wantCompressed bool
	}{
		{"no padding", "data:image/png;base64,QUJD", nil, 3, "png", false},
		{"one pad", "data:image/jpeg;base64,QUI=", &Options{}, 2, "jpeg", true},
		{"two pads", "data:image/webp;base64,QQ==", nil, 1, "webp", false},
		{"bare base64", "QUJDREVG", nil, 6, "unknown", false},
		{"empty", "", nil, 0, "unknown", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := c.Save(tt.data, tt.opts)
			r, ok := c.Get(id)
			if !ok {
				t.Fatalf("record %s not found", id)
			}
			if r.ID != id || r.Data != tt.data {
				t.Errorf("record mismatch: %+v", r)
			}
			if r.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", r.Size, tt.wantSize)
			}
			if r.MimeType != tt.wantMime {
				t.Errorf("MimeType = %q, want %q", r.MimeType, tt.wantMime)
			}
			if r.WasCompressed != tt.wantCompressed {
				t.Errorf("WasCompressed = %v, want %v", r.WasCompressed, tt.wantCompressed)
			}
			if !r.CreatedAt.Equal(fixed) {
				t.Errorf("CreatedAt = %v, want %v", r.CreatedAt, fixed)
			}
		})
	}
}

func TestCache_IDs(t *testing.T) {
	c := NewCache(200)
	re := regexp.MustCompile(`^img_\d+_[0-9a-f]{9}$`)
	seen := make(map[string]struct{})

	for i := 0; i < 200; i++ {
		id := c.Save("QUJD", nil)
		if !re.MatchString(id) {
			t.Fatalf("id %q has unexpected format", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestCache_Stats(t *testing.T) {
	c := NewCache(2)

	st := c.Stats()
	if st.Count != 0 || st.TotalSize != 0 || st.Records == nil {
		t.Fatalf("empty stats = %+v", st)
	}

	c.Save("data:image/png;base64,QUJD", nil)
	b := c.Save("data:image/jpeg;base64,QUJDREVG", nil)
	d := c.Save("data:image/webp;base64,QQ==", nil)

	st = c.Stats()
	if st.Count != 2 {
		t.Fatalf("Count = %d, want 2", st.Count)
	}
	if st.TotalSize != 6+1 {
		t.Errorf("TotalSize = %d, want 7", st.TotalSize)
	}
	if st.Records[0].ID != b || st.Records[1].ID != d {
		t.Errorf("records not in insertion order: %+v", st.Records)
	}

	c.Clear()
	if c.Len() != 0 || c.Stats().Count != 0 {
		t.Errorf("Clear left records behind")
	}
}
