package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/casepedia/internal/model"
	appErr "github.com/xxxsen/casepedia/internal/pkg/errors"
)

// ResponseCache memoizes finished pipeline responses. Entries expire on TTL
// and the oldest entries are evicted once capacity is reached.
type ResponseCache struct {
	store *lru.LRU[string, []byte]

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	errs   atomic.Int64
}

type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
	Size   int   `json:"size"`
}

func NewResponseCache(capacity int, ttl time.Duration) *ResponseCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &ResponseCache{
		store: lru.NewLRU[string, []byte](capacity, nil, ttl),
	}
}

// Key derives a stable cache key from the normalized query and every request
// parameter that changes the answer, the category filter included. Two
// requests differing only in whitespace or letter case share an entry.
func Key(query string, topK int, accuracy string, category string, includeGenerative bool) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(query))), " ")
	payload := fmt.Sprintf("q=%s&k=%d&acc=%s&cat=%s&gen=%t",
		normalized, topK, strings.ToLower(strings.TrimSpace(accuracy)), category, includeGenerative)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func (c *ResponseCache) Get(key string) (*model.StageResponse, bool) {
	data, ok := c.store.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	resp := &model.StageResponse{}
	if err := json.Unmarshal(data, resp); err != nil {
		c.errs.Add(1)
		c.store.Remove(key)
		return nil, false
	}
	c.hits.Add(1)
	return resp, true
}

func (c *ResponseCache) Put(key string, resp *model.StageResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		c.errs.Add(1)
		return fmt.Errorf("%w: encode response: %v", appErr.ErrCache, err)
	}
	c.store.Add(key, data)
	c.sets.Add(1)
	return nil
}

func (c *ResponseCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
		Errors: c.errs.Load(),
		Size:   c.store.Len(),
	}
}
