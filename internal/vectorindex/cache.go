package vectorindex

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoizes embeddings by content hash so identical content (a repeated
// memory, a re-embedded duplicate) never round-trips to the embedder twice.
type Cache struct {
	inner *lru.Cache[string, []float64]
}

func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = 1024
	}
	inner, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

// HashKey derives the cache key for a piece of text; exported so callers can
// check presence before deciding whether to call the embedder at all.
func HashKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) Get(text string) ([]float64, bool) {
	return c.inner.Get(HashKey(text))
}

func (c *Cache) Put(text string, vec []float64) {
	c.inner.Add(HashKey(text), vec)
}
