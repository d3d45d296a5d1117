package classifier

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedPredictor memoises predictions by normalised text.
type CachedPredictor struct {
	next  Predictor
	cache *lru.Cache[string, string]
}

// NewCachedPredictor wraps p with an LRU of size entries. A size of zero returns p unchanged.
func NewCachedPredictor(p Predictor, size int) (Predictor, error) {
	if size <= 0 {
		return p, nil
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create prediction cache: %w", err)
	}
	return &CachedPredictor{next: p, cache: cache}, nil
}

// Predict returns a cached label or asks the wrapped predictor. Errors are not cached.
func (c *CachedPredictor) Predict(text string) (string, error) {
	key := Normalize(text)
	if label, ok := c.cache.Get(key); ok {
		return label, nil
	}
	label, err := c.next.Predict(text)
	if err != nil {
		return "", err
	}
	c.cache.Add(key, label)
	return label, nil
}

// Labels returns the wrapped predictor's labels.
func (c *CachedPredictor) Labels() []string {
	return c.next.Labels()
}

// Len reports the number of cached predictions.
func (c *CachedPredictor) Len() int {
	return c.cache.Len()
}
