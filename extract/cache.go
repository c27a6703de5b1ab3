package extract

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/teranos/buildamp/errors"
	"github.com/teranos/buildamp/model/syntax"
)

// DefaultCacheSize bounds the number of parsed files kept between runs.
const DefaultCacheSize = 512

// Cache memoizes parse results by path and content hash.
// Watch mode keeps one Cache for the life of the process.
type Cache struct {
	files *lru.Cache[string, *syntax.File]
}

// NewCache creates a cache holding up to size parsed files.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	files, err := lru.New[string, *syntax.File](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create parse cache")
	}
	return &Cache{files: files}, nil
}

// Parse returns the cached parse for (path, src) or parses and stores it.
func (c *Cache) Parse(path string, src []byte) *syntax.File {
	key := cacheKey(path, src)
	if f, ok := c.files.Get(key); ok {
		return f
	}
	f := syntax.Parse(path, string(src))
	c.files.Add(key, f)
	return f
}

// Len reports how many parsed files are cached.
func (c *Cache) Len() int {
	return c.files.Len()
}

func cacheKey(path string, src []byte) string {
	sum := sha256.Sum256(src)
	return path + "@" + hex.EncodeToString(sum[:])
}
