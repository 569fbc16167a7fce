package palette

import "sync"

type key struct {
	n    int
	rule Rule
}

// Cache hands out shared palettes so that runs with the same settings do
// not rebuild them. It is safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	palettes map[key]*Palette
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{
		palettes: make(map[key]*Palette),
	}
}

// Get returns the palette for n levels and rule, building it on first use
func (c *Cache) Get(n int, rule Rule) (*Palette, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key{n, rule}
	if p, ok := c.palettes[k]; ok {
		return p, nil
	}

	p, err := New(n, rule)
	if err != nil {
		return nil, err
	}
	c.palettes[k] = p

	return p, nil
}
