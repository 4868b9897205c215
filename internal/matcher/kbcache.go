package matcher

import "github.com/hk-bmi/ontoemma/models"

// kbCache is a small LRU of loaded knowledge bases keyed by KB name. The
// training loop walks KB pairs in roster order, so consecutive pairs often
// reuse a side; a capacity of one per side avoids redundant loads without
// holding every KB in memory.
type kbCache struct {
	capacity int
	loader   func(name string) (*models.KnowledgeBase, error)
	order    []string
	items    map[string]*models.KnowledgeBase
}

func newKBCache(capacity int, loader func(name string) (*models.KnowledgeBase, error)) *kbCache {
	return &kbCache{
		capacity: capacity,
		loader:   loader,
		items:    make(map[string]*models.KnowledgeBase, capacity),
	}
}

// Get returns the cached KB or loads and caches it, evicting the least
// recently used entry when over capacity.
func (c *kbCache) Get(name string) (*models.KnowledgeBase, error) {
	if kb, ok := c.items[name]; ok {
		c.touch(name)
		return kb, nil
	}
	kb, err := c.loader(name)
	if err != nil {
		return nil, err
	}
	c.items[name] = kb
	c.order = append(c.order, name)
	for len(c.order) > c.capacity {
		evicted := c.order[0]
		c.order = c.order[1:]
		delete(c.items, evicted)
	}
	return kb, nil
}

func (c *kbCache) touch(name string) {
	for i, n := range c.order {
		if n == name {
			c.order = append(append(c.order[:i:i], c.order[i+1:]...), name)
			return
		}
	}
}
