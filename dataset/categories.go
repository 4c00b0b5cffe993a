package dataset

import (
	"sync"
)

// Categories is the dataset-wide registry mapping class names to
// stable integer label ids. Ids are assigned in first-seen order, so
// importing the same files in the same order reproduces identical ids.
// All methods are safe for concurrent use; GetOrAdd is the single
// mutation point.
type Categories struct {
	mu    sync.RWMutex
	ids   map[string]int
	names []string
}

// NewCategories creates an empty category registry.
func NewCategories() *Categories {
	return &Categories{ids: make(map[string]int)}
}

// GetOrAdd returns the label id for name, assigning the next id if the
// name has not been seen before.
func (c *Categories) GetOrAdd(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.ids[name]; ok {
		return id
	}
	id := len(c.names)
	c.ids[name] = id
	c.names = append(c.names, name)
	return id
}

// ID returns the label id for name, if registered.
func (c *Categories) ID(name string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.ids[name]
	return id, ok
}

// Name returns the class name for a label id, if registered.
func (c *Categories) Name(id int) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if id < 0 || id >= len(c.names) {
		return "", false
	}
	return c.names[id], true
}

// Names returns all class names in id order.
func (c *Categories) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of registered categories.
func (c *Categories) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}
