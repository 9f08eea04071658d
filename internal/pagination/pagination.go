// Package pagination tracks how many filtered results are materialized for
// display.
package pagination

import "sync"

const DefaultPageSize = 12

// Controller grows the visible window one page at a time. The window goes
// back to a single page whenever the filtered results change.
type Controller struct {
	pageSize int

	mu      sync.Mutex
	visible int
}

// New returns a controller showing one page. Non-positive sizes fall back to
// DefaultPageSize.
func New(pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller{pageSize: pageSize, visible: pageSize}
}

func (c *Controller) PageSize() int {
	return c.pageSize
}

func (c *Controller) Visible() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Slice returns the leading window of results. The returned slice shares the
// backing array of results.
func Slice[T any](c *Controller, results []T) []T {
	n := c.Visible()
	if n > len(results) {
		n = len(results)
	}
	return results[:n]
}

// Advance grows the window by one page and returns the new size.
func (c *Controller) Advance() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible += c.pageSize
	return c.visible
}

func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = c.pageSize
}

func (c *Controller) HasMore(total int) bool {
	return c.Visible() < total
}
