// Package notify models the one-shot user-visible outcome of a workflow.
package notify

import "sync"

// Center is a single-slot queue for the pending user notice. Each workflow
// posts at most one terminal notice per operation; a reader that takes it
// consumes it, so re-observing never re-triggers display.
type Center struct {
	mu      sync.Mutex
	pending string
	set     bool
}

// NewCenter creates an empty notice center.
func NewCenter() *Center {
	return &Center{}
}

// Post replaces any pending notice. A notice posted before the previous one
// was taken wins; the slot holds the latest terminal outcome only.
func (c *Center) Post(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = msg
	c.set = true
}

// Take returns the pending notice and clears the slot.
func (c *Center) Take() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return "", false
	}
	msg := c.pending
	c.pending = ""
	c.set = false
	return msg, true
}
