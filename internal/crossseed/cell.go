// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import "sync"

// Cell holds one independently refreshed resource. Writers never coordinate
// across cells; the last Store wins.
type Cell[T any] struct {
	mu       sync.Mutex
	value    T
	ok       bool
	inflight int
}

// Load returns the value and whether one has been stored.
func (c *Cell[T]) Load() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.ok
}

func (c *Cell[T]) Store(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.ok = true
}

func (c *Cell[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.ok = false
}

// Begin marks a fetch as in flight.
func (c *Cell[T]) Begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight++
}

// TryBegin marks a fetch as in flight unless one already is.
func (c *Cell[T]) TryBegin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight > 0 {
		return false
	}
	c.inflight++
	return true
}

func (c *Cell[T]) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight > 0 {
		c.inflight--
	}
}

// InFlight returns the number of outstanding fetches.
func (c *Cell[T]) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight
}
