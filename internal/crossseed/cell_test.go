// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell(t *testing.T) {
	var c Cell[int]

	_, ok := c.Load()
	assert.False(t, ok)

	c.Store(0)
	v, ok := c.Load()
	assert.True(t, ok, "a stored zero value is still loaded")
	assert.Equal(t, 0, v)

	assert.True(t, c.TryBegin())
	assert.False(t, c.TryBegin())
	c.Begin()
	assert.Equal(t, 2, c.InFlight())
	c.End()
	c.End()
	c.End()
	assert.Equal(t, 0, c.InFlight())

	c.Reset()
	_, ok = c.Load()
	assert.False(t, ok)
}
