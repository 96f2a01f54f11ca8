// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"sync/atomic"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/maciejonos/qbitwebui/internal/crossseed"
)

// logViewport lets the session request a scroll from its own goroutines.
// The request is applied on the next render pass.
type logViewport struct {
	pending atomic.Bool
}

var _ crossseed.LogViewport = (*logViewport)(nil)

func (v *logViewport) ScrollToBottom() {
	v.pending.Store(true)
}

// apply scrolls vp if a request is pending.
func (v *logViewport) apply(vp *viewport.Model) bool {
	if !v.pending.Swap(false) {
		return false
	}
	vp.GotoBottom()
	return true
}
