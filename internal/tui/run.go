// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tui is the terminal console for the cross-seed control surface.
package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/maciejonos/qbitwebui/internal/shell"
)

// Run starts the session and blocks until the user quits or ctx is done.
// The session is stopped on return.
func Run(ctx context.Context, opts Options) error {
	if err := opts.Session.Start(ctx); err != nil {
		return err
	}
	defer opts.Session.Stop()

	m := NewModel(ctx, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.themes.OnChange(func(t shell.Theme) {
		p.Send(themeChangedMsg{theme: t})
	})

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
