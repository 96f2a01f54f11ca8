// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/maciejonos/qbitwebui/internal/shell"
	"github.com/maciejonos/qbitwebui/pkg/webui"
)

type styles struct {
	title    lipgloss.Style
	panel    lipgloss.Style
	heading  lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	muted    lipgloss.Style
	accent   lipgloss.Style
	focused  lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	errorMsg lipgloss.Style
	badge    lipgloss.Style
	disabled lipgloss.Style
}

func newStyles(theme shell.Theme) styles {
	c := theme.Colors
	return styles{
		title: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Text)).Bold(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(c.Border)).
			Padding(0, 1),
		heading:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Muted)).Bold(true),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Muted)),
		value:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Text)),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Muted)),
		accent:   lipgloss.NewStyle().Foreground(lipgloss.Color(c.Accent)).Bold(true),
		focused:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Accent)).Bold(true),
		success:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Success)),
		warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(c.Warning)),
		errorMsg: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Error)),
		badge:    lipgloss.NewStyle().Foreground(lipgloss.Color(c.Warning)).Padding(0, 1),
		disabled: lipgloss.NewStyle().Foreground(lipgloss.Color(c.Border)),
	}
}

func (s styles) level(l webui.LogLevel) lipgloss.Style {
	switch l {
	case webui.LogLevelError:
		return s.errorMsg
	case webui.LogLevelWarn:
		return s.warning
	default:
		return s.muted
	}
}
