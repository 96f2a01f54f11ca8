// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextInstance key.Binding
	PrevInstance key.Binding
	Up           key.Binding
	Down         key.Binding
	Toggle       key.Binding
	Save         key.Binding
	Scan         key.Binding
	ForceScan    key.Binding
	Stop         key.Binding
	ClearCache   key.Binding
	AutoScroll   key.Binding
	Logs         key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		NextInstance: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next instance"),
		),
		PrevInstance: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev instance"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " ", "space"),
			key.WithHelp("enter", "toggle/edit"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Scan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "scan"),
		),
		ForceScan: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "force scan"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop"),
		),
		ClearCache: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear torrents"),
		),
		AutoScroll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "auto-scroll"),
		),
		Logs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "logs"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Scan, k.ForceScan, k.Stop, k.ClearCache, k.Logs, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextInstance, k.PrevInstance, k.Up, k.Down, k.Toggle},
		{k.Save, k.Scan, k.ForceScan, k.Stop, k.ClearCache},
		{k.AutoScroll, k.Logs, k.Help, k.Quit},
	}
}
