// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package shell

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Palette holds the colors of a theme as hex strings.
type Palette struct {
	Accent     string
	Text       string
	Muted      string
	Border     string
	Background string
	Success    string
	Warning    string
	Error      string
}

type Theme struct {
	ID     string
	Name   string
	Colors Palette
}

const DefaultThemeID = "default"

// BuiltinThemes are the themes shipped with the console.
var BuiltinThemes = []Theme{
	{
		ID:   DefaultThemeID,
		Name: "Default",
		Colors: Palette{
			Accent: "#00d4aa", Text: "#e4e4e7", Muted: "#71717a", Border: "#27272a",
			Background: "#09090b", Success: "#22c55e", Warning: "#eab308", Error: "#ef4444",
		},
	},
	{
		ID:   "nord",
		Name: "Nord",
		Colors: Palette{
			Accent: "#88c0d0", Text: "#eceff4", Muted: "#7b88a1", Border: "#3b4252",
			Background: "#2e3440", Success: "#a3be8c", Warning: "#ebcb8b", Error: "#bf616a",
		},
	},
	{
		ID:   "dracula",
		Name: "Dracula",
		Colors: Palette{
			Accent: "#bd93f9", Text: "#f8f8f2", Muted: "#6272a4", Border: "#44475a",
			Background: "#282a36", Success: "#50fa7b", Warning: "#f1fa8c", Error: "#ff5555",
		},
	},
	{
		ID:   "catppuccin",
		Name: "Catppuccin Mocha",
		Colors: Palette{
			Accent: "#cba6f7", Text: "#cdd6f4", Muted: "#7f849c", Border: "#313244",
			Background: "#1e1e2e", Success: "#a6e3a1", Warning: "#f9e2af", Error: "#f38ba8",
		},
	},
	{
		ID:   "gruvbox",
		Name: "Gruvbox",
		Colors: Palette{
			Accent: "#fe8019", Text: "#ebdbb2", Muted: "#928374", Border: "#3c3836",
			Background: "#282828", Success: "#b8bb26", Warning: "#fabd2f", Error: "#fb4934",
		},
	},
}

// ThemeService tracks the active theme and tells listeners when it changes.
type ThemeService struct {
	mu        sync.RWMutex
	themes    []Theme
	current   Theme
	listeners []func(Theme)
	logger    zerolog.Logger
}

// NewThemeService selects themeID, falling back to the default theme when
// it is unknown.
func NewThemeService(themeID string, logger *zerolog.Logger) *ThemeService {
	base := log.Logger
	if logger != nil {
		base = *logger
	}
	s := &ThemeService{
		themes: append([]Theme(nil), BuiltinThemes...),
		logger: base.With().Str("module", "theme").Logger(),
	}
	s.current = s.themes[0]
	if themeID != "" {
		if err := s.Set(themeID); err != nil {
			s.logger.Warn().Err(err).Msg("falling back to default theme")
		}
	}
	return s
}

func (s *ThemeService) Themes() []Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Theme(nil), s.themes...)
}

func (s *ThemeService) Current() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Set switches to the theme with the given id (case-insensitive).
func (s *ThemeService) Set(id string) error {
	s.mu.Lock()
	var (
		next  Theme
		found bool
	)
	for _, t := range s.themes {
		if strings.EqualFold(t.ID, id) {
			next, found = t, true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("unknown theme %q", id)
	}
	changed := next.ID != s.current.ID
	s.current = next
	listeners := append(([]func(Theme))(nil), s.listeners...)
	s.mu.Unlock()

	if changed {
		s.logger.Debug().Str("theme", next.ID).Msg("theme changed")
		for _, fn := range listeners {
			fn(next)
		}
	}
	return nil
}

// OnChange registers fn to run after the active theme changes.
func (s *ThemeService) OnChange(fn func(Theme)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}
