// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeService(t *testing.T) {
	t.Run("unknown_falls_back", func(t *testing.T) {
		s := NewThemeService("solarized", nil)
		assert.Equal(t, DefaultThemeID, s.Current().ID)
	})

	t.Run("selects_case_insensitive", func(t *testing.T) {
		s := NewThemeService("NORD", nil)
		assert.Equal(t, "nord", s.Current().ID)
	})

	t.Run("notifies_on_change", func(t *testing.T) {
		s := NewThemeService("", nil)
		var seen []string
		s.OnChange(func(th Theme) { seen = append(seen, th.ID) })

		require.NoError(t, s.Set("dracula"))
		require.NoError(t, s.Set("dracula"))
		require.Error(t, s.Set("missing"))
		require.NoError(t, s.Set("default"))

		assert.Equal(t, []string{"dracula", "default"}, seen)
	})

	t.Run("themes_are_copied", func(t *testing.T) {
		s := NewThemeService("", nil)
		themes := s.Themes()
		themes[0].Name = "changed"
		assert.Equal(t, "Default", s.Themes()[0].Name)
		assert.Len(t, themes, len(BuiltinThemes))
	})
}
