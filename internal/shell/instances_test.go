// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package shell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

var sampleInstances = []webui.Instance{
	{ID: 1, Label: "seedbox"},
	{ID: 2, Label: "home"},
	{ID: 7, Label: "seedbox-eu"},
}

func TestInstanceSelectorResolve(t *testing.T) {
	sel := NewInstanceSelector(sampleInstances)

	tests := []struct {
		ref    string
		wantID int
	}{
		{ref: "", wantID: 1},
		{ref: "2", wantID: 2},
		{ref: "7", wantID: 7},
		{ref: "HOME", wantID: 2},
		{ref: " seedbox-eu ", wantID: 7},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			in, err := sel.Resolve(tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, in.ID)
		})
	}
}

func TestInstanceSelectorSuggestions(t *testing.T) {
	sel := NewInstanceSelector(sampleInstances)

	_, err := sel.Resolve("sdbx")
	require.Error(t, err)

	var notFound *InstanceNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.ElementsMatch(t, []string{"seedbox", "seedbox-eu"}, notFound.Suggestions)
	assert.Contains(t, err.Error(), "did you mean")

	_, err = sel.Resolve("99")
	require.True(t, errors.As(err, &notFound))
	assert.Empty(t, notFound.Suggestions)

	_, err = NewInstanceSelector(nil).Resolve("")
	assert.Error(t, err)
}

func TestInstanceSelectorNext(t *testing.T) {
	sel := NewInstanceSelector(sampleInstances)

	tests := []struct {
		name   string
		id     int
		step   int
		wantID int
	}{
		{name: "forward", id: 1, step: 1, wantID: 2},
		{name: "wraps_forward", id: 7, step: 1, wantID: 1},
		{name: "wraps_backward", id: 1, step: -1, wantID: 7},
		{name: "unknown", id: 42, step: 1, wantID: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, ok := sel.Next(tt.id, tt.step)
			require.True(t, ok)
			assert.Equal(t, tt.wantID, in.ID)
		})
	}

	_, ok := NewInstanceSelector(nil).Next(1, 1)
	assert.False(t, ok)
}
