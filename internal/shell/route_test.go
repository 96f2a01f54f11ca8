// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		location string
		want     Route
	}{
		{location: "", want: Route{View: ViewInstances}},
		{location: "#", want: Route{View: ViewInstances}},
		{location: "#cross-seed", want: Route{View: ViewCrossSeed}},
		{location: "#/cross-seed/", want: Route{View: ViewCrossSeed}},
		{location: "#Cross-Seed/2", want: Route{View: ViewCrossSeed, InstanceID: 2}},
		{location: "#torrents/abc", want: Route{View: ViewTorrents}},
		{location: "#settings", want: Route{View: ViewSettings}},
		{location: "#instances/4", want: Route{View: ViewInstances, InstanceID: 4}},
		{location: "#rss/3", want: Route{View: ViewInstances}},
		{location: "#search/-1", want: Route{View: ViewSearch}},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRoute(tt.location))
		})
	}
}

func TestRouteString(t *testing.T) {
	assert.Equal(t, "#cross-seed/2", Route{View: ViewCrossSeed, InstanceID: 2}.String())
	assert.Equal(t, "#tools", Route{View: ViewTools}.String())
	assert.Equal(t, Route{View: ViewCrossSeed, InstanceID: 7}, ParseRoute(Route{View: ViewCrossSeed, InstanceID: 7}.String()))
}
