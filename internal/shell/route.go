// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package shell

import (
	"strconv"
	"strings"
)

// View is a top-level screen of the console.
type View string

const (
	ViewInstances View = "instances"
	ViewTorrents  View = "torrents"
	ViewCrossSeed View = "cross-seed"
	ViewSearch    View = "search"
	ViewTools     View = "tools"
	ViewSettings  View = "settings"
)

var views = []View{ViewInstances, ViewTorrents, ViewCrossSeed, ViewSearch, ViewTools, ViewSettings}

// Route is a parsed location such as "#cross-seed/2".
type Route struct {
	View View
	// InstanceID is zero when the route does not pin an instance.
	InstanceID int
}

// ParseRoute reads a hash-style location. Unknown views fall back to the
// instance list; a trailing numeric segment selects an instance.
func ParseRoute(location string) Route {
	s := strings.TrimSpace(location)
	s = strings.TrimLeft(s, "#/")
	s = strings.TrimRight(s, "/")

	head, rest, _ := strings.Cut(s, "/")
	route := Route{View: ViewInstances}
	for _, v := range views {
		if strings.EqualFold(head, string(v)) {
			route.View = v
			break
		}
	}
	if route.View == ViewInstances && !strings.EqualFold(head, string(ViewInstances)) {
		return route
	}

	if id, err := strconv.Atoi(rest); err == nil && id > 0 {
		route.InstanceID = id
	}
	return route
}

func (r Route) String() string {
	s := "#" + string(r.View)
	if r.InstanceID > 0 {
		s += "/" + strconv.Itoa(r.InstanceID)
	}
	return s
}
