// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package buildinfo

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = ""
	Date    = ""

	UserAgent string
)

func init() {
	UserAgent = fmt.Sprintf("qbitwebui/%s (%s %s)", Version, runtime.GOOS, runtime.GOARCH)
}

// String returns a single line describing the build.
func String() string {
	s := Version
	if Commit != "" {
		s += " (" + Commit
		if Date != "" {
			s += ", " + Date
		}
		s += ")"
	}
	return s
}
