// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"strconv"
	"strings"
)

const (
	DefaultIntervalHours = 24
	MinIntervalHours     = 1
	MaxIntervalHours     = 168

	DefaultDelaySeconds = 30
	MinDelaySeconds     = 30
	MaxDelaySeconds     = 3600
)

// ParseIntervalHours reads the interval field. Unparseable input or zero
// falls back to 24; the result is clamped to 1..168.
func ParseIntervalHours(input string) int {
	v := parseLeadingInt(input)
	if v == 0 {
		return DefaultIntervalHours
	}
	return min(max(v, MinIntervalHours), MaxIntervalHours)
}

// ParseDelaySeconds reads the delay field. Unparseable input falls back to
// 30; the result is clamped to 30..3600.
func ParseDelaySeconds(input string) int {
	v := parseLeadingInt(input)
	if v == 0 {
		return DefaultDelaySeconds
	}
	return min(max(v, MinDelaySeconds), MaxDelaySeconds)
}

// parseLeadingInt mimics a lenient integer parse: leading digits count,
// trailing garbage is ignored, anything else yields 0.
func parseLeadingInt(input string) int {
	s := strings.TrimSpace(input)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}
