// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package format renders byte counts, rates, durations and unix timestamps
// the way the web interface shows them.
package format

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	kib = 1024
	mib = kib * 1024
	gib = mib * 1024
	tib = gib * 1024

	// EtaInfinity is the sentinel qBittorrent reports for an unknown ETA.
	EtaInfinity = 8640000

	// Placeholder is shown for missing values.
	Placeholder = "—"
)

// loc is the zone timestamps are rendered in. Tests pin it to UTC.
var loc = time.Local

func fixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Speed formats a transfer rate in bytes per second. A zero rate renders as
// the placeholder when showZero is false.
func Speed(bytes int64, showZero bool) string {
	switch {
	case bytes == 0 && !showZero:
		return Placeholder
	case bytes < kib:
		return fmt.Sprintf("%d B/s", bytes)
	case bytes < mib:
		return fixed(float64(bytes)/kib, 1) + " KB/s"
	default:
		return fixed(float64(bytes)/mib, 2) + " MB/s"
	}
}

// Size formats a byte count.
func Size(bytes int64) string {
	switch {
	case bytes < kib:
		return fmt.Sprintf("%d B", bytes)
	case bytes < mib:
		return fixed(float64(bytes)/kib, 1) + " KB"
	case bytes < gib:
		return fixed(float64(bytes)/mib, 1) + " MB"
	case bytes < tib:
		return fixed(float64(bytes)/gib, 2) + " GB"
	default:
		return fixed(float64(bytes)/tib, 2) + " TB"
	}
}

// CompactSpeed is the narrow variant of Speed used in dense tables.
func CompactSpeed(bytes int64) string {
	switch {
	case bytes == 0:
		return "-"
	case bytes < kib:
		return fmt.Sprintf("%dB", bytes)
	case bytes < mib:
		return fixed(float64(bytes)/kib, 0) + "K"
	default:
		return fixed(float64(bytes)/mib, 1) + "M"
	}
}

// CompactSize is the narrow variant of Size.
func CompactSize(bytes int64) string {
	switch {
	case bytes < kib:
		return fmt.Sprintf("%dB", bytes)
	case bytes < mib:
		return fixed(float64(bytes)/kib, 0) + "K"
	case bytes < gib:
		return fixed(float64(bytes)/mib, 0) + "M"
	default:
		return fixed(float64(bytes)/gib, 1) + "G"
	}
}

// ETA formats a remaining time in seconds.
func ETA(seconds int64) string {
	switch {
	case seconds < 0 || seconds == EtaInfinity:
		return "∞"
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
	default:
		return fmt.Sprintf("%dd", seconds/86400)
	}
}

// Date formats a unix timestamp as a numeric date and time.
func Date(timestamp int64) string {
	if timestamp <= 0 {
		return Placeholder
	}
	return time.Unix(timestamp, 0).In(loc).Format("1/2/2006, 3:04 PM")
}

// Duration formats an elapsed time in seconds, dropping the seconds part
// once days are shown.
func Duration(seconds int64) string {
	if seconds < 0 {
		return Placeholder
	}
	d := seconds / 86400
	h := (seconds % 86400) / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case d > 0:
		return fmt.Sprintf("%dd %dh %dm", d, h, m)
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// RelativeTime describes how long ago timestamp was, relative to now.
func RelativeTime(timestamp int64, now time.Time) string {
	if timestamp <= 0 {
		return "Never"
	}
	diff := now.Unix() - timestamp
	switch {
	case diff < 60:
		return "Just now"
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	case diff < 604800:
		return fmt.Sprintf("%dd ago", diff/86400)
	default:
		return fmt.Sprintf("%dw ago", diff/604800)
	}
}

// RelativeDate describes the day of timestamp relative to now, falling back
// to a short month/day label after a week.
func RelativeDate(timestamp int64, now time.Time) string {
	if timestamp <= 0 {
		return "-"
	}
	date := time.Unix(timestamp, 0)
	days := int64(math.Floor(now.Sub(date).Hours() / 24))
	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return date.In(loc).Format("Jan 2")
	}
}

// Countdown renders the time left until timestamp. A nil or zero timestamp
// renders as fallback.
func Countdown(timestamp *int64, now time.Time, fallback string) string {
	if timestamp == nil || *timestamp == 0 {
		return fallback
	}
	diff := *timestamp - now.Unix()
	if diff <= 0 {
		return "Now"
	}
	hours := diff / 3600
	mins := (diff % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// Timestamp renders a scheduler timestamp such as last_run.
func Timestamp(timestamp *int64) string {
	if timestamp == nil || *timestamp == 0 {
		return Placeholder
	}
	return time.Unix(*timestamp, 0).In(loc).Format("Jan 2, 15:04")
}

var searchSeparators = regexp.MustCompile(`[._-]+`)

// NormalizeSearch lowercases s and turns release-name separators into spaces
// so "Show.Name-S01" matches "show name s01".
func NormalizeSearch(s string) string {
	return searchSeparators.ReplaceAllString(strings.ToLower(s), " ")
}
