// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

func newConfigSetCommand(t *testing.T, args ...string) (*cobra.Command, *configFlags) {
	t.Helper()
	flags := &configFlags{}
	cmd := &cobra.Command{Use: "set"}
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, flags
}

func TestConfigFlagsPatch(t *testing.T) {
	base := webui.CrossSeedConfig{
		IntervalHours: 24,
		DelaySeconds:  30,
		Tag:           "cross-seed",
		IndexerIDs:    []int{1, 2},
		MatchMode:     webui.MatchModeStrict,
		Blocklist:     []string{"name:old"},
	}
	integration := 4
	base.IntegrationID = &integration

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, got webui.CrossSeedConfig)
	}{
		{
			name: "untouched_fields_kept",
			args: []string{"--interval", "12"},
			check: func(t *testing.T, got webui.CrossSeedConfig) {
				assert.Equal(t, 12, got.IntervalHours)
				assert.Equal(t, 30, got.DelaySeconds)
				assert.Equal(t, "cross-seed", got.Tag)
				assert.Equal(t, []int{1, 2}, got.IndexerIDs)
			},
		},
		{
			name: "delay_clamped",
			args: []string{"--delay", "5"},
			check: func(t *testing.T, got webui.CrossSeedConfig) {
				assert.Equal(t, 30, got.DelaySeconds)
			},
		},
		{
			name: "explicit_false",
			args: []string{"--enabled=false", "--dry-run"},
			check: func(t *testing.T, got webui.CrossSeedConfig) {
				assert.False(t, got.Enabled)
				assert.True(t, got.DryRun)
			},
		},
		{
			name: "integration_cleared",
			args: []string{"--integration", "0"},
			check: func(t *testing.T, got webui.CrossSeedConfig) {
				assert.Nil(t, got.IntegrationID)
				assert.Equal(t, []int{}, got.IndexerIDs)
			},
		},
		{
			name: "integration_with_indexers",
			args: []string{"--integration", "7", "--indexers", "3,5"},
			check: func(t *testing.T, got webui.CrossSeedConfig) {
				require.NotNil(t, got.IntegrationID)
				assert.Equal(t, 7, *got.IntegrationID)
				assert.Equal(t, []int{3, 5}, got.IndexerIDs)
			},
		},
		{
			name: "flexible_with_link_dir",
			args: []string{"--match-mode", "Flexible", "--link-dir", " /data/links "},
			check: func(t *testing.T, got webui.CrossSeedConfig) {
				assert.Equal(t, webui.MatchModeFlexible, got.MatchMode)
				require.NotNil(t, got.LinkDir)
				assert.Equal(t, "/data/links", *got.LinkDir)
			},
		},
		{
			name: "blocklist_replaced",
			args: []string{"--blocklist", "name:sample", "--blocklist", " ", "--blocklist", "tag:skip"},
			check: func(t *testing.T, got webui.CrossSeedConfig) {
				assert.Equal(t, []string{"name:sample", "tag:skip"}, got.Blocklist)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, flags := newConfigSetCommand(t, tt.args...)
			patch, err := flags.patch(cmd)
			require.NoError(t, err)
			tt.check(t, base.Apply(patch))
		})
	}
}

func TestConfigFlagsRejectsUnknownMatchMode(t *testing.T) {
	cmd, flags := newConfigSetCommand(t, "--match-mode", "loose")
	_, err := flags.patch(cmd)
	assert.ErrorContains(t, err, `invalid match mode "loose"`)
}

func TestLogTailPrintsOnlyNewEntries(t *testing.T) {
	entry := func(ts, msg string) webui.LogEntry {
		return webui.LogEntry{Timestamp: "2025-01-02T" + ts + ".000Z", Level: webui.LogLevelInfo, Message: msg}
	}

	var out bytes.Buffer
	tail := &logTail{out: &out}

	tail.write([]webui.LogEntry{entry("10:00:00", "a"), entry("10:00:01", "b")})
	assert.Equal(t, "10:00:00 [INFO] a\n10:00:01 [INFO] b\n", out.String())

	out.Reset()
	tail.write([]webui.LogEntry{entry("10:00:01", "b"), entry("10:00:02", "c")})
	assert.Equal(t, "10:00:02 [INFO] c\n", out.String())

	out.Reset()
	tail.write([]webui.LogEntry{entry("10:00:02", "c")})
	assert.Empty(t, out.String())

	out.Reset()
	tail.write([]webui.LogEntry{entry("11:00:00", "x")})
	assert.Equal(t, "11:00:00 [INFO] x\n", out.String(), "window moved past the last entry")
}

func TestLogTailTruncatesToWidth(t *testing.T) {
	var out bytes.Buffer
	tail := &logTail{out: &out, width: 20}

	tail.write([]webui.LogEntry{{Timestamp: "2025-01-02T10:00:00.000Z", Level: webui.LogLevelWarn, Message: "a rather long message"}})
	assert.Equal(t, "10:00:00 [WARN] a r…\n", out.String())
}

func TestLogTailTruncatesWideRunes(t *testing.T) {
	var out bytes.Buffer
	tail := &logTail{out: &out, width: 20}

	tail.write([]webui.LogEntry{{Timestamp: "2025-01-02T10:00:00.000Z", Level: webui.LogLevelInfo, Message: "日本語テスト.Café"}})
	line := strings.TrimSuffix(out.String(), "\n")

	assert.True(t, utf8.ValidString(line))
	assert.LessOrEqual(t, ansi.StringWidth(line), 20)
	assert.True(t, strings.HasPrefix(line, "10:00:00 [INFO] 日"), line)
	assert.True(t, strings.HasSuffix(line, "…"), line)
}

func TestFilterSearchees(t *testing.T) {
	searchees := []webui.Searchee{
		{ID: 1, TorrentName: "Show.Name.S01.1080p.WEB-DL"},
		{ID: 2, TorrentName: "Movie.2024.2160p.UHD"},
		{ID: 3, TorrentName: "Another.Show.S02.720p"},
	}

	tests := []struct {
		name   string
		filter string
		want   []int
	}{
		{name: "empty_keeps_all", filter: "", want: []int{1, 2, 3}},
		{name: "fuzzy", filter: "show", want: []int{1, 3}},
		{name: "case_insensitive", filter: "MOVIE", want: []int{2}},
		{name: "no_match", filter: "zzz", want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterSearchees(searchees, tt.filter)
			ids := make([]int, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestStatusRows(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	next := now.Unix() + 2*3600 + 15*60

	rows := statusRows([]webui.SchedulerStatus{
		{InstanceLabel: "seedbox", Enabled: true, IntervalHours: 6, NextRun: &next, Running: true,
			LastResult: &webui.ScanResult{MatchesFound: 5, TorrentsAdded: 3, DryRun: true}},
		{InstanceLabel: "home", IntervalHours: 24},
	}, now)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"seedbox", "On", "Running", "6h", "—", "2h 15m", "Done: 5 matches, 3 added (dry run)"}, rows[0])
	assert.Equal(t, []string{"home", "Off", "Idle", "24h", "—", "—", "—"}, rows[1])
}

func TestWriteStructured(t *testing.T) {
	integration := 3
	cfg := webui.CrossSeedConfig{InstanceID: 1, IntervalHours: 24, IntegrationID: &integration, MatchMode: webui.MatchModeStrict}

	tests := []struct {
		name   string
		format string
		want   []string
	}{
		{name: "json", format: outputJSON, want: []string{`"interval_hours": 24`, `"integration_id": 3`, `"link_dir": null`}},
		{name: "yaml", format: outputYAML, want: []string{"interval_hours: 24", "integration_id: 3", "match_mode: strict", "link_dir: null"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, writeStructured(&out, tt.format, cfg))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestValidOutput(t *testing.T) {
	assert.NoError(t, validOutput("table"))
	assert.NoError(t, validOutput("YAML"))
	assert.ErrorContains(t, validOutput("xml"), `unknown output format "xml"`)
}
