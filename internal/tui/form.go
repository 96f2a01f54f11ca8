// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/maciejonos/qbitwebui/internal/crossseed"
	"github.com/maciejonos/qbitwebui/pkg/webui"
)

type field int

const (
	fieldEnabled field = iota
	fieldIntegration
	fieldInterval
	fieldDelay
	fieldIndexers
	fieldCategorySuffix
	fieldTag
	fieldMatchMode
	fieldLinkDir
	fieldBlocklist
	fieldSingleEpisodes
	fieldDryRun
	fieldSkipRecheck
)

type fieldKind int

const (
	kindToggle fieldKind = iota
	kindSelect
	kindText
	kindMulti
	kindBlock
)

func (f field) kind() fieldKind {
	switch f {
	case fieldEnabled, fieldSingleEpisodes, fieldDryRun, fieldSkipRecheck:
		return kindToggle
	case fieldIntegration, fieldMatchMode:
		return kindSelect
	case fieldIndexers:
		return kindMulti
	case fieldBlocklist:
		return kindBlock
	default:
		return kindText
	}
}

func (f field) label(st crossseed.State) string {
	switch f {
	case fieldEnabled:
		return "Enabled"
	case fieldIntegration:
		return "Prowlarr"
	case fieldInterval:
		return "Interval (hours)"
	case fieldDelay:
		return "Delay (30-3600s)"
	case fieldIndexers:
		if len(st.Indexers) == 0 && st.IndexersLoading {
			return "Indexers (loading...)"
		}
		n := 0
		if st.Config != nil {
			n = len(st.Config.IndexerIDs)
		}
		return fmt.Sprintf("Indexers (%d/%d)", n, len(st.Indexers))
	case fieldCategorySuffix:
		return "Category Suffix"
	case fieldTag:
		return "Tag"
	case fieldMatchMode:
		return "Match Mode"
	case fieldLinkDir:
		return "Link Directory"
	case fieldBlocklist:
		return "Blocklist"
	case fieldSingleEpisodes:
		return "Include Single Episodes"
	case fieldDryRun:
		return "Dry Run"
	case fieldSkipRecheck:
		return "Skip Recheck"
	}
	return ""
}

// visibleFields lists the form rows for the current config. The indexer
// picker needs a listing, or one on the way, and the link directory only
// matters in flexible mode.
func visibleFields(st crossseed.State) []field {
	if st.Config == nil {
		return nil
	}
	out := []field{fieldEnabled, fieldIntegration, fieldInterval, fieldDelay}
	if len(st.Indexers) > 0 || st.IndexersLoading {
		out = append(out, fieldIndexers)
	}
	out = append(out, fieldCategorySuffix, fieldTag, fieldMatchMode)
	if st.Config.MatchMode == webui.MatchModeFlexible {
		out = append(out, fieldLinkDir)
	}
	return append(out, fieldBlocklist, fieldSingleEpisodes, fieldDryRun, fieldSkipRecheck)
}

func onOff(v bool) string {
	if v {
		return "On"
	}
	return "Off"
}

func matchModeLabel(m webui.MatchMode) string {
	if m == webui.MatchModeFlexible {
		return "Flexible (sizes only, requires link_dir)"
	}
	return "Strict (names must match)"
}

func fieldValue(f field, st crossseed.State) string {
	cfg := st.Config
	if cfg == nil {
		return ""
	}
	switch f {
	case fieldEnabled:
		return onOff(cfg.Enabled)
	case fieldIntegration:
		if !cfg.HasIntegration() {
			return "None"
		}
		for _, in := range st.Integrations {
			if in.ID == *cfg.IntegrationID {
				return in.Label
			}
		}
		return "#" + strconv.Itoa(*cfg.IntegrationID)
	case fieldInterval:
		return strconv.Itoa(cfg.IntervalHours)
	case fieldDelay:
		return strconv.Itoa(cfg.DelaySeconds)
	case fieldIndexers:
		if len(cfg.IndexerIDs) == 0 {
			return "Select indexers..."
		}
		names := make([]string, 0, len(cfg.IndexerIDs))
		for _, idx := range st.Indexers {
			if slices.Contains(cfg.IndexerIDs, idx.ID) {
				names = append(names, idx.Name)
			}
		}
		return strings.Join(names, ", ")
	case fieldCategorySuffix:
		return cfg.CategorySuffix
	case fieldTag:
		return cfg.Tag
	case fieldMatchMode:
		return matchModeLabel(cfg.MatchMode)
	case fieldLinkDir:
		if cfg.LinkDir == nil {
			return "/path/to/links"
		}
		return *cfg.LinkDir
	case fieldBlocklist:
		if len(cfg.Blocklist) == 0 {
			return "none"
		}
		return fmt.Sprintf("%d rules", len(cfg.Blocklist))
	case fieldSingleEpisodes:
		return onOff(cfg.IncludeSingleEpisodes)
	case fieldDryRun:
		return onOff(cfg.DryRun)
	case fieldSkipRecheck:
		return onOff(cfg.SkipRecheck)
	}
	return ""
}

// editValue is the text an input starts with when f is edited.
func editValue(f field, cfg webui.CrossSeedConfig) string {
	switch f {
	case fieldInterval:
		return strconv.Itoa(cfg.IntervalHours)
	case fieldDelay:
		return strconv.Itoa(cfg.DelaySeconds)
	case fieldCategorySuffix:
		return cfg.CategorySuffix
	case fieldTag:
		return cfg.Tag
	case fieldLinkDir:
		if cfg.LinkDir != nil {
			return *cfg.LinkDir
		}
	case fieldBlocklist:
		return crossseed.FormatBlocklistText(cfg.Blocklist)
	}
	return ""
}

// togglePatch flips a boolean field or advances a select field.
func togglePatch(f field, st crossseed.State) (webui.ConfigPatch, bool) {
	cfg := st.Config
	if cfg == nil {
		return webui.ConfigPatch{}, false
	}
	flip := func(v bool) *bool { v = !v; return &v }

	switch f {
	case fieldEnabled:
		return webui.ConfigPatch{Enabled: flip(cfg.Enabled)}, true
	case fieldSingleEpisodes:
		return webui.ConfigPatch{IncludeSingleEpisodes: flip(cfg.IncludeSingleEpisodes)}, true
	case fieldDryRun:
		return webui.ConfigPatch{DryRun: flip(cfg.DryRun)}, true
	case fieldSkipRecheck:
		return webui.ConfigPatch{SkipRecheck: flip(cfg.SkipRecheck)}, true
	case fieldMatchMode:
		next := webui.MatchModeFlexible
		if cfg.MatchMode == webui.MatchModeFlexible {
			next = webui.MatchModeStrict
		}
		return webui.ConfigPatch{MatchMode: &next}, true
	case fieldIntegration:
		return webui.ConfigPatch{IntegrationID: nextIntegration(cfg, st.ProwlarrIntegrations())}, true
	}
	return webui.ConfigPatch{}, false
}

// nextIntegration cycles None → each Prowlarr integration → None.
func nextIntegration(cfg *webui.CrossSeedConfig, options []webui.Integration) webui.Optional[int] {
	if len(options) == 0 {
		return webui.Null[int]()
	}
	if !cfg.HasIntegration() {
		return webui.Some(options[0].ID)
	}
	for i, in := range options {
		if in.ID == *cfg.IntegrationID {
			if i+1 < len(options) {
				return webui.Some(options[i+1].ID)
			}
			return webui.Null[int]()
		}
	}
	return webui.Some(options[0].ID)
}

// editPatch converts submitted input for f into a patch.
func editPatch(f field, input string) webui.ConfigPatch {
	switch f {
	case fieldInterval:
		v := crossseed.ParseIntervalHours(input)
		return webui.ConfigPatch{IntervalHours: &v}
	case fieldDelay:
		v := crossseed.ParseDelaySeconds(input)
		return webui.ConfigPatch{DelaySeconds: &v}
	case fieldCategorySuffix:
		return webui.ConfigPatch{CategorySuffix: &input}
	case fieldTag:
		return webui.ConfigPatch{Tag: &input}
	case fieldLinkDir:
		return webui.ConfigPatch{LinkDir: webui.Some(strings.TrimSpace(input))}
	case fieldBlocklist:
		return webui.ConfigPatch{Blocklist: crossseed.ParseBlocklistText(input)}
	}
	return webui.ConfigPatch{}
}

// toggleIndexer adds or removes id from the selection.
func toggleIndexer(cfg webui.CrossSeedConfig, id int) webui.ConfigPatch {
	ids := make([]int, 0, len(cfg.IndexerIDs)+1)
	found := false
	for _, v := range cfg.IndexerIDs {
		if v == id {
			found = true
			continue
		}
		ids = append(ids, v)
	}
	if !found {
		ids = append(ids, id)
	}
	return webui.ConfigPatch{IndexerIDs: ids}
}
