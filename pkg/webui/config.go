// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package webui

import "slices"

// Optional distinguishes "leave unchanged" from "set to null" for nullable
// config fields.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional that sets the field to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// ConfigPatch is a partial edit of a CrossSeedConfig. Nil fields are left as is.
type ConfigPatch struct {
	Enabled               *bool
	IntervalHours         *int
	DelaySeconds          *int
	DryRun                *bool
	CategorySuffix        *string
	Tag                   *string
	SkipRecheck           *bool
	IntegrationID         Optional[int]
	IndexerIDs            []int
	MatchMode             *MatchMode
	LinkDir               Optional[string]
	Blocklist             []string
	IncludeSingleEpisodes *bool
}

// Clone returns a deep copy of c.
func (c CrossSeedConfig) Clone() CrossSeedConfig {
	out := c
	out.IntegrationID = clonePtr(c.IntegrationID)
	out.LinkDir = clonePtr(c.LinkDir)
	out.LastRun = clonePtr(c.LastRun)
	out.NextRun = clonePtr(c.NextRun)
	out.IndexerIDs = cloneSlice(c.IndexerIDs)
	out.Blocklist = cloneSlice(c.Blocklist)
	return out
}

// Apply returns a copy of c with p applied. Changing the integration drops
// the indexer selection unless p selects indexers as well, since indexer ids
// are scoped to an integration.
func (c CrossSeedConfig) Apply(p ConfigPatch) CrossSeedConfig {
	out := c.Clone()

	if p.Enabled != nil {
		out.Enabled = *p.Enabled
	}
	if p.IntervalHours != nil {
		out.IntervalHours = *p.IntervalHours
	}
	if p.DelaySeconds != nil {
		out.DelaySeconds = *p.DelaySeconds
	}
	if p.DryRun != nil {
		out.DryRun = *p.DryRun
	}
	if p.CategorySuffix != nil {
		out.CategorySuffix = *p.CategorySuffix
	}
	if p.Tag != nil {
		out.Tag = *p.Tag
	}
	if p.SkipRecheck != nil {
		out.SkipRecheck = *p.SkipRecheck
	}
	if p.IntegrationID.Set {
		out.IntegrationID = clonePtr(p.IntegrationID.Value)
		out.IndexerIDs = []int{}
	}
	if p.IndexerIDs != nil {
		out.IndexerIDs = cloneSlice(p.IndexerIDs)
	}
	if p.MatchMode != nil {
		out.MatchMode = *p.MatchMode
	}
	if p.LinkDir.Set {
		out.LinkDir = clonePtr(p.LinkDir.Value)
		if out.LinkDir != nil && *out.LinkDir == "" {
			out.LinkDir = nil
		}
	}
	if p.Blocklist != nil {
		out.Blocklist = cloneSlice(p.Blocklist)
	}
	if p.IncludeSingleEpisodes != nil {
		out.IncludeSingleEpisodes = *p.IncludeSingleEpisodes
	}

	return out
}

// Update returns the writable subset of c.
func (c CrossSeedConfig) Update() ConfigUpdate {
	indexers := cloneSlice(c.IndexerIDs)
	if indexers == nil {
		indexers = []int{}
	}
	blocklist := cloneSlice(c.Blocklist)
	if blocklist == nil {
		blocklist = []string{}
	}
	return ConfigUpdate{
		Enabled:               c.Enabled,
		IntervalHours:         c.IntervalHours,
		DelaySeconds:          c.DelaySeconds,
		DryRun:                c.DryRun,
		CategorySuffix:        c.CategorySuffix,
		Tag:                   c.Tag,
		SkipRecheck:           c.SkipRecheck,
		IntegrationID:         clonePtr(c.IntegrationID),
		IndexerIDs:            indexers,
		MatchMode:             c.MatchMode,
		LinkDir:               clonePtr(c.LinkDir),
		Blocklist:             blocklist,
		IncludeSingleEpisodes: c.IncludeSingleEpisodes,
	}
}

// HasIntegration reports whether a search integration is configured.
func (c CrossSeedConfig) HasIntegration() bool {
	return c.IntegrationID != nil && *c.IntegrationID != 0
}

// PruneIndexers keeps only the indexer ids present in valid. It reports
// whether anything was removed; when nothing was, c is returned unchanged.
func (c CrossSeedConfig) PruneIndexers(valid []TorznabIndexer) (CrossSeedConfig, bool) {
	known := make(map[int]struct{}, len(valid))
	for _, idx := range valid {
		known[idx.ID] = struct{}{}
	}

	kept := make([]int, 0, len(c.IndexerIDs))
	for _, id := range c.IndexerIDs {
		if _, ok := known[id]; ok {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(c.IndexerIDs) {
		return c, false
	}

	out := c.Clone()
	out.IndexerIDs = kept
	return out, true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}
