// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"slices"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

// State is a point-in-time copy of the session for renderers. Nil pointers
// mean the resource has not been loaded.
type State struct {
	Instances  []webui.Instance
	SelectedID int

	Config       *webui.CrossSeedConfig
	Status       *webui.SchedulerStatus
	CacheStats   *webui.CacheStats
	Integrations []webui.Integration
	Indexers     []webui.TorznabIndexer
	Logs         []webui.LogEntry

	Loading    bool
	Saving     bool
	Scanning   bool
	Error      string
	Success    string
	AutoScroll bool

	// IndexersLoading is set while an indexer listing is being fetched.
	IndexersLoading bool
}

// IsRunning is true while a scan is in progress locally or on the server.
func (st State) IsRunning() bool {
	return st.Scanning || (st.Status != nil && st.Status.Running)
}

func (st State) ProwlarrIntegrations() []webui.Integration {
	return webui.ProwlarrIntegrations(st.Integrations)
}

// SelectedInstance returns the selected instance, if any.
func (st State) SelectedInstance() (webui.Instance, bool) {
	for _, in := range st.Instances {
		if in.ID == st.SelectedID {
			return in, true
		}
	}
	return webui.Instance{}, false
}

// CanScan reports whether scan actions should be offered.
func (st State) CanScan() bool {
	return st.Config != nil && st.Config.HasIntegration() && !st.IsRunning()
}

// Snapshot copies the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Instances:  slices.Clone(s.instances),
		SelectedID: s.selected,
		Loading:    s.loading,
		Saving:     s.saving,
		Scanning:   s.scanning,
		Error:      s.errMsg,
		Success:    s.success,
		AutoScroll: s.autoScroll,

		IndexersLoading: s.indexers.InFlight() > 0,
	}
	if cfg, ok := s.config.Load(); ok {
		c := cfg.Clone()
		st.Config = &c
	}
	if status, ok := s.status.Load(); ok {
		st.Status = &status
	}
	if stats, ok := s.cacheStats.Load(); ok {
		st.CacheStats = &stats
	}
	integrations, _ := s.integrations.Load()
	st.Integrations = slices.Clone(integrations)
	indexers, _ := s.indexers.Load()
	st.Indexers = slices.Clone(indexers)
	logs, _ := s.logs.Load()
	st.Logs = slices.Clone(logs)
	return st
}
