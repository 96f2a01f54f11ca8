// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package webui

// MatchMode controls how strictly candidate releases must match a searchee.
type MatchMode string

const (
	MatchModeStrict   MatchMode = "strict"
	MatchModeFlexible MatchMode = "flexible"
)

// LogLevel is the severity of a cross-seed log entry.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// IntegrationTypeProwlarr is the only integration type that can feed cross-seed searches.
const IntegrationTypeProwlarr = "prowlarr"

// CrossSeedConfig is the per-instance cross-seed configuration.
type CrossSeedConfig struct {
	InstanceID            int       `json:"instance_id"`
	Enabled               bool      `json:"enabled"`
	IntervalHours         int       `json:"interval_hours"`
	DelaySeconds          int       `json:"delay_seconds"`
	DryRun                bool      `json:"dry_run"`
	CategorySuffix        string    `json:"category_suffix"`
	Tag                   string    `json:"tag"`
	SkipRecheck           bool      `json:"skip_recheck"`
	IntegrationID         *int      `json:"integration_id"`
	IndexerIDs            []int     `json:"indexer_ids"`
	MatchMode             MatchMode `json:"match_mode"`
	LinkDir               *string   `json:"link_dir"`
	Blocklist             []string  `json:"blocklist"`
	IncludeSingleEpisodes bool      `json:"include_single_episodes"`
	LastRun               *int64    `json:"last_run"`
	NextRun               *int64    `json:"next_run"`
}

// ConfigUpdate is the writable subset of CrossSeedConfig sent on save. The
// instance id and the scheduler timestamps are owned by the server.
type ConfigUpdate struct {
	Enabled               bool      `json:"enabled"`
	IntervalHours         int       `json:"interval_hours"`
	DelaySeconds          int       `json:"delay_seconds"`
	DryRun                bool      `json:"dry_run"`
	CategorySuffix        string    `json:"category_suffix"`
	Tag                   string    `json:"tag"`
	SkipRecheck           bool      `json:"skip_recheck"`
	IntegrationID         *int      `json:"integration_id"`
	IndexerIDs            []int     `json:"indexer_ids"`
	MatchMode             MatchMode `json:"match_mode"`
	LinkDir               *string   `json:"link_dir"`
	Blocklist             []string  `json:"blocklist"`
	IncludeSingleEpisodes bool      `json:"include_single_episodes"`
}

// SaveResult is returned by the config update endpoint.
type SaveResult struct {
	Success      bool  `json:"success"`
	LinkDirValid *bool `json:"linkDirValid,omitempty"`
}

type ScanResult struct {
	InstanceID      int      `json:"instanceId"`
	TorrentsTotal   int      `json:"torrentsTotal"`
	TorrentsScanned int      `json:"torrentsScanned"`
	TorrentsSkipped int      `json:"torrentsSkipped"`
	MatchesFound    int      `json:"matchesFound"`
	TorrentsAdded   int      `json:"torrentsAdded"`
	Errors          []string `json:"errors"`
	DryRun          bool     `json:"dryRun"`
	StartedAt       int64    `json:"startedAt"`
	CompletedAt     int64    `json:"completedAt"`
}

// SchedulerStatus is the live scheduler state of one instance.
type SchedulerStatus struct {
	InstanceID    int         `json:"instanceId"`
	InstanceLabel string      `json:"instanceLabel"`
	Enabled       bool        `json:"enabled"`
	IntervalHours int         `json:"intervalHours"`
	DryRun        bool        `json:"dryRun"`
	LastRun       *int64      `json:"lastRun"`
	NextRun       *int64      `json:"nextRun"`
	Running       bool        `json:"running"`
	LastResult    *ScanResult `json:"lastResult"`
}

type CacheStats struct {
	Cache struct {
		Count     int   `json:"count"`
		TotalSize int64 `json:"totalSize"`
	} `json:"cache"`
	Output struct {
		Count int      `json:"count"`
		Files []string `json:"files"`
	} `json:"output"`
}

type StopResult struct {
	Stopped bool `json:"stopped"`
}

type ClearResult struct {
	CacheCleared  int `json:"cacheCleared"`
	OutputCleared int `json:"outputCleared"`
}

// Total is the number of files removed across the torrent cache and the output directory.
func (r ClearResult) Total() int {
	return r.CacheCleared + r.OutputCleared
}

type LogEntry struct {
	Timestamp string   `json:"timestamp"`
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
}

// Clock returns the HH:MM:SS part of the ISO timestamp.
func (e LogEntry) Clock() string {
	if len(e.Timestamp) < 19 {
		return e.Timestamp
	}
	return e.Timestamp[11:19]
}

type TorznabIndexer struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Protocol       string `json:"protocol"`
	SupportsSearch bool   `json:"supportsSearch"`
	Categories     []int  `json:"categories"`
}

// Searchee is a local torrent that has been searched for cross-seed candidates.
type Searchee struct {
	ID            int    `json:"id"`
	InstanceID    int    `json:"instance_id"`
	TorrentHash   string `json:"torrent_hash"`
	TorrentName   string `json:"torrent_name"`
	TotalSize     int64  `json:"total_size"`
	FileCount     int    `json:"file_count"`
	FileSizes     string `json:"file_sizes"`
	FirstSearched int64  `json:"first_searched"`
	LastSearched  int64  `json:"last_searched"`
	DecisionCount int    `json:"decision_count"`
}

type SearchHistory struct {
	Searchees []Searchee `json:"searchees"`
	Total     int        `json:"total"`
}

// Decision records why a candidate release was or was not injected.
type Decision struct {
	ID            int     `json:"id"`
	SearcheeID    int     `json:"searchee_id"`
	GUID          string  `json:"guid"`
	InfoHash      *string `json:"info_hash"`
	CandidateName string  `json:"candidate_name"`
	CandidateSize *int64  `json:"candidate_size"`
	Decision      string  `json:"decision"`
	FirstSeen     int64   `json:"first_seen"`
	LastSeen      int64   `json:"last_seen"`
}

type Integration struct {
	ID        int    `json:"id"`
	Type      string `json:"type"`
	Label     string `json:"label"`
	URL       string `json:"url"`
	CreatedAt int64  `json:"created_at"`
}

type Instance struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	URL         string `json:"url"`
	QBTUsername string `json:"qbt_username"`
	CreatedAt   int64  `json:"created_at"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}
