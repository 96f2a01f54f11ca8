// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package devserver

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

// Endpoint names a backend route for failure injection and call counting.
type Endpoint string

const (
	EndpointConfigGet    Endpoint = "config.get"
	EndpointConfigUpdate Endpoint = "config.update"
	EndpointScan         Endpoint = "scan"
	EndpointStop         Endpoint = "stop"
	EndpointStatusAll    Endpoint = "status.all"
	EndpointStatus       Endpoint = "status"
	EndpointCacheClear   Endpoint = "cache.clear"
	EndpointCacheStats   Endpoint = "cache.stats"
	EndpointHistory      Endpoint = "history"
	EndpointDecisions    Endpoint = "decisions"
	EndpointIndexers     Endpoint = "indexers"
	EndpointLogs         Endpoint = "logs"
	EndpointInstances    Endpoint = "instances"
	EndpointIntegrations Endpoint = "integrations"
	EndpointLogin        Endpoint = "auth.login"
)

type failure struct {
	status  int
	message string
}

// Backend is the in-memory state behind the development server. All methods
// are safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	username string
	password string

	instances    []webui.Instance
	integrations []webui.Integration
	configs      map[int]webui.CrossSeedConfig
	running      map[int]bool
	lastResult   map[int]*webui.ScanResult
	cache        map[int]webui.CacheStats
	indexers     map[int][]webui.TorznabIndexer
	searchees    map[int][]webui.Searchee
	decisions    map[int][]webui.Decision
	logs         []webui.LogEntry

	linkDirValid *bool
	scanResult   *webui.ScanResult

	failures    map[Endpoint]failure
	calls       map[Endpoint]int
	lastIndexer int
	updates     []json.RawMessage

	now func() time.Time
}

// NewBackend returns an empty backend without authentication.
func NewBackend() *Backend {
	return &Backend{
		configs:    make(map[int]webui.CrossSeedConfig),
		running:    make(map[int]bool),
		lastResult: make(map[int]*webui.ScanResult),
		cache:      make(map[int]webui.CacheStats),
		indexers:   make(map[int][]webui.TorznabIndexer),
		searchees:  make(map[int][]webui.Searchee),
		decisions:  make(map[int][]webui.Decision),
		failures:   make(map[Endpoint]failure),
		calls:      make(map[Endpoint]int),
		now:        time.Now,
	}
}

// NewSeededBackend returns a backend with two instances, a Prowlarr
// integration and some history, for local UI work.
func NewSeededBackend() *Backend {
	b := NewBackend()
	now := b.now().Unix()

	b.AddInstance(webui.Instance{ID: 1, Label: "seedbox", URL: "http://qbittorrent:8080", QBTUsername: "admin", CreatedAt: now})
	b.AddInstance(webui.Instance{ID: 2, Label: "home", URL: "http://192.168.1.20:8080", QBTUsername: "admin", CreatedAt: now})
	b.AddIntegration(webui.Integration{ID: 1, Type: webui.IntegrationTypeProwlarr, Label: "Prowlarr", URL: "http://prowlarr:9696", CreatedAt: now})
	b.AddIntegration(webui.Integration{ID: 2, Type: "sonarr", Label: "Sonarr", URL: "http://sonarr:8989", CreatedAt: now})
	b.SetIndexers(1, []webui.TorznabIndexer{
		{ID: 1, Name: "TorrentLeech", Protocol: "torrent", SupportsSearch: true, Categories: []int{2000, 5000}},
		{ID: 2, Name: "IPTorrents", Protocol: "torrent", SupportsSearch: true, Categories: []int{2000, 5000}},
		{ID: 3, Name: "Nyaa", Protocol: "torrent", SupportsSearch: true, Categories: []int{5070}},
	})

	integration := 1
	cfg := b.Config(1)
	cfg.IntegrationID = &integration
	cfg.IndexerIDs = []int{1, 2}
	b.SetConfig(cfg)

	b.SetCacheStats(1, 42, 3_500_000, []string{"[cross-seed] Show.S01E01.torrent"})
	b.AddSearchee(webui.Searchee{ID: 1, InstanceID: 1, TorrentHash: "a1b2c3", TorrentName: "Show.Name.S01.1080p.WEB-DL", TotalSize: 12_884_901_888, FileCount: 10, FileSizes: "[]", FirstSearched: now - 86400, LastSearched: now - 3600, DecisionCount: 2})
	b.AddDecision(1, webui.Decision{ID: 1, SearcheeID: 1, GUID: "tl-1", CandidateName: "Show.Name.S01.1080p.WEB-DL-GRP", Decision: "MATCH", FirstSeen: now - 3600, LastSeen: now - 3600})
	b.AddDecision(1, webui.Decision{ID: 2, SearcheeID: 1, GUID: "ipt-7", CandidateName: "Show.Name.S01.720p.WEB", Decision: "SIZE_MISMATCH", FirstSeen: now - 3600, LastSeen: now - 3600})
	b.AppendLog(webui.LogLevelInfo, "Scheduler started")

	return b
}

// SetCredentials enables session authentication on /api.
func (b *Backend) SetCredentials(username, password string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.username = username
	b.password = password
}

func (b *Backend) authRequired() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.username != ""
}

func (b *Backend) changePassword(current, next string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.username != "" && current != b.password {
		return false
	}
	b.password = next
	return true
}

func (b *Backend) checkCredentials(username, password string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.username != "" && username == b.username && password == b.password
}

func (b *Backend) AddInstance(in webui.Instance) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.instances = append(b.instances, in)
	if _, ok := b.configs[in.ID]; !ok {
		b.configs[in.ID] = defaultConfig(in.ID)
	}
}

func (b *Backend) AddIntegration(in webui.Integration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.integrations = append(b.integrations, in)
}

func defaultConfig(instanceID int) webui.CrossSeedConfig {
	return webui.CrossSeedConfig{
		InstanceID:     instanceID,
		IntervalHours:  24,
		DelaySeconds:   30,
		DryRun:         true,
		CategorySuffix: "_cross-seed",
		Tag:            "cross-seed",
		IndexerIDs:     []int{},
		MatchMode:      webui.MatchModeStrict,
		Blocklist:      []string{},
	}
}

// Config returns a copy of the stored config for an instance.
func (b *Backend) Config(instanceID int) webui.CrossSeedConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	cfg, ok := b.configs[instanceID]
	if !ok {
		cfg = defaultConfig(instanceID)
	}
	return cfg.Clone()
}

func (b *Backend) SetConfig(cfg webui.CrossSeedConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configs[cfg.InstanceID] = cfg.Clone()
}

func (b *Backend) SetIndexers(integrationID int, indexers []webui.TorznabIndexer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.indexers[integrationID] = slices.Clone(indexers)
}

func (b *Backend) SetCacheStats(instanceID, count int, totalSize int64, files []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var stats webui.CacheStats
	stats.Cache.Count = count
	stats.Cache.TotalSize = totalSize
	stats.Output.Count = len(files)
	stats.Output.Files = slices.Clone(files)
	b.cache[instanceID] = stats
}

func (b *Backend) AddSearchee(s webui.Searchee) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.searchees[s.InstanceID] = append(b.searchees[s.InstanceID], s)
}

func (b *Backend) AddDecision(instanceID int, d webui.Decision) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := decisionKey(instanceID, d.SearcheeID)
	b.decisions[key] = append(b.decisions[key], d)
}

func decisionKey(instanceID, searcheeID int) int {
	return instanceID<<20 | searcheeID
}

// AppendLog adds an entry to the global cross-seed log.
func (b *Backend) AppendLog(level webui.LogLevel, format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendLogLocked(level, fmt.Sprintf(format, args...))
}

const maxLogEntries = 1000

func (b *Backend) appendLogLocked(level webui.LogLevel, msg string) {
	b.logs = append(b.logs, webui.LogEntry{
		Timestamp: b.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Level:     level,
		Message:   msg,
	})
	if len(b.logs) > maxLogEntries {
		b.logs = slices.Clone(b.logs[len(b.logs)-maxLogEntries:])
	}
}

// SetRunning flips the scheduler's running flag for an instance.
func (b *Backend) SetRunning(instanceID int, running bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.running[instanceID] = running
}

// SetLinkDirValid controls the linkDirValid field of config update responses.
// Nil omits the field.
func (b *Backend) SetLinkDirValid(valid *bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.linkDirValid = valid
}

// SetScanResult fixes the result returned by the next scans. Nil restores
// the simulated result.
func (b *Backend) SetScanResult(res *webui.ScanResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scanResult = res
}

// Fail makes an endpoint answer with status and, when non-empty, an error body.
func (b *Backend) Fail(ep Endpoint, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[ep] = failure{status: status, message: message}
}

// Recover undoes Fail for an endpoint.
func (b *Backend) Recover(ep Endpoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.failures, ep)
}

// Calls returns how many requests an endpoint has served.
func (b *Backend) Calls(ep Endpoint) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[ep]
}

// LastIndexerIntegration returns the integration id of the last indexer listing.
func (b *Backend) LastIndexerIntegration() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastIndexer
}

// Updates returns the raw bodies of every config update received.
func (b *Backend) Updates() []json.RawMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.updates)
}

// enter counts a call and reports an injected failure, if any.
func (b *Backend) enter(ep Endpoint) (failure, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[ep]++
	f, ok := b.failures[ep]
	return f, ok
}

func (b *Backend) hasInstance(id int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, in := range b.instances {
		if in.ID == id {
			return true
		}
	}
	return false
}

func (b *Backend) instanceLabel(id int) string {
	for _, in := range b.instances {
		if in.ID == id {
			return in.Label
		}
	}
	return fmt.Sprintf("instance %d", id)
}

func (b *Backend) listInstances() []webui.Instance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]webui.Instance{}, b.instances...)
}

func (b *Backend) listIntegrations() []webui.Integration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]webui.Integration{}, b.integrations...)
}

func (b *Backend) hasIntegration(id int) bool {
	for _, in := range b.integrations {
		if in.ID == id {
			return true
		}
	}
	return false
}

// applyUpdate stores a config update and returns the response payload.
func (b *Backend) applyUpdate(instanceID int, raw json.RawMessage, update webui.ConfigUpdate) webui.SaveResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.updates = append(b.updates, raw)

	cfg, ok := b.configs[instanceID]
	if !ok {
		cfg = defaultConfig(instanceID)
	}
	cfg.Enabled = update.Enabled
	cfg.IntervalHours = update.IntervalHours
	cfg.DelaySeconds = update.DelaySeconds
	cfg.DryRun = update.DryRun
	cfg.CategorySuffix = update.CategorySuffix
	cfg.Tag = update.Tag
	cfg.SkipRecheck = update.SkipRecheck
	cfg.IntegrationID = update.IntegrationID
	cfg.IndexerIDs = update.IndexerIDs
	cfg.MatchMode = update.MatchMode
	cfg.LinkDir = update.LinkDir
	cfg.Blocklist = update.Blocklist
	cfg.IncludeSingleEpisodes = update.IncludeSingleEpisodes

	if cfg.Enabled {
		next := b.now().Add(time.Duration(cfg.IntervalHours) * time.Hour).Unix()
		cfg.NextRun = &next
	} else {
		cfg.NextRun = nil
	}
	b.configs[instanceID] = cfg

	res := webui.SaveResult{Success: true}
	if b.linkDirValid != nil {
		v := *b.linkDirValid
		res.LinkDirValid = &v
	} else if cfg.LinkDir != nil {
		valid := linkDirWritable(*cfg.LinkDir)
		res.LinkDirValid = &valid
	}
	return res
}

// linkDirWritable reports whether dir exists and a file can be created in it.
func linkDirWritable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	f, err := os.CreateTemp(dir, ".qbitwebui-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func (b *Backend) statusLocked(instanceID int) webui.SchedulerStatus {
	cfg, ok := b.configs[instanceID]
	if !ok {
		cfg = defaultConfig(instanceID)
	}
	return webui.SchedulerStatus{
		InstanceID:    instanceID,
		InstanceLabel: b.instanceLabel(instanceID),
		Enabled:       cfg.Enabled,
		IntervalHours: cfg.IntervalHours,
		DryRun:        cfg.DryRun,
		LastRun:       cfg.LastRun,
		NextRun:       cfg.NextRun,
		Running:       b.running[instanceID],
		LastResult:    b.lastResult[instanceID],
	}
}

func (b *Backend) status(instanceID int) webui.SchedulerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusLocked(instanceID)
}

func (b *Backend) statuses() []webui.SchedulerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]webui.SchedulerStatus, 0, len(b.instances))
	for _, in := range b.instances {
		out = append(out, b.statusLocked(in.ID))
	}
	return out
}

// errScanRunning is returned when a scan is requested while one is active.
var errScanRunning = errors.New("Scan already in progress")

// scan simulates a cross-seed run and returns its result.
func (b *Backend) scan(instanceID int, force bool) (webui.ScanResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running[instanceID] {
		return webui.ScanResult{}, errScanRunning
	}

	cfg, ok := b.configs[instanceID]
	if !ok {
		cfg = defaultConfig(instanceID)
	}

	started := b.now().UnixMilli()
	var res webui.ScanResult
	if b.scanResult != nil {
		res = *b.scanResult
		res.Errors = slices.Clone(b.scanResult.Errors)
	} else {
		total := len(b.searchees[instanceID]) + 10
		res = webui.ScanResult{
			TorrentsTotal:   total,
			TorrentsScanned: total,
			MatchesFound:    len(cfg.IndexerIDs),
			TorrentsAdded:   0,
			Errors:          []string{},
		}
		if force {
			res.TorrentsSkipped = 0
		} else {
			res.TorrentsSkipped = len(b.searchees[instanceID])
			res.TorrentsScanned = total - res.TorrentsSkipped
		}
		if !cfg.DryRun {
			res.TorrentsAdded = res.MatchesFound
		}
	}
	res.InstanceID = instanceID
	res.DryRun = cfg.DryRun
	res.StartedAt = started
	res.CompletedAt = b.now().UnixMilli()

	last := b.now().Unix()
	cfg.LastRun = &last
	b.configs[instanceID] = cfg
	stored := res
	b.lastResult[instanceID] = &stored

	stats := b.cache[instanceID]
	stats.Cache.Count += res.MatchesFound
	b.cache[instanceID] = stats

	b.appendLogLocked(webui.LogLevelInfo, fmt.Sprintf("[%s] Scan complete: %d matches, %d added", b.instanceLabel(instanceID), res.MatchesFound, res.TorrentsAdded))
	for _, e := range res.Errors {
		b.appendLogLocked(webui.LogLevelError, fmt.Sprintf("[%s] %s", b.instanceLabel(instanceID), e))
	}

	return res, nil
}

var errNoScanRunning = errors.New("No scan running")

func (b *Backend) stop(instanceID int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.running[instanceID] {
		return errNoScanRunning
	}
	b.running[instanceID] = false
	b.appendLogLocked(webui.LogLevelWarn, fmt.Sprintf("[%s] Scan stopped by user", b.instanceLabel(instanceID)))
	return nil
}

func (b *Backend) clearCache(instanceID int) webui.ClearResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := b.cache[instanceID]
	res := webui.ClearResult{CacheCleared: stats.Cache.Count, OutputCleared: stats.Output.Count}
	b.cache[instanceID] = webui.CacheStats{}
	return res
}

func (b *Backend) cacheStats(instanceID int) webui.CacheStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := b.cache[instanceID]
	if stats.Output.Files == nil {
		stats.Output.Files = []string{}
	} else {
		stats.Output.Files = slices.Clone(stats.Output.Files)
	}
	return stats
}

func (b *Backend) history(instanceID, limit, offset int) webui.SearchHistory {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := b.searchees[instanceID]
	page := []webui.Searchee{}
	if offset < len(all) {
		end := min(offset+limit, len(all))
		page = slices.Clone(all[offset:end])
	}
	return webui.SearchHistory{Searchees: page, Total: len(all)}
}

func (b *Backend) hasSearchee(instanceID, searcheeID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.searchees[instanceID] {
		if s.ID == searcheeID {
			return true
		}
	}
	return false
}

func (b *Backend) decisionsFor(instanceID, searcheeID int) []webui.Decision {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := slices.Clone(b.decisions[decisionKey(instanceID, searcheeID)])
	if out == nil {
		out = []webui.Decision{}
	}
	return out
}

var (
	errNoIntegration       = errors.New("No Prowlarr integration configured")
	errIntegrationNotFound = errors.New("Integration not found")
)

// indexersFor resolves an indexer listing. Zero falls back to the
// integration saved in the instance's config.
func (b *Backend) indexersFor(instanceID, integrationID int) ([]webui.TorznabIndexer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if integrationID == 0 {
		if cfg, ok := b.configs[instanceID]; ok && cfg.IntegrationID != nil {
			integrationID = *cfg.IntegrationID
		}
	}
	b.lastIndexer = integrationID
	if integrationID == 0 {
		return nil, errNoIntegration
	}
	if !b.hasIntegration(integrationID) {
		return nil, errIntegrationNotFound
	}
	out := slices.Clone(b.indexers[integrationID])
	if out == nil {
		out = []webui.TorznabIndexer{}
	}
	return out, nil
}

func (b *Backend) tailLogs(limit int) []webui.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := max(len(b.logs)-limit, 0)
	out := slices.Clone(b.logs[start:])
	if out == nil {
		out = []webui.LogEntry{}
	}
	return out
}
