// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"context"
	"sync"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

// fakeAPI is an in-memory API whose calls can be failed or held open.
type fakeAPI struct {
	mu sync.Mutex

	configs      map[int]webui.CrossSeedConfig
	statuses     map[int]webui.SchedulerStatus
	stats        map[int]webui.CacheStats
	indexers     map[int][]webui.TorznabIndexer
	integrations []webui.Integration
	logs         []webui.LogEntry
	saveResult   webui.SaveResult
	scanResult   webui.ScanResult
	clearResult  webui.ClearResult

	errs  map[string]error
	gates map[string]chan struct{}
	calls map[string]int

	updates     []webui.ConfigUpdate
	indexerReqs []int
	statusReqs  []int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		configs:  make(map[int]webui.CrossSeedConfig),
		statuses: make(map[int]webui.SchedulerStatus),
		stats:    make(map[int]webui.CacheStats),
		indexers: make(map[int][]webui.TorznabIndexer),
		errs:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

func (f *fakeAPI) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

// hold makes calls to name block until the returned func is called.
func (f *fakeAPI) hold(name string) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[name] = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, name)
			f.mu.Unlock()
			close(gate)
		})
	}
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) setStatus(st webui.SchedulerStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[st.InstanceID] = st
}

func (f *fakeAPI) setLogs(entries []webui.LogEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = entries
}

func (f *fakeAPI) enter(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls[name]++
	gate := f.gates[name]
	err := f.errs[name]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeAPI) ListIntegrations(ctx context.Context) ([]webui.Integration, error) {
	if err := f.enter(ctx, "integrations"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]webui.Integration(nil), f.integrations...), nil
}

func (f *fakeAPI) GetCrossSeedConfig(ctx context.Context, instanceID int) (*webui.CrossSeedConfig, error) {
	if err := f.enter(ctx, "config"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg := f.configs[instanceID].Clone()
	return &cfg, nil
}

func (f *fakeAPI) UpdateCrossSeedConfig(ctx context.Context, instanceID int, update webui.ConfigUpdate) (*webui.SaveResult, error) {
	if err := f.enter(ctx, "save"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, update)
	res := f.saveResult
	return &res, nil
}

func (f *fakeAPI) GetInstanceStatus(ctx context.Context, instanceID int) (*webui.SchedulerStatus, error) {
	if err := f.enter(ctx, "status"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusReqs = append(f.statusReqs, instanceID)
	st := f.statuses[instanceID]
	st.InstanceID = instanceID
	return &st, nil
}

func (f *fakeAPI) GetCacheStats(ctx context.Context, instanceID int) (*webui.CacheStats, error) {
	if err := f.enter(ctx, "stats"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := f.stats[instanceID]
	return &stats, nil
}

func (f *fakeAPI) GetIndexers(ctx context.Context, instanceID, integrationID int) ([]webui.TorznabIndexer, error) {
	f.mu.Lock()
	f.indexerReqs = append(f.indexerReqs, integrationID)
	f.mu.Unlock()
	if err := f.enter(ctx, "indexers"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]webui.TorznabIndexer(nil), f.indexers[integrationID]...), nil
}

func (f *fakeAPI) TriggerScan(ctx context.Context, instanceID int, force bool) (*webui.ScanResult, error) {
	if err := f.enter(ctx, "scan"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := f.scanResult
	res.InstanceID = instanceID
	return &res, nil
}

func (f *fakeAPI) StopScan(ctx context.Context, instanceID int) (*webui.StopResult, error) {
	if err := f.enter(ctx, "stop"); err != nil {
		return nil, err
	}
	return &webui.StopResult{Stopped: true}, nil
}

func (f *fakeAPI) ClearCache(ctx context.Context, instanceID int) (*webui.ClearResult, error) {
	if err := f.enter(ctx, "clear"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := f.clearResult
	return &res, nil
}

func (f *fakeAPI) GetLogs(ctx context.Context, limit int) ([]webui.LogEntry, error) {
	if err := f.enter(ctx, "logs"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]webui.LogEntry(nil), f.logs...), nil
}

// scrollRecorder counts ScrollToBottom calls.
type scrollRecorder struct {
	mu    sync.Mutex
	calls int
}

func (r *scrollRecorder) ScrollToBottom() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
}

func (r *scrollRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
