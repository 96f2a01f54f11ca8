// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maciejonos/qbitwebui/internal/metrics"
	"github.com/maciejonos/qbitwebui/pkg/webui"
)

var testInstances = []webui.Instance{
	{ID: 1, Label: "seedbox"},
	{ID: 2, Label: "home"},
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func baseConfig(instanceID int) webui.CrossSeedConfig {
	return webui.CrossSeedConfig{
		InstanceID:     instanceID,
		IntervalHours:  24,
		DelaySeconds:   30,
		DryRun:         true,
		CategorySuffix: "_cross-seed",
		Tag:            "cross-seed",
		MatchMode:      webui.MatchModeStrict,
		IndexerIDs:     []int{},
		Blocklist:      []string{},
	}
}

func newTestSession(t *testing.T, api API, clock clockwork.Clock) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Clock = clock
	s := NewSession(cfg, api, testInstances)
	t.Cleanup(s.Stop)
	return s
}

// settle waits for every background fetch the session has spawned.
func settle(s *Session) {
	s.bg.Wait()
}

func TestLoadCommitsAllResources(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.statuses[1] = webui.SchedulerStatus{InstanceLabel: "seedbox", Enabled: true}
	api.stats[1] = webui.CacheStats{}

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)

	st := s.Snapshot()
	require.NotNil(t, st.Config)
	require.NotNil(t, st.Status)
	require.NotNil(t, st.CacheStats)
	assert.Equal(t, 24, st.Config.IntervalHours)
	assert.Equal(t, "seedbox", st.Status.InstanceLabel)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestLoadFailureCommitsNothing(t *testing.T) {
	tests := []struct {
		name    string
		failing string
	}{
		{name: "config", failing: "config"},
		{name: "status", failing: "status"},
		{name: "cache_stats", failing: "stats"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.configs[1] = baseConfig(1)
			api.fail(tt.failing, errors.New("Failed to load"))

			s := newTestSession(t, api, clockwork.NewFakeClock())
			s.load(context.Background(), 1)
			settle(s)

			st := s.Snapshot()
			assert.Nil(t, st.Config)
			assert.Nil(t, st.Status)
			assert.Nil(t, st.CacheStats)
			assert.Equal(t, "Failed to load", st.Error)
			assert.False(t, st.Loading)
		})
	}
}

func TestReloadFailureKeepsPriorValues(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.statuses[1] = webui.SchedulerStatus{Enabled: true}

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)

	api.mu.Lock()
	cfg := api.configs[1]
	cfg.IntervalHours = 6
	api.configs[1] = cfg
	api.mu.Unlock()
	api.fail("stats", errors.New("boom"))

	s.load(context.Background(), 1)
	settle(s)

	st := s.Snapshot()
	require.NotNil(t, st.Config)
	assert.Equal(t, 24, st.Config.IntervalHours)
	require.NotNil(t, st.Status)
	assert.True(t, st.Status.Enabled)
	assert.Equal(t, "boom", st.Error)
}

func TestLogPollReplacesBuffer(t *testing.T) {
	api := newFakeAPI()
	entries := []webui.LogEntry{
		{Timestamp: "2025-01-01T10:00:00.000Z", Level: webui.LogLevelInfo, Message: "Scan started"},
		{Timestamp: "2025-01-01T10:00:05.000Z", Level: webui.LogLevelWarn, Message: "Indexer slow"},
	}
	api.setLogs(entries)

	s := newTestSession(t, api, clockwork.NewFakeClock())
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	ctx := context.Background()
	s.pollLogs(ctx)
	assert.Equal(t, entries, s.Snapshot().Logs)
	require.Len(t, updates, 1)
	<-updates

	s.pollLogs(ctx)
	assert.Equal(t, entries, s.Snapshot().Logs)
	assert.Len(t, updates, 0, "identical poll should not notify")

	api.setLogs(entries[1:])
	s.pollLogs(ctx)
	assert.Equal(t, entries[1:], s.Snapshot().Logs)
	assert.Len(t, updates, 1)
}

func TestLogPollErrorKeepsBuffer(t *testing.T) {
	api := newFakeAPI()
	api.setLogs([]webui.LogEntry{{Level: webui.LogLevelInfo, Message: "hello"}})

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.pollLogs(context.Background())

	api.fail("logs", errors.New("unreachable"))
	s.pollLogs(context.Background())

	st := s.Snapshot()
	assert.Len(t, st.Logs, 1)
	assert.Empty(t, st.Error)
}

func TestRepeatedStatusPollIsIdempotent(t *testing.T) {
	api := newFakeAPI()
	api.setStatus(webui.SchedulerStatus{InstanceID: 1, Enabled: true, IntervalHours: 24})

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.fetchStatus(context.Background(), 1)
	first := s.Snapshot()
	s.fetchStatus(context.Background(), 1)
	second := s.Snapshot()

	assert.Equal(t, first.Status, second.Status)
}

func TestStatusPollErrorKeepsStatus(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.setStatus(webui.SchedulerStatus{InstanceID: 1, Enabled: true, Running: true})

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)
	require.True(t, s.IsRunning())

	api.setStatus(webui.SchedulerStatus{InstanceID: 1})
	api.fail("status", errors.New("connection refused"))
	s.pollStatus(context.Background(), 1)

	st := s.Snapshot()
	require.NotNil(t, st.Status)
	assert.True(t, st.Status.Enabled)
	assert.True(t, st.IsRunning(), "a failed poll does not clear the running state")
	assert.Empty(t, st.Error)
	assert.Empty(t, st.Success)
}

func TestScanRefreshErrorsKeepResult(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.setStatus(webui.SchedulerStatus{InstanceID: 1, Enabled: true})
	var stats webui.CacheStats
	stats.Cache.Count = 4
	api.stats[1] = stats
	api.scanResult = webui.ScanResult{MatchesFound: 2, TorrentsAdded: 1}

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)
	before := s.Snapshot()

	statusCalls, statsCalls := api.count("status"), api.count("stats")
	api.fail("status", errors.New("status unavailable"))
	api.fail("stats", errors.New("stats unavailable"))

	require.NoError(t, s.Scan(context.Background(), false))
	settle(s)

	st := s.Snapshot()
	assert.Equal(t, statusCalls+1, api.count("status"))
	assert.Equal(t, statsCalls+1, api.count("stats"))
	assert.Equal(t, "Done: 2 matches, 1 added", st.Success)
	assert.Empty(t, st.Error)
	assert.Equal(t, before.Status, st.Status)
	assert.Equal(t, before.CacheStats, st.CacheStats)
}

func TestIndexerPruning(t *testing.T) {
	tests := []struct {
		name     string
		listing  []int
		fail     bool
		want     []int
		wantList int
	}{
		{name: "drops_unknown", listing: []int{2, 3}, want: []int{2, 3}, wantList: 2},
		{name: "keeps_superset", listing: []int{1, 2, 3, 4}, want: []int{1, 2, 3}, wantList: 4},
		{name: "empty_listing", listing: []int{}, want: []int{}, wantList: 0},
		{name: "fetch_error", fail: true, want: []int{1, 2, 3}, wantList: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			cfg := baseConfig(1)
			cfg.IntegrationID = intPtr(7)
			cfg.IndexerIDs = []int{1, 2, 3}
			api.configs[1] = cfg
			for _, id := range tt.listing {
				api.indexers[7] = append(api.indexers[7], webui.TorznabIndexer{ID: id, Name: "idx"})
			}
			if tt.fail {
				api.fail("indexers", errors.New("Failed to load indexers"))
			}

			s := newTestSession(t, api, clockwork.NewFakeClock())
			s.load(context.Background(), 1)
			settle(s)

			st := s.Snapshot()
			require.NotNil(t, st.Config)
			assert.Equal(t, tt.want, st.Config.IndexerIDs)
			assert.Len(t, st.Indexers, tt.wantList)
			assert.NotNil(t, st.Indexers)
			assert.Equal(t, []int{7}, api.indexerReqs)
		})
	}
}

func TestIndexersClearedWithoutIntegration(t *testing.T) {
	api := newFakeAPI()
	cfg := baseConfig(1)
	cfg.IntegrationID = intPtr(7)
	api.configs[1] = cfg
	api.indexers[7] = []webui.TorznabIndexer{{ID: 1}}

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)
	require.Len(t, s.Snapshot().Indexers, 1)

	s.SetConfig(webui.ConfigPatch{IntegrationID: webui.Null[int]()})
	settle(s)

	st := s.Snapshot()
	assert.Empty(t, st.Indexers)
	assert.Equal(t, []int{}, st.Config.IndexerIDs)
	assert.Equal(t, 1, api.count("indexers"))
}

func TestChangingIntegrationReplacesIndexers(t *testing.T) {
	api := newFakeAPI()
	cfg := baseConfig(1)
	cfg.IntegrationID = intPtr(1)
	cfg.IndexerIDs = []int{1}
	api.configs[1] = cfg
	api.indexers[1] = []webui.TorznabIndexer{{ID: 1, Name: "one"}, {ID: 2, Name: "two"}}
	api.indexers[3] = []webui.TorznabIndexer{{ID: 10, Name: "ten"}}

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)
	require.Len(t, s.Snapshot().Indexers, 2)

	s.SetConfig(webui.ConfigPatch{IntegrationID: webui.Some(3)})
	settle(s)

	st := s.Snapshot()
	assert.Equal(t, []int{}, st.Config.IndexerIDs)
	assert.Equal(t, []webui.TorznabIndexer{{ID: 10, Name: "ten"}}, st.Indexers)
	assert.Equal(t, []int{1, 3}, api.indexerReqs)
}

func TestIndexerListingClearedWhileFetching(t *testing.T) {
	api := newFakeAPI()
	cfg := baseConfig(1)
	cfg.IntegrationID = intPtr(1)
	api.configs[1] = cfg
	api.indexers[1] = []webui.TorznabIndexer{{ID: 1, Name: "one"}}
	api.indexers[3] = []webui.TorznabIndexer{{ID: 10, Name: "ten"}}

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)
	require.False(t, s.Snapshot().IndexersLoading)

	release := api.hold("indexers")
	s.SetConfig(webui.ConfigPatch{IntegrationID: webui.Some(3)})

	st := s.Snapshot()
	assert.Empty(t, st.Indexers, "the old integration's listing is not shown")
	assert.True(t, st.IndexersLoading)

	release()
	settle(s)

	st = s.Snapshot()
	assert.False(t, st.IndexersLoading)
	assert.Equal(t, []webui.TorznabIndexer{{ID: 10, Name: "ten"}}, st.Indexers)
}

func TestEditsOutsideIntegrationDoNotRefetchIndexers(t *testing.T) {
	api := newFakeAPI()
	cfg := baseConfig(1)
	cfg.IntegrationID = intPtr(1)
	api.configs[1] = cfg

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)

	s.SetConfig(webui.ConfigPatch{IntervalHours: intPtr(12)})
	s.SetConfig(webui.ConfigPatch{DryRun: boolPtr(false)})
	settle(s)

	assert.Equal(t, 1, api.count("indexers"))
	assert.Equal(t, 12, s.Snapshot().Config.IntervalHours)
}

func TestSave(t *testing.T) {
	tests := []struct {
		name        string
		result      webui.SaveResult
		err         error
		wantError   string
		wantSuccess string
		outcome     ActivityOutcome
	}{
		{name: "saved", result: webui.SaveResult{Success: true}, wantSuccess: "Saved", outcome: ActivityOutcomeSucceeded},
		{name: "link_dir_valid", result: webui.SaveResult{Success: true, LinkDirValid: boolPtr(true)}, wantSuccess: "Saved", outcome: ActivityOutcomeSucceeded},
		{name: "link_dir_not_writable", result: webui.SaveResult{Success: true, LinkDirValid: boolPtr(false)}, wantError: "Link directory not writable", outcome: ActivityOutcomeWarning},
		{name: "server_error", err: &webui.APIError{StatusCode: 400, Message: "interval_hours must be between 1 and 168"}, wantError: "interval_hours must be between 1 and 168", outcome: ActivityOutcomeFailed},
		{name: "empty_error", err: &webui.APIError{StatusCode: 500}, wantError: "Failed", outcome: ActivityOutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.configs[1] = baseConfig(1)
			api.saveResult = tt.result
			if tt.err != nil {
				api.fail("save", tt.err)
			}

			s := newTestSession(t, api, clockwork.NewFakeClock())
			s.load(context.Background(), 1)

			err := s.Save(context.Background())
			if tt.err != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			st := s.Snapshot()
			assert.Equal(t, tt.wantError, st.Error)
			assert.Equal(t, tt.wantSuccess, st.Success)
			assert.False(t, st.Saving)

			activity := s.Activity()
			require.Len(t, activity, 1)
			assert.Equal(t, ActionSave, activity[0].Action)
			assert.Equal(t, tt.outcome, activity[0].Outcome)
		})
	}
}

func TestSaveSuccessClearsAfterDelay(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	clock := clockwork.NewFakeClock()

	s := newTestSession(t, api, clock)
	s.load(context.Background(), 1)
	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, "Saved", s.Snapshot().Success)

	clock.Advance(1999 * time.Millisecond)
	assert.Equal(t, "Saved", s.Snapshot().Success)

	clock.Advance(time.Millisecond)
	require.Eventually(t, func() bool { return s.Snapshot().Success == "" }, time.Second, 5*time.Millisecond)
}

func TestSaveWithoutConfig(t *testing.T) {
	s := newTestSession(t, newFakeAPI(), clockwork.NewFakeClock())
	assert.ErrorIs(t, s.Save(context.Background()), ErrNoConfig)

	empty := NewSession(DefaultConfig(), newFakeAPI(), nil)
	defer empty.Stop()
	assert.ErrorIs(t, empty.Save(context.Background()), ErrNoInstanceSelected)
}

func TestNewerMessageOutlivesOlderTimer(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.clearResult = webui.ClearResult{CacheCleared: 2, OutputCleared: 1}
	clock := clockwork.NewFakeClock()

	s := newTestSession(t, api, clock)
	s.load(context.Background(), 1)

	require.NoError(t, s.Save(context.Background()))
	clock.Advance(time.Second)
	require.NoError(t, s.ClearCache(context.Background()))
	assert.Equal(t, "Cleared 3 files", s.Snapshot().Success)

	clock.Advance(1500 * time.Millisecond)
	assert.Never(t, func() bool { return s.Snapshot().Success != "Cleared 3 files" }, 100*time.Millisecond, 5*time.Millisecond)

	clock.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool { return s.Snapshot().Success == "" }, time.Second, 5*time.Millisecond)
}

func TestErrorReplacesSuccess(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	require.NoError(t, s.Save(context.Background()))

	api.fail("stop", &webui.APIError{StatusCode: 400, Message: "No scan running"})
	require.Error(t, s.StopScan(context.Background()))

	st := s.Snapshot()
	assert.Equal(t, "No scan running", st.Error)
	assert.Empty(t, st.Success)
}

func TestScan(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.scanResult = webui.ScanResult{MatchesFound: 5, TorrentsAdded: 3}
	clock := clockwork.NewFakeClock()

	s := newTestSession(t, api, clock)
	s.load(context.Background(), 1)
	settle(s)
	statusBefore, statsBefore := api.count("status"), api.count("stats")

	require.NoError(t, s.Scan(context.Background(), false))
	settle(s)

	st := s.Snapshot()
	assert.Equal(t, "Done: 5 matches, 3 added", st.Success)
	assert.False(t, st.Scanning)
	assert.Equal(t, statusBefore+1, api.count("status"))
	assert.Equal(t, statsBefore+1, api.count("stats"))

	clock.Advance(10 * time.Second)
	assert.Never(t, func() bool { return s.Snapshot().Success != "Done: 5 matches, 3 added" },
		100*time.Millisecond, 5*time.Millisecond, "scan result stays until replaced")

	activity := s.Activity()
	require.Len(t, activity, 1)
	assert.Equal(t, ActionScan, activity[0].Action)
}

func TestScanFailure(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.fail("scan", &webui.APIError{StatusCode: 409, Message: "Scan already in progress"})

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)
	statusBefore := api.count("status")

	require.Error(t, s.Scan(context.Background(), true))
	settle(s)

	st := s.Snapshot()
	assert.Equal(t, "Scan already in progress", st.Error)
	assert.False(t, st.Scanning)
	assert.Equal(t, statusBefore, api.count("status"))

	activity := s.Activity()
	require.Len(t, activity, 1)
	assert.Equal(t, ActionForceScan, activity[0].Action)
	assert.Equal(t, ActivityOutcomeFailed, activity[0].Outcome)
}

func TestIsRunningUntilStatusReportsIdle(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.scanResult = webui.ScanResult{MatchesFound: 1}

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)
	require.False(t, s.IsRunning())

	release := api.hold("scan")
	done := make(chan error, 1)
	go func() { done <- s.Scan(context.Background(), false) }()

	require.Eventually(t, func() bool { return api.count("scan") == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.IsRunning(), "local scan counts as running")
	assert.True(t, s.Snapshot().Scanning)

	api.setStatus(webui.SchedulerStatus{InstanceID: 1, Running: true})
	release()
	require.NoError(t, <-done)
	settle(s)
	assert.True(t, s.IsRunning(), "server still reports a running scan")

	require.NoError(t, s.StopScan(context.Background()))
	assert.True(t, s.IsRunning(), "stop waits for the next status poll")
	assert.Equal(t, "Stopped", s.Snapshot().Success)

	api.setStatus(webui.SchedulerStatus{InstanceID: 1, Running: false})
	s.pollStatus(context.Background(), 1)
	assert.False(t, s.IsRunning())
}

func TestClearCacheRefreshesStats(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.clearResult = webui.ClearResult{CacheCleared: 40, OutputCleared: 2}

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	settle(s)
	before := api.count("stats")

	require.NoError(t, s.ClearCache(context.Background()))
	settle(s)

	assert.Equal(t, "Cleared 42 files", s.Snapshot().Success)
	assert.Equal(t, before+1, api.count("stats"))
}

func TestResultsAfterStopAreDropped(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)
	updates, _ := s.Subscribe()

	s.Stop()
	_, open := <-updates
	assert.False(t, open, "subscribers are closed on stop")

	s.commitLogs([]webui.LogEntry{{Message: "late"}})
	api.setStatus(webui.SchedulerStatus{InstanceID: 1, Running: true})
	s.fetchStatus(context.Background(), 1)
	s.SetConfig(webui.ConfigPatch{IntervalHours: intPtr(2)})

	st := s.Snapshot()
	assert.Empty(t, st.Logs)
	assert.False(t, st.Status.Running)
	assert.Equal(t, 24, st.Config.IntervalHours)

	assert.ErrorIs(t, s.Save(context.Background()), ErrSessionStopped)
	assert.ErrorIs(t, s.Scan(context.Background(), false), ErrSessionStopped)
	assert.ErrorIs(t, s.Start(context.Background()), ErrSessionStopped)
}

func TestInFlightActionResultDroppedAfterStop(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)

	s := newTestSession(t, api, clockwork.NewFakeClock())
	s.load(context.Background(), 1)

	release := api.hold("save")
	done := make(chan error, 1)
	go func() { done <- s.Save(context.Background()) }()
	require.Eventually(t, func() bool { return api.count("save") == 1 }, time.Second, 5*time.Millisecond)

	s.Stop()
	release()
	require.NoError(t, <-done)

	st := s.Snapshot()
	assert.Empty(t, st.Success)
	assert.True(t, st.Saving, "state is frozen at stop")
}

func TestStaleLoadIsDropped(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	second := baseConfig(2)
	second.IntervalHours = 48
	api.configs[2] = second

	s := newTestSession(t, api, clockwork.NewFakeClock())
	release := api.hold("config")
	done := make(chan struct{})
	go func() {
		s.load(context.Background(), 1)
		close(done)
	}()
	require.Eventually(t, func() bool { return api.count("config") == 1 }, time.Second, 5*time.Millisecond)

	s.mu.Lock()
	s.selected = 2
	s.mu.Unlock()
	release()
	<-done
	assert.Nil(t, s.Snapshot().Config, "result for a deselected instance is dropped")

	s.load(context.Background(), 2)
	settle(s)

	st := s.Snapshot()
	require.NotNil(t, st.Config)
	assert.Equal(t, 48, st.Config.IntervalHours)
}

func TestAutoScroll(t *testing.T) {
	grow := func(n int) []webui.LogEntry {
		out := make([]webui.LogEntry, n)
		for i := range out {
			out[i] = webui.LogEntry{Message: string(rune('a' + i))}
		}
		return out
	}

	t.Run("scrolls_on_growth", func(t *testing.T) {
		s := newTestSession(t, newFakeAPI(), clockwork.NewFakeClock())
		vp := &scrollRecorder{}
		s.AttachViewport(vp)

		s.commitLogs(grow(2))
		s.commitLogs(grow(2))
		s.commitLogs(grow(3))
		assert.Equal(t, 2, vp.count())
	})

	t.Run("disabled", func(t *testing.T) {
		s := newTestSession(t, newFakeAPI(), clockwork.NewFakeClock())
		vp := &scrollRecorder{}
		s.AttachViewport(vp)
		s.SetAutoScroll(false)

		s.commitLogs(grow(2))
		s.commitLogs(grow(4))
		assert.Equal(t, 0, vp.count())
		assert.False(t, s.Snapshot().AutoScroll)
	})

	t.Run("reenabled_catches_up", func(t *testing.T) {
		s := newTestSession(t, newFakeAPI(), clockwork.NewFakeClock())
		vp := &scrollRecorder{}
		s.AttachViewport(vp)
		s.SetAutoScroll(false)

		s.commitLogs(grow(3))
		s.SetAutoScroll(true)
		assert.Equal(t, 1, vp.count())
	})

	t.Run("detached", func(t *testing.T) {
		s := newTestSession(t, newFakeAPI(), clockwork.NewFakeClock())
		vp := &scrollRecorder{}
		s.AttachViewport(vp)
		s.AttachViewport(nil)

		s.commitLogs(grow(3))
		assert.Equal(t, 0, vp.count())
	})
}

func TestPollersRunUntilStop(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.integrations = []webui.Integration{{ID: 1, Type: webui.IntegrationTypeProwlarr}, {ID: 2, Type: "sonarr"}}

	cfg := DefaultConfig()
	cfg.PollInterval = 20 * time.Millisecond
	cfg.Metrics = metrics.NewMetricsManager()
	s := NewSession(cfg, api, testInstances)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		return api.count("logs") >= 3 && api.count("status") >= 3
	}, 2*time.Second, 10*time.Millisecond)

	st := s.Snapshot()
	require.NotNil(t, st.Config)
	assert.Len(t, s.ProwlarrIntegrations(), 1)

	s.Stop()
	logs, status := api.count("logs"), api.count("status")
	assert.Never(t, func() bool {
		return api.count("logs") != logs || api.count("status") != status
	}, 100*time.Millisecond, 10*time.Millisecond)
}

func TestNoStatusPollingWithoutSelection(t *testing.T) {
	api := newFakeAPI()
	cfg := DefaultConfig()
	cfg.PollInterval = 20 * time.Millisecond
	s := NewSession(cfg, api, nil)
	defer s.Stop()

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return api.count("logs") >= 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, api.count("status"))
	assert.Equal(t, 0, api.count("config"))
}

func TestSelectMovesStatusPoller(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)
	api.configs[2] = baseConfig(2)

	cfg := DefaultConfig()
	cfg.PollInterval = 20 * time.Millisecond
	s := NewSession(cfg, api, testInstances)
	defer s.Stop()

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return api.count("status") >= 2 }, 2*time.Second, 10*time.Millisecond)

	s.Select(2)
	assert.Equal(t, 2, s.Selected())
	require.Eventually(t, func() bool {
		st := s.Snapshot()
		return st.Config != nil && st.Config.InstanceID == 2
	}, 2*time.Second, 10*time.Millisecond)

	api.mu.Lock()
	api.statusReqs = nil
	api.mu.Unlock()
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.statusReqs) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	api.mu.Lock()
	defer api.mu.Unlock()
	for _, id := range api.statusReqs {
		assert.Equal(t, 2, id)
	}
}

func TestStartStopsWithContext(t *testing.T) {
	api := newFakeAPI()
	cfg := DefaultConfig()
	cfg.PollInterval = 20 * time.Millisecond
	s := NewSession(cfg, api, testInstances)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	updates, _ := s.Subscribe()
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestActivityHistoryIsCapped(t *testing.T) {
	api := newFakeAPI()
	api.configs[1] = baseConfig(1)

	cfg := DefaultConfig()
	cfg.Clock = clockwork.NewFakeClock()
	cfg.HistorySize = 3
	s := NewSession(cfg, api, testInstances)
	defer s.Stop()
	s.load(context.Background(), 1)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(context.Background()))
	}
	require.NoError(t, s.ClearCache(context.Background()))

	activity := s.Activity()
	require.Len(t, activity, 3)
	assert.Equal(t, ActionSave, activity[0].Action)
	assert.Equal(t, ActionClearCache, activity[2].Action)
}

func TestStateCanScan(t *testing.T) {
	withIntegration := baseConfig(1)
	withIntegration.IntegrationID = intPtr(1)

	tests := []struct {
		name  string
		state State
		want  bool
	}{
		{name: "no_config", state: State{}, want: false},
		{name: "no_integration", state: State{Config: &webui.CrossSeedConfig{}}, want: false},
		{name: "ready", state: State{Config: &withIntegration}, want: true},
		{name: "scanning", state: State{Config: &withIntegration, Scanning: true}, want: false},
		{name: "server_running", state: State{Config: &withIntegration, Status: &webui.SchedulerStatus{Running: true}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.CanScan())
		})
	}
}

func TestSelectIgnoresUnknownInstance(t *testing.T) {
	tests := []struct {
		name     string
		id       int
		want     bool
		selected int
	}{
		{name: "unknown", id: 99, want: false, selected: 1},
		{name: "zero", id: 0, want: false, selected: 1},
		{name: "current", id: 1, want: true, selected: 1},
		{name: "other", id: 2, want: true, selected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			s := newTestSession(t, api, clockwork.NewFakeClock())

			assert.Equal(t, tt.want, s.Select(tt.id))
			settle(s)
			assert.Equal(t, tt.selected, s.Selected())
			assert.Equal(t, 0, api.count("config"), "nothing loads before Start")
		})
	}
}
