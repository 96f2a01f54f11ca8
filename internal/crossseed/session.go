// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package crossseed keeps the client-side state of the cross-seed control
// surface for one selected instance in sync with the backend.
package crossseed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/maciejonos/qbitwebui/internal/metrics"
	"github.com/maciejonos/qbitwebui/pkg/webui"
)

var (
	ErrNoInstanceSelected = errors.New("no instance selected")
	ErrNoConfig           = errors.New("config not loaded")
	ErrSessionStopped     = errors.New("session stopped")
)

const (
	msgLinkDirNotWritable = "Link directory not writable"
	msgFailed             = "Failed"
	msgSaved              = "Saved"
	msgStopped            = "Stopped"
)

// Config controls poll cadence and message timing.
type Config struct {
	PollInterval time.Duration
	LogLimit     int
	SuccessClear time.Duration
	HistorySize  int

	Clock   clockwork.Clock
	Metrics *metrics.Manager
	Logger  *zerolog.Logger
}

// DefaultConfig returns the cadence the web UI uses.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		LogLimit:     200,
		SuccessClear: 2 * time.Second,
		HistorySize:  defaultHistorySize,
	}
}

type indexerKey struct {
	instance    int
	integration int
}

// Session owns the cross-seed state of the selected instance and runs the
// status and log pollers between Start and Stop.
type Session struct {
	cfg     Config
	api     API
	clock   clockwork.Clock
	metrics *metrics.Manager
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	mu           sync.Mutex
	instances    []webui.Instance
	selected     int
	loading      bool
	saving       bool
	scanning     bool
	errMsg       string
	success      string
	successGen   uint64
	successTimer clockwork.Timer
	autoScroll   bool
	viewport     LogViewport
	lastLogCount int
	loadSeq      uint64
	indexerKey   indexerKey
	activity     []ActivityEvent
	started      bool
	closed       bool

	config       Cell[webui.CrossSeedConfig]
	status       Cell[webui.SchedulerStatus]
	cacheStats   Cell[webui.CacheStats]
	logs         Cell[[]webui.LogEntry]
	indexers     Cell[[]webui.TorznabIndexer]
	integrations Cell[[]webui.Integration]
	logSum       atomic.Uint64

	pollMu    sync.Mutex
	scheduler gocron.Scheduler
	statusJob gocron.Job

	bg sync.WaitGroup

	subsMu  sync.Mutex
	subs    map[int]chan struct{}
	nextSub int
}

// NewSession creates a session over instances, selecting the first one.
func NewSession(cfg Config, api API, instances []webui.Instance) *Session {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.LogLimit <= 0 {
		cfg.LogLimit = def.LogLimit
	}
	if cfg.SuccessClear <= 0 {
		cfg.SuccessClear = def.SuccessClear
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	base := log.Logger
	if cfg.Logger != nil {
		base = *cfg.Logger
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:        cfg,
		api:        api,
		clock:      cfg.Clock,
		metrics:    cfg.Metrics,
		logger:     base.With().Str("module", "crossseed").Str("session", uuid.NewString()[:8]).Logger(),
		ctx:        ctx,
		cancel:     cancel,
		instances:  append([]webui.Instance(nil), instances...),
		autoScroll: true,
		subs:       make(map[int]chan struct{}),
	}
	if len(instances) > 0 {
		s.selected = instances[0].ID
	}
	s.indexers.Store([]webui.TorznabIndexer{})
	s.integrations.Store([]webui.Integration{})
	s.logs.Store([]webui.LogEntry{})
	return s
}

// Start fetches integrations, loads the selected instance and starts the
// pollers. The session stops when ctx is done.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	selected := s.selected
	s.mu.Unlock()

	sched, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return fmt.Errorf("failed to create poll scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.PollInterval),
		gocron.NewTask(func() { s.pollLogs(s.ctx) }),
		gocron.WithName("crossseed-logs"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule log poller: %w", err)
	}

	s.pollMu.Lock()
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		s.pollMu.Unlock()
		_ = sched.Shutdown()
		return ErrSessionStopped
	}
	s.scheduler = sched
	sched.Start()
	s.pollMu.Unlock()

	context.AfterFunc(ctx, s.Stop)

	s.logger.Debug().Int("instanceID", selected).Dur("interval", s.cfg.PollInterval).Msg("session started")

	s.scheduleStatusPoller()
	s.spawn(s.fetchIntegrations)
	s.spawn(s.pollLogs)
	if selected != 0 {
		s.spawn(func(ctx context.Context) { s.load(ctx, selected) })
	}
	s.refreshIndexers()
	return nil
}

// Stop tears down the pollers and waits for background fetches. Results
// that arrive afterwards are dropped.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopSuccessTimerLocked()
	s.mu.Unlock()

	s.cancel()

	s.pollMu.Lock()
	sched := s.scheduler
	s.scheduler = nil
	s.statusJob = nil
	s.pollMu.Unlock()
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			s.logger.Debug().Err(err).Msg("poll scheduler shutdown")
		}
	}

	s.bg.Wait()

	s.subsMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subsMu.Unlock()

	s.logger.Debug().Msg("session stopped")
}

// spawn runs fn in the background unless the session is stopped.
func (s *Session) spawn(fn func(context.Context)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.bg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.bg.Done()
		fn(s.ctx)
	}()
}

// Subscribe returns a channel that receives a value whenever state changes.
// Notifications coalesce; the channel is closed by Stop or the returned func.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	ch := make(chan struct{}, 1)
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			if c, ok := s.subs[id]; ok {
				close(c)
				delete(s.subs, id)
			}
		})
	}
}

func (s *Session) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Selected returns the selected instance id, or zero.
func (s *Session) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Instances returns the instances the session can select from.
func (s *Session) Instances() []webui.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]webui.Instance(nil), s.instances...)
}

// Select switches to another instance and reloads its state. Ids outside
// the session's instance list are ignored and reported as false.
func (s *Session) Select(id int) bool {
	s.mu.Lock()
	if !slices.ContainsFunc(s.instances, func(in webui.Instance) bool { return in.ID == id }) {
		s.mu.Unlock()
		s.logger.Debug().Int("instanceID", id).Msg("ignoring unknown instance")
		return false
	}
	if s.closed || id == s.selected {
		s.mu.Unlock()
		return !s.closed
	}
	s.selected = id
	started := s.started
	s.mu.Unlock()

	s.logger.Debug().Int("instanceID", id).Msg("instance selected")
	s.notify()

	if started {
		s.spawn(func(ctx context.Context) { s.load(ctx, id) })
		s.scheduleStatusPoller()
	}
	s.refreshIndexers()
	return true
}

// load fetches config, status and cache stats together and commits them
// only if all three succeed.
func (s *Session) load(ctx context.Context, id int) {
	s.mu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()

	var (
		cfg   *webui.CrossSeedConfig
		st    *webui.SchedulerStatus
		stats *webui.CacheStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.api.GetCrossSeedConfig(gctx, id)
		cfg = v
		return err
	})
	g.Go(func() error {
		v, err := s.api.GetInstanceStatus(gctx, id)
		st = v
		return err
	})
	g.Go(func() error {
		v, err := s.api.GetCacheStats(gctx, id)
		stats = v
		return err
	})
	err := g.Wait()
	s.metrics.RecordPoll("load", err)

	s.mu.Lock()
	if s.closed || seq != s.loadSeq {
		s.mu.Unlock()
		return
	}
	s.loading = false
	if err != nil {
		s.logger.Debug().Err(err).Int("instanceID", id).Msg("initial load failed")
		s.setErrorLocked(displayMessage(err))
	} else if id == s.selected {
		s.config.Store(cfg.Clone())
		s.status.Store(*st)
		s.cacheStats.Store(*stats)
	}
	running := s.isRunningLocked()
	s.mu.Unlock()

	s.metrics.SetScanRunning(running)
	s.notify()
	s.refreshIndexers()
}

func (s *Session) fetchIntegrations(ctx context.Context) {
	list, err := s.api.ListIntegrations(ctx)
	s.metrics.RecordPoll("integrations", err)
	if err != nil {
		s.logger.Debug().Err(err).Msg("failed to fetch integrations")
		return
	}
	if list == nil {
		list = []webui.Integration{}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.integrations.Store(list)
	s.mu.Unlock()
	s.notify()
}

// refreshIndexers fetches the indexer listing when the selected instance or
// the config's integration changed since the last listing.
func (s *Session) refreshIndexers() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	key := indexerKey{instance: s.selected}
	if cfg, ok := s.config.Load(); ok && cfg.HasIntegration() {
		key.integration = *cfg.IntegrationID
	}
	if key == s.indexerKey {
		s.mu.Unlock()
		return
	}
	s.indexerKey = key
	if key.instance == 0 || key.integration == 0 {
		s.indexers.Store([]webui.TorznabIndexer{})
		s.mu.Unlock()
		s.notify()
		return
	}
	// The previous listing belongs to another instance or integration.
	s.indexers.Reset()
	s.indexers.Begin()
	s.mu.Unlock()
	s.notify()

	s.spawn(func(ctx context.Context) { s.fetchIndexers(ctx, key) })
}

func (s *Session) fetchIndexers(ctx context.Context, key indexerKey) {
	list, err := s.api.GetIndexers(ctx, key.instance, key.integration)
	s.metrics.RecordPoll("indexers", err)

	s.mu.Lock()
	s.indexers.End()
	if s.closed || key != s.indexerKey {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.logger.Debug().Err(err).Int("integrationID", key.integration).Msg("failed to fetch indexers")
		s.indexers.Store([]webui.TorznabIndexer{})
	} else {
		if list == nil {
			list = []webui.TorznabIndexer{}
		}
		s.indexers.Store(list)
		if cfg, ok := s.config.Load(); ok {
			if pruned, changed := cfg.PruneIndexers(list); changed {
				s.logger.Debug().Ints("kept", pruned.IndexerIDs).Msg("dropped unknown indexer ids")
				s.config.Store(pruned)
			}
		}
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) pollLogs(ctx context.Context) {
	if !s.logs.TryBegin() {
		return
	}
	defer s.logs.End()

	entries, err := s.api.GetLogs(ctx, s.cfg.LogLimit)
	s.metrics.RecordPoll("logs", err)
	if err != nil {
		s.logger.Debug().Err(err).Msg("log poll failed")
		return
	}
	s.commitLogs(entries)
}

func (s *Session) commitLogs(entries []webui.LogEntry) {
	if entries == nil {
		entries = []webui.LogEntry{}
	}
	sum := fingerprint(entries)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.logs.Store(entries)
	scroll := s.autoScrollLocked(len(entries))
	s.mu.Unlock()

	if scroll != nil {
		scroll.ScrollToBottom()
	}
	if s.logSum.Swap(sum) != sum {
		s.notify()
	}
}

// autoScrollLocked returns the viewport to scroll when the log buffer grew
// since it was last observed.
func (s *Session) autoScrollLocked(count int) LogViewport {
	if !s.autoScroll || s.viewport == nil {
		return nil
	}
	var scroll LogViewport
	if count > s.lastLogCount {
		scroll = s.viewport
	}
	s.lastLogCount = count
	return scroll
}

func fingerprint(entries []webui.LogEntry) uint64 {
	d := xxhash.New()
	for _, e := range entries {
		_, _ = d.WriteString(e.Timestamp)
		_, _ = d.WriteString(string(e.Level))
		_, _ = d.WriteString(e.Message)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// scheduleStatusPoller (re)starts the status job for the current selection.
func (s *Session) scheduleStatusPoller() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if s.scheduler == nil {
		return
	}
	if s.statusJob != nil {
		if err := s.scheduler.RemoveJob(s.statusJob.ID()); err != nil {
			s.logger.Debug().Err(err).Msg("failed to remove status poller")
		}
		s.statusJob = nil
	}

	id := s.Selected()
	if id == 0 {
		return
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.PollInterval),
		gocron.NewTask(func() { s.pollStatus(s.ctx, id) }),
		gocron.WithName(fmt.Sprintf("crossseed-status-%d", id)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.logger.Error().Err(err).Int("instanceID", id).Msg("failed to schedule status poller")
		return
	}
	s.statusJob = job
}

func (s *Session) pollStatus(ctx context.Context, id int) {
	if !s.status.TryBegin() {
		return
	}
	defer s.status.End()
	s.fetchStatus(ctx, id)
}

func (s *Session) fetchStatus(ctx context.Context, id int) {
	st, err := s.api.GetInstanceStatus(ctx, id)
	s.metrics.RecordPoll("status", err)
	if err != nil {
		s.logger.Debug().Err(err).Int("instanceID", id).Msg("status poll failed")
		return
	}

	s.mu.Lock()
	if s.closed || id != s.selected {
		s.mu.Unlock()
		return
	}
	s.status.Store(*st)
	running := s.isRunningLocked()
	s.mu.Unlock()

	s.metrics.SetScanRunning(running)
	s.notify()
}

func (s *Session) fetchCacheStats(ctx context.Context, id int) {
	s.cacheStats.Begin()
	defer s.cacheStats.End()

	stats, err := s.api.GetCacheStats(ctx, id)
	s.metrics.RecordPoll("cache_stats", err)
	if err != nil {
		s.logger.Debug().Err(err).Int("instanceID", id).Msg("cache stats refresh failed")
		return
	}

	s.mu.Lock()
	if s.closed || id != s.selected {
		s.mu.Unlock()
		return
	}
	s.cacheStats.Store(*stats)
	s.mu.Unlock()
	s.notify()
}

// SetConfig applies a local edit to the loaded config. Nothing is sent until Save.
func (s *Session) SetConfig(patch webui.ConfigPatch) {
	s.mu.Lock()
	cfg, ok := s.config.Load()
	if s.closed || !ok {
		s.mu.Unlock()
		return
	}
	s.config.Store(cfg.Apply(patch))
	s.mu.Unlock()

	s.notify()
	s.refreshIndexers()
}

func (s *Session) SetAutoScroll(on bool) {
	s.mu.Lock()
	s.autoScroll = on
	var scroll LogViewport
	if on {
		entries, _ := s.logs.Load()
		scroll = s.autoScrollLocked(len(entries))
	}
	s.mu.Unlock()

	if scroll != nil {
		scroll.ScrollToBottom()
	}
	s.notify()
}

// AttachViewport sets the container scrolled on log growth. Nil detaches.
func (s *Session) AttachViewport(v LogViewport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewport = v
}

// Save sends the current config. A reported unwritable link directory is
// shown as an error even though the config was stored.
func (s *Session) Save(ctx context.Context) error {
	started := s.clock.Now()

	s.mu.Lock()
	cfg, ok := s.config.Load()
	id := s.selected
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrSessionStopped
	case id == 0:
		s.mu.Unlock()
		return ErrNoInstanceSelected
	case !ok:
		s.mu.Unlock()
		return ErrNoConfig
	}
	s.saving = true
	s.clearMessagesLocked()
	s.mu.Unlock()
	s.notify()

	res, err := s.api.UpdateCrossSeedConfig(ctx, id, cfg.Update())
	s.metrics.RecordAction(string(ActionSave), started, err)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	s.saving = false
	switch {
	case err != nil:
		msg := displayMessage(err)
		s.setErrorLocked(msg)
		s.recordActivityLocked(id, ActionSave, ActivityOutcomeFailed, msg)
	case res.LinkDirValid != nil && !*res.LinkDirValid:
		s.setErrorLocked(msgLinkDirNotWritable)
		s.recordActivityLocked(id, ActionSave, ActivityOutcomeWarning, msgLinkDirNotWritable)
	default:
		s.setSuccessLocked(msgSaved, true)
		s.recordActivityLocked(id, ActionSave, ActivityOutcomeSucceeded, msgSaved)
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.logger.Warn().Err(err).Int("instanceID", id).Msg("failed to save config")
	} else {
		s.logger.Info().Int("instanceID", id).Msg("config saved")
	}
	return err
}

// Scan runs a scan and waits for its result. Force rescans torrents that
// were searched before.
func (s *Session) Scan(ctx context.Context, force bool) error {
	started := s.clock.Now()
	action := ActionScan
	if force {
		action = ActionForceScan
	}

	s.mu.Lock()
	id := s.selected
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrSessionStopped
	case id == 0:
		s.mu.Unlock()
		return ErrNoInstanceSelected
	}
	s.scanning = true
	s.clearMessagesLocked()
	s.mu.Unlock()
	s.metrics.SetScanRunning(true)
	s.notify()

	res, err := s.api.TriggerScan(ctx, id, force)
	s.metrics.RecordAction(string(action), started, err)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	s.scanning = false
	if err != nil {
		msg := displayMessage(err)
		s.setErrorLocked(msg)
		s.recordActivityLocked(id, action, ActivityOutcomeFailed, msg)
	} else {
		msg := fmt.Sprintf("Done: %d matches, %d added", res.MatchesFound, res.TorrentsAdded)
		s.setSuccessLocked(msg, false)
		s.recordActivityLocked(id, action, ActivityOutcomeSucceeded, msg)
	}
	running := s.isRunningLocked()
	s.mu.Unlock()

	s.metrics.SetScanRunning(running)
	s.notify()

	if err == nil {
		s.logger.Info().Int("instanceID", id).Bool("force", force).Int("matches", res.MatchesFound).Int("added", res.TorrentsAdded).Msg("scan finished")
		s.spawn(func(ctx context.Context) {
			s.status.Begin()
			defer s.status.End()
			s.fetchStatus(ctx, id)
		})
		s.spawn(func(ctx context.Context) { s.fetchCacheStats(ctx, id) })
	}
	return err
}

// StopScan asks the backend to stop a running scan. The running state is
// left to the next status poll.
func (s *Session) StopScan(ctx context.Context) error {
	started := s.clock.Now()

	s.mu.Lock()
	id := s.selected
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrSessionStopped
	case id == 0:
		s.mu.Unlock()
		return ErrNoInstanceSelected
	}
	s.mu.Unlock()

	_, err := s.api.StopScan(ctx, id)
	s.metrics.RecordAction(string(ActionStop), started, err)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		msg := displayMessage(err)
		s.setErrorLocked(msg)
		s.recordActivityLocked(id, ActionStop, ActivityOutcomeFailed, msg)
	} else {
		s.setSuccessLocked(msgStopped, true)
		s.recordActivityLocked(id, ActionStop, ActivityOutcomeSucceeded, msgStopped)
	}
	s.mu.Unlock()
	s.notify()
	return err
}

// ClearCache removes cached torrents and generated output for the instance.
func (s *Session) ClearCache(ctx context.Context) error {
	started := s.clock.Now()

	s.mu.Lock()
	id := s.selected
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrSessionStopped
	case id == 0:
		s.mu.Unlock()
		return ErrNoInstanceSelected
	}
	s.mu.Unlock()

	res, err := s.api.ClearCache(ctx, id)
	s.metrics.RecordAction(string(ActionClearCache), started, err)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return err
	}
	if err != nil {
		msg := displayMessage(err)
		s.setErrorLocked(msg)
		s.recordActivityLocked(id, ActionClearCache, ActivityOutcomeFailed, msg)
	} else {
		msg := fmt.Sprintf("Cleared %d files", res.Total())
		s.setSuccessLocked(msg, true)
		s.recordActivityLocked(id, ActionClearCache, ActivityOutcomeSucceeded, msg)
	}
	s.mu.Unlock()
	s.notify()

	if err == nil {
		s.spawn(func(ctx context.Context) { s.fetchCacheStats(ctx, id) })
	}
	return err
}

// setSuccessLocked shows msg in place of any error. With autoClear the
// message disappears after SuccessClear unless something replaced it.
func (s *Session) setSuccessLocked(msg string, autoClear bool) {
	s.stopSuccessTimerLocked()
	s.errMsg = ""
	s.success = msg
	if !autoClear {
		return
	}
	gen := s.successGen
	s.successTimer = s.clock.AfterFunc(s.cfg.SuccessClear, func() {
		s.mu.Lock()
		if s.closed || s.successGen != gen {
			s.mu.Unlock()
			return
		}
		s.success = ""
		s.successTimer = nil
		s.mu.Unlock()
		s.notify()
	})
}

func (s *Session) setErrorLocked(msg string) {
	s.stopSuccessTimerLocked()
	s.success = ""
	s.errMsg = msg
}

func (s *Session) clearMessagesLocked() {
	s.stopSuccessTimerLocked()
	s.success = ""
	s.errMsg = ""
}

// stopSuccessTimerLocked invalidates any pending success clear.
func (s *Session) stopSuccessTimerLocked() {
	s.successGen++
	if s.successTimer != nil {
		s.successTimer.Stop()
		s.successTimer = nil
	}
}

func (s *Session) isRunningLocked() bool {
	if s.scanning {
		return true
	}
	st, ok := s.status.Load()
	return ok && st.Running
}

// IsRunning reports whether a scan is in progress, either started here or
// reported by the last status poll.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunningLocked()
}

// ProwlarrIntegrations returns the integrations usable as a search source.
func (s *Session) ProwlarrIntegrations() []webui.Integration {
	list, _ := s.integrations.Load()
	return webui.ProwlarrIntegrations(list)
}

func displayMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return msgFailed
}
