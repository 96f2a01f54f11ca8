// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package shell

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/hashicorp/go-version"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultUpdateRepository = "Maciejonos/qbitwebui"
	defaultGitHubAPI        = "https://api.github.com"
	defaultUpdateTTL        = time.Hour
)

var ErrDraftRelease = errors.New("latest release is draft or prerelease")

// Release is the latest published release.
type Release struct {
	TagName     string
	Version     string
	URL         string
	PublishedAt time.Time
}

// UpdateStatus is the outcome of the last successful check.
type UpdateStatus struct {
	CurrentVersion string
	Latest         *Release
	HasUpdate      bool
	CheckedAt      time.Time
}

type UpdateConfig struct {
	Repository     string
	CurrentVersion string
	// APIBaseURL overrides https://api.github.com.
	APIBaseURL string
	// TTL is how long a check result is reused.
	TTL        time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Clock      clockwork.Clock
	Logger     *zerolog.Logger
}

type githubRelease struct {
	TagName     string    `json:"tag_name"`
	HTMLURL     string    `json:"html_url"`
	Draft       bool      `json:"draft"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// UpdateChecker polls GitHub for a newer release and caches the answer.
type UpdateChecker struct {
	cfg    UpdateConfig
	client *http.Client
	clock  clockwork.Clock
	logger zerolog.Logger

	mu     sync.Mutex
	status *UpdateStatus

	schedMu   sync.Mutex
	scheduler gocron.Scheduler
}

func NewUpdateChecker(cfg UpdateConfig) *UpdateChecker {
	if cfg.Repository == "" {
		cfg.Repository = DefaultUpdateRepository
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultGitHubAPI
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultUpdateTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	base := log.Logger
	if cfg.Logger != nil {
		base = *cfg.Logger
	}

	return &UpdateChecker{
		cfg:    cfg,
		client: client,
		clock:  cfg.Clock,
		logger: base.With().Str("module", "update").Logger(),
	}
}

// Start checks now and then once per TTL until Stop.
func (u *UpdateChecker) Start(ctx context.Context) error {
	u.schedMu.Lock()
	defer u.schedMu.Unlock()
	if u.scheduler != nil {
		return nil
	}

	sched, err := gocron.NewScheduler(gocron.WithClock(u.clock))
	if err != nil {
		return fmt.Errorf("failed to create update scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(u.cfg.TTL),
		gocron.NewTask(func() {
			if _, err := u.Check(ctx); err != nil {
				u.logger.Debug().Err(err).Msg("update check failed")
			}
		}),
		gocron.WithName("update-check"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule update check: %w", err)
	}
	sched.Start()
	u.scheduler = sched
	return nil
}

func (u *UpdateChecker) Stop() {
	u.schedMu.Lock()
	sched := u.scheduler
	u.scheduler = nil
	u.schedMu.Unlock()
	if sched != nil {
		if err := sched.Shutdown(); err != nil {
			u.logger.Debug().Err(err).Msg("update scheduler shutdown")
		}
	}
}

// Status returns the cached result, or nil before the first successful check.
func (u *UpdateChecker) Status() *UpdateStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.status == nil {
		return nil
	}
	st := *u.status
	return &st
}

// Check returns the cached status when it is younger than the TTL, otherwise
// it asks GitHub.
func (u *UpdateChecker) Check(ctx context.Context) (*UpdateStatus, error) {
	now := u.clock.Now()
	if st := u.Status(); st != nil && now.Sub(st.CheckedAt) < u.cfg.TTL {
		return st, nil
	}

	release, err := u.fetchLatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	st := &UpdateStatus{
		CurrentVersion: u.cfg.CurrentVersion,
		Latest:         release,
		CheckedAt:      now,
	}
	st.HasUpdate, err = IsNewerThan(release.TagName, u.cfg.CurrentVersion)
	if err != nil {
		u.logger.Debug().Err(err).Str("current", u.cfg.CurrentVersion).Msg("skipping version comparison")
		st.HasUpdate = false
	}
	if st.HasUpdate {
		u.logger.Info().Str("current", u.cfg.CurrentVersion).Str("latest", release.Version).Msg("update available")
	}

	u.mu.Lock()
	u.status = st
	u.mu.Unlock()

	out := *st
	return &out, nil
}

func (u *UpdateChecker) fetchLatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(u.cfg.APIBaseURL, "/"), u.cfg.Repository)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if u.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", u.cfg.UserAgent)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	if release.Draft || release.Prerelease {
		return nil, ErrDraftRelease
	}

	return &Release{
		TagName:     release.TagName,
		Version:     strings.TrimPrefix(release.TagName, "v"),
		URL:         release.HTMLURL,
		PublishedAt: release.PublishedAt,
	}, nil
}

// IsNewerThan reports whether latest is a higher version than current.
// Development builds never have updates.
func IsNewerThan(latest, current string) (bool, error) {
	if current == "" || current == "dev" || strings.HasSuffix(current, "-dev") {
		return false, nil
	}
	l, err := version.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("invalid release version %q: %w", latest, err)
	}
	c, err := version.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("invalid current version %q: %w", current, err)
	}
	return l.GreaterThan(c), nil
}
