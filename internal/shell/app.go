// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package shell holds the console's top-level state: the signed in user,
// the instance list, the current route and the shared theme and update
// services.
package shell

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Backend is the part of the API the shell needs.
type Backend interface {
	Me(ctx context.Context) (*webui.User, error)
	ListInstances(ctx context.Context) ([]webui.Instance, error)
}

var _ Backend = (*webui.Client)(nil)

type Dependencies struct {
	Backend Backend
	Themes  *ThemeService
	// Updates is optional.
	Updates *UpdateChecker
	Logger  *zerolog.Logger
}

// App is created once per process and passed to the views that need it.
type App struct {
	backend Backend
	themes  *ThemeService
	updates *UpdateChecker
	logger  zerolog.Logger

	mu        sync.RWMutex
	user      *webui.User
	instances []webui.Instance
	route     Route
}

func NewApp(deps Dependencies) *App {
	base := log.Logger
	if deps.Logger != nil {
		base = *deps.Logger
	}
	themes := deps.Themes
	if themes == nil {
		themes = NewThemeService(DefaultThemeID, deps.Logger)
	}
	return &App{
		backend: deps.Backend,
		themes:  themes,
		updates: deps.Updates,
		logger:  base.With().Str("module", "shell").Logger(),
		route:   Route{View: ViewInstances},
	}
}

// Start checks the session, loads the instance list and starts the update
// checker.
func (a *App) Start(ctx context.Context) error {
	user, err := a.backend.Me(ctx)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if user == nil {
		return ErrNotAuthenticated
	}

	instances, err := a.backend.ListInstances(ctx)
	if err != nil {
		return fmt.Errorf("failed to load instances: %w", err)
	}

	a.mu.Lock()
	a.user = user
	a.instances = instances
	a.mu.Unlock()

	a.logger.Debug().Str("user", user.Username).Int("instances", len(instances)).Msg("shell started")

	if a.updates != nil {
		if err := a.updates.Start(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("update checks disabled")
		}
	}
	return nil
}

func (a *App) Stop() {
	if a.updates != nil {
		a.updates.Stop()
	}
}

func (a *App) Themes() *ThemeService { return a.themes }

// Updates may be nil.
func (a *App) Updates() *UpdateChecker { return a.updates }

func (a *App) User() *webui.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

func (a *App) Instances() []webui.Instance {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]webui.Instance(nil), a.instances...)
}

func (a *App) Selector() InstanceSelector {
	return NewInstanceSelector(a.Instances())
}

// Navigate parses location and makes it the current route. A route naming an
// instance that does not exist drops the instance.
func (a *App) Navigate(location string) Route {
	route := ParseRoute(location)

	a.mu.Lock()
	defer a.mu.Unlock()
	if route.InstanceID != 0 {
		found := false
		for _, in := range a.instances {
			if in.ID == route.InstanceID {
				found = true
				break
			}
		}
		if !found {
			route.InstanceID = 0
		}
	}
	a.route = route
	return route
}

func (a *App) Route() Route {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.route
}

// UpdateNotice returns a one-line banner when a newer release exists.
func (a *App) UpdateNotice() string {
	if a.updates == nil {
		return ""
	}
	st := a.updates.Status()
	if st == nil || !st.HasUpdate || st.Latest == nil {
		return ""
	}
	return fmt.Sprintf("Update available: v%s", st.Latest.Version)
}
