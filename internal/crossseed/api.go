// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"context"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

// API is the subset of the backend client a Session needs.
type API interface {
	ListIntegrations(ctx context.Context) ([]webui.Integration, error)
	GetCrossSeedConfig(ctx context.Context, instanceID int) (*webui.CrossSeedConfig, error)
	UpdateCrossSeedConfig(ctx context.Context, instanceID int, update webui.ConfigUpdate) (*webui.SaveResult, error)
	GetInstanceStatus(ctx context.Context, instanceID int) (*webui.SchedulerStatus, error)
	GetCacheStats(ctx context.Context, instanceID int) (*webui.CacheStats, error)
	GetIndexers(ctx context.Context, instanceID, integrationID int) ([]webui.TorznabIndexer, error)
	TriggerScan(ctx context.Context, instanceID int, force bool) (*webui.ScanResult, error)
	StopScan(ctx context.Context, instanceID int) (*webui.StopResult, error)
	ClearCache(ctx context.Context, instanceID int) (*webui.ClearResult, error)
	GetLogs(ctx context.Context, limit int) ([]webui.LogEntry, error)
}

var _ API = (*webui.Client)(nil)

// LogViewport is the scroll container the log tail is rendered into.
// ScrollToBottom may be called from any goroutine.
type LogViewport interface {
	ScrollToBottom()
}
