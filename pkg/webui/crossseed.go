// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package webui

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultHistoryLimit = 100
	DefaultLogLimit     = 100
)

func (c *Client) GetCrossSeedConfig(ctx context.Context, instanceID int) (*CrossSeedConfig, error) {
	var cfg CrossSeedConfig
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/cross-seed/config/%d", instanceID), nil, &cfg,
		fixedError, "Failed to fetch cross-seed config"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Client) UpdateCrossSeedConfig(ctx context.Context, instanceID int, update ConfigUpdate) (*SaveResult, error) {
	var res SaveResult
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/api/cross-seed/config/%d", instanceID), update, &res,
		parsedError, "Failed to update config"); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetIndexers lists the Torznab indexers usable for cross-seed searches. A zero
// integrationID lets the server pick its default integration.
func (c *Client) GetIndexers(ctx context.Context, instanceID, integrationID int) ([]TorznabIndexer, error) {
	path := fmt.Sprintf("/api/cross-seed/indexers/%d", instanceID)
	if integrationID != 0 {
		path += "?integrationId=" + strconv.Itoa(integrationID)
	}

	var indexers []TorznabIndexer
	if err := c.call(ctx, http.MethodGet, path, nil, &indexers, parsedError, "Failed to fetch indexers"); err != nil {
		return nil, err
	}
	return indexers, nil
}

func (c *Client) TriggerScan(ctx context.Context, instanceID int, force bool) (*ScanResult, error) {
	body := struct {
		Force bool `json:"force"`
	}{Force: force}

	var res ScanResult
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/api/cross-seed/scan/%d", instanceID), body, &res,
		parsedError, "Scan failed"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) StopScan(ctx context.Context, instanceID int) (*StopResult, error) {
	var res StopResult
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/api/cross-seed/stop/%d", instanceID), nil, &res,
		parsedError, "Failed to stop scan"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetSchedulerStatus(ctx context.Context) ([]SchedulerStatus, error) {
	var statuses []SchedulerStatus
	if err := c.call(ctx, http.MethodGet, "/api/cross-seed/status", nil, &statuses,
		fixedError, "Failed to fetch scheduler status"); err != nil {
		return nil, err
	}
	return statuses, nil
}

func (c *Client) GetInstanceStatus(ctx context.Context, instanceID int) (*SchedulerStatus, error) {
	var status SchedulerStatus
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/cross-seed/status/%d", instanceID), nil, &status,
		fixedError, "Failed to fetch instance status"); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) ClearCache(ctx context.Context, instanceID int) (*ClearResult, error) {
	var res ClearResult
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/api/cross-seed/cache/%d/clear", instanceID), nil, &res,
		fixedError, "Failed to clear cache"); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetCacheStats(ctx context.Context, instanceID int) (*CacheStats, error) {
	var stats CacheStats
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/cross-seed/cache/%d/stats", instanceID), nil, &stats,
		fixedError, "Failed to fetch cache stats"); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetSearchHistory pages through searched torrents. Non-positive limit uses
// DefaultHistoryLimit.
func (c *Client) GetSearchHistory(ctx context.Context, instanceID, limit, offset int) (*SearchHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var history SearchHistory
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/cross-seed/history/%d?%s", instanceID, params.Encode()), nil, &history,
		fixedError, "Failed to fetch search history"); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) GetDecisions(ctx context.Context, instanceID, searcheeID int) ([]Decision, error) {
	var decisions []Decision
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/cross-seed/history/%d/%d/decisions", instanceID, searcheeID), nil, &decisions,
		fixedError, "Failed to fetch decisions"); err != nil {
		return nil, err
	}
	return decisions, nil
}

// GetLogs returns the most recent cross-seed log entries. Non-positive limit
// uses DefaultLogLimit.
func (c *Client) GetLogs(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	var entries []LogEntry
	if err := c.call(ctx, http.MethodGet, "/api/cross-seed/logs?limit="+strconv.Itoa(limit), nil, &entries,
		fixedError, "Failed to fetch logs"); err != nil {
		return nil, err
	}
	return entries, nil
}
