// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package webui

import (
	"context"
	"net/http"
)

func (c *Client) ListInstances(ctx context.Context) ([]Instance, error) {
	var instances []Instance
	if err := c.call(ctx, http.MethodGet, "/api/instances", nil, &instances,
		fixedError, "Failed to fetch instances"); err != nil {
		return nil, err
	}
	return instances, nil
}

func (c *Client) ListIntegrations(ctx context.Context) ([]Integration, error) {
	var integrations []Integration
	if err := c.call(ctx, http.MethodGet, "/api/integrations", nil, &integrations,
		fixedError, "Failed to fetch integrations"); err != nil {
		return nil, err
	}
	return integrations, nil
}

// ProwlarrIntegrations filters integrations down to the ones cross-seed can search with.
func ProwlarrIntegrations(integrations []Integration) []Integration {
	out := make([]Integration, 0, len(integrations))
	for _, in := range integrations {
		if in.Type == IntegrationTypeProwlarr {
			out = append(out, in)
		}
	}
	return out
}
