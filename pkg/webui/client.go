// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package webui is a typed client for the qbitwebui backend API.
package webui

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxErrorBody bounds how much of an error response is read looking for the
// "error" field.
const maxErrorBody = 64 << 10

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout applies to every request. Zero leaves requests unbounded apart
	// from the caller's context.
	Timeout            time.Duration
	InsecureSkipVerify bool
	UserAgent          string
	// HTTPClient overrides the default client. Its Jar carries the session
	// cookie; one is installed when nil.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client talks to a single qbitwebui backend with a cookie-based session.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a client for the backend at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("backend URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.InsecureSkipVerify {
			//nolint:gosec // user opted in for self-signed backends
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &Client{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "webui-client").Str("url", baseURL).Logger(),
	}, nil
}

// BaseURL returns the backend URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Error string `json:"error"`
}

// errorMode selects how a non-2xx response becomes an APIError message.
type errorMode int

const (
	// fixedError always uses the endpoint's fixed message.
	fixedError errorMode = iota
	// parsedError prefers the body's "error" field.
	parsedError
)

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Trace().Str("method", method).Str("path", path).Msg("executing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// call performs a request and decodes a JSON response into out (when non-nil).
func (c *Client) call(ctx context.Context, method, path string, body, out any, mode errorMode, fallback string) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.statusError(resp, method, path, mode, fallback)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func (c *Client) statusError(resp *http.Response, method, path string, mode errorMode, fallback string) error {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
		Message:    fallback,
	}

	if mode == parsedError {
		var parsed errorBody
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&parsed); err == nil && parsed.Error != "" {
			apiErr.Message = parsed.Error
		}
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("method", method).
		Str("path", path).
		Str("message", apiErr.Message).
		Msg("request returned error status")

	return apiErr
}
