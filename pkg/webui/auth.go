// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package webui

import (
	"context"
	"errors"
	"net/http"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates and stores the session cookie in the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	var user User
	if err := c.call(ctx, http.MethodPost, "/api/auth/login", credentials{Username: username, Password: password}, &user,
		parsedError, "Login failed"); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the session. The response status is not checked.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Me returns the logged in user, or nil when the session is not valid.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	err := c.call(ctx, http.MethodGet, "/api/auth/me", nil, &user, fixedError, "Not authenticated")
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	body := struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}{CurrentPassword: currentPassword, NewPassword: newPassword}

	return c.call(ctx, http.MethodPost, "/api/auth/password", body, nil, parsedError, "Failed to change password")
}

// EnsureSession logs in unless the current session cookie is still valid.
// Empty credentials skip the login, for backends without authentication.
func (c *Client) EnsureSession(ctx context.Context, username, password string) (*User, error) {
	user, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}
	if user != nil || username == "" {
		return user, nil
	}
	return c.Login(ctx, username, password)
}
