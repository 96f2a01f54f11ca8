// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package webui

import "net/http"

// APIError is returned for any non-2xx response. Message is the display
// string: the server's "error" field for mutating endpoints, otherwise a
// fixed per-endpoint message.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Is(target error) bool {
	_, ok := target.(*APIError)
	return ok
}

// IsUnauthorized reports whether the session cookie was missing or expired.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}
