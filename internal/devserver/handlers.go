// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/maciejonos/qbitwebui/pkg/webui"
)

const (
	sessionUserKey     = "user_id"
	sessionUsernameKey = "username"

	maxBodyBytes = 1 << 20
)

// CrossSeedHandler serves the /api/cross-seed routes from a Backend.
type CrossSeedHandler struct {
	backend *Backend
}

func NewCrossSeedHandler(backend *Backend) *CrossSeedHandler {
	return &CrossSeedHandler{backend: backend}
}

func (h *CrossSeedHandler) Routes(r chi.Router) {
	r.Route("/cross-seed", func(r chi.Router) {
		r.Get("/config/{instanceID}", h.GetConfig)
		r.Put("/config/{instanceID}", h.UpdateConfig)
		r.Get("/indexers/{instanceID}", h.GetIndexers)
		r.Post("/scan/{instanceID}", h.TriggerScan)
		r.Post("/stop/{instanceID}", h.StopScan)
		r.Get("/logs", h.GetLogs)
		r.Get("/status", h.GetStatuses)
		r.Get("/status/{instanceID}", h.GetStatus)
		r.Post("/cache/{instanceID}/clear", h.ClearCache)
		r.Get("/cache/{instanceID}/stats", h.GetCacheStats)
		r.Get("/history/{instanceID}", h.GetHistory)
		r.Get("/history/{instanceID}/{searcheeID}/decisions", h.GetDecisions)
	})
}

// injected answers with an injected failure and reports whether it did.
func injected(w http.ResponseWriter, b *Backend, ep Endpoint) bool {
	f, ok := b.enter(ep)
	if !ok {
		return false
	}
	RespondError(w, f.status, f.message)
	return true
}

// instance resolves the {instanceID} path parameter to a known instance.
func (h *CrossSeedHandler) instance(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := intParam(r, "instanceID")
	if !ok || !h.backend.hasInstance(id) {
		RespondError(w, http.StatusNotFound, "Instance not found")
		return 0, false
	}
	return id, true
}

func (h *CrossSeedHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointConfigGet) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, h.backend.Config(id))
}

func (h *CrossSeedHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointConfigUpdate) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var update webui.ConfigUpdate
	if err := json.Unmarshal(raw, &update); err != nil {
		log.Debug().Err(err).Msg("Failed to decode config update")
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := validateUpdate(&update); msg != "" {
		RespondError(w, http.StatusBadRequest, msg)
		return
	}

	RespondJSON(w, http.StatusOK, h.backend.applyUpdate(id, raw, update))
}

// validateUpdate checks server-side bounds and trims the link directory.
func validateUpdate(u *webui.ConfigUpdate) string {
	switch {
	case u.IntervalHours < 1 || u.IntervalHours > 168:
		return "interval_hours must be between 1 and 168"
	case u.DelaySeconds < 30 || u.DelaySeconds > 3600:
		return "delay_seconds must be between 30 and 3600"
	case len(u.CategorySuffix) > 50:
		return "category_suffix too long (max 50)"
	case len(u.Tag) > 100:
		return "tag too long (max 100)"
	case u.MatchMode != webui.MatchModeStrict && u.MatchMode != webui.MatchModeFlexible:
		return "match_mode must be strict or flexible"
	}
	if u.LinkDir != nil {
		dir := strings.TrimSpace(*u.LinkDir)
		if len(dir) > 500 {
			return "link_dir too long (max 500)"
		}
		if dir == "" {
			u.LinkDir = nil
		} else {
			u.LinkDir = &dir
		}
	}
	if u.IndexerIDs == nil {
		u.IndexerIDs = []int{}
	}
	if u.Blocklist == nil {
		u.Blocklist = []string{}
	}
	return ""
}

func (h *CrossSeedHandler) GetIndexers(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointIndexers) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}

	indexers, err := h.backend.indexersFor(id, queryInt(r, "integrationId", 0))
	switch err {
	case nil:
		RespondJSON(w, http.StatusOK, indexers)
	case errNoIntegration:
		RespondError(w, http.StatusBadRequest, err.Error())
	default:
		RespondError(w, http.StatusNotFound, err.Error())
	}
}

func (h *CrossSeedHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointScan) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}

	var body struct {
		Force bool `json:"force"`
	}
	// a missing or malformed body means a regular scan
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body)

	res, err := h.backend.scan(id, body.Force)
	if err != nil {
		RespondError(w, http.StatusConflict, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, res)
}

func (h *CrossSeedHandler) StopScan(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointStop) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}
	if err := h.backend.stop(id); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, webui.StopResult{Stopped: true})
}

func (h *CrossSeedHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointLogs) {
		return
	}
	limit := queryInt(r, "limit", webui.DefaultLogLimit)
	if limit <= 0 {
		limit = webui.DefaultLogLimit
	}
	RespondJSON(w, http.StatusOK, h.backend.tailLogs(limit))
}

func (h *CrossSeedHandler) GetStatuses(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointStatusAll) {
		return
	}
	RespondJSON(w, http.StatusOK, h.backend.statuses())
}

func (h *CrossSeedHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointStatus) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, h.backend.status(id))
}

func (h *CrossSeedHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointCacheClear) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, h.backend.clearCache(id))
}

func (h *CrossSeedHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointCacheStats) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}
	RespondJSON(w, http.StatusOK, h.backend.cacheStats(id))
}

func (h *CrossSeedHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointHistory) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", webui.DefaultHistoryLimit)
	if limit <= 0 {
		limit = webui.DefaultHistoryLimit
	}
	offset := max(queryInt(r, "offset", 0), 0)
	RespondJSON(w, http.StatusOK, h.backend.history(id, limit, offset))
}

func (h *CrossSeedHandler) GetDecisions(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointDecisions) {
		return
	}
	id, ok := h.instance(w, r)
	if !ok {
		return
	}
	searcheeID, ok := intParam(r, "searcheeID")
	if !ok || !h.backend.hasSearchee(id, searcheeID) {
		RespondError(w, http.StatusNotFound, "Searchee not found")
		return
	}
	RespondJSON(w, http.StatusOK, h.backend.decisionsFor(id, searcheeID))
}

// AuthHandler implements the session login flow on top of scs.
type AuthHandler struct {
	backend        *Backend
	sessionManager *scs.SessionManager
}

func NewAuthHandler(backend *Backend, sm *scs.SessionManager) *AuthHandler {
	return &AuthHandler{backend: backend, sessionManager: sm}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointLogin) {
		return
	}

	var creds credentials
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&creds); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if h.backend.authRequired() && !h.backend.checkCredentials(creds.Username, creds.Password) {
		RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to renew session token")
		RespondError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	h.sessionManager.Put(r.Context(), sessionUserKey, 1)
	h.sessionManager.Put(r.Context(), sessionUsernameKey, creds.Username)

	RespondJSON(w, http.StatusOK, webui.User{ID: 1, Username: creds.Username})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to destroy session")
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !h.sessionManager.Exists(r.Context(), sessionUserKey) {
		if h.backend.authRequired() {
			RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		RespondJSON(w, http.StatusOK, webui.User{ID: 1, Username: "dev"})
		return
	}
	RespondJSON(w, http.StatusOK, webui.User{
		ID:       h.sessionManager.GetInt(r.Context(), sessionUserKey),
		Username: h.sessionManager.GetString(r.Context(), sessionUsernameKey),
	})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(body.NewPassword) < 8 {
		RespondError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	if !h.backend.changePassword(body.CurrentPassword, body.NewPassword) {
		RespondError(w, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ResourcesHandler lists instances and integrations.
type ResourcesHandler struct {
	backend *Backend
}

func NewResourcesHandler(backend *Backend) *ResourcesHandler {
	return &ResourcesHandler{backend: backend}
}

func (h *ResourcesHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointInstances) {
		return
	}
	RespondJSON(w, http.StatusOK, h.backend.listInstances())
}

func (h *ResourcesHandler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	if injected(w, h.backend, EndpointIntegrations) {
		return
	}
	RespondJSON(w, http.StatusOK, h.backend.listIntegrations())
}
