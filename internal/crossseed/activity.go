// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import "time"

// Action names a user-initiated session operation.
type Action string

const (
	ActionSave       Action = "save"
	ActionScan       Action = "scan"
	ActionForceScan  Action = "force_scan"
	ActionStop       Action = "stop"
	ActionClearCache Action = "clear_cache"
)

// ActivityOutcome describes how an action ended.
type ActivityOutcome string

const (
	ActivityOutcomeSucceeded ActivityOutcome = "succeeded"
	ActivityOutcomeWarning   ActivityOutcome = "warning"
	ActivityOutcomeFailed    ActivityOutcome = "failed"
)

// ActivityEvent records the outcome of a single action.
type ActivityEvent struct {
	InstanceID int             `json:"instanceId"`
	Action     Action          `json:"action"`
	Outcome    ActivityOutcome `json:"outcome"`
	Message    string          `json:"message"`
	Timestamp  time.Time       `json:"timestamp"`
}

const defaultHistorySize = 20

// recordActivityLocked appends an event, dropping the oldest past the cap.
func (s *Session) recordActivityLocked(instanceID int, action Action, outcome ActivityOutcome, message string) {
	event := ActivityEvent{
		InstanceID: instanceID,
		Action:     action,
		Outcome:    outcome,
		Message:    message,
		Timestamp:  s.clock.Now(),
	}
	s.activity = append(s.activity, event)
	if extra := len(s.activity) - s.cfg.HistorySize; extra > 0 {
		s.activity = append([]ActivityEvent(nil), s.activity[extra:]...)
	}
}

// Activity returns the recorded action outcomes, oldest first.
func (s *Session) Activity() []ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActivityEvent, len(s.activity))
	copy(out, s.activity)
	return out
}
