// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes Prometheus metrics for cross-seed sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "qbitwebui"

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Manager owns a private registry so several sessions in one process, or
// tests, never collide on the default registerer.
type Manager struct {
	registry *prometheus.Registry

	pollTotal      *prometheus.CounterVec
	actionTotal    *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	scanRunning    prometheus.Gauge
}

func NewMetricsManager() *Manager {
	m := &Manager{
		registry: prometheus.NewRegistry(),
		pollTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_total",
				Help:      "Background refreshes by resource and result",
			},
			[]string{"resource", "result"},
		),
		actionTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "action_total",
				Help:      "User actions by name and result",
			},
			[]string{"action", "result"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Round trip time of user actions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		scanRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "scan_running",
				Help:      "1 while the selected instance reports a running scan",
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pollTotal,
		m.actionTotal,
		m.actionDuration,
		m.scanRunning,
	)

	return m
}

// Registry returns the registry backing the manager.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// RecordPoll counts one background refresh of resource. A nil manager is a no-op.
func (m *Manager) RecordPoll(resource string, err error) {
	if m == nil {
		return
	}
	m.pollTotal.WithLabelValues(resource, result(err)).Inc()
}

// RecordAction counts a user action and observes how long it took.
func (m *Manager) RecordAction(action string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.actionTotal.WithLabelValues(action, result(err)).Inc()
	m.actionDuration.WithLabelValues(action).Observe(time.Since(started).Seconds())
}

func (m *Manager) SetScanRunning(running bool) {
	if m == nil {
		return
	}
	value := 0.0
	if running {
		value = 1.0
	}
	m.scanRunning.Set(value)
}

func result(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
