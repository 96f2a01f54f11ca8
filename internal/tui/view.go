// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/maciejonos/qbitwebui/internal/crossseed"
	"github.com/maciejonos/qbitwebui/pkg/format"
	"github.com/maciejonos/qbitwebui/pkg/webui"
)

const activityRows = 5

func (m *Model) View() string {
	if len(m.st.Instances) == 0 {
		return m.styles.muted.Render("No instances configured") + "\n"
	}

	sections := []string{m.renderHeader()}
	switch {
	case m.st.Loading && m.st.Config == nil:
		sections = append(sections, m.styles.muted.Render("Loading..."))
	case m.st.Config == nil:
	case m.wide():
		sections = append(sections, m.renderStatusStrip())
		left := lipgloss.JoinVertical(lipgloss.Left, m.renderForm(), m.renderActions(), m.renderActivity())
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(max(m.width-m.logs.Width-6, 40)).Render(left),
			m.renderLogPanel(),
		))
	case m.showLogs:
		sections = append(sections, m.renderStatusStrip(), m.renderLogPanel())
	default:
		sections = append(sections, m.renderStatusStrip(), m.renderForm(), m.renderActions(), m.renderActivity())
	}

	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	parts := []string{m.styles.title.Render("Cross-Seed")}
	if in, ok := m.st.SelectedInstance(); ok {
		parts = append(parts, m.styles.accent.Render(in.Label))
	}
	if len(m.st.Instances) > 1 {
		parts = append(parts, m.styles.muted.Render("(tab to switch)"))
	}
	if m.st.Config != nil && len(m.st.ProwlarrIntegrations()) == 0 {
		parts = append(parts, m.styles.badge.Render("No Prowlarr"))
	}
	if m.notice != nil {
		if notice := m.notice(); notice != "" {
			parts = append(parts, m.styles.warning.Render(notice))
		}
	}
	header := strings.Join(parts, "  ")

	if banner := m.renderBanner(); banner != "" {
		header += "\n" + banner
	}
	return header
}

func (m *Model) renderBanner() string {
	var lines []string
	switch {
	case m.st.Error != "":
		lines = append(lines, m.styles.errorMsg.Render(m.st.Error))
	case m.st.Success != "":
		lines = append(lines, m.styles.success.Render(m.st.Success))
	}
	if m.warning != "" {
		lines = append(lines, m.styles.warning.Render("Blocklist: "+m.warning))
	}
	return strings.Join(lines, "\n")
}

// statusCells returns the label/value pairs of the status strip.
func (m *Model) statusCells() [][2]string {
	cfg := m.st.Config
	enabled := cfg.Enabled
	lastRun, nextRun := cfg.LastRun, cfg.NextRun
	if m.st.Status != nil {
		enabled = m.st.Status.Enabled
		lastRun, nextRun = m.st.Status.LastRun, m.st.Status.NextRun
	}

	running := "Idle"
	if m.st.IsRunning() {
		running = m.spinner.View() + "Running"
	}

	next := "—"
	if enabled {
		next = format.Countdown(nextRun, m.now(), "—")
	}

	cache := "0"
	if m.st.CacheStats != nil && m.st.CacheStats.Cache.Count > 0 {
		cache = fmt.Sprintf("%d (%s)", m.st.CacheStats.Cache.Count, format.Size(m.st.CacheStats.Cache.TotalSize))
	}

	return [][2]string{
		{"Scheduler", onOff(enabled)},
		{"Status", running},
		{"Last Run", format.Timestamp(lastRun)},
		{"Next", next},
		{"Cache", cache},
	}
}

func (m *Model) renderStatusStrip() string {
	cells := m.statusCells()
	cols := make([]string, 0, len(cells))
	width := max(m.width/len(cells)-2, 12)
	for _, c := range cells {
		cols = append(cols, lipgloss.NewStyle().Width(width).Render(
			m.styles.label.Render(c[0])+"\n"+m.styles.value.Render(c[1]),
		))
	}
	if !m.wide() {
		// two rows keep the strip readable on narrow terminals
		return lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.JoinHorizontal(lipgloss.Top, cols[:3]...),
			lipgloss.JoinHorizontal(lipgloss.Top, cols[3:]...),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m *Model) renderForm() string {
	var b strings.Builder
	b.WriteString(m.styles.heading.Render("Configuration"))
	b.WriteString("\n")

	for i, f := range visibleFields(m.st) {
		cursor := "  "
		label := m.styles.label.Render(f.label(m.st))
		if i == m.cursor {
			cursor = m.styles.focused.Render("> ")
			label = m.styles.focused.Render(f.label(m.st))
		}

		value := m.styles.value.Render(fieldValue(f, m.st))
		if m.editing && i == m.cursor {
			if m.editArea {
				value = "\n" + m.area.View()
			} else {
				value = m.input.View()
			}
		}
		fmt.Fprintf(&b, "%s%s: %s\n", cursor, label, value)

		if m.picking && f == fieldIndexers {
			b.WriteString(m.renderPicker())
		}
	}
	return m.styles.panel.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderPicker() string {
	var b strings.Builder
	for i, idx := range m.st.Indexers {
		mark := "[ ]"
		if m.selectedIndexer(idx.ID) {
			mark = "[x]"
		}
		line := fmt.Sprintf("    %s %s", mark, idx.Name)
		if i == m.pickCursor {
			line = m.styles.focused.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) renderActions() string {
	render := func(label, binding string, enabled bool) string {
		text := fmt.Sprintf("[%s] %s", binding, label)
		if !enabled {
			return m.styles.disabled.Render(text)
		}
		return m.styles.accent.Render(text)
	}

	save := "Save Configuration"
	if m.st.Saving {
		save = "Saving..."
	}
	scan := "Scan"
	if m.st.Scanning {
		scan = "Scanning..."
	}
	canScan := m.st.CanScan()

	return strings.Join([]string{
		render(save, "s", m.st.Config != nil && !m.st.Saving),
		render(scan, "r", canScan),
		render("Force Scan", "R", canScan),
		render("Stop", "x", m.st.IsRunning()),
		render("Clear Torrents", "c", m.st.SelectedID != 0),
	}, "  ")
}

func (m *Model) renderActivity() string {
	if len(m.activity) == 0 {
		return ""
	}
	events := m.activity
	if len(events) > activityRows {
		events = events[len(events)-activityRows:]
	}

	lines := []string{m.styles.heading.Render("Recent Activity")}
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		style := m.styles.success
		switch ev.Outcome {
		case crossseed.ActivityOutcomeFailed:
			style = m.styles.errorMsg
		case crossseed.ActivityOutcomeWarning:
			style = m.styles.warning
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			m.styles.muted.Render(format.RelativeTime(ev.Timestamp.Unix(), m.now())),
			m.styles.label.Render(string(ev.Action)),
			style.Render(ev.Message),
		))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderLogPanel() string {
	auto := "off"
	if m.st.AutoScroll {
		auto = "on"
	}
	title := fmt.Sprintf("%s  %s  %s",
		m.styles.heading.Render("Logs"),
		m.styles.muted.Render(strconv.Itoa(len(m.st.Logs))+" entries"),
		m.styles.muted.Render("Auto-scroll "+auto),
	)

	body := m.logs.View()
	if len(m.st.Logs) == 0 {
		body = m.styles.muted.Render("No logs")
	}
	return m.styles.panel.Render(title + "\n" + body)
}

func (m *Model) renderLogLines() string {
	lines := make([]string, 0, len(m.st.Logs))
	for _, e := range m.st.Logs {
		lines = append(lines, m.styles.level(e.Level).Render(logLine(e)))
	}
	return strings.Join(lines, "\n")
}

// logLine renders an entry as "HH:MM:SS [LEVEL] message".
func logLine(e webui.LogEntry) string {
	return fmt.Sprintf("%s [%s] %s", e.Clock(), e.Level, e.Message)
}
