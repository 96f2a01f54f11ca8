// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tui

import (
	"context"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/maciejonos/qbitwebui/internal/config"
	"github.com/maciejonos/qbitwebui/internal/crossseed"
	"github.com/maciejonos/qbitwebui/internal/shell"
)

// wideBreakpoint is the terminal width at which the form and the logs are
// shown side by side.
const wideBreakpoint = 100

type (
	stateChangedMsg  struct{}
	sessionClosedMsg struct{}
	tickMsg          time.Time
	themeChangedMsg  struct{ theme shell.Theme }
	actionDoneMsg    struct {
		action crossseed.Action
		err    error
	}
)

// Model is the cross-seed console. It renders session snapshots and turns
// key presses into session calls.
type Model struct {
	ctx     context.Context
	session *crossseed.Session
	themes  *shell.ThemeService
	logger  zerolog.Logger
	now     func() time.Time

	layout string
	notice func() string

	keys    keyMap
	help    help.Model
	styles  styles
	spinner spinner.Model

	changes <-chan struct{}
	unsub   func()

	st       crossseed.State
	activity []crossseed.ActivityEvent

	width, height int
	cursor        int

	editing  bool
	editArea bool
	input    textinput.Model
	area     textarea.Model
	warning  string

	picking    bool
	pickCursor int

	showLogs bool
	logs     viewport.Model
	scroller *logViewport
}

// Options configures a Model.
type Options struct {
	Session *crossseed.Session
	Themes  *shell.ThemeService
	// Layout is one of config.LayoutAuto, LayoutWide or LayoutCompact.
	Layout string
	// Notice returns a banner for the header, for example an available
	// update. It is polled on every render.
	Notice func() string
	Now    func() time.Time
	Logger *zerolog.Logger
}

func NewModel(ctx context.Context, opts Options) *Model {
	themes := opts.Themes
	if themes == nil {
		themes = shell.NewThemeService(shell.DefaultThemeID, opts.Logger)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("module", "tui").Logger()
	}

	input := textinput.New()
	input.CharLimit = 512
	area := textarea.New()
	area.ShowLineNumbers = false
	area.Placeholder = "One rule per line, e.g. name:sample or sizeBelow:52428800"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:      ctx,
		session:  opts.Session,
		themes:   themes,
		logger:   logger,
		now:      now,
		layout:   opts.Layout,
		notice:   opts.Notice,
		keys:     newKeyMap(),
		help:     help.New(),
		styles:   newStyles(themes.Current()),
		spinner:  sp,
		input:    input,
		area:     area,
		logs:     viewport.New(60, 20),
		scroller: &logViewport{},
		width:    wideBreakpoint,
		height:   30,
	}

	m.changes, m.unsub = opts.Session.Subscribe()
	opts.Session.AttachViewport(m.scroller)
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForChange(m.changes), tick(), m.spinner.Tick)
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return sessionClosedMsg{}
		}
		return stateChangedMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Close detaches the model from its session.
func (m *Model) Close() {
	m.session.AttachViewport(nil)
	if m.unsub != nil {
		m.unsub()
	}
}

func (m *Model) wide() bool {
	switch m.layout {
	case config.LayoutWide:
		return true
	case config.LayoutCompact:
		return false
	}
	return m.width >= wideBreakpoint
}

// refresh pulls a fresh snapshot and re-renders the log buffer.
func (m *Model) refresh() {
	m.st = m.session.Snapshot()
	m.activity = m.session.Activity()

	fields := visibleFields(m.st)
	if m.cursor >= len(fields) {
		m.cursor = max(len(fields)-1, 0)
	}
	if m.picking && len(m.st.Indexers) == 0 {
		m.picking = false
	}
	if m.pickCursor >= len(m.st.Indexers) {
		m.pickCursor = max(len(m.st.Indexers)-1, 0)
	}

	m.logs.SetContent(m.renderLogLines())
	m.scroller.apply(&m.logs)
}

func (m *Model) resize() {
	w, h := m.logPaneSize()
	m.logs.Width = w
	m.logs.Height = h
	m.area.SetWidth(max(w-4, 20))
	m.area.SetHeight(8)
	m.help.Width = m.width
}

func (m *Model) logPaneSize() (int, int) {
	h := max(m.height-12, 5)
	if m.wide() {
		return max(m.width/2-4, 20), h
	}
	return max(m.width-4, 20), h
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refresh()
		return m, nil

	case stateChangedMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case sessionClosedMsg:
		return m, tea.Quit

	case actionDoneMsg:
		if msg.err != nil {
			m.logger.Debug().Err(msg.err).Str("action", string(msg.action)).Msg("action failed")
		}
		m.refresh()
		return m, nil

	case tickMsg:
		return m, tick()

	case themeChangedMsg:
		m.styles = newStyles(msg.theme)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case m.editing:
			return m, m.updateEditor(msg)
		case m.picking:
			return m, m.updatePicker(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	fields := visibleFields(m.st)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NextInstance):
		m.step(1)
	case key.Matches(msg, m.keys.PrevInstance):
		m.step(-1)
	case key.Matches(msg, m.keys.Logs):
		m.showLogs = !m.showLogs
		m.resize()
	case m.showLogs && !m.wide():
		// the drawer owns navigation keys while open
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return cmd
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(fields)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(fields) {
			return m.activate(fields[m.cursor])
		}
	case key.Matches(msg, m.keys.Save):
		if m.st.Config != nil && !m.st.Saving {
			return m.run(crossseed.ActionSave, m.session.Save)
		}
	case key.Matches(msg, m.keys.Scan):
		if m.st.CanScan() {
			return m.run(crossseed.ActionScan, func(ctx context.Context) error { return m.session.Scan(ctx, false) })
		}
	case key.Matches(msg, m.keys.ForceScan):
		if m.st.CanScan() {
			return m.run(crossseed.ActionForceScan, func(ctx context.Context) error { return m.session.Scan(ctx, true) })
		}
	case key.Matches(msg, m.keys.Stop):
		if m.st.IsRunning() {
			return m.run(crossseed.ActionStop, m.session.StopScan)
		}
	case key.Matches(msg, m.keys.ClearCache):
		if m.st.SelectedID != 0 {
			return m.run(crossseed.ActionClearCache, m.session.ClearCache)
		}
	case key.Matches(msg, m.keys.AutoScroll):
		m.session.SetAutoScroll(!m.st.AutoScroll)
		m.refresh()
	default:
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) run(action crossseed.Action, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m *Model) step(dir int) {
	next, ok := shell.NewInstanceSelector(m.st.Instances).Next(m.st.SelectedID, dir)
	if !ok {
		return
	}
	m.session.Select(next.ID)
	m.cursor = 0
	m.warning = ""
	m.refresh()
}

// activate toggles, cycles or opens an editor for f.
func (m *Model) activate(f field) tea.Cmd {
	if m.st.Config == nil {
		return nil
	}
	switch f.kind() {
	case kindToggle, kindSelect:
		if patch, ok := togglePatch(f, m.st); ok {
			m.session.SetConfig(patch)
			m.refresh()
		}
		return nil
	case kindMulti:
		if len(m.st.Indexers) == 0 {
			return nil
		}
		m.picking = true
		m.pickCursor = 0
		return nil
	case kindBlock:
		m.editing, m.editArea = true, true
		m.area.SetValue(editValue(f, *m.st.Config))
		return m.area.Focus()
	default:
		m.editing, m.editArea = true, false
		m.input.SetValue(editValue(f, *m.st.Config))
		m.input.CursorEnd()
		return m.input.Focus()
	}
}

func (m *Model) currentField() (field, bool) {
	fields := visibleFields(m.st)
	if m.cursor >= len(fields) {
		return 0, false
	}
	return fields[m.cursor], true
}

func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	f, ok := m.currentField()
	if !ok {
		m.closeEditor()
		return nil
	}

	if m.editArea {
		// enter inserts a newline in the blocklist, esc commits
		if msg.Type == tea.KeyEsc {
			m.commit(f, m.area.Value())
			return nil
		}
		var cmd tea.Cmd
		m.area, cmd = m.area.Update(msg)
		return cmd
	}

	switch msg.Type {
	case tea.KeyEnter:
		m.commit(f, m.input.Value())
		return nil
	case tea.KeyEsc:
		m.closeEditor()
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) commit(f field, value string) {
	patch := editPatch(f, value)
	if f == fieldBlocklist {
		m.warning = ""
		if err := crossseed.ValidateBlocklist(patch.Blocklist); err != nil {
			m.warning = err.Error()
		}
	}
	m.session.SetConfig(patch)
	m.closeEditor()
	m.refresh()
}

func (m *Model) closeEditor() {
	m.editing, m.editArea = false, false
	m.input.Blur()
	m.area.Blur()
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyEsc, msg.Type == tea.KeyEnter:
		m.picking = false
	case key.Matches(msg, m.keys.Up):
		if m.pickCursor > 0 {
			m.pickCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.pickCursor < len(m.st.Indexers)-1 {
			m.pickCursor++
		}
	case msg.Type == tea.KeySpace || msg.String() == " ":
		if m.st.Config != nil && m.pickCursor < len(m.st.Indexers) {
			m.session.SetConfig(toggleIndexer(*m.st.Config, m.st.Indexers[m.pickCursor].ID))
			m.refresh()
		}
	}
	return nil
}

func (m *Model) selectedIndexer(id int) bool {
	return m.st.Config != nil && slices.Contains(m.st.Config.IndexerIDs, id)
}
