// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package taigaui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/taiga/lib/controller"
	"github.com/bureau-foundation/taiga/lib/explorer"
)

// Config holds configuration for creating a Model.
type Config struct {
	// Controller executes commands and owns the scope. Required.
	Controller *controller.Controller

	// Context bounds every load. Defaults to context.Background().
	Context context.Context

	// Theme defaults to DefaultTheme.
	Theme *Theme

	// KeyMap defaults to DefaultKeyMap.
	KeyMap *KeyMap

	// InitialView is the tab shown first.
	InitialView explorer.ViewKind

	// Static disables the spinner, cursor blinking and status fading.
	Static bool
}

// loadedMsg delivers a finished tree load.
type loadedMsg struct {
	tree   *explorer.Tree
	result explorer.Result
}

// controllerEventMsg wraps a controller event.
type controllerEventMsg struct {
	event controller.Event
}

// commandDoneMsg reports the outcome of a background command.
type commandDoneMsg struct {
	text string
	err  error
}

// Model is the bubbletea model of the browser.
type Model struct {
	controller *controller.Controller
	ctx        context.Context
	theme      Theme
	keys       KeyMap
	static     bool

	trees   map[explorer.ViewKind]*explorer.Tree
	cursors map[explorer.ViewKind]int
	offsets map[explorer.ViewKind]int
	active  explorer.ViewKind

	width  int
	height int

	detail    viewport.Model
	detailKey string

	search    textinput.Model
	searching bool

	spinner spinner.Model

	status         string
	statusLevel    slog.Level
	statusSequence int
}

// New creates the model and registers one tree per view with the
// controller.
func New(config Config) (*Model, error) {
	if config.Controller == nil {
		return nil, fmt.Errorf("taigaui: Controller is required")
	}
	model := &Model{
		controller: config.Controller,
		ctx:        config.Context,
		theme:      DefaultTheme,
		keys:       DefaultKeyMap,
		static:     config.Static,
		trees:      make(map[explorer.ViewKind]*explorer.Tree),
		cursors:    make(map[explorer.ViewKind]int),
		offsets:    make(map[explorer.ViewKind]int),
		active:     config.InitialView,
		detail:     viewport.New(0, 0),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	if model.ctx == nil {
		model.ctx = context.Background()
	}
	if config.Theme != nil {
		model.theme = *config.Theme
	}
	if config.KeyMap != nil {
		model.keys = *config.KeyMap
	}
	for _, view := range explorer.AllViews {
		model.trees[view] = config.Controller.NewTree(view)
	}

	model.search = textinput.New()
	model.search.Prompt = "/ "
	model.search.Placeholder = "search user stories by #ref or subject"
	model.search.SetValue(config.Controller.Scope().Query)
	if model.static {
		model.search.Cursor.SetMode(cursor.CursorStatic)
	}
	return model, nil
}

// Init implements tea.Model.
func (model *Model) Init() tea.Cmd {
	if model.static {
		return model.loadDirty()
	}
	return tea.Batch(model.loadDirty(), model.spinner.Tick)
}

// Update implements tea.Model. After every message the active tab is
// reloaded if something invalidated it.
func (model *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := model.update(msg)
	return model, tea.Batch(cmd, model.loadDirty())
}

func (model *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		model.width, model.height = msg.Width, msg.Height
		model.layout()
		model.refreshDetail(true)
		return nil

	case loadedMsg:
		if msg.tree.Apply(msg.result) {
			model.clampCursor(msg.tree.View())
			if msg.tree.View() == model.active {
				model.refreshDetail(false)
			}
		}
		return nil

	case controllerEventMsg:
		if msg.event.Kind == controller.ScopeChanged && !model.searching {
			model.search.SetValue(msg.event.Scope.Query)
		}
		model.refreshDetail(false)
		return nil

	case commandDoneMsg:
		if msg.err != nil {
			level := slog.LevelError
			if errors.Is(msg.err, controller.ErrNotLoggedIn) {
				level = slog.LevelWarn
			}
			return model.setStatus(errorText(msg.err), level)
		}
		return model.setStatus(msg.text, slog.LevelInfo)

	case statusMsg:
		return model.setStatus(msg.Text, msg.Level)

	case statusFadeMsg:
		if msg.sequence == model.statusSequence {
			model.status = ""
		}
		return nil

	case spinner.TickMsg:
		if model.static {
			return nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		if model.searching {
			return model.handleSearchKey(msg)
		}
		return model.handleKey(msg)
	}

	if model.searching {
		var cmd tea.Cmd
		model.search, cmd = model.search.Update(msg)
		return cmd
	}
	return nil
}

func errorText(err error) string {
	if errors.Is(err, controller.ErrNotLoggedIn) {
		return "Please log in first"
	}
	return err.Error()
}

// setStatus shows text in the status line until the fade delay passes
// or another status replaces it.
func (model *Model) setStatus(text string, level slog.Level) tea.Cmd {
	model.statusSequence++
	model.status = text
	model.statusLevel = level
	if model.static {
		return nil
	}
	sequence := model.statusSequence
	return tea.Tick(statusFadeDelay, func(_ time.Time) tea.Msg {
		return statusFadeMsg{sequence: sequence}
	})
}

// loadDirty starts a root load of the active tab when it needs one.
func (model *Model) loadDirty() tea.Cmd {
	tree := model.trees[model.active]
	if !tree.Dirty() {
		return nil
	}
	return model.loadCmd(tree, tree.BeginLoad())
}

func (model *Model) loadCmd(tree *explorer.Tree, request explorer.Request) tea.Cmd {
	ctx := model.ctx
	materializer := model.controller.Materializer()
	return func() tea.Msg {
		return loadedMsg{tree: tree, result: materializer.Load(ctx, request)}
	}
}

func (model *Model) rows() []explorer.Row {
	return model.trees[model.active].Rows()
}

// selected returns the row under the cursor.
func (model *Model) selected() (explorer.Row, bool) {
	rows := model.rows()
	cursor := model.cursors[model.active]
	if cursor < 0 || cursor >= len(rows) {
		return explorer.Row{}, false
	}
	return rows[cursor], true
}

func (model *Model) clampCursor(view explorer.ViewKind) {
	count := len(model.trees[view].Rows())
	cursor := model.cursors[view]
	if cursor >= count {
		cursor = count - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	model.cursors[view] = cursor
}

func (model *Model) moveCursor(delta int) {
	model.cursors[model.active] += delta
	model.clampCursor(model.active)
	model.refreshDetail(false)
}

func (model *Model) switchView(view explorer.ViewKind) {
	model.active = view
	model.clampCursor(view)
	model.refreshDetail(true)
}

func (model *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	keys := model.keys
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Up):
		model.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		model.moveCursor(1)
	case key.Matches(msg, keys.Home):
		model.moveCursor(-len(model.rows()))
	case key.Matches(msg, keys.End):
		model.moveCursor(len(model.rows()))
	case key.Matches(msg, keys.DetailUp):
		model.detail.LineUp(max(1, model.detail.Height/2))
	case key.Matches(msg, keys.DetailDown):
		model.detail.LineDown(max(1, model.detail.Height/2))
	case key.Matches(msg, keys.NextTab):
		model.switchView(explorer.AllViews[(int(model.active)+1)%len(explorer.AllViews)])
	case key.Matches(msg, keys.PreviousTab):
		count := len(explorer.AllViews)
		model.switchView(explorer.AllViews[(int(model.active)+count-1)%count])
	case key.Matches(msg, keys.Expand):
		return model.expand()
	case key.Matches(msg, keys.Collapse):
		model.collapse()
	case key.Matches(msg, keys.Activate):
		return model.activate()
	case key.Matches(msg, keys.Search):
		model.searching = true
		return model.search.Focus()
	case key.Matches(msg, keys.SearchClear):
		model.controller.Search("")
		model.search.SetValue("")
	case key.Matches(msg, keys.OpenExternal):
		return model.openExternal()
	case key.Matches(msg, keys.Refresh):
		return model.refresh()
	case key.Matches(msg, keys.Logout):
		if err := model.controller.Logout(); err != nil {
			return model.setStatus(err.Error(), slog.LevelError)
		}
		return model.setStatus("Logged out", slog.LevelInfo)
	default:
		for index, binding := range keys.Tabs {
			if key.Matches(msg, binding) && index < len(explorer.AllViews) {
				model.switchView(explorer.AllViews[index])
				return nil
			}
		}
	}
	return nil
}

func (model *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		model.searching = false
		model.search.Blur()
		model.controller.Search(model.search.Value())
		if model.active == explorer.ViewProjects {
			model.switchView(explorer.ViewSearch)
		}
		return nil
	case tea.KeyEsc:
		model.searching = false
		model.search.Blur()
		model.search.SetValue(model.controller.Scope().Query)
		return nil
	}
	var cmd tea.Cmd
	model.search, cmd = model.search.Update(msg)
	return cmd
}

// expand opens the selected node, or steps into it when already open.
func (model *Model) expand() tea.Cmd {
	row, ok := model.selected()
	if !ok || !row.Node.Collapsible {
		return nil
	}
	tree := model.trees[model.active]
	if row.Expanded {
		if _, loaded := tree.Children(row.Node.Item); loaded {
			model.moveCursor(1)
		}
		return nil
	}
	request, ok := tree.BeginExpand(row.Node.Item)
	if !ok {
		return nil
	}
	return model.loadCmd(tree, request)
}

// collapse closes the selected node, or moves to its parent.
func (model *Model) collapse() {
	row, ok := model.selected()
	if !ok {
		return
	}
	tree := model.trees[model.active]
	if row.Expanded {
		tree.Collapse(row.Node.Item)
		model.clampCursor(model.active)
		model.refreshDetail(false)
		return
	}
	rows := model.rows()
	for index := model.cursors[model.active] - 1; index >= 0; index-- {
		if rows[index].Depth < row.Depth {
			model.cursors[model.active] = index
			model.refreshDetail(false)
			return
		}
	}
}

func (model *Model) activate() tea.Cmd {
	row, ok := model.selected()
	if !ok {
		return nil
	}
	if project, isProject := row.Node.Item.(explorer.ProjectItem); isProject {
		selected, err := model.controller.SelectProject(project.Project.ID)
		if err != nil {
			return model.setStatus(err.Error(), slog.LevelError)
		}
		return model.setStatus("Project "+selected.Name+" selected", slog.LevelInfo)
	}
	if row.Expanded {
		model.collapse()
		return nil
	}
	return model.expand()
}

func (model *Model) openExternal() tea.Cmd {
	row, ok := model.selected()
	if !ok {
		return nil
	}
	item := row.Node.Item
	ctrl := model.controller
	return func() tea.Msg {
		target, err := ctrl.OpenExternal(item)
		return commandDoneMsg{text: "Opened " + target, err: err}
	}
}

func (model *Model) refresh() tea.Cmd {
	ctx := model.ctx
	ctrl := model.controller
	return func() tea.Msg {
		projects, err := ctrl.Refresh(ctx)
		return commandDoneMsg{text: fmt.Sprintf("Loaded %d projects", len(projects)), err: err}
	}
}

func (model *Model) style() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Pane geometry.
func (model *Model) treeWidth() int {
	return max(20, model.width*55/100)
}

func (model *Model) detailWidth() int {
	return max(10, model.width-model.treeWidth()-3)
}

func (model *Model) bodyHeight() int {
	return max(1, model.height-2)
}

func (model *Model) layout() {
	model.detail.Width = model.detailWidth()
	model.detail.Height = model.bodyHeight()
	model.search.Width = max(10, model.width-4)
}

// refreshDetail rebuilds the detail pane for the selected node. The
// scroll position is kept unless the selection changed or reset is set.
func (model *Model) refreshDetail(reset bool) {
	row, ok := model.selected()
	if !ok {
		model.detail.SetContent("")
		model.detailKey = ""
		return
	}
	webURL, _ := model.controller.WebURL(row.Node.Item)
	model.detail.SetContent(model.renderDetail(row.Node, webURL, model.detailWidth()))
	if reset || row.Node.Key() != model.detailKey {
		model.detail.GotoTop()
	}
	model.detailKey = row.Node.Key()
}

// View implements tea.Model.
func (model *Model) View() string {
	if model.width == 0 {
		return ""
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		model.renderTree(),
		model.style().Foreground(model.theme.BorderColor).Render(strings.Repeat(" │\n", model.bodyHeight()-1)+" │"),
		" "+model.detail.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, model.renderTabs(), body, model.renderStatus())
}

func (model *Model) renderTabs() string {
	var tabs []string
	for index, view := range explorer.AllViews {
		label := fmt.Sprintf(" %d %s ", index+1, view.Title())
		style := model.style().Foreground(model.theme.TabInactive)
		if view == model.active {
			style = model.style().Foreground(model.theme.TabActive).Bold(true).Underline(true)
		}
		tabs = append(tabs, style.Render(label))
	}
	line := strings.Join(tabs, "")

	var context []string
	if project, ok := model.controller.SelectedProject(); ok {
		context = append(context, project.Name)
	}
	if user := model.controller.Session().User(); user != nil && model.controller.Session().LoggedIn() {
		context = append(context, user.DisplayName())
	}
	if len(context) > 0 {
		right := model.style().Foreground(model.theme.FaintText).Render(strings.Join(context, " · "))
		gap := model.width - ansi.StringWidth(line) - ansi.StringWidth(right)
		if gap > 0 {
			line += strings.Repeat(" ", gap) + right
		}
	}
	return ansi.Truncate(line, model.width, "")
}

func (model *Model) renderTree() string {
	width := model.treeWidth()
	height := model.bodyHeight()
	tree := model.trees[model.active]
	rows := tree.Rows()

	if len(rows) == 0 {
		text := "Loading…"
		if !tree.Loading() && !tree.Dirty() {
			text = ""
		}
		if !model.static && text != "" {
			text = model.spinner.View() + " " + text
		}
		return model.style().Width(width).Height(height).Foreground(model.theme.FaintText).Render(text)
	}

	cursor := model.cursors[model.active]
	offset := model.offsets[model.active]
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+height {
		offset = cursor - height + 1
	}
	model.offsets[model.active] = offset

	query := model.controller.Scope().Query
	var lines []string
	for index := offset; index < len(rows) && index < offset+height; index++ {
		lines = append(lines, model.renderRow(rows[index], index == cursor, query, width))
	}
	return model.style().Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

func (model *Model) renderRow(row explorer.Row, selected bool, query string, width int) string {
	theme := model.theme
	node := row.Node

	marker := "  "
	if node.Collapsible {
		switch {
		case row.Loading && !model.static:
			marker = model.spinner.View() + " "
		case row.Expanded:
			marker = "▾ "
		default:
			marker = "▸ "
		}
	}

	labelStyle := model.style().Foreground(theme.NormalText)
	switch item := node.Item.(type) {
	case explorer.Placeholder:
		labelStyle = model.style().Foreground(theme.Placeholder).Italic(true)
		if item.Reason == explorer.LoadFailed {
			labelStyle = model.style().Foreground(theme.Failure)
		}
	default:
		if closedItem(item) {
			labelStyle = model.style().Foreground(theme.Closed)
		}
	}
	if selected {
		labelStyle = labelStyle.Bold(true)
	}

	label := labelStyle.Render(node.Label)
	if searchable(node.Item) {
		label = highlightMatch(node.Label, query, labelStyle,
			labelStyle.Background(theme.SearchHighlightBackground))
	}

	line := strings.Repeat("  ", row.Depth) + marker + label
	if node.Description != "" {
		line += "  " + model.style().Foreground(theme.FaintText).Render(node.Description)
	}
	line = ansi.Truncate(line, width, "…")
	if selected {
		padding := width - ansi.StringWidth(line)
		if padding > 0 {
			line += strings.Repeat(" ", padding)
		}
		line = model.style().Background(theme.SelectedBackground).Render(line)
	}
	return line
}

// searchable reports whether the search predicate applies to item.
func searchable(item explorer.Item) bool {
	switch item.(type) {
	case explorer.UserStoryItem, explorer.EpicItem:
		return true
	default:
		return false
	}
}

func closedItem(item explorer.Item) bool {
	switch item := item.(type) {
	case explorer.SprintItem:
		return item.Milestone.Closed
	case explorer.UserStoryItem:
		return item.Story.IsClosed
	case explorer.TaskItem:
		return item.Task.IsClosed
	case explorer.EpicItem:
		return item.Epic.IsClosed
	default:
		return false
	}
}

func (model *Model) renderStatus() string {
	if model.searching {
		return model.search.View()
	}
	theme := model.theme
	if model.status != "" {
		color := theme.StatusInfo
		switch {
		case model.statusLevel >= slog.LevelError:
			color = theme.StatusError
		case model.statusLevel >= slog.LevelWarn:
			color = theme.StatusWarn
		}
		return ansi.Truncate(model.style().Foreground(color).Render(model.status), model.width, "…")
	}

	keys := model.keys
	bindings := []key.Binding{keys.Expand, keys.Activate, keys.Search, keys.OpenExternal, keys.Refresh, keys.Logout, keys.Quit}
	var parts []string
	if query := model.controller.Scope().Query; query != "" {
		parts = append(parts, fmt.Sprintf("search: %q", query))
	}
	for _, binding := range bindings {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return ansi.Truncate(model.style().Foreground(theme.HelpText).Render(strings.Join(parts, "  ")), model.width, "…")
}
