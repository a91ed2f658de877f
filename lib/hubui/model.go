// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hubui

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/junegunn/fzf/src/util"

	"github.com/gantry-foundation/gantry/lib/captions"
	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/schema"
	"github.com/gantry-foundation/gantry/lib/spotlight"
	"github.com/gantry-foundation/gantry/lib/tui"
)

// Panel ids double as spotlight candidate ids and caption catalog
// keys for the hub view.
const (
	panelTenants = "tenants"
	panelMembers = "members"
	panelUsage   = "usage"
)

// KeyMap defines the hub admin key bindings.
type KeyMap struct {
	Up             key.Binding
	Down           key.Binding
	PageUp         key.Binding
	PageDown       key.Binding
	Home           key.Binding
	End            key.Binding
	FilterActivate key.Binding
	FilterClear    key.Binding
	Quit           key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("ctrl+u", "pgup"),
		key.WithHelp("C-u", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("ctrl+d", "pgdown"),
		key.WithHelp("C-d", "page down"),
	),
	Home: key.NewBinding(
		key.WithKeys("g", "home"),
		key.WithHelp("g", "top"),
	),
	End: key.NewBinding(
		key.WithKeys("G", "end"),
		key.WithHelp("G", "bottom"),
	),
	FilterActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	FilterClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "clear filter"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Messages private to this package.
type (
	stateChangedMsg struct{}

	tourUpdateMsg struct{ update spotlight.Update }

	tourScrollMsg struct{ id string }
)

// panelLocator adapts the hub's three fixed panels to the tour's
// collaborator interfaces. Unlike the dashboard's card grid the
// candidate set is static; only the rectangles move with resizes.
//
// Emissions queue without bound and deliver in order; send never
// blocks and never drops. The tour may emit from the program loop
// itself when a key press stops it, so a channel send could deadlock
// the loop, and a dropped clear would strand the caption overlay.
type panelLocator struct {
	mu       sync.Mutex
	regions  map[string]spotlight.AnchorRect
	viewport spotlight.Size

	queue []tea.Msg
	wake  chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func newPanelLocator() *panelLocator {
	return &panelLocator{
		regions: make(map[string]spotlight.AnchorRect),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// close releases any listener blocked in next. Idempotent.
func (l *panelLocator) close() {
	l.closeOnce.Do(func() { close(l.done) })
}

func (l *panelLocator) setLayout(regions map[string]spotlight.AnchorRect, viewport spotlight.Size) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.regions = regions
	l.viewport = viewport
}

// List implements spotlight.CandidateProvider: the tour order is
// tenants, members, usage.
func (l *panelLocator) List() []string {
	return []string{panelTenants, panelMembers, panelUsage}
}

// Locate implements spotlight.AnchorLocator.
func (l *panelLocator) Locate(id string) *spotlight.AnchorRect {
	l.mu.Lock()
	defer l.mu.Unlock()
	rect, ok := l.regions[id]
	if !ok {
		return nil
	}
	return &rect
}

// Viewport implements spotlight.AnchorLocator.
func (l *panelLocator) Viewport() spotlight.Size {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.viewport
}

// ScrollIntoView implements spotlight.Scroller. The three panels are
// always on screen, so the request only needs to flow through the
// update loop for the re-render.
func (l *panelLocator) ScrollIntoView(id string) {
	l.send(tourScrollMsg{id: id})
}

func (l *panelLocator) onUpdate(update spotlight.Update) {
	l.send(tourUpdateMsg{update: update})
}

func (l *panelLocator) send(msg tea.Msg) {
	l.mu.Lock()
	l.queue = append(l.queue, msg)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// next blocks until a queued message is available and pops it.
// Returns nil after close.
func (l *panelLocator) next() tea.Msg {
	for {
		l.mu.Lock()
		if len(l.queue) > 0 {
			msg := l.queue[0]
			l.queue = l.queue[1:]
			l.mu.Unlock()
			return msg
		}
		l.mu.Unlock()
		select {
		case <-l.wake:
		case <-l.done:
			return nil
		}
	}
}

func listenForTour(locator *panelLocator) tea.Cmd {
	return func() tea.Msg {
		return locator.next()
	}
}

// Options configures a hub admin model.
type Options struct {
	Source   HubSource
	Captions *captions.Catalog

	Clock      clock.Clock
	TourParams *spotlight.Params

	Theme  *tui.Theme
	Keys   *KeyMap
	Logger *slog.Logger
}

// Model is the hub administration view: tenants on the left, the
// selected tenant's members and usage on the right.
type Model struct {
	source HubSource
	events <-chan struct{}
	theme  tui.Theme
	keys   KeyMap
	logger *slog.Logger

	width  int
	height int
	ready  bool

	tenants  []schema.Tenant
	visible  []schema.Tenant
	selected int
	// scrollTop is the first visible tenant row.
	scrollTop int

	filterActive  bool
	filterPattern []rune
	slab          *util.Slab

	heat *tui.HeatTracker

	locator    *panelLocator
	controller *spotlight.Controller
	params     spotlight.Params
	spot       spotlight.Update
	spotSince  time.Time
	animating  bool

	statusMessage string
	statusLevel   slog.Level
}

// NewModel builds the hub view around a source.
func NewModel(options Options) *Model {
	theme := tui.DefaultTheme
	if options.Theme != nil {
		theme = *options.Theme
	}
	keys := DefaultKeyMap
	if options.Keys != nil {
		keys = *options.Keys
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	params := spotlight.DefaultParams()
	if options.TourParams != nil {
		params = *options.TourParams
	}
	catalog := options.Captions
	if catalog == nil {
		catalog = captions.NewCatalog()
	}

	model := &Model{
		source:  options.Source,
		events:  options.Source.Subscribe(),
		theme:   theme,
		keys:    keys,
		logger:  logger,
		slab:    tui.NewSlab(),
		heat:    tui.NewHeatTracker(),
		locator: newPanelLocator(),
		params:  params,
	}

	hooks := spotlight.Hooks{
		Candidates: model.locator,
		Captions:   catalog,
		Anchors:    model.locator,
		Scroll:     model.locator,
	}
	model.controller = spotlight.NewController(clk, hooks, params)
	model.controller.OnUpdate(model.locator.onUpdate)

	model.tenants = options.Source.Tenants()
	model.applyFilter()
	return model
}

// Close tears down the spotlight engine and the source.
func (model *Model) Close() {
	model.controller.Close()
	model.locator.close()
	if model.source != nil {
		model.source.Close()
	}
}

// Init starts the state and tour listeners.
func (model *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listenForTour(model.locator)}
	if model.events != nil {
		cmds = append(cmds, listenForStateChange(model.events))
	}
	return tea.Batch(cmds...)
}

func listenForStateChange(events <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return stateChangedMsg{}
	}
}

func scheduleAnimationTick() tea.Cmd {
	return tea.Tick(tui.HeatTickInterval, func(time.Time) tea.Msg {
		return animationTickMsg{}
	})
}

type animationTickMsg struct{}

// Update implements tea.Model.
func (model *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		model.width = msg.Width
		model.height = msg.Height
		model.ready = true
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(msg)

	case tea.MouseMsg:
		model.controller.RecordActivity()
		model.spot = spotlight.Update{}
		return model.handleMouse(msg)

	case stateChangedMsg:
		model.applyState(model.source.Tenants())
		cmd := listenForStateChange(model.events)
		if tick := model.ensureAnimation(); tick != nil {
			return model, tea.Batch(cmd, tick)
		}
		return model, cmd

	case tourUpdateMsg:
		model.spot = msg.update
		model.spotSince = time.Now()
		cmds := []tea.Cmd{listenForTour(model.locator)}
		if tick := model.ensureAnimation(); tick != nil {
			cmds = append(cmds, tick)
		}
		return model, tea.Batch(cmds...)

	case tourScrollMsg:
		// Panels never scroll away; nothing to reposition.
		return model, listenForTour(model.locator)

	case animationTickMsg:
		model.animating = false
		if tick := model.ensureAnimation(); tick != nil {
			return model, tick
		}
		return model, nil

	case tui.LogRecordMsg:
		model.statusMessage = msg.Summary
		model.statusLevel = msg.Level
		return model, tea.Tick(tui.LogRecordFadeDelay, func(time.Time) tea.Msg {
			return tui.LogRecordFadeMsg{}
		})

	case tui.LogRecordFadeMsg:
		model.statusMessage = ""
		return model, nil
	}

	return model, nil
}

func (model *Model) ensureAnimation() tea.Cmd {
	if model.animating {
		return nil
	}
	if !model.heat.HasHot(time.Now()) && model.spot.HighlightID == "" {
		return nil
	}
	model.animating = true
	return scheduleAnimationTick()
}

func (model *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	model.controller.RecordActivity()
	model.spot = spotlight.Update{}

	if model.filterActive {
		switch msg.Type {
		case tea.KeyRunes:
			model.filterPattern = append(model.filterPattern, msg.Runes...)
			model.applyFilter()
			return model, nil
		case tea.KeySpace:
			model.filterPattern = append(model.filterPattern, ' ')
			model.applyFilter()
			return model, nil
		case tea.KeyBackspace:
			if len(model.filterPattern) > 0 {
				model.filterPattern = model.filterPattern[:len(model.filterPattern)-1]
			} else {
				model.filterActive = false
			}
			model.applyFilter()
			return model, nil
		case tea.KeyEnter:
			model.filterActive = false
			return model, nil
		case tea.KeyEsc:
			model.filterActive = false
			model.filterPattern = nil
			model.applyFilter()
			return model, nil
		}
	}

	switch {
	case key.Matches(msg, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(msg, model.keys.FilterActivate):
		model.filterActive = true
		return model, nil

	case key.Matches(msg, model.keys.FilterClear):
		model.filterActive = false
		model.filterPattern = nil
		model.applyFilter()
		return model, nil

	case key.Matches(msg, model.keys.Up):
		model.moveSelection(-1)
		return model, nil

	case key.Matches(msg, model.keys.Down):
		model.moveSelection(1)
		return model, nil

	case key.Matches(msg, model.keys.PageUp):
		model.moveSelection(-model.tableHeight() / 2)
		return model, nil

	case key.Matches(msg, model.keys.PageDown):
		model.moveSelection(model.tableHeight() / 2)
		return model, nil

	case key.Matches(msg, model.keys.Home):
		model.setSelection(0)
		return model, nil

	case key.Matches(msg, model.keys.End):
		model.setSelection(len(model.visible) - 1)
		return model, nil
	}

	return model, nil
}

func (model *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		model.moveSelection(-1)
	case tea.MouseButtonWheelDown:
		model.moveSelection(1)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return model, nil
		}
		row := msg.Y - tableStartY
		if msg.X < model.tableWidth() && row >= 0 && row < model.tableHeight() {
			model.setSelection(model.scrollTop + row)
		}
	}
	return model, nil
}

// applyState folds a reloaded tenant list into the model, igniting
// heat for arrivals and departures.
func (model *Model) applyState(incoming []schema.Tenant) {
	now := time.Now()
	current := make(map[string]bool, len(model.tenants))
	for index := range model.tenants {
		current[model.tenants[index].ID] = true
	}
	next := make(map[string]bool, len(incoming))
	for index := range incoming {
		next[incoming[index].ID] = true
		if !current[incoming[index].ID] {
			model.heat.Ignite(panelTenants, tui.HeatPut, now)
		}
	}
	for id := range current {
		if !next[id] {
			model.heat.Ignite(panelTenants, tui.HeatRemove, now)
		}
	}

	model.tenants = incoming
	model.applyFilter()
}

// applyFilter recomputes the visible tenant list from the fuzzy
// pattern, preserving the selection by tenant ID where possible.
func (model *Model) applyFilter() {
	selectedID := ""
	if model.selected >= 0 && model.selected < len(model.visible) {
		selectedID = model.visible[model.selected].ID
	}

	if len(model.filterPattern) == 0 {
		model.visible = model.tenants
	} else {
		model.visible = nil
		for _, tenant := range model.tenants {
			result := tui.FuzzyMatch(tenant.Name, model.filterPattern, model.slab)
			if result.Score <= 0 {
				result = tui.FuzzyMatch(tenant.ID, model.filterPattern, model.slab)
			}
			if result.Score > 0 {
				model.visible = append(model.visible, tenant)
			}
		}
	}

	model.selected = 0
	for index := range model.visible {
		if model.visible[index].ID == selectedID {
			model.selected = index
			break
		}
	}
	model.clampScroll()
}

func (model *Model) selectedTenant() *schema.Tenant {
	if model.selected < 0 || model.selected >= len(model.visible) {
		return nil
	}
	return &model.visible[model.selected]
}

func (model *Model) moveSelection(delta int) {
	model.setSelection(model.selected + delta)
}

func (model *Model) setSelection(index int) {
	if len(model.visible) == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= len(model.visible) {
		index = len(model.visible) - 1
	}
	model.selected = index
	model.clampScroll()
}

func (model *Model) clampScroll() {
	height := model.tableHeight()
	if model.selected < model.scrollTop {
		model.scrollTop = model.selected
	}
	if model.selected >= model.scrollTop+height {
		model.scrollTop = model.selected - height + 1
	}
	if model.scrollTop < 0 {
		model.scrollTop = 0
	}
}

// --- Layout ---

// tableStartY is the first tenant row: the header line plus the
// column header.
const tableStartY = 2

func (model *Model) tableWidth() int {
	width := model.width * 45 / 100
	if width < 30 {
		width = 30
	}
	return width
}

func (model *Model) sideWidth() int {
	width := model.width - model.tableWidth() - 1
	if width < 0 {
		width = 0
	}
	return width
}

func (model *Model) contentHeight() int {
	height := model.height - 2 // header and status bar
	if height < 1 {
		height = 1
	}
	return height
}

func (model *Model) tableHeight() int {
	height := model.contentHeight() - 1 // column header row
	if height < 1 {
		height = 1
	}
	return height
}

// --- View ---

// View renders the hub frame and publishes the panel rectangles for
// the tour.
func (model *Model) View() string {
	if !model.ready {
		return "loading…"
	}

	now := time.Now()
	table := model.renderTenantTable(now)
	members := model.renderMemberPanel()
	usage := model.renderUsagePanel()

	sideHeight := model.contentHeight()
	memberHeight := sideHeight / 2
	usageHeight := sideHeight - memberHeight

	side := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Width(model.sideWidth()).Height(memberHeight).Render(members),
		lipgloss.NewStyle().Width(model.sideWidth()).Height(usageHeight).Render(usage),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(model.tableWidth()).Height(model.contentHeight()).Render(table),
		lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render(
			strings.TrimRight(strings.Repeat("│\n", model.contentHeight()), "\n")),
		side,
	)

	model.locator.setLayout(map[string]spotlight.AnchorRect{
		panelTenants: {Left: 0, Top: 1, Width: model.tableWidth(), Height: model.contentHeight()},
		panelMembers: {Left: model.tableWidth() + 1, Top: 1, Width: model.sideWidth(), Height: memberHeight},
		panelUsage:   {Left: model.tableWidth() + 1, Top: 1 + memberHeight, Width: model.sideWidth(), Height: usageHeight},
	}, spotlight.Size{Width: model.width, Height: model.height})

	frame := model.renderHeader() + "\n" + body + "\n" + model.renderStatusBar()
	frame = model.spliceTourCaption(frame)
	return frame
}

func (model *Model) spliceTourCaption(frame string) string {
	if model.spot.HighlightID == "" || model.spot.Placement == nil {
		return frame
	}
	box := model.renderTourBox()
	if len(box) == 0 {
		return frame
	}
	top := model.spot.Placement.BoxTop(len(box))
	return tui.SpliceOverlay(frame, box, model.spot.Placement.Left, top)
}

// renderTourBox draws the caption with a pulsing spotlight border.
func (model *Model) renderTourBox() []string {
	innerWidth := model.params.CaptionSize.Width - 4
	maxLines := model.params.CaptionSize.Height - 2
	if innerWidth < 1 || maxLines < 1 {
		return nil
	}

	pulse := tui.PulsePhase(time.Since(model.spotSince))
	borderStyle := lipgloss.NewStyle().
		Foreground(model.theme.SpotlightBorder).
		Background(model.theme.CaptionBackground).
		Bold(pulse > 0.7)
	textStyle := lipgloss.NewStyle().
		Foreground(model.theme.CaptionForeground).
		Background(model.theme.CaptionBackground)

	wrapped := tui.WrapCaption(model.spot.Caption, innerWidth, maxLines)
	lines := make([]string, 0, len(wrapped)+2)
	lines = append(lines, borderStyle.Render("╭"+strings.Repeat("─", innerWidth+2)+"╮"))
	for _, row := range wrapped {
		padding := innerWidth - ansi.StringWidth(row)
		if padding < 0 {
			padding = 0
		}
		lines = append(lines,
			borderStyle.Render("│")+
				textStyle.Render(" "+row+strings.Repeat(" ", padding)+" ")+
				borderStyle.Render("│"))
	}
	lines = append(lines, borderStyle.Render("╰"+strings.Repeat("─", innerWidth+2)+"╯"))
	return lines
}

func (model *Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render(" gantry hub")

	summary := lipgloss.NewStyle().
		Foreground(model.theme.FaintText).
		Render(fmt.Sprintf("%d tenants", len(model.tenants)))

	padding := model.width - ansi.StringWidth(title) - ansi.StringWidth(summary) - 1
	if padding < 1 {
		padding = 1
	}
	return title + strings.Repeat(" ", padding) + summary
}

func (model *Model) renderStatusBar() string {
	help := lipgloss.NewStyle().
		Foreground(model.theme.HelpText).
		Render(" j/k move · / filter · q quit")

	right := ""
	if model.filterActive || len(model.filterPattern) > 0 {
		prompt := lipgloss.NewStyle().Foreground(model.theme.AccentColor).Render(" / ")
		right = prompt + string(model.filterPattern)
		if model.filterActive {
			right += lipgloss.NewStyle().Foreground(model.theme.AccentColor).Render("▎")
		}
	}
	if model.statusMessage != "" {
		color := model.theme.FaintText
		if model.statusLevel >= slog.LevelError {
			color = model.theme.StateFailed
		}
		right = lipgloss.NewStyle().Foreground(color).
			Render(ansi.Truncate(model.statusMessage, model.width/2, "…")) + right
	}

	padding := model.width - ansi.StringWidth(help) - ansi.StringWidth(right) - 1
	if padding < 1 {
		padding = 1
	}
	return help + strings.Repeat(" ", padding) + right
}

// renderTenantTable draws the tenant rows with plan, member count,
// and a suspended marker.
func (model *Model) renderTenantTable(now time.Time) string {
	width := model.tableWidth()
	highlighted := model.spot.HighlightID == panelTenants
	heatLevel := model.heat.Heat(panelTenants, now)

	headerColor := model.theme.HeaderForeground
	if highlighted {
		headerColor = model.theme.SpotlightBorder
	}
	var out strings.Builder
	out.WriteString(lipgloss.NewStyle().Foreground(headerColor).Bold(highlighted).
		Render(padCell(" Tenant", width-24) + padCell("Plan", 12) + padCell("Members", 10)))
	out.WriteString("\n")

	end := model.scrollTop + model.tableHeight()
	if end > len(model.visible) {
		end = len(model.visible)
	}
	for index := model.scrollTop; index < end; index++ {
		tenant := &model.visible[index]

		name := tenant.Name
		if tenant.Suspended {
			name += " ⏸"
		}
		row := padCell(" "+name, width-24) + padCell(tenant.Plan, 12) +
			padCell(fmt.Sprintf("%d", len(tenant.Members)), 10)

		style := lipgloss.NewStyle().Foreground(model.theme.NormalText)
		switch {
		case index == model.selected:
			style = lipgloss.NewStyle().
				Foreground(model.theme.SelectedForeground).
				Background(model.theme.SelectedBackground)
		case tenant.Suspended:
			style = lipgloss.NewStyle().Foreground(model.theme.FaintText)
		case heatLevel > 0:
			background := model.theme.HotAccentPut
			if model.heat.Kind(panelTenants) == tui.HeatRemove {
				background = model.theme.HotAccentRemove
			}
			style = style.Background(background)
		}
		out.WriteString(style.Render(row))
		out.WriteString("\n")
	}

	if len(model.visible) == 0 {
		out.WriteString(lipgloss.NewStyle().Foreground(model.theme.FaintText).
			Render(" no matching tenants"))
	}
	return strings.TrimRight(out.String(), "\n")
}

// renderMemberPanel lists the selected tenant's members with role
// and last-seen age.
func (model *Model) renderMemberPanel() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	highlighted := model.spot.HighlightID == panelMembers

	headerColor := model.theme.HeaderForeground
	if highlighted {
		headerColor = model.theme.SpotlightBorder
	}
	var out strings.Builder
	out.WriteString(lipgloss.NewStyle().Foreground(headerColor).Bold(highlighted).
		Render(" Members"))
	out.WriteString("\n")

	tenant := model.selectedTenant()
	if tenant == nil || len(tenant.Members) == 0 {
		out.WriteString(faint.Render(" none"))
		return out.String()
	}

	width := model.sideWidth()
	for index := range tenant.Members {
		member := &tenant.Members[index]
		name := member.DisplayName
		if name == "" {
			name = member.UserID
		}
		line := fmt.Sprintf(" %s %s", name, faint.Render(
			fmt.Sprintf("%s · %s", member.Role, lastSeenLabel(member.LastSeenAt))))
		out.WriteString(ansi.Truncate(line, width, "…"))
		out.WriteString("\n")
	}
	return strings.TrimRight(out.String(), "\n")
}

// renderUsagePanel draws GPU-seconds bars per usage window for the
// selected tenant, scaled to the busiest window.
func (model *Model) renderUsagePanel() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	highlighted := model.spot.HighlightID == panelUsage

	headerColor := model.theme.HeaderForeground
	if highlighted {
		headerColor = model.theme.SpotlightBorder
	}
	var out strings.Builder
	out.WriteString(lipgloss.NewStyle().Foreground(headerColor).Bold(highlighted).
		Render(" Usage"))
	out.WriteString("\n")

	tenant := model.selectedTenant()
	if tenant == nil || len(tenant.Usage) == 0 {
		out.WriteString(faint.Render(" no usage recorded"))
		return out.String()
	}

	peak := 0.0
	for index := range tenant.Usage {
		if tenant.Usage[index].GPUSeconds > peak {
			peak = tenant.Usage[index].GPUSeconds
		}
	}

	width := model.sideWidth()
	barWidth := width - 30
	if barWidth < 8 {
		barWidth = 8
	}
	for index := range tenant.Usage {
		window := &tenant.Usage[index]
		filled := 0
		if peak > 0 {
			filled = int(window.GPUSeconds / peak * float64(barWidth))
		}
		bar := lipgloss.NewStyle().Foreground(model.theme.AccentColor).
			Render(strings.Repeat("█", filled)) +
			lipgloss.NewStyle().Foreground(model.theme.BorderColor).
				Render(strings.Repeat("░", barWidth-filled))
		line := fmt.Sprintf(" %s %s %s", window.Start.Format("Jan 02"), bar,
			faint.Render(gpuHoursLabel(window.GPUSeconds)))
		out.WriteString(ansi.Truncate(line, width, "…"))
		out.WriteString("\n")
	}
	return strings.TrimRight(out.String(), "\n")
}

// padCell pads or truncates a cell to a fixed width.
func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(text) > width {
		return ansi.Truncate(text, width-1, "…") + " "
	}
	return text + strings.Repeat(" ", width-ansi.StringWidth(text))
}

// lastSeenLabel renders a member's last activity as a coarse age.
func lastSeenLabel(lastSeen time.Time) string {
	if lastSeen.IsZero() {
		return "never"
	}
	age := time.Since(lastSeen)
	switch {
	case age < time.Hour:
		return "active"
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}

// gpuHoursLabel renders GPU seconds as hours with one decimal.
func gpuHoursLabel(seconds float64) string {
	return fmt.Sprintf("%.1f gpu-h", seconds/3600)
}
