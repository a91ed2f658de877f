// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package dashui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/gantry-foundation/gantry/lib/captions"
	"github.com/gantry-foundation/gantry/lib/clock"
	"github.com/gantry-foundation/gantry/lib/schema"
	"github.com/gantry-foundation/gantry/lib/spotlight"
	"github.com/gantry-foundation/gantry/lib/trend"
	"github.com/gantry-foundation/gantry/lib/tui"
)

// FocusRegion identifies which pane navigation keys act on.
type FocusRegion int

const (
	// FocusGrid means navigation keys move the card selection.
	FocusGrid FocusRegion = iota
	// FocusDetail means navigation keys scroll the detail pane.
	FocusDetail
)

const (
	// contentStartY is the first content row; row 0 is the header.
	contentStartY = 1

	// trendCapacity is the per-metric ring buffer length. At the
	// agent's sample cadence this covers roughly ten minutes.
	trendCapacity = 120

	// defaultSplitPercent is the grid pane's share of the width.
	defaultSplitPercent = 62

	// stopTimeout bounds the agent round-trip for a stop request.
	stopTimeout = 5 * time.Second
)

// cardRegion is one card's screen rectangle in the last rendered
// frame, used for mouse hit-testing and as the spotlight anchor.
type cardRegion struct {
	id string
	x  int
	y  int
	w  int
	h  int
}

// Messages private to this package.
type (
	sourceEventMsg struct{ event Event }

	sourceClosedMsg struct{}

	historyLoadedMsg struct{ samples []schema.MachineSample }

	animationTickMsg struct{}

	workloadStopResultMsg struct {
		id  string
		err error
	}
)

// Options configures a dashboard model.
type Options struct {
	Source   Source
	Captions *captions.Catalog

	// Clock drives the tour timers. Real in production, fake in
	// tests. Nil means the system clock.
	Clock clock.Clock

	// TourParams tunes the spotlight engine. Zero value means
	// spotlight.DefaultParams.
	TourParams *spotlight.Params

	Theme *tui.Theme
	Keys  *KeyMap

	Logger *slog.Logger
}

// Model is the workstation dashboard: a card grid on the left, a
// markdown detail pane on the right, and the idle spotlight tour
// over both.
type Model struct {
	source Source
	events <-chan Event
	theme  tui.Theme
	keys   KeyMap
	logger *slog.Logger

	width  int
	height int
	ready  bool

	// Latest snapshot from the source.
	sample    schema.MachineSample
	workloads []schema.Workload
	models    []schema.ModelArtifact

	trends map[string]*trend.Window

	cards    []Card
	visible  []Card
	selected int
	// scrollRow is the first visible grid row.
	scrollRow int
	// regions describes the last rendered frame.
	regions []cardRegion

	focus        FocusRegion
	splitPercent int

	filter   FilterModel
	detail   DetailPane
	catalog  *captions.Catalog
	heat     *tui.HeatTracker
	showcase ShowcaseModel

	// workloadCursor marks the stop target inside the workloads
	// card, -1 when the card is not selected.
	workloadCursor int

	// Spotlight engine state. spot holds the live overlay emission;
	// spotSince drives the border pulse.
	bridge     *spotlightBridge
	controller *spotlight.Controller
	params     spotlight.Params
	spot       spotlight.Update
	spotSince  time.Time

	// animating tracks whether an animation tick is scheduled, so
	// heat and pulse share one timer without stacking.
	animating bool

	// Transient status bar message from the log handler.
	statusMessage string
	statusLevel   slog.Level
}

// NewModel builds the dashboard around a source. The spotlight
// controller starts armed; the tour fires once the idle threshold
// elapses without input.
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
		source:         options.Source,
		events:         options.Source.Subscribe(),
		theme:          theme,
		keys:           keys,
		logger:         logger,
		catalog:        catalog,
		trends:         make(map[string]*trend.Window),
		splitPercent:   defaultSplitPercent,
		filter:         NewFilterModel(),
		detail:         NewDetailPane(theme),
		heat:           tui.NewHeatTracker(),
		workloadCursor: -1,
		bridge:         newSpotlightBridge(),
		params:         params,
	}

	hooks := spotlight.Hooks{
		Candidates: model.bridge,
		Captions:   catalog,
		Anchors:    model.bridge,
		Scroll:     model.bridge,
	}
	model.controller = spotlight.NewController(clk, hooks, params)
	model.controller.OnUpdate(model.bridge.onUpdate)

	model.sample, model.workloads = options.Source.Snapshot()
	model.models = options.Source.Models()
	model.refreshSnapshot()
	return model
}

// Close tears down the spotlight engine and the source.
func (model *Model) Close() {
	model.controller.Close()
	model.bridge.close()
	if model.source != nil {
		model.source.Close()
	}
}

// Init starts the source listener, the spotlight listener, and the
// history backfill.
func (model *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listenForSpotlight(model.bridge)}
	if model.events != nil {
		cmds = append(cmds, listenForSourceEvent(model.events))
	}
	if provider, ok := model.source.(HistoryProvider); ok {
		cmds = append(cmds, loadHistory(provider))
	}
	return tea.Batch(cmds...)
}

// listenForSourceEvent blocks until the source produces an event.
// Re-issued after every delivery so the channel stays drained.
func listenForSourceEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return sourceClosedMsg{}
		}
		return sourceEventMsg{event: event}
	}
}

// loadHistory backfills the trend windows from the agent's history
// store so sparklines are populated at startup.
func loadHistory(provider HistoryProvider) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		samples, err := provider.History(ctx, time.Now().Add(-10*time.Minute), time.Now(), trendCapacity)
		if err != nil {
			return nil
		}
		return historyLoadedMsg{samples: samples}
	}
}

func scheduleAnimationTick() tea.Cmd {
	return tea.Tick(tui.HeatTickInterval, func(time.Time) tea.Msg {
		return animationTickMsg{}
	})
}

// Update implements tea.Model.
func (model *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		model.width = msg.Width
		model.height = msg.Height
		model.ready = true
		model.detail.SetSize(model.detailWidth(), model.contentHeight())
		model.refreshSnapshot()
		return model, nil

	case tea.KeyMsg:
		return model.handleKey(msg)

	case tea.MouseMsg:
		return model.handleMouse(msg)

	case sourceEventMsg:
		model.applyEvent(msg.event)
		cmd := listenForSourceEvent(model.events)
		if tick := model.ensureAnimation(); tick != nil {
			return model, tea.Batch(cmd, tick)
		}
		return model, cmd

	case sourceClosedMsg:
		model.statusMessage = "source closed"
		model.statusLevel = slog.LevelWarn
		return model, nil

	case historyLoadedMsg:
		for index := range msg.samples {
			model.pushTrends(&msg.samples[index])
		}
		model.refreshSnapshot()
		return model, nil

	case SpotlightUpdateMsg:
		model.spot = msg.Update
		model.spotSince = time.Now()
		cmds := []tea.Cmd{listenForSpotlight(model.bridge)}
		if tick := model.ensureAnimation(); tick != nil {
			cmds = append(cmds, tick)
		}
		return model, tea.Batch(cmds...)

	case ScrollRequestMsg:
		model.scrollCardIntoView(msg.ID)
		return model, listenForSpotlight(model.bridge)

	case animationTickMsg:
		model.animating = false
		if tick := model.ensureAnimation(); tick != nil {
			return model, tick
		}
		return model, nil

	case showcaseTickMsg:
		if !model.showcase.Active {
			return model, nil
		}
		model.showcase.Advance(len(buildShowcaseScreens(model.sample, model.workloads, model.trends)))
		return model, scheduleShowcaseTick()

	case workloadStopResultMsg:
		if msg.err != nil {
			model.statusMessage = fmt.Sprintf("stop %s: %v", msg.id, msg.err)
			model.statusLevel = slog.LevelError
		} else {
			model.statusMessage = fmt.Sprintf("stop requested for %s", msg.id)
			model.statusLevel = slog.LevelInfo
		}
		return model, scheduleStatusFade()

	case tui.LogRecordMsg:
		model.statusMessage = msg.Summary
		model.statusLevel = msg.Level
		return model, scheduleStatusFade()

	case tui.LogRecordFadeMsg:
		model.statusMessage = ""
		return model, nil
	}

	return model, nil
}

func scheduleStatusFade() tea.Cmd {
	return tea.Tick(tui.LogRecordFadeDelay, func(time.Time) tea.Msg {
		return tui.LogRecordFadeMsg{}
	})
}

// ensureAnimation schedules the shared animation tick when heat or
// the spotlight pulse needs frames, without stacking timers.
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
	// Every raw interaction resets the idle clock. The tour's own
	// clearing emission follows through the bridge; dropping the
	// overlay here keeps the display honest in the meantime.
	model.controller.RecordActivity()
	model.spot = spotlight.Update{}

	// Showcase swallows everything except quit: any key exits.
	if model.showcase.Active {
		if key.Matches(msg, model.keys.Quit) {
			return model, tea.Quit
		}
		model.showcase.Active = false
		model.controller.Suppress(false)
		return model, nil
	}

	// Filter mode consumes text input first.
	if model.filter.Active {
		switch msg.Type {
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				model.filter.HandleRune(r)
			}
			model.refreshSnapshot()
			return model, nil
		case tea.KeySpace:
			model.filter.HandleRune(' ')
			model.refreshSnapshot()
			return model, nil
		case tea.KeyBackspace:
			if !model.filter.HandleBackspace() {
				model.filter.Clear()
			}
			model.refreshSnapshot()
			return model, nil
		case tea.KeyEnter:
			model.filter.Active = false
			return model, nil
		case tea.KeyEsc:
			model.filter.Clear()
			model.refreshSnapshot()
			return model, nil
		}
	}

	switch {
	case key.Matches(msg, model.keys.Quit):
		return model, tea.Quit

	case key.Matches(msg, model.keys.Showcase):
		model.showcase.Active = true
		model.showcase.Reset()
		model.controller.Suppress(true)
		return model, scheduleShowcaseTick()

	case key.Matches(msg, model.keys.FilterActivate):
		model.filter.Active = true
		return model, nil

	case key.Matches(msg, model.keys.FilterClear):
		model.filter.Clear()
		model.refreshSnapshot()
		return model, nil

	case key.Matches(msg, model.keys.FocusToggle):
		if model.focus == FocusGrid {
			model.focus = FocusDetail
		} else {
			model.focus = FocusGrid
		}
		return model, nil

	case key.Matches(msg, model.keys.SplitGrow):
		model.adjustSplit(5)
		return model, nil

	case key.Matches(msg, model.keys.SplitShrink):
		model.adjustSplit(-5)
		return model, nil

	case key.Matches(msg, model.keys.Up):
		if model.focus == FocusDetail {
			model.detail.ScrollUp(1)
		} else {
			model.moveSelection(-model.columns())
		}
		return model, nil

	case key.Matches(msg, model.keys.Down):
		if model.focus == FocusDetail {
			model.detail.ScrollDown(1)
		} else {
			model.moveSelection(model.columns())
		}
		return model, nil

	case key.Matches(msg, model.keys.Left):
		if model.focus == FocusGrid {
			if model.selectedCardID() == "workloads" {
				model.moveWorkloadCursor(-1)
			} else {
				model.moveSelection(-1)
			}
		}
		return model, nil

	case key.Matches(msg, model.keys.Right):
		if model.focus == FocusGrid {
			if model.selectedCardID() == "workloads" {
				model.moveWorkloadCursor(1)
			} else {
				model.moveSelection(1)
			}
		}
		return model, nil

	case key.Matches(msg, model.keys.PageUp):
		if model.focus == FocusDetail {
			model.detail.ScrollUp(model.contentHeight() / 2)
		} else {
			model.moveSelection(-model.columns() * 2)
		}
		return model, nil

	case key.Matches(msg, model.keys.PageDown):
		if model.focus == FocusDetail {
			model.detail.ScrollDown(model.contentHeight() / 2)
		} else {
			model.moveSelection(model.columns() * 2)
		}
		return model, nil

	case key.Matches(msg, model.keys.Home):
		if model.focus == FocusDetail {
			model.detail.GotoTop()
		} else {
			model.setSelection(0)
		}
		return model, nil

	case key.Matches(msg, model.keys.End):
		if model.focus == FocusDetail {
			model.detail.GotoBottom()
		} else {
			model.setSelection(len(model.visible) - 1)
		}
		return model, nil

	case key.Matches(msg, model.keys.StopWorkload):
		return model, model.stopSelectedWorkload()
	}

	return model, nil
}

func (model *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	model.controller.RecordActivity()
	model.spot = spotlight.Update{}

	if model.showcase.Active {
		return model, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.X >= model.gridWidth() {
			model.detail.ScrollUp(3)
		} else {
			model.scrollGrid(-1)
		}
		return model, nil

	case tea.MouseButtonWheelDown:
		if msg.X >= model.gridWidth() {
			model.detail.ScrollDown(3)
		} else {
			model.scrollGrid(1)
		}
		return model, nil

	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return model, nil
		}
		if msg.X >= model.gridWidth() {
			model.focus = FocusDetail
			return model, nil
		}
		model.focus = FocusGrid
		for _, region := range model.regions {
			if msg.X >= region.x && msg.X < region.x+region.w &&
				msg.Y >= region.y && msg.Y < region.y+region.h {
				for index, card := range model.visible {
					if card.ID == region.id {
						model.setSelection(index)
						break
					}
				}
				break
			}
		}
		return model, nil
	}

	return model, nil
}

// applyEvent folds a source event into the model state.
func (model *Model) applyEvent(event Event) {
	switch event.Kind {
	case "sample":
		if event.Sample != nil {
			model.sample = *event.Sample
			model.pushTrends(event.Sample)
		}
	case "workloads":
		model.markWorkloadHeat(event.Workloads)
		model.workloads = event.Workloads
	case "models":
		model.markModelHeat(event.Models)
		model.models = event.Models
	}
	model.refreshSnapshot()
}

func (model *Model) pushTrends(sample *schema.MachineSample) {
	model.trendWindow("cpu").Push(sample.CPUPercent)
	model.trendWindow("memory").Push(sample.MemPercent())
	for index := range sample.GPUs {
		gpu := &sample.GPUs[index]
		model.trendWindow("gpu-" + gpu.PCISlot).Push(gpu.UtilizationPercent)
	}
}

func (model *Model) trendWindow(id string) *trend.Window {
	window, ok := model.trends[id]
	if !ok {
		window = trend.NewWindow(trendCapacity)
		model.trends[id] = window
	}
	return window
}

// markWorkloadHeat ignites the workloads card when the incoming list
// differs from the current one: amber for arrivals, red when
// something left.
func (model *Model) markWorkloadHeat(incoming []schema.Workload) {
	now := time.Now()
	current := make(map[string]bool, len(model.workloads))
	for index := range model.workloads {
		current[model.workloads[index].ID] = true
	}
	next := make(map[string]bool, len(incoming))
	for index := range incoming {
		next[incoming[index].ID] = true
		if !current[incoming[index].ID] {
			model.heat.Ignite("workloads", tui.HeatPut, now)
		}
	}
	for id := range current {
		if !next[id] {
			model.heat.Ignite("workloads", tui.HeatRemove, now)
		}
	}
}

func (model *Model) markModelHeat(incoming []schema.ModelArtifact) {
	now := time.Now()
	current := make(map[string]bool, len(model.models))
	for index := range model.models {
		current[model.models[index].ID] = true
	}
	for index := range incoming {
		if !current[incoming[index].ID] {
			model.heat.Ignite("models", tui.HeatPut, now)
		}
	}
}

// refreshSnapshot rebuilds the card list and the dependent filter
// and detail state.
func (model *Model) refreshSnapshot() {
	if model.selectedCardID() != "workloads" {
		model.workloadCursor = -1
	}
	innerWidth := model.cardInnerWidth()
	model.cards = buildCards(model.sample, model.workloads, model.models,
		model.trends, model.theme, innerWidth, model.workloadCursor)
	model.visible = model.filter.Apply(model.cards)

	if model.selected >= len(model.visible) {
		model.selected = len(model.visible) - 1
	}
	if model.selected < 0 {
		model.selected = 0
	}
	model.syncDetail()
}

func (model *Model) syncDetail() {
	if len(model.visible) == 0 {
		model.detail.Clear()
		return
	}
	card := model.visible[model.selected]
	model.detail.SetContent(card, model.sample, model.workloads, model.models,
		model.trends[card.ID])
}

func (model *Model) selectedCardID() string {
	if model.selected < 0 || model.selected >= len(model.visible) {
		return ""
	}
	return model.visible[model.selected].ID
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
	if index == model.selected {
		return
	}
	model.selected = index
	model.workloadCursor = -1
	model.ensureSelectedVisible()
	model.refreshSnapshot()
}

func (model *Model) moveWorkloadCursor(delta int) {
	limit := len(model.workloads)
	if limit > cardInnerHeight {
		limit = cardInnerHeight
	}
	if limit == 0 {
		return
	}
	cursor := model.workloadCursor + delta
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= limit {
		cursor = limit - 1
	}
	model.workloadCursor = cursor
	model.refreshSnapshot()
}

// stopSelectedWorkload asks the agent to stop the workload under the
// cursor. A no-op when the source cannot mutate or nothing is marked.
func (model *Model) stopSelectedWorkload() tea.Cmd {
	controller, ok := model.source.(WorkloadController)
	if !ok {
		return nil
	}
	if model.selectedCardID() != "workloads" || model.workloadCursor < 0 ||
		model.workloadCursor >= len(model.workloads) {
		return nil
	}
	target := model.workloads[model.workloadCursor]
	model.logger.Info("requesting workload stop", "workload", target.ID, "name", target.Name)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		err := controller.StopWorkload(ctx, target.ID)
		return workloadStopResultMsg{id: target.Name, err: err}
	}
}

// --- Layout ---

func (model *Model) contentHeight() int {
	// Header row above, status bar below.
	height := model.height - contentStartY - 1
	if height < 1 {
		height = 1
	}
	return height
}

func (model *Model) gridWidth() int {
	width := model.width * model.splitPercent / 100
	if width < minCardWidth {
		width = minCardWidth
	}
	if width > model.width {
		width = model.width
	}
	return width
}

func (model *Model) detailWidth() int {
	width := model.width - model.gridWidth() - 1 // splitter column
	if width < 0 {
		width = 0
	}
	return width
}

func (model *Model) columns() int {
	return gridColumns(model.gridWidth())
}

func (model *Model) cardOuterWidth() int {
	return model.gridWidth() / model.columns()
}

func (model *Model) cardInnerWidth() int {
	width := model.cardOuterWidth() - 4 // border + padding columns
	if width < 10 {
		width = 10
	}
	return width
}

func (model *Model) visibleRows() int {
	rows := model.contentHeight() / cardOuterHeight
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (model *Model) totalRows() int {
	columns := model.columns()
	return (len(model.visible) + columns - 1) / columns
}

func (model *Model) adjustSplit(delta int) {
	model.splitPercent += delta
	if model.splitPercent < 30 {
		model.splitPercent = 30
	}
	if model.splitPercent > 80 {
		model.splitPercent = 80
	}
	model.detail.SetSize(model.detailWidth(), model.contentHeight())
	model.refreshSnapshot()
}

func (model *Model) scrollGrid(deltaRows int) {
	model.scrollRow += deltaRows
	model.clampScroll()
}

func (model *Model) clampScroll() {
	maxRow := model.totalRows() - model.visibleRows()
	if maxRow < 0 {
		maxRow = 0
	}
	if model.scrollRow > maxRow {
		model.scrollRow = maxRow
	}
	if model.scrollRow < 0 {
		model.scrollRow = 0
	}
}

func (model *Model) ensureSelectedVisible() {
	row := model.selected / model.columns()
	if row < model.scrollRow {
		model.scrollRow = row
	}
	if row >= model.scrollRow+model.visibleRows() {
		model.scrollRow = row - model.visibleRows() + 1
	}
	model.clampScroll()
}

// scrollCardIntoView centers the named card's row, for the tour's
// scroll-into-view requests.
func (model *Model) scrollCardIntoView(id string) {
	for index, card := range model.visible {
		if card.ID != id {
			continue
		}
		row := index / model.columns()
		model.scrollRow = row - model.visibleRows()/2
		model.clampScroll()
		return
	}
}

// --- View ---

// View implements tea.Model. Besides producing the frame it records
// the card layout in the bridge, which is what the tour's anchor
// lookups read.
func (model *Model) View() string {
	if !model.ready {
		return "loading…"
	}
	if model.showcase.Active {
		return model.showcase.View(model.sample, model.workloads, model.trends,
			model.theme, model.width, model.height)
	}

	now := time.Now()
	grid, regions := model.renderGrid(now)
	model.regions = regions
	model.publishLayout(regions)

	detail := model.detail.View(model.focus == FocusDetail)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(model.gridWidth()).Height(model.contentHeight()).Render(grid),
		lipgloss.NewStyle().Foreground(model.theme.BorderColor).Render(
			strings.TrimRight(strings.Repeat("│\n", model.contentHeight()), "\n")),
		lipgloss.NewStyle().Width(model.detailWidth()).Height(model.contentHeight()).Render(detail),
	)

	frame := model.renderHeader() + "\n" + body + "\n" + model.renderStatusBar()
	frame = spliceCaption(frame, model.spot, model.theme, model.params.CaptionSize)
	return frame
}

// renderGrid draws the visible card rows and reports each card's
// absolute screen rectangle.
func (model *Model) renderGrid(now time.Time) (string, []cardRegion) {
	columns := model.columns()
	outerWidth := model.cardOuterWidth()
	pulse := tui.PulsePhase(now.Sub(model.spotSince))

	var regions []cardRegion
	var rows []string
	firstCard := model.scrollRow * columns
	lastCard := firstCard + model.visibleRows()*columns
	if lastCard > len(model.visible) {
		lastCard = len(model.visible)
	}

	for rowStart := firstCard; rowStart < lastCard; rowStart += columns {
		rowEnd := rowStart + columns
		if rowEnd > lastCard {
			rowEnd = lastCard
		}
		var cells []string
		for index := rowStart; index < rowEnd; index++ {
			card := model.visible[index]
			rendered := renderCard(card, model.theme, model.cardInnerWidth()+2,
				index == model.selected && model.focus == FocusGrid,
				card.ID == model.spot.HighlightID, pulse,
				model.heat.Heat(card.ID, now), model.heat.Kind(card.ID))
			cells = append(cells, rendered)

			rowIndex := index / columns
			regions = append(regions, cardRegion{
				id: card.ID,
				x:  (index % columns) * outerWidth,
				y:  contentStartY + (rowIndex-model.scrollRow)*cardOuterHeight,
				w:  outerWidth,
				h:  cardOuterHeight,
			})
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	if len(rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("no matching cards")
		return empty, nil
	}
	return strings.Join(rows, "\n"), regions
}

// publishLayout hands the tour the candidate order and anchor
// rectangles from this frame.
func (model *Model) publishLayout(regions []cardRegion) {
	candidates := make([]string, len(model.visible))
	for index, card := range model.visible {
		candidates[index] = card.ID
	}
	anchors := make(map[string]spotlight.AnchorRect, len(regions))
	for _, region := range regions {
		anchors[region.id] = spotlight.AnchorRect{
			Left:   region.x,
			Top:    region.y,
			Width:  region.w,
			Height: region.h,
		}
	}
	model.bridge.setLayout(candidates, anchors, spotlight.Size{
		Width:  model.width,
		Height: model.height,
	})
}

func (model *Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render(" gantry · " + model.sample.Hostname)

	state := ""
	if stater, ok := model.source.(LoadingStater); ok {
		if phase := stater.LoadingState(); phase != "live" {
			state = lipgloss.NewStyle().
				Foreground(model.theme.FaintText).
				Render(loadingStateLabel(phase))
		}
	}

	padding := model.width - ansi.StringWidth(title) - ansi.StringWidth(state) - 1
	if padding < 1 {
		padding = 1
	}
	return title + strings.Repeat(" ", padding) + state
}

func (model *Model) renderStatusBar() string {
	help := lipgloss.NewStyle().
		Foreground(model.theme.HelpText).
		Render(" j/k move · tab pane · / filter · s showcase · q quit")

	right := model.filter.View(model.theme)
	if model.statusMessage != "" {
		color := model.theme.FaintText
		switch {
		case model.statusLevel >= slog.LevelError:
			color = model.theme.StateFailed
		case model.statusLevel >= slog.LevelWarn:
			color = model.theme.TemperatureWarm
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
