package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"citydesk/internal/cityapi"
	"citydesk/internal/econ"
	"citydesk/internal/report"
)

const (
	controlTransfer = "transfer"
	controlCheckIn  = "checkin"
	controlPurchase = "purchase"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

type viewKind int

const (
	viewTrade viewKind = iota
	viewEconomy
)

type formField int

const (
	fieldFrom formField = iota
	fieldTo
	fieldResource
	fieldQuantity
	fieldCount
)

type Options struct {
	API         *cityapi.Client
	Overview    *econ.OverviewCache
	History     *econ.HistoryLog
	Notices     *econ.Notices
	Panel       *econ.Panel
	Coordinator *econ.Coordinator

	// Changes is signalled whenever any shared state mutates; the TUI
	// re-renders on each tick of it.
	Changes <-chan struct{}

	City       string
	ReportPath string
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	if opts.API == nil || opts.Overview == nil || opts.Panel == nil ||
		opts.Coordinator == nil || opts.History == nil || opts.Notices == nil {
		return errors.New("tui is not configured")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a TTY; use the watch subcommand")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(newModel(ctx, opts), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

type model struct {
	ctx  context.Context
	opts Options

	view   viewKind
	width  int
	height int

	// trade form state
	focus       formField
	fromIdx     int
	toIdx       int
	resourceIdx int
	quantity    textinput.Model
	histVP      viewport.Model

	// economy view cursor
	cursor int

	spinnerFrame int
}

type changedMsg struct{}

type overviewRefreshedMsg struct {
	Err error
}

type panelLoadedMsg struct{}

type actionDoneMsg struct {
	Control  string
	Outcome  cityapi.ActionOutcome
	Executed bool
}

type reportWrittenMsg struct {
	Path string
	Err  error
}

type tickMsg time.Time

func newModel(ctx context.Context, opts Options) model {
	qty := textinput.New()
	qty.Placeholder = "数量"
	qty.Prompt = ""
	qty.CharLimit = 6
	qty.Width = 8

	vp := viewport.New(0, 0)
	vp.SetContent("")

	if strings.TrimSpace(opts.ReportPath) == "" {
		opts.ReportPath = "citydesk-history.html"
	}

	return model{
		ctx:      ctx,
		opts:     opts,
		quantity: qty,
		histVP:   vp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.refreshOverviewCmd(),
		m.loadPanelCmd(),
		waitChangeCmd(m.opts.Changes),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitChangeCmd(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m model) refreshOverviewCmd() tea.Cmd {
	overview := m.opts.Overview
	ctx := m.ctx
	return func() tea.Msg {
		return overviewRefreshedMsg{Err: overview.Refresh(ctx)}
	}
}

// loadPanelCmd runs one latest-wins load cycle for the active tab; stale
// results are discarded inside Panel by generation token.
func (m model) loadPanelCmd() tea.Cmd {
	panel := m.opts.Panel
	ctx := m.ctx
	return func() tea.Msg {
		panel.Load(ctx)
		return panelLoadedMsg{}
	}
}

func (m model) submitTransferCmd() tea.Cmd {
	roster := m.opts.Overview.Agents()
	fromID := agentIDAt(roster, m.fromIdx)
	toID := agentIDAt(roster, m.toIdx)
	resourceType := resourceAt(m.opts.Overview.ResourceTypes(), m.resourceIdx)
	qty, err := strconv.Atoi(strings.TrimSpace(m.quantity.Value()))
	if err != nil {
		qty = 0
	}

	if !m.opts.Coordinator.ValidateTransfer(fromID, toID, qty) {
		return nil
	}

	api := m.opts.API
	coord := m.opts.Coordinator
	ctx := m.ctx
	return func() tea.Msg {
		out, executed := coord.Submit(ctx, econ.Action{
			Control: controlTransfer,
			Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
				return api.TransferResource(ctx, fromID, toID, resourceType, qty)
			},
			Success: econ.TransferSuccess,
		})
		return actionDoneMsg{Control: controlTransfer, Outcome: out, Executed: executed}
	}
}

func (m model) checkInCmd(job cityapi.Job) tea.Cmd {
	actor := m.opts.Panel.Actor()
	if actor <= 0 || !econ.CanCheckIn(job) {
		return nil
	}
	api := m.opts.API
	coord := m.opts.Coordinator
	ctx := m.ctx
	return func() tea.Msg {
		out, executed := coord.Submit(ctx, econ.Action{
			Control: controlCheckIn,
			Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
				return api.CheckIn(ctx, job.ID, actor)
			},
			Reasons: econ.CheckInReasons,
			Success: econ.CheckInSuccess,
		})
		return actionDoneMsg{Control: controlCheckIn, Outcome: out, Executed: executed}
	}
}

func (m model) purchaseCmd(item cityapi.ShopItem) tea.Cmd {
	actorID := m.opts.Panel.Actor()
	actor, selected := m.opts.Overview.Agent(actorID)
	if actorID <= 0 || !econ.CanPurchase(item, actor, selected) {
		return nil
	}
	api := m.opts.API
	coord := m.opts.Coordinator
	ctx := m.ctx
	return func() tea.Msg {
		out, executed := coord.Submit(ctx, econ.Action{
			Control: controlPurchase,
			Call: func(ctx context.Context) (cityapi.ActionOutcome, error) {
				return api.PurchaseItem(ctx, actorID, item.ID)
			},
			Reasons: econ.PurchaseReasons,
			Success: econ.PurchaseSuccess,
		})
		return actionDoneMsg{Control: controlPurchase, Outcome: out, Executed: executed}
	}
}

func (m model) exportReportCmd() tea.Cmd {
	entries := m.opts.History.Entries()
	path := m.opts.ReportPath
	return func() tea.Msg {
		return reportWrittenMsg{Path: path, Err: report.WriteHistoryReport(path, "转赠历史", entries)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.histVP.Width = msg.Width
		m.histVP.Height = maxInt(msg.Height-18, 4)
		m.histVP.SetContent(m.historyContent())
		return m, nil

	case tickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		return m, tickCmd()

	case changedMsg:
		m.histVP.SetContent(m.historyContent())
		return m, waitChangeCmd(m.opts.Changes)

	case overviewRefreshedMsg:
		// Arm the default actor once the roster is first non-empty; a later
		// manual selection is never overridden.
		if m.opts.Panel.EnsureActor(m.opts.Overview.Selectable()) && m.opts.Panel.Mode() == econ.ModeInventory {
			return m, m.loadPanelCmd()
		}
		return m, nil

	case panelLoadedMsg:
		return m, nil

	case actionDoneMsg:
		return m.handleActionDone(msg)

	case reportWrittenMsg:
		if msg.Err != nil {
			m.opts.Notices.SetError("导出失败: " + msg.Err.Error())
		} else {
			m.opts.Notices.SetSuccess("已导出 " + msg.Path)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleActionDone(msg actionDoneMsg) (tea.Model, tea.Cmd) {
	if !msg.Executed || !msg.Outcome.OK {
		return m, nil
	}
	switch msg.Control {
	case controlTransfer:
		// Successful transfer clears the quantity input.
		m.quantity.SetValue("")
		return m, nil
	case controlCheckIn, controlPurchase:
		// Capacity / ownership shown in the tab changed; reload it.
		return m, m.loadPanelCmd()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if m.view == viewTrade && m.focus == fieldQuantity && msg.String() == "q" {
			break // let the input swallow plain letters
		}
		return m, tea.Quit
	case "tab":
		if m.view == viewTrade {
			m.view = viewEconomy
		} else {
			m.view = viewTrade
		}
		m.cursor = 0
		return m, nil
	case "ctrl+r":
		return m, m.refreshOverviewCmd()
	case "ctrl+e":
		return m, m.exportReportCmd()
	}

	if m.view == viewTrade {
		return m.handleTradeKey(msg)
	}
	return m.handleEconomyKey(msg)
}

func (m model) handleTradeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	roster := m.opts.Overview.Agents()
	resources := m.opts.Overview.ResourceTypes()

	switch msg.String() {
	case "up", "shift+tab":
		m.focus = (m.focus + fieldCount - 1) % fieldCount
	case "down":
		m.focus = (m.focus + 1) % fieldCount
	case "left", "right":
		delta := 1
		if msg.String() == "left" {
			delta = -1
		}
		switch m.focus {
		case fieldFrom:
			m.fromIdx = cycle(m.fromIdx, delta, len(roster))
		case fieldTo:
			m.toIdx = cycle(m.toIdx, delta, len(roster))
		case fieldResource:
			m.resourceIdx = cycle(m.resourceIdx, delta, len(resources))
		}
	case "enter":
		if !m.opts.Coordinator.Busy(controlTransfer) {
			return m, m.submitTransferCmd()
		}
	default:
		if m.focus == fieldQuantity {
			var cmd tea.Cmd
			m.quantity, cmd = m.quantity.Update(msg)
			return m, cmd
		}
	}

	if m.focus == fieldQuantity {
		m.quantity.Focus()
	} else {
		m.quantity.Blur()
	}
	return m, nil
}

func (m model) handleEconomyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "1":
		return m.switchMode(econ.ModeJobs)
	case "2":
		return m.switchMode(econ.ModeShop)
	case "3":
		return m.switchMode(econ.ModeInventory)
	case "a":
		return m.cycleActor()
	case "up", "k":
		m.cursor = maxInt(m.cursor-1, 0)
		return m, nil
	case "down", "j":
		m.cursor = minInt(m.cursor+1, m.cursorMax())
		return m, nil
	case "enter":
		return m.activateCursor()
	}
	return m, nil
}

func (m model) switchMode(mode econ.Mode) (tea.Model, tea.Cmd) {
	m.cursor = 0
	m.opts.Panel.SetMode(mode)
	return m, m.loadPanelCmd()
}

// cycleActor advances the selected actor through the non-human roster; the
// subsequent load is keyed to the new actor.
func (m model) cycleActor() (tea.Model, tea.Cmd) {
	selectable := m.opts.Overview.Selectable()
	if len(selectable) == 0 {
		return m, nil
	}
	current := m.opts.Panel.Actor()
	next := selectable[0].ID
	for i, a := range selectable {
		if a.ID == current {
			next = selectable[(i+1)%len(selectable)].ID
			break
		}
	}
	m.opts.Panel.SetActor(next)
	return m, m.loadPanelCmd()
}

func (m model) cursorMax() int {
	switch m.opts.Panel.Mode() {
	case econ.ModeJobs:
		return maxInt(len(m.opts.Panel.Jobs())-1, 0)
	case econ.ModeShop:
		return maxInt(len(m.opts.Panel.Items())-1, 0)
	default:
		return maxInt(len(m.opts.Panel.Owned())-1, 0)
	}
}

func (m model) activateCursor() (tea.Model, tea.Cmd) {
	switch m.opts.Panel.Mode() {
	case econ.ModeJobs:
		jobs := m.opts.Panel.Jobs()
		if m.cursor < len(jobs) && !m.opts.Coordinator.Busy(controlCheckIn) {
			return m, m.checkInCmd(jobs[m.cursor])
		}
	case econ.ModeShop:
		items := m.opts.Panel.Items()
		if m.cursor < len(items) && !m.opts.Coordinator.Busy(controlPurchase) {
			return m, m.purchaseCmd(items[m.cursor])
		}
	}
	return m, nil
}

func agentIDAt(roster []cityapi.Agent, idx int) int {
	if idx < 0 || idx >= len(roster) {
		return 0
	}
	return roster[idx].ID
}

func resourceAt(types []string, idx int) string {
	if len(types) == 0 {
		return "flour"
	}
	if idx < 0 || idx >= len(types) {
		return types[0]
	}
	return types[idx]
}

func cycle(idx, delta, n int) int {
	if n == 0 {
		return 0
	}
	return ((idx+delta)%n + n) % n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
