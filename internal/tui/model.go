// Package tui is the terminal front end of the dashboard. It drives a
// dashboard controller and redraws on the events the controller emits.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"bodash/internal/compare"
	"bodash/internal/dashboard"
	"bodash/internal/model"
	"bodash/internal/queue"
)

// Actions is the controller surface the TUI uses. *dashboard.Controller
// implements it.
type Actions interface {
	RunSimulate(ctx context.Context, filename string) (*model.SimulationResult, error)
	RunCompare(ctx context.Context, a, b string) (*compare.View, error)
	RunOptimize(ctx context.Context, startFrom string) (*model.CompleteEvent, error)
	SimulateDraft(ctx context.Context) (*model.SimulationResult, error)
	Cancel() bool
	Apply(cmd queue.Command) error
	Draft() model.BuildOrder
	Label(key string) string
	Catalog() *model.Catalog
	LoadIntoEditor(ctx context.Context, filename string) error
	SaveDraft(ctx context.Context) (string, error)
	ShowOptimizedResult() error
	LoadOptimizedIntoEditor() error
	SaveOptimized(ctx context.Context) (string, error)
	ExportCharts(outDir string) ([]string, error)
	BuildOrderFiles() []model.BuildOrderFile
	Controls() dashboard.Controls
}

// eventMsg carries a controller event into the program loop.
type eventMsg struct{ ev dashboard.Event }

type simulatedMsg struct {
	res *model.SimulationResult
	err error
}

type comparedMsg struct {
	view *compare.View
	err  error
}

type optimizedMsg struct {
	ev  *model.CompleteEvent
	err error
}

// doneMsg reports a finished editor, save or export action.
type doneMsg struct {
	text string
	err  error
}

type tab int

const (
	tabSimulate tab = iota
	tabCompare
	tabOptimize
	tabEditor
)

var tabNames = []string{"Simulate", "Compare", "Optimize", "Editor"}

type inputMode int

const (
	inputNone inputMode = iota
	inputAppend
	inputRename
)

const (
	logHeight   = 5
	maxLogLines = 200
	listWidth   = 28
)

var (
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0d1117")).Background(lipgloss.Color("#00e5ff")).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#8b949e")).Padding(0, 1)
	cursorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00e5ff"))
)

// Options configure a Model.
type Options struct {
	// ExportDir receives chart PNGs on "p".
	ExportDir string
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx  context.Context
	act  Actions
	opts Options

	tab      tab
	files    []model.BuildOrderFile
	cursor   int
	markA    string
	markB    string
	seed     string
	reports  [4]string
	controls dashboard.Controls
	progress *model.ProgressEvent
	draft    model.BuildOrder
	laneIdx  int
	sel      int

	body    viewport.Model
	logVP   viewport.Model
	logs    []string
	spinner spinner.Model
	input   textinput.Model
	mode    inputMode

	wrap       bool
	autoscroll bool
	help       bool
	width      int
	height     int
}

// NewModel returns a model driving act. ctx bounds every action it starts.
func NewModel(ctx context.Context, act Actions, opts Options) Model {
	if opts.ExportDir == "" {
		opts.ExportDir = "charts"
	}
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = cursorStyle
	m := Model{
		ctx:        ctx,
		act:        act,
		opts:       opts,
		files:      act.BuildOrderFiles(),
		controls:   act.Controls(),
		draft:      act.Draft(),
		body:       viewport.New(0, 0),
		logVP:      viewport.New(0, logHeight),
		spinner:    spin,
		autoscroll: true,
	}
	m.reports[tabSimulate] = dimStyle.Render("Select a build order and press r.")
	m.reports[tabCompare] = dimStyle.Render("Mark two build orders with a and b, then press r.")
	m.reports[tabOptimize] = dimStyle.Render("Press r to start the optimizer.")
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) running() bool { return !m.controls.RunEnabled }

func (m Model) selected() string {
	if m.cursor < 0 || m.cursor >= len(m.files) {
		return ""
	}
	return m.files[m.cursor].Filename
}

func (m Model) lane() string { return queue.Lanes()[m.laneIdx] }

func laneKeys(bo model.BuildOrder, lane string) []string {
	switch lane {
	case queue.LaneCommander:
		return bo.CommanderQueue
	case queue.LaneFactory:
		return bo.FactoryQueues[lane]
	case queue.LaneConstructor:
		return bo.ConstructorQueues[lane]
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.body.Width = msg.Width - listWidth - 2
		if m.body.Width < 20 {
			m.body.Width = msg.Width
		}
		m.logVP.Width = msg.Width
		m.updateViewportHeight()
		m.refreshBody()
		m.refreshLogs()
		return m, nil
	case spinner.TickMsg:
		if !m.running() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case eventMsg:
		return m.handleEvent(msg.ev)
	case simulatedMsg:
		if msg.err != nil {
			m.logError(msg.err)
			return m, nil
		}
		if msg.res != nil {
			m.reports[tabSimulate] = ResultReport(msg.res, m.act.Label)
			m.refreshBody()
		}
		return m, nil
	case comparedMsg:
		if msg.err != nil {
			m.logError(msg.err)
			return m, nil
		}
		if msg.view != nil {
			m.reports[tabCompare] = CompareReport(msg.view)
			m.refreshBody()
		}
		return m, nil
	case optimizedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.logError(msg.err)
		}
		if msg.ev != nil {
			m.reports[tabOptimize] = OptimizedReport(msg.ev, m.act.Label)
			m.refreshBody()
		}
		return m, nil
	case doneMsg:
		if msg.err != nil {
			m.logError(msg.err)
			return m, nil
		}
		if msg.text != "" {
			m.addLog(msg.text)
		}
		m.files = m.act.BuildOrderFiles()
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleEvent(ev dashboard.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case dashboard.EventControls:
		if ev.Controls == nil {
			return m, nil
		}
		wasRunning := m.running()
		m.controls = *ev.Controls
		if m.running() && !wasRunning {
			return m, m.spinner.Tick
		}
	case dashboard.EventNotice:
		if ev.Notice != nil {
			m.addLog(noticeLine(*ev.Notice))
		}
	case dashboard.EventProgress:
		m.progress = ev.Progress
	case dashboard.EventEditor:
		if ev.Draft != nil {
			m.draft = *ev.Draft
			m.clampSel()
			if m.tab == tabEditor {
				m.refreshBody()
			}
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode != inputNone {
		return m.handleInput(msg)
	}
	if m.help {
		switch msg.String() {
		case "?", "h", "esc":
			m.help = false
		}
		return m, nil
	}
	switch msg.String() {
	case "q", "ctrl+c":
		m.act.Cancel()
		return m, tea.Quit
	case "?":
		m.help = true
		return m, nil
	case "1", "2", "3", "4":
		m.tab = tab(msg.String()[0] - '1')
		m.refreshBody()
		return m, nil
	case "right":
		m.tab = (m.tab + 1) % tab(len(tabNames))
		m.refreshBody()
		return m, nil
	case "left":
		m.tab = (m.tab + tab(len(tabNames)) - 1) % tab(len(tabNames))
		m.refreshBody()
		return m, nil
	case "w":
		m.wrap = !m.wrap
		m.refreshLogs()
		return m, nil
	case "s":
		m.autoscroll = !m.autoscroll
		if m.autoscroll {
			m.logVP.GotoBottom()
		}
		return m, nil
	case "c":
		if !m.act.Cancel() {
			m.addLog(dimStyle.Render("nothing to cancel"))
		}
		return m, nil
	case "p":
		return m, m.exportCmd()
	case "pgdown", "pgup":
		var cmd tea.Cmd
		m.body, cmd = m.body.Update(msg)
		return m, cmd
	}
	if m.tab == tabEditor {
		return m.handleEditorKey(msg)
	}
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.files)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		if m.tab == tabCompare {
			m.markA = m.selected()
		}
	case "b":
		if m.tab == tabCompare {
			m.markB = m.selected()
		}
	case "f":
		if m.tab == tabOptimize {
			if m.seed == m.selected() {
				m.seed = ""
			} else {
				m.seed = m.selected()
			}
		}
	case "o":
		if m.tab == tabOptimize {
			return m, m.doneCmd("", m.act.ShowOptimizedResult)
		}
	case "L":
		if m.tab == tabOptimize {
			return m, m.doneCmd("Loaded optimized build order into the editor", m.act.LoadOptimizedIntoEditor)
		}
	case "S":
		if m.tab == tabOptimize {
			return m, m.saveCmd(m.act.SaveOptimized)
		}
	case "r", "enter":
		return m.run()
	}
	return m, nil
}

func (m Model) run() (tea.Model, tea.Cmd) {
	if m.running() {
		m.addLog(warnStyle.Render(dashboard.ErrBusy.Error()))
		return m, nil
	}
	ctx, act := m.ctx, m.act
	switch m.tab {
	case tabSimulate:
		file := m.selected()
		return m, func() tea.Msg {
			res, err := act.RunSimulate(ctx, file)
			return simulatedMsg{res: res, err: err}
		}
	case tabCompare:
		a, b := m.markA, m.markB
		if a == "" || b == "" {
			m.addLog(warnStyle.Render("Mark build orders A and B first"))
			return m, nil
		}
		return m, func() tea.Msg {
			v, err := act.RunCompare(ctx, a, b)
			return comparedMsg{view: v, err: err}
		}
	case tabOptimize:
		seed := m.seed
		m.progress = nil
		return m, func() tea.Msg {
			ev, err := act.RunOptimize(ctx, seed)
			return optimizedMsg{ev: ev, err: err}
		}
	}
	return m, nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lane := m.lane()
	keys := laneKeys(m.draft, lane)
	switch msg.String() {
	case "tab":
		m.laneIdx = (m.laneIdx + 1) % len(queue.Lanes())
		m.sel = 0
		m.clampSel()
	case "j", "down":
		if m.sel < len(keys)-1 {
			m.sel++
		}
	case "k", "up":
		if m.sel > 0 {
			m.sel--
		}
	case "i", "a":
		m.openInput(inputAppend, "unit key", "")
		m.input.SetSuggestions(m.poolKeys(lane))
		m.input.ShowSuggestions = true
		return m, textinput.Blink
	case "n":
		m.openInput(inputRename, "build order name", m.draft.Name)
		return m, textinput.Blink
	case "x", "delete":
		if len(keys) == 0 {
			return m, nil
		}
		return m, m.applyCmd(queue.RemoveCmd{Lane: lane, Index: m.sel})
	case "K":
		if m.sel > 0 {
			cmd := m.applyCmd(queue.MoveCmd{Lane: lane, From: m.sel, To: m.sel - 1})
			m.sel--
			return m, cmd
		}
	case "J":
		if m.sel < len(keys)-1 {
			cmd := m.applyCmd(queue.MoveCmd{Lane: lane, From: m.sel, To: m.sel + 1})
			m.sel++
			return m, cmd
		}
	case "C":
		m.sel = 0
		return m, m.applyCmd(queue.ClearCmd{})
	case "S":
		return m, m.saveCmd(m.act.SaveDraft)
	case "l":
		file := m.selected()
		ctx, act := m.ctx, m.act
		return m, func() tea.Msg {
			if err := act.LoadIntoEditor(ctx, file); err != nil {
				return doneMsg{err: err}
			}
			return doneMsg{text: "Loaded " + file}
		}
	case "L":
		return m, m.doneCmd("Loaded optimized build order into the editor", m.act.LoadOptimizedIntoEditor)
	case "d", "r":
		if m.running() {
			m.addLog(warnStyle.Render(dashboard.ErrBusy.Error()))
			return m, nil
		}
		ctx, act := m.ctx, m.act
		return m, func() tea.Msg {
			res, err := act.SimulateDraft(ctx)
			return simulatedMsg{res: res, err: err}
		}
	}
	m.refreshBody()
	return m, nil
}

func (m *Model) openInput(mode inputMode, placeholder, value string) {
	m.input = textinput.New()
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.mode = mode
	m.updateViewportHeight()
}

func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		val := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		m.updateViewportHeight()
		if val == "" {
			return m, nil
		}
		if mode == inputRename {
			return m, m.applyCmd(queue.RenameCmd{Name: val})
		}
		if cat := m.act.Catalog(); cat != nil {
			if _, ok := cat.Units[val]; !ok {
				m.addLog(warnStyle.Render("unknown unit " + val))
				return m, nil
			}
		}
		return m, m.applyCmd(queue.AppendCmd{Lane: m.lane(), Key: val})
	case tea.KeyEsc:
		m.mode = inputNone
		m.input.Blur()
		m.updateViewportHeight()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// poolKeys lists the catalog units that can be queued in lane.
func (m Model) poolKeys(lane string) []string {
	cat := m.act.Catalog()
	if cat == nil {
		return nil
	}
	for pool, keys := range cat.Pools {
		if l, ok := queue.LaneForPool(pool); ok && l == lane {
			return keys
		}
	}
	return nil
}

// Controller calls emit events that are sent back into the program, so they
// must never run inside Update.
func (m Model) applyCmd(c queue.Command) tea.Cmd {
	act := m.act
	return func() tea.Msg {
		return doneMsg{err: act.Apply(c)}
	}
}

func (m Model) doneCmd(text string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{text: text}
	}
}

func (m Model) saveCmd(fn func(context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		_, err := fn(ctx)
		return doneMsg{err: err}
	}
}

func (m Model) exportCmd() tea.Cmd {
	act, dir := m.act, m.opts.ExportDir
	return func() tea.Msg {
		paths, err := act.ExportCharts(dir)
		if err != nil {
			return doneMsg{err: err}
		}
		return doneMsg{text: fmt.Sprintf("Exported %d charts to %s", len(paths), dir)}
	}
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.files) {
		m.cursor = len(m.files) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) clampSel() {
	n := len(laneKeys(m.draft, m.lane()))
	if m.sel >= n {
		m.sel = n - 1
	}
	if m.sel < 0 {
		m.sel = 0
	}
}

func (m *Model) logError(err error) {
	m.addLog(errStyle.Render("error: " + err.Error()))
}

func (m *Model) addLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > maxLogLines {
		m.logs = m.logs[len(m.logs)-maxLogLines:]
	}
	m.refreshLogs()
}

func noticeLine(n dashboard.Notice) string {
	line := n.At.Format("15:04:05") + " " + n.Text
	switch n.Level {
	case dashboard.NoticeError:
		return errStyle.Render(line)
	case dashboard.NoticeWarn:
		return warnStyle.Render(line)
	}
	return line
}

func (m *Model) updateViewportHeight() {
	// tabs, status, three dividers, notice title and footer
	h := m.height - logHeight - 7
	if m.mode != inputNone {
		h--
	}
	if h < 0 {
		h = 0
	}
	m.body.Height = h
	m.logVP.Height = logHeight
}

func (m *Model) refreshLogs() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap && m.logVP.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.logVP.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.logVP.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.logVP.GotoBottom()
	}
}

func (m *Model) refreshBody() {
	if m.tab == tabEditor {
		m.body.SetContent(m.renderEditor())
		return
	}
	m.body.SetContent(m.reports[m.tab])
	m.body.GotoTop()
}

func (m Model) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", max(m.width, 1))
	var body string
	if m.tab == tabEditor {
		body = m.body.View()
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderFiles(), "  ", m.body.View())
	}
	sections := []string{
		m.renderTabs(),
		m.renderStatus(),
		divider,
		body,
	}
	if m.mode != inputNone {
		sections = append(sections, m.input.View())
	}
	sections = append(sections,
		divider,
		"Notices:",
		m.logVP.View(),
		divider,
		m.renderFooter(),
	)
	return strings.Join(sections, "\n")
}

func (m Model) renderTabs() string {
	parts := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == m.tab {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) renderStatus() string {
	if !m.running() {
		status := goodStyle.Render("idle")
		if m.progress != nil {
			status += "  " + dimStyle.Render(dashboard.ProgressText(*m.progress))
		}
		return status
	}
	status := m.spinner.View() + " running"
	if m.controls.CancelVisible {
		status += dimStyle.Render(" (c to cancel)")
	}
	if m.progress != nil {
		status += fmt.Sprintf("  %d%%  %s", m.progress.Percent(), dashboard.ProgressText(*m.progress))
	}
	return status
}

func (m Model) renderFiles() string {
	lines := []string{headStyle.Render("Build Orders")}
	if len(m.files) == 0 {
		lines = append(lines, dimStyle.Render("none"))
	}
	for i, f := range m.files {
		mark := "  "
		switch {
		case m.tab == tabCompare && f.Filename == m.markA:
			mark = "A "
		case m.tab == tabCompare && f.Filename == m.markB:
			mark = "B "
		case m.tab == tabOptimize && f.Filename == m.seed:
			mark = "+ "
		}
		line := mark + f.Stem
		if i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Width(listWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) renderEditor() string {
	lanes := queue.Lanes()
	cols := make([]string, 0, len(lanes)*2)
	for i, lane := range lanes {
		if i > 0 {
			cols = append(cols, "    ")
		}
		title := laneTitles[lane]
		cols = append(cols, LaneView(title, laneKeys(m.draft, lane), m.sel, i == m.laneIdx, m.act.Label))
	}
	name := sectionStyle.Render("Draft: " + m.draft.Name)
	return name + "\n\n" + lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderFooter() string {
	if m.tab == tabEditor {
		return dimStyle.Render("tab lane  i add  n rename  x remove  K/J move  C clear  S save  l load  L load optimized  d simulate  ? help")
	}
	return dimStyle.Render("1-4 tabs  j/k select  r run  c cancel  p export charts  ? help  q quit")
}

func (m Model) renderHelp() string {
	lines := []string{
		"Key Bindings:",
		" q       quit",
		" 1-4     switch tab (or left/right)",
		" j/k     move selection",
		" r       run the current tab",
		" c       cancel a running optimization",
		" a / b   mark compare build order A / B",
		" f       toggle the optimizer seed build order",
		" o       chart the optimized result",
		" L       load the optimized build order into the editor",
		" S       save the draft (editor) or the optimized build order",
		" p       export charts as PNG",
		" w       toggle wrap for notices",
		" s       toggle auto-scroll",
		" pgup/pgdown scroll the report",
		"",
		"Editor:",
		" tab     next lane",
		" i       append a unit to the lane",
		" n       rename the draft",
		" x       remove the selected unit",
		" K/J     move the selected unit up/down",
		" C       clear the draft",
		" l       load the selected build order",
		" d       simulate the draft",
		" h/?     toggle this help view",
	}
	return strings.Join(lines, "\n")
}
