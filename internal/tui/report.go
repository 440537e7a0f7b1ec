package tui

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"bodash/internal/compare"
	"bodash/internal/model"
	"bodash/internal/queue"
)

var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00e5ff"))
	headStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8b949e"))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#69f0ae"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff9800"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f85149"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
)

// Labeler maps a unit key to its display name.
type Labeler func(key string) string

func rawKey(key string) string { return key }

// grid lays out rows under headers with every column padded to its widest cell.
func grid(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) && lipgloss.Width(c) > widths[i] {
				widths[i] = lipgloss.Width(c)
			}
		}
	}
	line := func(cells []string, st lipgloss.Style) string {
		parts := make([]string, len(widths))
		for i := range widths {
			c := ""
			if i < len(cells) {
				c = cells[i]
			}
			parts[i] = st.Width(widths[i] + 2).Render(c)
		}
		return strings.TrimRight(strings.Join(parts, ""), " ")
	}
	out := []string{line(headers, headStyle)}
	for _, r := range rows {
		out = append(out, line(r, lipgloss.NewStyle()))
	}
	return strings.Join(out, "\n")
}

func section(title, body string) string {
	return sectionStyle.Render(title) + "\n" + body
}

// SummaryReport lists the headline numbers of a result.
func SummaryReport(r *model.SimulationResult) string {
	rows := [][]string{
		{"Total Army Value", humanize.Comma(int64(math.Round(r.TotalArmyMetalValue))) + " metal"},
		{"Peak M/s", model.FormatRate(r.PeakMetalIncome)},
		{"Peak E/s", model.FormatRate(r.PeakEnergyIncome)},
		{"Metal Stall", fmt.Sprintf("%ds", r.TotalMetalStallSeconds)},
		{"Energy Stall", fmt.Sprintf("%ds", r.TotalEnergyStallSeconds)},
	}
	for _, t := range []struct {
		label string
		tick  *int
	}{
		{"First Factory", r.TimeToFirstFactory},
		{"First Constructor", r.TimeToFirstConstructor},
		{"First Nano", r.TimeToFirstNano},
		{"T2 Lab", r.TimeToT2Lab},
	} {
		if t.tick != nil {
			rows = append(rows, []string{t.label, model.FormatTick(*t.tick)})
		}
	}
	return grid([]string{"Stat", "Value"}, rows)
}

// MilestoneReport lists milestones by tick.
func MilestoneReport(r *model.SimulationResult) string {
	ms := r.SortedMilestones()
	if len(ms) == 0 {
		return dimStyle.Render("No milestones")
	}
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []string{m.Description, model.FormatTick(m.Tick), model.FormatRate(m.MetalIncome), model.FormatRate(m.EnergyIncome)})
	}
	return grid([]string{"Milestone", "Time", "M/s", "E/s"}, rows)
}

// StallReport lists stall intervals with duration and severity.
func StallReport(r *model.SimulationResult) string {
	if len(r.StallEvents) == 0 {
		return goodStyle.Render("No stalls!")
	}
	rows := make([][]string, 0, len(r.StallEvents))
	for _, s := range r.StallEvents {
		rows = append(rows, []string{
			model.FormatTick(s.StartTick) + "-" + model.FormatTick(s.EndTick),
			s.Resource,
			fmt.Sprintf("%ds", s.Duration()),
			fmt.Sprintf("%d%%", int(math.Round(s.Severity*100))),
		})
	}
	return grid([]string{"Time", "Resource", "Duration", "Severity"}, rows)
}

// LogReport lists the construction log with display names.
func LogReport(r *model.SimulationResult, label Labeler) string {
	if label == nil {
		label = rawKey
	}
	if len(r.CompletionLog) == 0 {
		return dimStyle.Render("Nothing built")
	}
	rows := make([][]string, 0, len(r.CompletionLog))
	for _, e := range r.CompletionLog {
		rows = append(rows, []string{model.FormatTick(e.Tick), e.BuilderID, label(e.UnitKey)})
	}
	return grid([]string{"Time", "Builder", "Unit"}, rows)
}

// ResultReport renders every table of a single result.
func ResultReport(r *model.SimulationResult, label Labeler) string {
	return strings.Join([]string{
		section("Summary: "+r.BuildOrderName, SummaryReport(r)),
		section("Milestones", MilestoneReport(r)),
		section("Stalls", StallReport(r)),
		section("Construction Log", LogReport(r, label)),
	}, "\n\n")
}

func optRate(s *model.Snapshot, f func(model.Snapshot) float64) string {
	if s == nil {
		return "--"
	}
	return model.FormatRate(f(*s))
}

func optCount(s *model.Snapshot, f func(model.Snapshot) float64) string {
	if s == nil {
		return "--"
	}
	return humanize.Comma(int64(math.Round(f(*s))))
}

func winnerCell(w string) string {
	switch w {
	case compare.WinnerA, compare.WinnerB:
		return goodStyle.Render(w)
	case compare.WinnerTie:
		return warnStyle.Render(w)
	}
	return dimStyle.Render(w)
}

// CompareReport renders the race, checkpoint, stall and category tables.
func CompareReport(v *compare.View) string {
	a, b := "A: "+v.NameA, "B: "+v.NameB

	race := make([][]string, 0, len(v.Race))
	for _, r := range v.Race {
		race = append(race, []string{r.Label, model.FormatOptionalTick(r.TickA), model.FormatOptionalTick(r.TickB), winnerCell(r.Winner)})
	}

	var eco [][]string
	for _, c := range v.Checkpoints {
		eco = append(eco,
			[]string{headStyle.Render("@ " + model.FormatTick(c.Tick)), "", ""},
			[]string{"Metal /s", optRate(c.A, model.MetalIncome), optRate(c.B, model.MetalIncome)},
			[]string{"Energy /s", optRate(c.A, model.EnergyIncome), optRate(c.B, model.EnergyIncome)},
			[]string{"Army Value", optCount(c.A, model.ArmyValueMetal), optCount(c.B, model.ArmyValueMetal)},
		)
	}
	eco = append(eco,
		[]string{headStyle.Render("Stalling"), "", ""},
		[]string{"Metal Stall", fmt.Sprintf("%ds", v.StallsA.Metal), fmt.Sprintf("%ds", v.StallsB.Metal)},
		[]string{"Energy Stall", fmt.Sprintf("%ds", v.StallsA.Energy), fmt.Sprintf("%ds", v.StallsB.Energy)},
	)

	var cats [][]string
	for _, c := range v.Categories {
		if !c.Valid {
			continue
		}
		cats = append(cats, []string{c.Label, winnerCell(c.Winner), c.Name})
	}

	parts := []string{
		section("Milestone Race", grid([]string{"Milestone", a, b, "Winner"}, race)),
		section("Economy", grid([]string{"Metric", a, b}, eco)),
	}
	if len(cats) > 0 {
		parts = append(parts, section("Winners", grid([]string{"Category", "Winner", "Build Order"}, cats)))
	}
	return strings.Join(parts, "\n\n")
}

// BuildOrderReport lists every queue of bo, one numbered line per unit.
func BuildOrderReport(bo model.BuildOrder, label Labeler) string {
	if label == nil {
		label = rawKey
	}
	var b strings.Builder
	b.WriteString(sectionStyle.Render(bo.Name))
	writeQueue := func(title string, q []string) {
		b.WriteString("\n\n" + headStyle.Render(title+" Queue:"))
		for i, key := range q {
			fmt.Fprintf(&b, "\n  %d. %s (%s)", i+1, key, label(key))
		}
	}
	writeQueue("Commander", bo.CommanderQueue)
	for _, lanes := range []map[string][]string{bo.FactoryQueues, bo.ConstructorQueues} {
		ids := make([]string, 0, len(lanes))
		for id := range lanes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			writeQueue(id, lanes[id])
		}
	}
	return b.String()
}

// LaneView renders one editor lane with the selected row marked.
func LaneView(lane string, keys []string, selected int, active bool, label Labeler) string {
	if label == nil {
		label = rawKey
	}
	title := headStyle.Render(lane)
	if active {
		title = sectionStyle.Render("> " + lane)
	}
	lines := []string{title}
	if len(keys) == 0 {
		lines = append(lines, dimStyle.Render("  (empty)"))
	}
	for i, key := range keys {
		cursor := "  "
		if active && i == selected {
			cursor = "* "
		}
		name := key
		if l := label(key); l != key {
			name = fmt.Sprintf("%s (%s)", key, l)
		}
		lines = append(lines, fmt.Sprintf("%s%d. %s", cursor, i+1, name))
	}
	return strings.Join(lines, "\n")
}

// laneTitles are the editor lane headings.
var laneTitles = map[string]string{
	queue.LaneCommander:   "Commander",
	queue.LaneFactory:     "Factory",
	queue.LaneConstructor: "Constructor",
}

// OptimizedReport renders the optimizer's build order and its result summary.
func OptimizedReport(ev *model.CompleteEvent, label Labeler) string {
	parts := []string{BuildOrderReport(ev.BuildOrder, label)}
	if n := len(ev.History); n > 0 {
		parts = append(parts, fmt.Sprintf("Best fitness %g after %d generations", ev.History[n-1], n))
	}
	parts = append(parts, section("Summary", SummaryReport(&ev.Result)))
	return strings.Join(parts, "\n\n")
}
