package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"bodash/internal/history"
	"bodash/internal/model"
)

func TestProgressPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	pp := newProgressPrinter(&buf)
	if pp.inPlace {
		t.Fatalf("a buffer is not a terminal")
	}
	pp.Progress(model.ProgressEvent{Generation: 1, TotalGenerations: 4, BestScore: 2})
	pp.Progress(model.ProgressEvent{Generation: 2, TotalGenerations: 4, BestScore: 3})
	pp.Done()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "[ 50%] Gen 2/4 | Best: 3") {
		t.Fatalf("unexpected line %q", lines[1])
	}
}

func TestPrintHistory(t *testing.T) {
	st, err := history.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	if err := printHistory(ctx, cmd, st, "", 10, now); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out.String(), "no runs recorded") {
		t.Fatalf("unexpected output %q", out.String())
	}

	res := &model.SimulationResult{BuildOrderName: "Wind Rush", PeakMetalIncome: 9.5}
	run := history.FromResult("r1", history.KindSimulate, now.Add(-time.Hour), time.Second, res)
	if err := st.Record(ctx, run); err != nil {
		t.Fatalf("record: %v", err)
	}
	out.Reset()
	if err := printHistory(ctx, cmd, st, history.KindSimulate, 10, now); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(out.String(), "Wind Rush") {
		t.Fatalf("run missing from output %q", out.String())
	}
}

func TestRootRegistersCommands(t *testing.T) {
	want := []string{"simulate", "compare", "optimize", "editor", "replay", "history", "serve", "buildorder", "faction"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("command %s not registered", name)
		}
	}
}
