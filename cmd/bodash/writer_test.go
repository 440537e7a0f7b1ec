package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bodash/internal/config"
	"bodash/internal/export"
	"bodash/internal/logging"
)

func TestNewWritersNothingConfigured(t *testing.T) {
	w, cleanup, err := newWriters(config.ExportConfig{}, false, "", logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if w != nil {
		t.Fatalf("expected no writer, got %T", w)
	}
}

func TestNewWritersPrintOnly(t *testing.T) {
	ec := config.ExportConfig{GreptimeEndpoint: "db:4001", Table: "t"}
	w, cleanup, err := newWriters(ec, true, "", logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*export.JSONStdoutWriter); !ok {
		t.Fatalf("expected *export.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersGreptime(t *testing.T) {
	ec := config.ExportConfig{GreptimeEndpoint: "localhost:4001", Database: "public", Table: "bo_snapshots"}
	w, cleanup, err := newWriters(ec, false, "", logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*export.GreptimeDBWriter); !ok {
		t.Fatalf("expected *export.GreptimeDBWriter, got %T", w)
	}
}

func TestNewWritersBadEndpoint(t *testing.T) {
	ec := config.ExportConfig{GreptimeEndpoint: "db:notaport", Table: "t"}
	if _, _, err := newWriters(ec, false, "", logging.Discard()); err == nil {
		t.Fatalf("expected error for bad endpoint")
	}
}

func TestNewWritersLogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshots.log")
	w, cleanup, err := newWriters(config.ExportConfig{}, false, path, logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	fw, ok := w.(*export.FileWriter)
	if !ok {
		t.Fatalf("expected *export.FileWriter, got %T", w)
	}
	row := export.SnapshotRow{RunID: "r1", BuildOrder: "bo", Tick: 1, Timestamp: time.Now()}
	if err := fw.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := fw.WriteStalls([]export.StallRow{{RunID: "r1", Resource: "metal", Timestamp: time.Now()}}); err != nil {
		t.Fatalf("write stalls failed: %v", err)
	}
	cleanup()
	for _, p := range []string{path, path + ".stalls"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", p)
		}
	}
}

func TestNewWritersLogFileWithStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.log")
	w, cleanup, err := newWriters(config.ExportConfig{}, true, path, logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*export.MultiWriter); !ok {
		t.Fatalf("expected *export.MultiWriter, got %T", w)
	}
}

func TestNewWritersLogFileFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.log")
	w, cleanup, err := newWriters(config.ExportConfig{LogFile: path}, false, "", logging.Discard())
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*export.FileWriter); !ok {
		t.Fatalf("expected *export.FileWriter, got %T", w)
	}
}
