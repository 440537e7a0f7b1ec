package main

import (
	"log/slog"

	"bodash/internal/config"
	"bodash/internal/export"
)

// newWriters sets up the snapshot writers based on flags and config. It
// returns nil when nothing should be exported, plus a cleanup function that
// closes any files it opened.
func newWriters(ec config.ExportConfig, printOnly bool, logFile string, log *slog.Logger) (export.SnapshotWriter, func(), error) {
	cleanup := func() {}

	base, err := baseWriter(ec, printOnly, log)
	if err != nil {
		return nil, nil, err
	}
	if logFile == "" {
		logFile = ec.LogFile
	}
	if logFile == "" {
		return base, cleanup, nil
	}

	fw, err := export.NewFileWriter(logFile, logFile+".stalls")
	if err != nil {
		return nil, nil, err
	}
	cleanup = func() { fw.Close() }
	if base == nil {
		return fw, cleanup, nil
	}
	return export.NewMultiWriter(base, fw), cleanup, nil
}

// baseWriter chooses stdout or GreptimeDB. Without a configured endpoint and
// without printOnly nothing is exported.
func baseWriter(ec config.ExportConfig, printOnly bool, log *slog.Logger) (export.SnapshotWriter, error) {
	if printOnly {
		return export.NewJSONStdoutWriter(), nil
	}
	if ec.GreptimeEndpoint == "" {
		return nil, nil
	}
	w, err := export.NewGreptimeDBWriter(ec.GreptimeEndpoint, ec.Database, ec.Table, log)
	if err != nil {
		return nil, err
	}
	return w, nil
}
