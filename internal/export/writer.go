package export

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SnapshotWriter consumes snapshot rows.
type SnapshotWriter interface {
	Write(row SnapshotRow) error
}

// StallWriter consumes stall rows.
type StallWriter interface {
	WriteStalls(rows []StallRow) error
}

type batchWriter interface {
	WriteBatch(rows []SnapshotRow) error
}

// WriteAll sends rows to w, batching when w supports it.
func WriteAll(w SnapshotWriter, rows []SnapshotRow) error {
	if bw, ok := w.(batchWriter); ok {
		return bw.WriteBatch(rows)
	}
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// MultiWriter fans snapshot and stall rows out to several writers.
type MultiWriter struct {
	writers []SnapshotWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...SnapshotWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Write sends a row to all writers.
func (mw *MultiWriter) Write(row SnapshotRow) error {
	for _, w := range mw.writers {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteBatch sends rows to all writers, using batch writes where supported.
func (mw *MultiWriter) WriteBatch(rows []SnapshotRow) error {
	for _, w := range mw.writers {
		if err := WriteAll(w, rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteStalls forwards stall rows to every writer that accepts them.
func (mw *MultiWriter) WriteStalls(rows []StallRow) error {
	for _, w := range mw.writers {
		sw, ok := w.(StallWriter)
		if !ok {
			continue
		}
		if err := sw.WriteStalls(rows); err != nil {
			return err
		}
	}
	return nil
}
