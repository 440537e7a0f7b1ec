package export

import (
	"fmt"
	"io"
	"os"
)

// JSONStdoutWriter prints rows as JSON lines.
type JSONStdoutWriter struct {
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// Write outputs a snapshot row in JSON format.
func (w *JSONStdoutWriter) Write(row SnapshotRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteStalls outputs stall rows in JSON format.
func (w *JSONStdoutWriter) WriteStalls(rows []StallRow) error {
	for _, r := range rows {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w.out, string(data)); err != nil {
			return err
		}
	}
	return nil
}
