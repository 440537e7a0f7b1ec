package export

import (
	"os"

	jsoniter "github.com/json-iterator/go"
)

// FileWriter writes snapshot and stall rows to JSONL files.
type FileWriter struct {
	snapFile  *os.File
	stallFile *os.File
	snapEnc   *jsoniter.Encoder
	stallEnc  *jsoniter.Encoder
}

// NewFileWriter creates a FileWriter. stallPath may be empty to skip stall rows.
func NewFileWriter(snapshotPath, stallPath string) (*FileWriter, error) {
	sf, err := os.Create(snapshotPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{snapFile: sf, snapEnc: json.NewEncoder(sf)}
	if stallPath != "" {
		tf, err := os.Create(stallPath)
		if err != nil {
			sf.Close()
			return nil, err
		}
		fw.stallFile = tf
		fw.stallEnc = json.NewEncoder(tf)
	}
	return fw, nil
}

// Write logs a single snapshot row.
func (f *FileWriter) Write(row SnapshotRow) error {
	return f.snapEnc.Encode(row)
}

// WriteBatch logs multiple snapshot rows.
func (f *FileWriter) WriteBatch(rows []SnapshotRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteStalls logs stall rows, if enabled.
func (f *FileWriter) WriteStalls(rows []StallRow) error {
	if f.stallEnc == nil {
		return nil
	}
	for _, r := range rows {
		if err := f.stallEnc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.snapFile != nil {
		if e := f.snapFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.stallFile != nil {
		if e := f.stallFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
