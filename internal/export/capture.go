package export

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// StreamChunk is one recorded read from an optimizer stream.
type StreamChunk struct {
	Timestamp time.Time `json:"ts"`
	Data      string    `json:"data"`
}

// StreamRecorder appends stream chunks to a JSONL file.
type StreamRecorder struct {
	mu  sync.Mutex
	f   *os.File
	enc *jsoniter.Encoder
	now func() time.Time
}

// NewStreamRecorder creates the capture file at path.
func NewStreamRecorder(path string) (*StreamRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &StreamRecorder{f: f, enc: json.NewEncoder(f), now: time.Now}, nil
}

// Record writes one chunk.
func (s *StreamRecorder) Record(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(StreamChunk{Timestamp: s.now(), Data: string(p)})
}

// Tee returns a reader that records every chunk read from r.
func (s *StreamRecorder) Tee(r io.Reader) io.Reader {
	return &recordingReader{r: r, rec: s}
}

// Close closes the capture file.
func (s *StreamRecorder) Close() error {
	if s == nil || s.f == nil {
		return nil
	}
	return s.f.Close()
}

type recordingReader struct {
	r   io.Reader
	rec *StreamRecorder
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if n > 0 {
		if rerr := rr.rec.Record(p[:n]); rerr != nil && err == nil {
			err = rerr
		}
	}
	return n, err
}

// ReplayStream writes recorded chunks from r to w in order. A speed >0
// scales the recorded gaps; a speed <= 0 inserts no delay. Replay stops
// early when ctx is cancelled. Blank lines are skipped.
func ReplayStream(ctx context.Context, r io.Reader, w io.Writer, speed float64) error {
	br := bufio.NewReader(r)
	var prev time.Time
	for {
		line, rerr := br.ReadBytes('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return rerr
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			if rerr != nil {
				return nil
			}
			continue
		}
		var c StreamChunk
		if err := json.Unmarshal(line, &c); err != nil {
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := c.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(diff):
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.WriteString(w, c.Data); err != nil {
			return err
		}
		prev = c.Timestamp
		if rerr != nil {
			return nil
		}
	}
}

// ReplayStreamFile opens a capture file and replays it to w.
func ReplayStreamFile(ctx context.Context, path string, w io.Writer, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReplayStream(ctx, f, w, speed)
}
