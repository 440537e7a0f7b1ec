// Package stream decodes the optimizer's server-push event stream.
//
// The wire grammar is line based:
//
//	event: <type>
//	data: <json>
//
// Chunks may split lines anywhere. A record is dispatched once its data line
// is complete; anything after the last newline waits for the next chunk and is
// discarded if the stream ends first.
package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	eventPrefix = "event: "
	dataPrefix  = "data: "
	readSize    = 4096
)

// ErrMalformed is returned by handlers when a payload cannot be decoded.
var ErrMalformed = errors.New("malformed payload")

// Handler receives the raw JSON payload of a record.
type Handler func(payload []byte) error

type phase int

const (
	awaitingType phase = iota
	awaitingData
)

// state is the decoder's position in the grammar. eventType is only
// meaningful while phase is awaitingData.
type state struct {
	phase     phase
	eventType string
}

// Stats counts what happened to complete lines.
type Stats struct {
	Dispatched int
	Dropped    int
	Unhandled  int
	Ignored    int
}

// Decoder is single use: create one per stream.
type Decoder struct {
	handlers map[string]Handler
	pending  []byte
	st       state
	stats    Stats
	log      *slog.Logger
}

// NewDecoder returns a decoder with no handlers registered.
func NewDecoder() *Decoder {
	return &Decoder{handlers: make(map[string]Handler), log: slog.Default()}
}

// WithLogger sets the logger used for dropped records.
func (d *Decoder) WithLogger(l *slog.Logger) *Decoder {
	if l != nil {
		d.log = l
	}
	return d
}

// Handle registers h for records of eventType, replacing any previous one.
func (d *Decoder) Handle(eventType string, h Handler) {
	d.handlers[eventType] = h
}

// On registers a typed handler that decodes the payload into T.
func On[T any](d *Decoder, eventType string, fn func(T)) {
	d.Handle(eventType, func(payload []byte) error {
		var v T
		if err := json.Unmarshal(payload, &v); err != nil {
			return errors.Join(ErrMalformed, err)
		}
		fn(v)
		return nil
	})
}

// Stats returns a copy of the running counters.
func (d *Decoder) Stats() Stats { return d.stats }

// Pending returns the bytes still waiting for a newline.
func (d *Decoder) Pending() []byte { return d.pending }

// Feed appends chunk to the buffer and processes every complete line.
func (d *Decoder) Feed(chunk []byte) {
	d.pending = append(d.pending, chunk...)
	for {
		i := bytes.IndexByte(d.pending, '\n')
		if i < 0 {
			break
		}
		line := string(d.pending[:i])
		d.pending = d.pending[i+1:]
		d.processLine(strings.TrimSuffix(line, "\r"))
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
}

func (d *Decoder) processLine(line string) {
	switch {
	case strings.HasPrefix(line, eventPrefix):
		d.st = state{phase: awaitingData, eventType: strings.TrimSpace(line[len(eventPrefix):])}
	case strings.HasPrefix(line, dataPrefix):
		if d.st.phase != awaitingData {
			d.stats.Ignored++
			return
		}
		eventType := d.st.eventType
		d.st = state{phase: awaitingType}
		d.dispatch(eventType, []byte(line[len(dataPrefix):]))
	default:
		d.stats.Ignored++
	}
}

func (d *Decoder) dispatch(eventType string, payload []byte) {
	if !json.Valid(payload) {
		d.stats.Dropped++
		d.log.Debug("dropping malformed stream record", "event", eventType, "bytes", len(payload))
		return
	}
	h, ok := d.handlers[eventType]
	if !ok {
		d.stats.Unhandled++
		return
	}
	if err := h(payload); err != nil {
		d.stats.Dropped++
		d.log.Debug("stream handler rejected record", "event", eventType, "error", err)
		return
	}
	d.stats.Dispatched++
}

// Run reads r until EOF, feeding every chunk to the decoder. Trailing bytes
// without a newline are never dispatched. Cancelling ctx stops processing
// before the next chunk and Run returns ctx.Err().
func (d *Decoder) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			d.Feed(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(d.pending) > 0 {
					d.log.Debug("discarding partial line at end of stream", "bytes", len(d.pending))
				}
				return nil
			}
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			return err
		}
	}
}
