package stream

import "bodash/internal/model"

// OptimizeHandlers binds the optimizer's progress and complete events.
type OptimizeHandlers struct {
	OnProgress func(model.ProgressEvent)
	OnComplete func(model.CompleteEvent)
}

// NewOptimizeDecoder returns a decoder wired to h. Nil callbacks are skipped.
func NewOptimizeDecoder(h OptimizeHandlers) *Decoder {
	d := NewDecoder()
	if h.OnProgress != nil {
		On(d, model.EventProgress, h.OnProgress)
	}
	if h.OnComplete != nil {
		On(d, model.EventComplete, h.OnComplete)
	}
	return d
}
