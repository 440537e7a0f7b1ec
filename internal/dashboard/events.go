package dashboard

import (
	"time"

	"bodash/internal/compare"
	"bodash/internal/model"
)

// Event types emitted to subscribers.
const (
	EventControls   = "controls"
	EventNotice     = "notice"
	EventResult     = "result"
	EventComparison = "comparison"
	EventProgress   = "progress"
	EventComplete   = "complete"
	EventEditor     = "editor"
)

// Event is one controller state change. Only the field matching Type is set.
type Event struct {
	Type       string                  `json:"type"`
	Controls   *Controls               `json:"controls,omitempty"`
	Notice     *Notice                 `json:"notice,omitempty"`
	Result     *model.SimulationResult `json:"-"`
	Comparison *compare.View           `json:"-"`
	Progress   *model.ProgressEvent    `json:"progress,omitempty"`
	Complete   *model.CompleteEvent    `json:"complete,omitempty"`
	Draft      *model.BuildOrder       `json:"draft,omitempty"`
}

// Notice levels.
const (
	NoticeInfo  = "info"
	NoticeWarn  = "warn"
	NoticeError = "error"
)

const maxNotices = 50

// Notice is a message for the user.
type Notice struct {
	Level string    `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Notices returns the retained notices, oldest first.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

func (c *Controller) notify(level, text string) {
	n := Notice{Level: level, Text: text, At: c.now()}
	c.mu.Lock()
	c.notices = append(c.notices, n)
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
	c.mu.Unlock()
	c.emit(Event{Type: EventNotice, Notice: &n})
}

func (c *Controller) fail(op string, err error) {
	c.log.Error(op+" failed", "error", err)
	c.notify(NoticeError, op+": "+err.Error())
}

func (c *Controller) emit(ev Event) {
	c.mu.Lock()
	ls := append([]func(Event){}, c.listeners...)
	c.mu.Unlock()
	for _, fn := range ls {
		fn(ev)
	}
}
