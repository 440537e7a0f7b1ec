// Package queue holds the editable draft build order.
package queue

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bodash/internal/model"
)

// Editor lanes.
const (
	LaneCommander   = "commander"
	LaneFactory     = "factory_0"
	LaneConstructor = "con_1"
)

// DefaultName is the draft name after a clear.
const DefaultName = "Untitled"

var (
	ErrUnknownLane     = errors.New("unknown lane")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Lanes lists the editor lanes in display order.
func Lanes() []string {
	return []string{LaneCommander, LaneFactory, LaneConstructor}
}

// LaneForPool maps a catalog pool to the lane its units are queued in.
func LaneForPool(pool string) (string, bool) {
	switch pool {
	case model.PoolCommander:
		return LaneCommander, true
	case model.PoolFactory:
		return LaneFactory, true
	case model.PoolConstructor:
		return LaneConstructor, true
	}
	return "", false
}

// Editor is the draft build order. The zero value is not usable; call New.
type Editor struct {
	name        string
	description string
	mapConfig   model.MapConfig
	lanes       map[string][]string
}

// New returns an empty editor named DefaultName.
func New() *Editor {
	e := &Editor{}
	e.Clear()
	return e
}

// Name returns the draft name.
func (e *Editor) Name() string { return e.name }

// SetName renames the draft.
func (e *Editor) SetName(name string) { e.name = name }

// MapConfig returns the draft's map settings.
func (e *Editor) MapConfig() model.MapConfig { return e.mapConfig }

// SetMapConfig replaces the draft's map settings.
func (e *Editor) SetMapConfig(mc model.MapConfig) { e.mapConfig = mc }

// Lane returns a copy of the keys queued in lane.
func (e *Editor) Lane(lane string) ([]string, error) {
	q, ok := e.lanes[lane]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLane, lane)
	}
	return append([]string(nil), q...), nil
}

// Len returns the total number of queued units.
func (e *Editor) Len() int {
	n := 0
	for _, q := range e.lanes {
		n += len(q)
	}
	return n
}

// Append adds key to the end of lane.
func (e *Editor) Append(lane, key string) error {
	q, ok := e.lanes[lane]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLane, lane)
	}
	e.lanes[lane] = append(q, key)
	return nil
}

// RemoveAt deletes the item at index i of lane.
func (e *Editor) RemoveAt(lane string, i int) error {
	q, ok := e.lanes[lane]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLane, lane)
	}
	if i < 0 || i >= len(q) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(q))
	}
	e.lanes[lane] = append(q[:i:i], q[i+1:]...)
	return nil
}

// Move removes the item at from and inserts it at to, where to indexes the
// lane after the removal.
func (e *Editor) Move(lane string, from, to int) error {
	q, ok := e.lanes[lane]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLane, lane)
	}
	if from < 0 || from >= len(q) || to < 0 || to >= len(q) {
		return fmt.Errorf("%w: move %d->%d of %d", ErrIndexOutOfRange, from, to, len(q))
	}
	item := q[from]
	rest := make([]string, 0, len(q))
	rest = append(rest, q[:from]...)
	rest = append(rest, q[from+1:]...)
	out := make([]string, 0, len(q))
	out = append(out, rest[:to]...)
	out = append(out, item)
	out = append(out, rest[to:]...)
	e.lanes[lane] = out
	return nil
}

// Load replaces the draft with bo. Lanes missing from bo become empty.
func (e *Editor) Load(bo model.BuildOrder) {
	e.name = bo.Name
	e.description = bo.Description
	e.mapConfig = bo.MapConfig
	e.lanes = map[string][]string{
		LaneCommander:   append([]string{}, bo.CommanderQueue...),
		LaneFactory:     append([]string{}, bo.FactoryQueues[LaneFactory]...),
		LaneConstructor: append([]string{}, bo.ConstructorQueues[LaneConstructor]...),
	}
}

// Clear empties every lane and resets the name.
func (e *Editor) Clear() {
	e.name = DefaultName
	e.description = ""
	e.mapConfig = model.DefaultMapConfig()
	e.lanes = map[string][]string{
		LaneCommander:   {},
		LaneFactory:     {},
		LaneConstructor: {},
	}
}

// ToBuildOrder snapshots the draft. The result shares no storage with the editor.
func (e *Editor) ToBuildOrder(mc model.MapConfig, name string) model.BuildOrder {
	return model.BuildOrder{
		Name:              name,
		Description:       e.description,
		MapConfig:         mc,
		CommanderQueue:    append([]string{}, e.lanes[LaneCommander]...),
		FactoryQueues:     map[string][]string{LaneFactory: append([]string{}, e.lanes[LaneFactory]...)},
		ConstructorQueues: map[string][]string{LaneConstructor: append([]string{}, e.lanes[LaneConstructor]...)},
	}
}

// Draft snapshots the draft with its own name and map settings.
func (e *Editor) Draft() model.BuildOrder {
	return e.ToBuildOrder(e.mapConfig, e.name)
}

// Label returns the display name of key, falling back to the key.
func Label(c *model.Catalog, key string) string {
	return c.Name(key)
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// SlugFilename turns a build order name into its save filename.
func SlugFilename(name string) string {
	if name == "" {
		name = "untitled"
	}
	return slugRe.ReplaceAllString(strings.ToLower(name), "_") + ".yaml"
}
