package queue

import "bodash/internal/model"

// Command is a single editor action. Views build commands and hand them to
// Editor.Apply instead of mutating lanes directly.
type Command interface {
	apply(e *Editor) error
}

type AppendCmd struct{ Lane, Key string }

type RemoveCmd struct {
	Lane  string
	Index int
}

type MoveCmd struct {
	Lane     string
	From, To int
}

type LoadCmd struct{ BuildOrder model.BuildOrder }

type ClearCmd struct{}

type RenameCmd struct{ Name string }

type SetMapCmd struct{ MapConfig model.MapConfig }

func (c AppendCmd) apply(e *Editor) error { return e.Append(c.Lane, c.Key) }
func (c RemoveCmd) apply(e *Editor) error { return e.RemoveAt(c.Lane, c.Index) }
func (c MoveCmd) apply(e *Editor) error   { return e.Move(c.Lane, c.From, c.To) }
func (c LoadCmd) apply(e *Editor) error   { e.Load(c.BuildOrder); return nil }
func (ClearCmd) apply(e *Editor) error    { e.Clear(); return nil }
func (c RenameCmd) apply(e *Editor) error { e.SetName(c.Name); return nil }
func (c SetMapCmd) apply(e *Editor) error { e.SetMapConfig(c.MapConfig); return nil }

// Apply runs cmd against the editor. A failed command leaves the draft unchanged.
func (e *Editor) Apply(cmd Command) error {
	return cmd.apply(e)
}
