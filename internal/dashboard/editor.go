package dashboard

import (
	"context"
	"fmt"

	"bodash/internal/model"
	"bodash/internal/queue"
)

func queueLoad(bo model.BuildOrder) queue.Command { return queue.LoadCmd{BuildOrder: bo} }

// Apply runs an editor command against the draft.
func (c *Controller) Apply(cmd queue.Command) error {
	c.mu.Lock()
	err := c.editor.Apply(cmd)
	draft := c.editor.Draft()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.emit(Event{Type: EventEditor, Draft: &draft})
	return nil
}

// Draft returns a copy of the current draft build order.
func (c *Controller) Draft() model.BuildOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.Draft()
}

// Lane returns a copy of one editor lane.
func (c *Controller) Lane(lane string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.Lane(lane)
}

// Label returns the display name of a unit key.
func (c *Controller) Label(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return queue.Label(c.catalog, key)
}

// LoadIntoEditor fetches a saved build order and loads it into the draft.
func (c *Controller) LoadIntoEditor(ctx context.Context, filename string) error {
	if filename == "" {
		return ErrEmptySelection
	}
	bo, err := c.backend.BuildOrder(ctx, filename)
	if err != nil {
		c.fail("load build order", err)
		return fmt.Errorf("load build order: %w", err)
	}
	return c.Apply(queueLoad(*bo))
}

// SaveDraft saves the draft under its slugged name.
func (c *Controller) SaveDraft(ctx context.Context) (string, error) {
	draft := c.Draft()
	if draft.Empty() {
		return "", ErrNoBuildOrder
	}
	return c.save(ctx, draft)
}

func (c *Controller) save(ctx context.Context, bo model.BuildOrder) (string, error) {
	filename := queue.SlugFilename(bo.Name)
	saved, err := c.backend.Save(ctx, bo, filename)
	if err != nil {
		c.fail("save", err)
		return "", fmt.Errorf("save %s: %w", filename, err)
	}
	if saved == "" {
		saved = filename
	}
	c.notify(NoticeInfo, "Saved as "+filename)
	if _, err := c.RefreshBuildOrders(ctx); err != nil {
		c.log.Warn("refresh build orders after save failed", "error", err)
	}
	return saved, nil
}
