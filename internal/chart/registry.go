// Package chart turns simulation output into named, replaceable chart
// resources with derived overlays.
package chart

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// ErrReleased is returned when a released resource is used.
var ErrReleased = errors.New("chart resource released")

// ErrNotFound is returned when no live chart has the requested id.
var ErrNotFound = errors.New("chart not found")

// Resource is the backing object of a live chart.
type Resource interface {
	Release() error
}

// PNGRenderer is implemented by resources that can be rasterized.
type PNGRenderer interface {
	RenderPNG(w io.Writer) error
}

// Backend creates chart resources.
type Backend interface {
	Materialize(id string, spec Spec) (Resource, error)
}

// Handle is the registry's record of a live chart.
type Handle struct {
	ID   string
	Spec Spec
	res  Resource
}

// Resource returns the backing resource.
func (h *Handle) Resource() Resource { return h.res }

// Registry owns every live chart. It is not safe for concurrent use; a single
// controller drives it.
type Registry struct {
	backend Backend
	handles map[string]*Handle
	log     *slog.Logger
}

// NewRegistry returns an empty registry backed by b.
func NewRegistry(b Backend, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{backend: b, handles: make(map[string]*Handle), log: log}
}

// Render creates or replaces the chart stored under id. Any existing resource
// for id is released before the new one is created, so at most one resource
// per id is ever live.
func (r *Registry) Render(id string, spec Spec) (*Handle, error) {
	if err := r.Release(id); err != nil && !errors.Is(err, ErrNotFound) {
		r.log.Warn("release before render failed", "chart_id", id, "error", err)
	}
	spec = spec.Clone()
	res, err := r.backend.Materialize(id, spec)
	if err != nil {
		return nil, fmt.Errorf("materialize chart %s: %w", id, err)
	}
	h := &Handle{ID: id, Spec: spec, res: res}
	r.handles[id] = h
	r.log.Debug("chart rendered", "chart_id", id, "series", len(spec.Series), "points", len(spec.Labels))
	return h, nil
}

// RenderAll renders every spec in set, in id order.
func (r *Registry) RenderAll(set map[string]Spec) error {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := r.Render(id, set[id]); err != nil {
			return err
		}
	}
	return nil
}

// Release drops the chart stored under id.
func (r *Registry) Release(id string) error {
	h, ok := r.handles[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.handles, id)
	return h.res.Release()
}

// Reset releases every live chart and returns the first error.
func (r *Registry) Reset() error {
	var first error
	for _, id := range r.IDs() {
		if err := r.Release(id); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Get returns the live handle for id.
func (r *Registry) Get(id string) (*Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

// IDs returns the ids of all live charts in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live charts.
func (r *Registry) Len() int { return len(r.handles) }

// WritePNG rasterizes the chart stored under id.
func (r *Registry) WritePNG(id string, w io.Writer) error {
	h, ok := r.handles[id]
	if !ok {
		return ErrNotFound
	}
	p, ok := h.res.(PNGRenderer)
	if !ok {
		return fmt.Errorf("chart %s: backend cannot render png", id)
	}
	return p.RenderPNG(w)
}
