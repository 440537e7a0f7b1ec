package chart

// Axis identifiers. AxisY is drawn on the left, AxisY1 on the right.
const (
	AxisX  = "x"
	AxisY  = "y"
	AxisY1 = "y1"
)

// GridOptions controls grid lines for one axis.
type GridOptions struct {
	Color string
	// Hidden suppresses the grid on the plot area while keeping the axis.
	Hidden bool
}

// TickOptions controls tick label rendering.
type TickOptions struct {
	Color    string
	FontSize float64
}

// AxisOptions configures one scale.
type AxisOptions struct {
	Position    string
	Grid        GridOptions
	Ticks       TickOptions
	BeginAtZero bool
	Min         *float64
	Max         *float64
}

func (a AxisOptions) clone() AxisOptions {
	out := a
	if a.Min != nil {
		v := *a.Min
		out.Min = &v
	}
	if a.Max != nil {
		v := *a.Max
		out.Max = &v
	}
	return out
}

// LegendOptions configures the legend labels.
type LegendOptions struct {
	Color    string
	FontSize float64
}

// Options is the full configuration of one chart.
type Options struct {
	InteractionMode string
	Legend          LegendOptions
	Scales          map[string]AxisOptions
	Annotations     map[string]Annotation
}

const (
	mutedText = "#8b949e"
	gridColor = "rgba(255,255,255,0.05)"
)

// DefaultOptions returns a fresh copy of the shared chart defaults. Every
// call allocates new maps so callers may mutate the result.
func DefaultOptions() Options {
	return Options{
		InteractionMode: "index",
		Legend:          LegendOptions{Color: mutedText, FontSize: 11},
		Scales: map[string]AxisOptions{
			AxisX: {
				Position: "bottom",
				Grid:     GridOptions{Color: gridColor},
				Ticks:    TickOptions{Color: mutedText, FontSize: 10},
			},
			AxisY: {
				Position:    "left",
				Grid:        GridOptions{Color: gridColor},
				Ticks:       TickOptions{Color: mutedText, FontSize: 10},
				BeginAtZero: true,
			},
		},
		Annotations: map[string]Annotation{},
	}
}

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	out := o
	out.Scales = make(map[string]AxisOptions, len(o.Scales))
	for k, v := range o.Scales {
		out.Scales[k] = v.clone()
	}
	out.Annotations = make(map[string]Annotation, len(o.Annotations))
	for k, v := range o.Annotations {
		out.Annotations[k] = v.clone()
	}
	return out
}

// WithAnnotations returns a copy of o with every entry of sets added.
func (o Options) WithAnnotations(sets ...map[string]Annotation) Options {
	out := o.Clone()
	for _, set := range sets {
		for k, v := range set {
			out.Annotations[k] = v.clone()
		}
	}
	return out
}

// WithScale returns a copy of o with axis replaced.
func (o Options) WithScale(id string, axis AxisOptions) Options {
	out := o.Clone()
	out.Scales[id] = axis.clone()
	return out
}

// Scale returns the options for id and whether they are set.
func (o Options) Scale(id string) (AxisOptions, bool) {
	a, ok := o.Scales[id]
	return a, ok
}
