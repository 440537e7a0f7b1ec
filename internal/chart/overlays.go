package chart

import (
	"fmt"
	"strings"

	"bodash/internal/model"
)

// AnnotationKind distinguishes overlay shapes.
type AnnotationKind int

const (
	AnnotationBox AnnotationKind = iota
	AnnotationLine
)

// AnnotationLabel is text attached to an annotation.
type AnnotationLabel struct {
	Content  string
	Position string
	Color    string
	FontSize float64
	Rotation float64
}

// TickSpan is the simulation tick range an annotation covers.
type TickSpan struct {
	Start int
	End   int
}

// Annotation is an x-anchored overlay. XMin and XMax are category labels.
// Span, when set, places the overlay by tick instead so it lands between
// snapshot labels.
type Annotation struct {
	Kind        AnnotationKind
	XMin        string
	XMax        string
	Span        *TickSpan
	Background  string
	Border      string
	BorderWidth float64
	BorderDash  []float64
	Label       *AnnotationLabel
}

func (a Annotation) clone() Annotation {
	out := a
	if a.BorderDash != nil {
		out.BorderDash = append([]float64(nil), a.BorderDash...)
	}
	if a.Label != nil {
		l := *a.Label
		out.Label = &l
	}
	if a.Span != nil {
		sp := *a.Span
		out.Span = &sp
	}
	return out
}

var stallColors = map[string][2]string{
	model.ResourceMetal:  {"rgba(255,82,82,0.12)", "rgba(255,82,82,0.3)"},
	model.ResourceEnergy: {"rgba(255,167,38,0.12)", "rgba(255,167,38,0.3)"},
}

// StallAnnotations returns one box per stall keyed stall_<i>. Anything that
// is not a metal stall uses the energy palette.
func StallAnnotations(stalls []model.StallEvent) map[string]Annotation {
	out := make(map[string]Annotation, len(stalls))
	for i, s := range stalls {
		c, ok := stallColors[s.Resource]
		if !ok {
			c = stallColors[model.ResourceEnergy]
		}
		out[fmt.Sprintf("stall_%d", i)] = Annotation{
			Kind:        AnnotationBox,
			XMin:        model.FormatTick(s.StartTick),
			XMax:        model.FormatTick(s.EndTick),
			Span:        &TickSpan{Start: s.StartTick, End: s.EndTick},
			Background:  c[0],
			Border:      c[1],
			BorderWidth: 1,
		}
	}
	return out
}

// MilestoneAnnotations returns one dashed vertical line per milestone keyed ms_<i>.
func MilestoneAnnotations(milestones []model.Milestone) map[string]Annotation {
	out := make(map[string]Annotation, len(milestones))
	for i, m := range milestones {
		x := model.FormatTick(m.Tick)
		out[fmt.Sprintf("ms_%d", i)] = Annotation{
			Kind:        AnnotationLine,
			XMin:        x,
			XMax:        x,
			Span:        &TickSpan{Start: m.Tick, End: m.Tick},
			Border:      "rgba(255,255,255,0.25)",
			BorderWidth: 1,
			BorderDash:  []float64{4, 4},
			Label: &AnnotationLabel{
				Content:  strings.Replace(m.Event, "first_", "", 1),
				Position: "start",
				Color:    mutedText,
				FontSize: 9,
				Rotation: -90,
			},
		}
	}
	return out
}
