package chart

import (
	"errors"
	"io"
	"math"
	"sort"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	defaultWidth  = 960
	defaultHeight = 360
	maxXTicks     = 10
)

// GoChartBackend materializes specs as go-chart charts rendered on demand.
type GoChartBackend struct {
	Width  int
	Height int
}

// Canvas is a materialized go-chart chart.
type Canvas struct {
	id       string
	ch       gochart.Chart
	released bool
}

// Materialize implements Backend.
func (b GoChartBackend) Materialize(id string, spec Spec) (Resource, error) {
	ch, err := b.build(spec)
	if err != nil {
		return nil, err
	}
	return &Canvas{id: id, ch: ch}, nil
}

// Release implements Resource.
func (c *Canvas) Release() error {
	if c.released {
		return ErrReleased
	}
	c.released = true
	c.ch = gochart.Chart{}
	return nil
}

// RenderPNG implements PNGRenderer.
func (c *Canvas) RenderPNG(w io.Writer) error {
	if c.released {
		return ErrReleased
	}
	return c.ch.Render(gochart.PNG, w)
}

func (b GoChartBackend) build(spec Spec) (gochart.Chart, error) {
	w, h := b.Width, b.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	if len(spec.Labels) == 0 {
		return emptyChart(spec.Title, w, h), nil
	}

	dual := false
	for _, s := range spec.Series {
		if s.Axis == AxisY1 {
			dual = true
		}
	}
	// go-chart's primary axis sits on the right. Single axis charts keep all
	// series on it; dual axis charts move the left axis to the secondary slot.
	axisType := func(axis string) gochart.YAxisType {
		if dual && axis != AxisY1 {
			return gochart.YAxisSecondary
		}
		return gochart.YAxisPrimary
	}

	xs := xValues(len(spec.Labels))
	var data []gochart.Series
	leftMin, leftMax := math.Inf(1), math.Inf(-1)
	for _, s := range spec.Series {
		ys := padValues(s.Values, len(xs))
		if len(ys) == 0 {
			continue
		}
		st := gochart.Style{StrokeColor: mustColor(s.Color), StrokeWidth: 2}
		if s.Fill != "" {
			st.FillColor = mustColor(s.Fill)
		}
		data = append(data, gochart.ContinuousSeries{
			Name:    s.Label,
			XValues: xs[:len(ys)],
			YValues: ys,
			Style:   st,
			YAxis:   axisType(s.Axis),
		})
		if s.Axis != AxisY1 {
			for _, v := range ys {
				leftMin = math.Min(leftMin, v)
				leftMax = math.Max(leftMax, v)
			}
		}
	}
	if len(data) == 0 {
		return gochart.Chart{}, errors.New("chart has no series")
	}

	yOpts, _ := spec.Options.Scale(AxisY)
	lo, hi := axisBounds(yOpts, leftMin, leftMax)
	leftAxis := yAxis(yOpts, lo, hi)

	overlays := annotationSeries(spec, lo, hi, axisType(AxisY))

	ch := gochart.Chart{
		Title:      spec.Title,
		Width:      w,
		Height:     h,
		Background: gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xAxis(spec),
		Series:     append(overlays, data...),
	}
	if dual {
		ch.YAxisSecondary = leftAxis
		y1, _ := spec.Options.Scale(AxisY1)
		rMin, rMax := seriesBounds(spec.Series, AxisY1)
		lo1, hi1 := axisBounds(y1, rMin, rMax)
		ch.YAxis = yAxis(y1, lo1, hi1)
	} else {
		ch.YAxis = leftAxis
	}

	legendSrc := gochart.Chart{Series: data}
	ch.Elements = []gochart.Renderable{gochart.Legend(&legendSrc, gochart.Style{
		FontColor: mustColor(spec.Options.Legend.Color),
		FontSize:  spec.Options.Legend.FontSize,
	})}
	return ch, nil
}

// emptyChart is a placeholder for a spec without data points: the title and a
// blank 0..1 plot.
func emptyChart(title string, w, h int) gochart.Chart {
	blank := gochart.Style{StrokeColor: drawing.ColorTransparent}
	return gochart.Chart{
		Title:  title + " (no data)",
		Width:  w,
		Height: h,
		XAxis:  gochart.XAxis{Range: &gochart.ContinuousRange{Min: 0, Max: 1}},
		YAxis:  gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: 1}},
		Series: []gochart.Series{gochart.ContinuousSeries{
			XValues: []float64{0, 1},
			YValues: []float64{0, 0},
			Style:   blank,
		}},
	}
}

// xValues returns category positions. go-chart needs at least two points, so
// a single label is widened to a zero-width pair.
func xValues(n int) []float64 {
	if n == 1 {
		return []float64{0, 0.0001}
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

func padValues(vs []float64, n int) []float64 {
	if len(vs) > n {
		vs = vs[:n]
	}
	if len(vs) == 1 {
		return []float64{vs[0], vs[0]}
	}
	return vs
}

func sortedKeys(m map[string]Annotation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func seriesBounds(series []Series, axis string) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		if s.Axis != axis {
			continue
		}
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func axisBounds(a AxisOptions, lo, hi float64) (float64, float64) {
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if a.BeginAtZero && lo > 0 {
		lo = 0
	}
	if a.Min != nil {
		lo = *a.Min
	}
	if a.Max != nil {
		hi = *a.Max
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func yAxis(a AxisOptions, lo, hi float64) gochart.YAxis {
	ya := gochart.YAxis{
		Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		Style: gochart.Style{FontColor: mustColor(a.Ticks.Color), FontSize: a.Ticks.FontSize},
	}
	if a.Grid.Hidden {
		ya.GridMajorStyle = gochart.Style{Hidden: true}
	} else {
		ya.GridMajorStyle = gochart.Style{StrokeColor: mustColor(a.Grid.Color), StrokeWidth: 1}
	}
	return ya
}

func xAxis(spec Spec) gochart.XAxis {
	n := len(spec.Labels)
	xo, _ := spec.Options.Scale(AxisX)
	step := 1
	if n > maxXTicks {
		step = (n + maxXTicks - 1) / maxXTicks
	}
	ticks := make([]gochart.Tick, 0, maxXTicks+1)
	for i := 0; i < n; i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: spec.Labels[i]})
	}
	xMax := float64(n - 1)
	if n == 1 {
		xMax = 0.0001
	}
	return gochart.XAxis{
		Ticks: ticks,
		Range: &gochart.ContinuousRange{Min: 0, Max: xMax},
		Style: gochart.Style{FontColor: mustColor(xo.Ticks.Color), FontSize: xo.Ticks.FontSize},
	}
}

// annotationSeries draws overlays as filled spans and dashed verticals that
// cover the left axis range.
func annotationSeries(spec Spec, lo, hi float64, axis gochart.YAxisType) []gochart.Series {
	index := make(map[string]int, len(spec.Labels))
	for i, l := range spec.Labels {
		if _, ok := index[l]; !ok {
			index[l] = i
		}
	}
	ticked := len(spec.Ticks) > 0 && len(spec.Ticks) == len(spec.Labels)
	var out []gochart.Series
	var labels []gochart.Value2
	for _, key := range sortedKeys(spec.Options.Annotations) {
		a := spec.Options.Annotations[key]
		var x0, x1 float64
		if a.Span != nil && ticked {
			x0, x1 = tickPosition(spec.Ticks, a.Span.Start), tickPosition(spec.Ticks, a.Span.End)
		} else {
			i0, ok0 := index[a.XMin]
			i1, ok1 := index[a.XMax]
			if !ok0 || !ok1 {
				continue
			}
			x0, x1 = float64(i0), float64(i1)
		}
		st := gochart.Style{
			StrokeColor:     mustColor(a.Border),
			StrokeWidth:     a.BorderWidth,
			StrokeDashArray: a.BorderDash,
		}
		switch a.Kind {
		case AnnotationBox:
			st.FillColor = mustColor(a.Background)
			out = append(out, gochart.ContinuousSeries{
				XValues: []float64{x0, x0, x1, x1},
				YValues: []float64{lo, hi, hi, lo},
				Style:   st,
				YAxis:   axis,
			})
		case AnnotationLine:
			out = append(out, gochart.ContinuousSeries{
				XValues: []float64{x0, x0 + 1e-9},
				YValues: []float64{lo, hi},
				Style:   st,
				YAxis:   axis,
			})
			if a.Label != nil {
				labels = append(labels, gochart.Value2{XValue: x0, YValue: hi, Label: a.Label.Content})
			}
		}
	}
	if len(labels) > 0 {
		out = append(out, gochart.AnnotationSeries{
			Annotations: labels,
			YAxis:       axis,
			Style: gochart.Style{
				FontColor:           mustColor(mutedText),
				FontSize:            9,
				StrokeColor:         drawing.ColorTransparent,
				FillColor:           drawing.ColorTransparent,
				TextRotationDegrees: -90,
			},
		})
	}
	return out
}

// tickPosition maps tick onto the category axis, interpolating between the
// neighbouring snapshot ticks and clamping to the axis ends.
func tickPosition(ticks []int, tick int) float64 {
	i := sort.SearchInts(ticks, tick)
	switch {
	case i == 0:
		return 0
	case i >= len(ticks):
		return float64(len(ticks) - 1)
	case ticks[i] == tick:
		return float64(i)
	}
	prev, next := ticks[i-1], ticks[i]
	return float64(i-1) + float64(tick-prev)/float64(next-prev)
}
