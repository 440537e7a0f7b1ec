package chart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// parseColor accepts #rrggbb and rgba(r,g,b,a) notation.
func parseColor(s string) (drawing.Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return drawing.ColorTransparent, nil
	case strings.HasPrefix(s, "#"):
		if len(s) != 7 {
			return drawing.Color{}, fmt.Errorf("bad hex color %q", s)
		}
		return drawing.ColorFromHex(s[1:]), nil
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		parts := strings.Split(s[len("rgba("):len(s)-1], ",")
		if len(parts) != 4 {
			return drawing.Color{}, fmt.Errorf("bad rgba color %q", s)
		}
		var rgb [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || v < 0 || v > 255 {
				return drawing.Color{}, fmt.Errorf("bad rgba channel in %q", s)
			}
			rgb[i] = uint8(v)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return drawing.Color{}, fmt.Errorf("bad rgba alpha in %q", s)
		}
		return drawing.Color{R: rgb[0], G: rgb[1], B: rgb[2], A: uint8(a*255 + 0.5)}, nil
	}
	return drawing.Color{}, fmt.Errorf("unsupported color %q", s)
}

func mustColor(s string) drawing.Color {
	c, err := parseColor(s)
	if err != nil {
		return drawing.ColorBlack
	}
	return c
}
