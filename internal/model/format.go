package model

import "fmt"

// FormatTick renders a tick count as m:ss.
func FormatTick(tick int) string {
	return fmt.Sprintf("%d:%02d", tick/60, tick%60)
}

// FormatTicks maps FormatTick over ticks.
func FormatTicks(ticks []int) []string {
	out := make([]string, len(ticks))
	for i, t := range ticks {
		out[i] = FormatTick(t)
	}
	return out
}

// FormatRate renders a per-second rate, dropping decimals from 1000 upward.
func FormatRate(v float64) string {
	if v >= 1000 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// FormatOptionalTick renders t or "--" when it is unset.
func FormatOptionalTick(t *int) string {
	if t == nil {
		return "--"
	}
	return FormatTick(*t)
}
