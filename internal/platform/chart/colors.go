package chart

import (
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

const (
	labColor         = "#ff0000"
	temperatureColor = "#0000ff"
	medicationColor  = "#1f77b4"
	calloutColor     = "#ff7f0e"
	gridColor        = "#b0b0b0"
	fallbackColor    = "#808080"
)

// DoseColorScale maps a dose fraction in [0, 1] onto the Moreland smooth
// blue-red diverging map (matplotlib's coolwarm).
type DoseColorScale struct {
	cmap palette.ColorMap
}

func NewDoseColorScale() *DoseColorScale {
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(0)
	cmap.SetMax(1)
	cmap.SetAlpha(1)
	return &DoseColorScale{cmap: cmap}
}

// Hex returns the color for fraction as #rrggbb. Fractions outside [0, 1]
// are clamped.
func (s *DoseColorScale) Hex(fraction float64) string {
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}
	c, err := s.cmap.At(fraction)
	if err != nil {
		return fallbackColor
	}
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return fallbackColor
	}
	return cf.Hex()
}

// Stops samples the scale at n evenly spaced points for a gradient.
func (s *DoseColorScale) Stops(n int) []ColorStop {
	if n < 2 {
		n = 2
	}
	stops := make([]ColorStop, n)
	for i := range stops {
		f := float64(i) / float64(n-1)
		stops[i] = ColorStop{Offset: f, Color: s.Hex(f)}
	}
	return stops
}
