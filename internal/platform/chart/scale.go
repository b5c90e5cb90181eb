package chart

import (
	"math"
	"time"

	"github.com/ehr/timeline/internal/domain/timeline"
)

const (
	tickLabelLayout = "02/01"
	// maxDateTicks bounds the automatic tick interval.
	maxDateTicks = 45
)

// TickInterval picks the day step between date ticks. A positive requested
// interval is used as is.
func TickInterval(days, requested int) int {
	if requested > 0 {
		return requested
	}
	if days <= maxDateTicks {
		return 1
	}
	return (days + maxDateTicks - 1) / maxDateTicks
}

// DateTicks returns one tick every interval days from r.From through r.To.
func DateTicks(r timeline.DateRange, interval int) []Tick {
	if interval < 1 {
		interval = 1
	}
	var ticks []Tick
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, interval) {
		ticks = append(ticks, Tick{Date: d, Label: d.Format(tickLabelLayout)})
	}
	return ticks
}

// NiceTicks returns round tick values covering [min, max] with about n steps.
func NiceTicks(min, max float64, n int) []float64 {
	if n < 1 {
		n = 1
	}
	if max <= min {
		return []float64{min}
	}
	step := niceNumber((max-min)/float64(n))
	lo := math.Ceil(min/step) * step
	var ticks []float64
	for v := lo; v <= max+step*1e-9; v += step {
		// Snap to the step grid to avoid accumulating float error.
		ticks = append(ticks, math.Round(v/step)*step)
	}
	return ticks
}

// niceNumber rounds x to 1, 2, 5 or 10 times a power of ten.
func niceNumber(x float64) float64 {
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)
	var nf float64
	switch {
	case f < 1.5:
		nf = 1
	case f < 3:
		nf = 2
	case f < 7:
		nf = 5
	default:
		nf = 10
	}
	return nf * math.Pow(10, exp)
}

// timeScale maps dates onto [x0, x1].
type timeScale struct {
	from, to time.Time
	x0, x1   float64
}

func (s timeScale) x(t time.Time) float64 {
	span := s.to.Sub(s.from)
	if span <= 0 {
		return s.x0
	}
	return s.x0 + float64(t.Sub(s.from))/float64(span)*(s.x1-s.x0)
}

// linearScale maps values onto [y0, y1] with y0 at the bottom.
type linearScale struct {
	min, max float64
	y0, y1   float64
}

func (s linearScale) y(v float64) float64 {
	if s.max <= s.min {
		return s.y0
	}
	return s.y0 + (v-s.min)/(s.max-s.min)*(s.y1-s.y0)
}
