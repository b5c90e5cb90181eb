// Package chart composes a normalized timeline into stacked panels that
// share one date axis, and renders them as SVG.
package chart

import (
	"time"

	"github.com/ehr/timeline/internal/domain/timeline"
)

type PanelKind string

const (
	PanelObservations PanelKind = "observations"
	PanelMedications  PanelKind = "medications"
	PanelSteroids     PanelKind = "steroids"
)

// Figure is a renderer-independent description of the whole chart.
type Figure struct {
	Width  int
	Height int
	Range  timeline.DateRange
	Ticks  []Tick
	Panels []Panel
}

// Tick is a labeled position on the shared date axis.
type Tick struct {
	Date  time.Time
	Label string
}

// Axis is a vertical value axis.
type Axis struct {
	Label string
	Min   float64
	Max   float64
	Ticks []float64
}

type Point struct {
	Date  time.Time
	Value float64
}

// Series is a connected marker line. Secondary series use the right axis.
type Series struct {
	Label     string
	Color     string
	Points    []Point
	Secondary bool
}

// Callout is an annotated note with an arrow from (Date, Label) to (Date, Anchor).
type Callout struct {
	Date   time.Time
	Text   string
	Anchor float64
	Label  float64
}

// Bar is one course on a Gantt panel. Category indexes Panel.Categories,
// row 0 being drawn at the top.
type Bar struct {
	Category int
	Start    time.Time
	Finish   time.Time
	Days     int
	Fill     string
	Text     string
}

type ColorStop struct {
	Offset float64
	Color  string
}

// ColorBar is the dose legend drawn under the steroid panel.
type ColorBar struct {
	Label string
	Stops []ColorStop
	Ticks []timeline.DoseScaleTick
}

type Panel struct {
	Kind   PanelKind
	Height int

	Left  Axis
	Right *Axis

	Series   []Series
	Callouts []Callout

	Categories []string
	Bars       []Bar
	ColorBar   *ColorBar
}
