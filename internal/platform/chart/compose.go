package chart

import (
	"math"
	"strconv"
	"strings"

	"github.com/ehr/timeline/internal/domain/timeline"
)

const (
	// colorBarHeight is the extra room below the steroid panel for the dose legend.
	colorBarHeight = 110

	temperatureLabel = "Temperature"
	temperatureAxis  = "Peak daily temperature (celsius)"
	doseAxis         = "Daily equivalent prednisolone dose (mg)"
)

// Options controls figure geometry.
type Options struct {
	Width        int
	PanelHeight  int
	TickInterval int
}

func DefaultOptions() Options {
	return Options{Width: 1600, PanelHeight: 420}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.PanelHeight <= 0 {
		o.PanelHeight = d.PanelHeight
	}
	return o
}

// Compose lays out the panels for t. It fails with timeline.ErrNoData when
// the timeline has nothing to plot.
func Compose(t *timeline.Timeline, opts Options, scale *DoseColorScale) (*Figure, error) {
	opts = opts.withDefaults()
	if scale == nil {
		scale = NewDoseColorScale()
	}

	r, ok := timeline.ResolveRange(t)
	if !ok {
		return nil, timeline.ErrNoData
	}
	if !r.To.After(r.From) {
		r.To = r.From.AddDate(0, 0, 1)
	}

	fig := &Figure{
		Width: opts.Width,
		Range: r,
		Ticks: DateTicks(r, TickInterval(r.Days(), opts.TickInterval)),
	}
	if t.HasObservations() {
		fig.Panels = append(fig.Panels, observationsPanel(t, opts))
	}
	if len(t.Medications) > 0 {
		fig.Panels = append(fig.Panels, medicationPanel(t, opts))
	}
	if len(t.Steroids) > 0 {
		fig.Panels = append(fig.Panels, steroidPanel(t, opts, scale))
	}
	for _, p := range fig.Panels {
		fig.Height += p.Height
	}
	return fig, nil
}

func observationsPanel(t *timeline.Timeline, opts Options) Panel {
	p := Panel{Kind: PanelObservations, Height: opts.PanelHeight}

	lab := Series{Label: t.LabName, Color: labColor}
	lo, hi := 0.0, 0.0
	for _, l := range t.Labs {
		lab.Points = append(lab.Points, Point{Date: l.Date, Value: l.Value})
		lo = math.Min(lo, l.Value)
		hi = math.Max(hi, l.Value)
	}
	for _, a := range t.Annotations() {
		p.Callouts = append(p.Callouts, Callout{Date: a.Date, Text: a.Text, Anchor: a.Anchor, Label: a.Label})
		hi = math.Max(hi, a.Label)
	}
	if hi <= lo {
		hi = lo + 1
	}
	hi += (hi - lo) * 0.05
	p.Left = Axis{Label: labAxisLabel(t.LabName), Min: lo, Max: hi, Ticks: NiceTicks(lo, hi, 5)}
	if len(lab.Points) > 0 {
		p.Series = append(p.Series, lab)
	}

	if len(t.Temperatures) > 0 {
		temp := Series{Label: temperatureLabel, Color: temperatureColor, Secondary: true}
		tlo, thi := t.Temperatures[0].Value, t.Temperatures[0].Value
		for _, tr := range t.Temperatures {
			temp.Points = append(temp.Points, Point{Date: tr.Date, Value: tr.Value})
			tlo = math.Min(tlo, tr.Value)
			thi = math.Max(thi, tr.Value)
		}
		if thi <= tlo {
			tlo, thi = tlo-0.5, thi+0.5
		}
		p.Right = &Axis{Label: temperatureAxis, Min: tlo, Max: thi, Ticks: NiceTicks(tlo, thi, 5)}
		p.Series = append(p.Series, temp)
	}
	return p
}

func medicationPanel(t *timeline.Timeline, opts Options) Panel {
	p := Panel{Kind: PanelMedications, Height: opts.PanelHeight}
	rows := categoryIndex{}
	for _, m := range t.Medications {
		p.Bars = append(p.Bars, Bar{
			Category: rows.index(m.Name),
			Start:    m.Start,
			Finish:   m.Finish(t.Today),
			Days:     m.Days(t.Today),
			Fill:     medicationColor,
		})
	}
	p.Categories = rows.names
	return p
}

func steroidPanel(t *timeline.Timeline, opts Options, scale *DoseColorScale) Panel {
	p := Panel{Kind: PanelSteroids, Height: opts.PanelHeight + colorBarHeight}
	rows := categoryIndex{}
	for _, s := range t.Steroids {
		p.Bars = append(p.Bars, Bar{
			Category: rows.index(string(s.Steroid)),
			Start:    s.Start,
			Finish:   s.Finish(t.Today),
			Days:     s.Days(t.Today),
			Fill:     scale.Hex(timeline.DoseFraction(s.PrednisoloneEquivalent())),
			Text:     DoseLabel(s.DailyDose),
		})
	}
	p.Categories = rows.names
	p.ColorBar = &ColorBar{
		Label: doseAxis,
		Stops: scale.Stops(11),
		Ticks: timeline.DoseScaleTicks(),
	}
	return p
}

// DoseLabel formats a daily dose rounded to whole milligrams, e.g. "40mg".
func DoseLabel(dose float64) string {
	return strconv.FormatFloat(math.Round(dose), 'f', 0, 64) + "mg"
}

func labAxisLabel(name string) string {
	if strings.EqualFold(name, timeline.DefaultLabName) {
		return name + " (mg/L)"
	}
	return name
}

// categoryIndex assigns rows to names in first-appearance order, so repeated
// courses of one drug share a row.
type categoryIndex struct {
	names []string
	pos   map[string]int
}

func (c *categoryIndex) index(name string) int {
	if c.pos == nil {
		c.pos = map[string]int{}
	}
	if i, ok := c.pos[name]; ok {
		return i
	}
	c.pos[name] = len(c.names)
	c.names = append(c.names, name)
	return len(c.names) - 1
}
