package chart

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"

	svg "github.com/ajstarks/svgo"

	"github.com/ehr/timeline/internal/domain/timeline"
)

const (
	marginLeft   = 220
	marginRight  = 120
	panelPadTop  = 30
	tickArea     = 70
	barFraction  = 0.8
	markerRadius = 5

	arrowID = "callout-arrow"

	textStyle      = "font-size:14px;fill:#222"
	axisLabelStyle = "font-size:18px;font-weight:bold;fill:#222;text-anchor:middle"
	frameStyle     = "fill:none;stroke:#222;stroke-width:1.5"
)

// SVGRenderer implements timeline.Renderer.
type SVGRenderer struct {
	opts  Options
	scale *DoseColorScale
}

func NewSVGRenderer(opts Options) *SVGRenderer {
	return &SVGRenderer{opts: opts.withDefaults(), scale: NewDoseColorScale()}
}

// Render composes t and writes it as one SVG document.
func (r *SVGRenderer) Render(ctx context.Context, w io.Writer, t *timeline.Timeline) error {
	fig, err := Compose(t, r.opts, r.scale)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return Draw(w, fig)
}

// Draw writes fig as SVG.
func Draw(w io.Writer, fig *Figure) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(fig.Width, fig.Height,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, fig.Width, fig.Height),
		`font-family="Helvetica, Arial, sans-serif"`)
	canvas.Title(timeline.PageTitle)

	canvas.Def()
	canvas.Marker(arrowID, 10, 5, 10, 10, `orient="auto"`, `markerUnits="userSpaceOnUse"`)
	canvas.Path("M0,0 L10,5 L0,10 z", "fill:"+calloutColor)
	canvas.MarkerEnd()
	for i, p := range fig.Panels {
		if p.ColorBar != nil {
			canvas.LinearGradient(gradientID(i), 0, 0, 100, 0, offcolors(p.ColorBar.Stops))
		}
	}
	canvas.DefEnd()

	canvas.Rect(0, 0, fig.Width, fig.Height, "fill:#ffffff")
	top := 0
	for i, p := range fig.Panels {
		d := panelDrawer{canvas: canvas, fig: fig, panel: p, index: i, top: top}
		d.draw()
		top += p.Height
	}
	canvas.End()
	return ew.err
}

type panelDrawer struct {
	canvas *svg.SVG
	fig    *Figure
	panel  Panel
	index  int
	top    int

	plotTop, plotBottom int
	plotLeft, plotRight int
	xs                  timeScale
}

func (d *panelDrawer) draw() {
	base := d.panel.Height
	if d.panel.ColorBar != nil {
		base -= colorBarHeight
	}
	d.plotTop = d.top + panelPadTop
	d.plotBottom = d.top + base - tickArea
	d.plotLeft = marginLeft
	d.plotRight = d.fig.Width - marginRight
	d.xs = timeScale{
		from: d.fig.Range.From, to: d.fig.Range.To,
		x0: float64(d.plotLeft), x1: float64(d.plotRight),
	}

	d.dateAxis()
	switch d.panel.Kind {
	case PanelObservations:
		d.observations()
	default:
		d.gantt()
	}
	d.canvas.Rect(d.plotLeft, d.plotTop, d.plotRight-d.plotLeft, d.plotBottom-d.plotTop, frameStyle)
	if d.panel.ColorBar != nil {
		d.colorBar()
	}
}

// dateAxis draws the dashed day grid and the rotated dd/mm labels.
func (d *panelDrawer) dateAxis() {
	for _, t := range d.fig.Ticks {
		x := px(d.xs.x(t.Date))
		d.canvas.Line(x, d.plotTop, x, d.plotBottom, "stroke:"+gridColor+";stroke-dasharray:6,4;stroke-width:1")
		d.canvas.Line(x, d.plotBottom, x, d.plotBottom+5, "stroke:#222;stroke-width:2")
		ly := d.plotBottom + 10
		d.canvas.Text(x+5, ly, t.Label,
			fmt.Sprintf(`transform="rotate(-90 %d %d)"`, x+5, ly),
			textStyle+";text-anchor:end")
	}
}

func (d *panelDrawer) observations() {
	p := d.panel
	left := linearScale{min: p.Left.Min, max: p.Left.Max, y0: float64(d.plotBottom), y1: float64(d.plotTop)}
	d.valueAxis(p.Left, left, false)

	var right linearScale
	if p.Right != nil {
		right = linearScale{min: p.Right.Min, max: p.Right.Max, y0: float64(d.plotBottom), y1: float64(d.plotTop)}
		d.valueAxis(*p.Right, right, true)
	}

	for _, s := range p.Series {
		ys := left
		if s.Secondary {
			ys = right
		}
		d.series(s, ys)
	}

	for _, c := range p.Callouts {
		x := px(d.xs.x(c.Date))
		ya := px(left.y(c.Anchor))
		yl := px(left.y(c.Label))
		d.canvas.Line(x, yl+6, x, ya, "stroke:"+calloutColor+";stroke-width:1.5", fmt.Sprintf(`marker-end="url(#%s)"`, arrowID))
		d.canvas.Text(x, yl, c.Text, "font-size:14px;font-weight:300;fill:#222;text-anchor:middle")
	}

	d.legend(p.Series)
}

func (d *panelDrawer) valueAxis(a Axis, ys linearScale, right bool) {
	edge, dir, anchor := d.plotLeft, -1, "end"
	if right {
		edge, dir, anchor = d.plotRight, 1, "start"
	}
	for _, v := range a.Ticks {
		y := px(ys.y(v))
		d.canvas.Line(edge, y, edge+dir*5, y, "stroke:#222;stroke-width:2")
		d.canvas.Text(edge+dir*9, y+5, formatTick(v), textStyle+";text-anchor:"+anchor)
	}
	lx := edge + dir*70
	ly := (d.plotTop + d.plotBottom) / 2
	rot := -90
	if right {
		rot = 90
	}
	d.canvas.Text(lx, ly, a.Label, fmt.Sprintf(`transform="rotate(%d %d %d)"`, rot, lx, ly), axisLabelStyle)
}

func (d *panelDrawer) series(s Series, ys linearScale) {
	if len(s.Points) == 0 {
		return
	}
	xs := make([]int, len(s.Points))
	yv := make([]int, len(s.Points))
	for i, pt := range s.Points {
		xs[i] = px(d.xs.x(pt.Date))
		yv[i] = px(ys.y(pt.Value))
	}
	d.canvas.Polyline(xs, yv, "fill:none;stroke:"+s.Color+";stroke-width:2")
	for i := range xs {
		d.canvas.Circle(xs[i], yv[i], markerRadius, "fill:"+s.Color)
	}
}

func (d *panelDrawer) legend(series []Series) {
	if len(series) == 0 {
		return
	}
	const rowH, w = 28, 210
	x := d.plotRight - w - 12
	y := d.plotTop + 12
	d.canvas.Rect(x, y, w, rowH*len(series)+12, "fill:#ffffff;fill-opacity:0.85;stroke:#cccccc")
	for i, s := range series {
		cy := y + 20 + i*rowH
		d.canvas.Line(x+12, cy, x+52, cy, "stroke:"+s.Color+";stroke-width:2")
		d.canvas.Circle(x+32, cy, markerRadius, "fill:"+s.Color)
		d.canvas.Text(x+62, cy+6, s.Label, "font-size:18px;fill:#222")
	}
}

func (d *panelDrawer) gantt() {
	p := d.panel
	n := len(p.Categories)
	if n == 0 {
		return
	}
	band := float64(d.plotBottom-d.plotTop) / float64(n)
	for i, name := range p.Categories {
		cy := px(float64(d.plotTop) + (float64(i)+0.5)*band)
		d.canvas.Line(d.plotLeft, cy, d.plotLeft-5, cy, "stroke:#222;stroke-width:2")
		d.canvas.Text(d.plotLeft-10, cy+6, name, "font-size:18px;fill:#222;text-anchor:end")
	}

	h := band * barFraction
	for _, b := range p.Bars {
		x0 := d.xs.x(b.Start)
		x1 := d.xs.x(b.Finish)
		width := math.Max(x1-x0, 2)
		cy := float64(d.plotTop) + (float64(b.Category)+0.5)*band
		d.canvas.Rect(px(x0), px(cy-h/2), px(width), px(h), "fill:"+b.Fill)
		if b.Text != "" {
			d.canvas.Text(px(x0+width/2), px(cy)+7, b.Text, "font-size:18px;font-weight:bold;fill:#ffffff;text-anchor:middle")
		}
	}
}

func (d *panelDrawer) colorBar() {
	cb := d.panel.ColorBar
	y := d.plotBottom + tickArea + 10
	width := d.plotRight - d.plotLeft
	d.canvas.Rect(d.plotLeft, y, width, 22, fmt.Sprintf("fill:url(#%s);stroke:#222", gradientID(d.index)))
	for _, t := range cb.Ticks {
		x := d.plotLeft + px(t.Fraction*float64(width))
		d.canvas.Line(x, y+22, x, y+28, "stroke:#222;stroke-width:2")
		d.canvas.Text(x, y+46, t.Label, textStyle+";text-anchor:middle")
	}
	d.canvas.Text((d.plotLeft+d.plotRight)/2, y+80, cb.Label, axisLabelStyle)
}

func gradientID(panel int) string {
	return "dose-scale-" + strconv.Itoa(panel)
}

func offcolors(stops []ColorStop) []svg.Offcolor {
	out := make([]svg.Offcolor, len(stops))
	for i, s := range stops {
		out[i] = svg.Offcolor{Offset: uint8(math.Round(s.Offset * 100)), Color: s.Color, Opacity: 1}
	}
	return out
}

func formatTick(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func px(f float64) int {
	return int(math.Round(f))
}

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
