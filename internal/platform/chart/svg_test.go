package chart

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehr/timeline/internal/domain/timeline"
)

func TestSVGRenderer_Render(t *testing.T) {
	tl := exampleTimeline()
	tl.Notes = []timeline.ClinicalNote{{Date: day(1, 3), Text: "Drain <removed> & sent"}}
	tl.Temperatures = []timeline.TemperatureReading{{Date: day(1, 2), Value: 38.4}}

	var buf bytes.Buffer
	require.NoError(t, NewSVGRenderer(DefaultOptions()).Render(context.Background(), &buf, tl))
	out := buf.String()

	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "</svg>")
	assert.Contains(t, out, "Amoxicillin")
	assert.Contains(t, out, "Prednisolone")
	assert.Contains(t, out, ">40mg<")
	assert.Contains(t, out, "CRP (mg/L)")
	assert.Contains(t, out, temperatureAxis)
	assert.Contains(t, out, doseAxis)
	assert.Contains(t, out, "60+")
	assert.Contains(t, out, "Drain &lt;removed&gt; &amp; sent")
	assert.Contains(t, out, `id="dose-scale-2"`)
	assert.Contains(t, out, "url(#"+arrowID+")")
	assert.NotContains(t, out, "<removed>")
}

func TestSVGRenderer_Render_NoData(t *testing.T) {
	var buf bytes.Buffer
	err := NewSVGRenderer(Options{}).Render(context.Background(), &buf, &timeline.Timeline{})
	assert.True(t, errors.Is(err, timeline.ErrNoData))
	assert.Zero(t, buf.Len())
}

func TestSVGRenderer_Render_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := NewSVGRenderer(Options{}).Render(ctx, &buf, exampleTimeline())
	assert.True(t, errors.Is(err, context.Canceled))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestDraw_WriteError(t *testing.T) {
	fig, err := Compose(exampleTimeline(), DefaultOptions(), nil)
	require.NoError(t, err)
	assert.EqualError(t, Draw(failingWriter{}, fig), "disk full")
}

func TestDraw_TickLabels(t *testing.T) {
	fig, err := Compose(exampleTimeline(), DefaultOptions(), nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Draw(&buf, fig))
	// Every panel repeats the date labels.
	assert.Equal(t, len(fig.Panels), strings.Count(buf.String(), ">05/01<"))
}

func TestFormatTick(t *testing.T) {
	assert.Equal(t, "50", formatTick(50))
	assert.Equal(t, "37.5", formatTick(37.5))
	assert.Equal(t, "0.3", formatTick(0.1+0.2))
}
