package timeline

import (
	"time"
)

// annotationHeights are the vertical offsets, in lab units above the peak
// value, that note callouts cycle through.
var annotationHeights = [...]float64{100, 80, 60, 40, 20}

// AnnotationHeight returns the callout offset for the note at index i.
func AnnotationHeight(i int) float64 {
	n := len(annotationHeights)
	return annotationHeights[((i%n)+n)%n]
}

// MaxAnnotationHeight is the largest offset a callout can get.
func MaxAnnotationHeight() float64 {
	return annotationHeights[0]
}

// Annotation is a note callout: an arrow from (Date, Label) down to
// (Date, Anchor).
type Annotation struct {
	Date   time.Time
	Text   string
	Anchor float64
	Label  float64
}

// Annotations places every note relative to the peak lab value. Notes are
// expected in date order, which Normalize guarantees.
func (t *Timeline) Annotations() []Annotation {
	if len(t.Notes) == 0 {
		return nil
	}
	peak := t.PeakLab()
	out := make([]Annotation, len(t.Notes))
	for i, n := range t.Notes {
		out[i] = Annotation{
			Date:   n.Date,
			Text:   n.Text,
			Anchor: peak,
			Label:  peak + AnnotationHeight(i),
		}
	}
	return out
}
