package timeline

import (
	"strings"
)

// Steroid is one of the corticosteroids the chart can place on the
// prednisolone-equivalent scale.
type Steroid string

const (
	Prednisolone       Steroid = "Prednisolone"
	Methylprednisolone Steroid = "Methylprednisolone"
	Dexamethasone      Steroid = "Dexamethasone"
	Hydrocortisone     Steroid = "Hydrocortisone"
)

// DoseScaleMax is the prednisolone-equivalent dose (mg) at which the color
// scale saturates.
const DoseScaleMax = 60.0

// potency is the dose of each steroid equivalent to 1mg prednisolone.
var potency = map[Steroid]float64{
	Prednisolone:       1,
	Methylprednisolone: 0.8,
	Dexamethasone:      0.15,
	Hydrocortisone:     4,
}

// ParseSteroid matches s case-insensitively against the known steroids.
func ParseSteroid(s string) (Steroid, bool) {
	s = strings.TrimSpace(s)
	for st := range potency {
		if strings.EqualFold(string(st), s) {
			return st, true
		}
	}
	return "", false
}

// PrednisoloneEquivalent converts a daily dose of st to mg of prednisolone.
// Unknown steroids are returned unchanged.
func PrednisoloneEquivalent(st Steroid, dose float64) float64 {
	p, ok := potency[st]
	if !ok {
		return dose
	}
	return dose / p
}

// DoseFraction maps an equivalent dose onto [0, 1] for the color scale,
// clamping at 0 and DoseScaleMax.
func DoseFraction(equivalent float64) float64 {
	switch {
	case equivalent <= 0:
		return 0
	case equivalent >= DoseScaleMax:
		return 1
	}
	return equivalent / DoseScaleMax
}

// DoseScaleTick is a labeled position on the dose color bar.
type DoseScaleTick struct {
	Dose     float64
	Fraction float64
	Label    string
}

// DoseScaleTicks are the color bar ticks: 0 to 60 in steps of 10, the last
// labeled "60+".
func DoseScaleTicks() []DoseScaleTick {
	labels := []string{"0", "10", "20", "30", "40", "50", "60+"}
	ticks := make([]DoseScaleTick, len(labels))
	for i, l := range labels {
		d := float64(i * 10)
		ticks[i] = DoseScaleTick{Dose: d, Fraction: DoseFraction(d), Label: l}
	}
	return ticks
}
