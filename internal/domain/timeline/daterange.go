package timeline

import (
	"time"
)

// DateRange is the shared horizontal window of every chart panel.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Days is the number of whole days covered by the range.
func (r DateRange) Days() int {
	return int((r.To.Sub(r.From) + 12*time.Hour) / (24 * time.Hour))
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

type rangeAcc struct {
	r  DateRange
	ok bool
}

func (a *rangeAcc) add(t time.Time) {
	if !a.ok {
		a.r = DateRange{From: t, To: t}
		a.ok = true
		return
	}
	if t.Before(a.r.From) {
		a.r.From = t
	}
	if t.After(a.r.To) {
		a.r.To = t
	}
}

// ResolveRange returns the earliest and latest date across every non-empty
// collection. Ongoing courses end at t.Today, or at their start when that is
// later. ok is false when all collections are empty.
func ResolveRange(t *Timeline) (DateRange, bool) {
	var acc rangeAcc
	for _, m := range t.Medications {
		acc.add(m.Start)
		acc.add(m.Finish(t.Today))
	}
	for _, s := range t.Steroids {
		acc.add(s.Start)
		acc.add(s.Finish(t.Today))
	}
	for _, l := range t.Labs {
		acc.add(l.Date)
	}
	for _, n := range t.Notes {
		acc.add(n.Date)
	}
	for _, tr := range t.Temperatures {
		acc.add(tr.Date)
	}
	return acc.r, acc.ok
}
