package timeline

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the day/month/four-digit-year format used in workbooks.
	DateLayout = "02/01/2006"
	// dateParseLayout accepts single-digit day and month as well.
	dateParseLayout = "2/1/2006"

	// OngoingSentinel in a finish column means the course is still running.
	OngoingSentinel = "ongoing"
)

// Normalizer turns raw workbook tables into a Timeline. It is bound to one
// processing date so every ongoing course in an upload resolves to the same day.
type Normalizer struct {
	today time.Time
	loc   *time.Location
}

// NewNormalizer returns a Normalizer resolving ongoing courses to the
// calendar day of now in loc. A nil loc means UTC.
func NewNormalizer(now time.Time, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{today: Midnight(now, loc), loc: loc}
}

// Today is the processing date ongoing courses resolve to.
func (n *Normalizer) Today() time.Time { return n.today }

// Midnight truncates t to the start of its calendar day in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Normalize cleans all five tables. The first bad cell aborts the whole
// upload so no partial timeline is ever returned.
func (n *Normalizer) Normalize(raw *RawTables) (*Timeline, error) {
	t := &Timeline{Today: n.today, LabName: strings.TrimSpace(raw.Lab.Label)}
	if t.LabName == "" {
		t.LabName = DefaultLabName
	}

	var err error
	if t.Medications, err = n.Medications(raw.Medications); err != nil {
		return nil, err
	}
	if t.Steroids, err = n.Steroids(raw.Steroids); err != nil {
		return nil, err
	}
	if t.Labs, err = n.Labs(raw.Lab); err != nil {
		return nil, err
	}
	if t.Notes, err = n.Notes(raw.Notes); err != nil {
		return nil, err
	}
	if t.Temperatures, err = n.Temperatures(raw.Temperature); err != nil {
		return nil, err
	}
	return t, nil
}

func (n *Normalizer) Medications(tbl RawTable) ([]MedicationCourse, error) {
	var out []MedicationCourse
	for _, row := range completeRows(tbl, ColMedication, ColStart, ColFinish) {
		iv, err := n.interval(TableMedications, row)
		if err != nil {
			return nil, err
		}
		out = append(out, MedicationCourse{
			Row:      row.Row,
			Name:     row.Value(ColMedication),
			Interval: iv,
		})
	}
	return out, nil
}

func (n *Normalizer) Steroids(tbl RawTable) ([]SteroidCourse, error) {
	var out []SteroidCourse
	for _, row := range completeRows(tbl, ColSteroid, ColStart, ColFinish, ColDailyDose) {
		st, ok := ParseSteroid(row.Value(ColSteroid))
		if !ok {
			return nil, &InputError{Table: TableSteroids, Column: ColSteroid, Row: row.Row, Value: row.Value(ColSteroid), Err: ErrUnknownSteroid}
		}
		iv, err := n.interval(TableSteroids, row)
		if err != nil {
			return nil, err
		}
		dose, err := parseNumber(TableSteroids, ColDailyDose, row)
		if err != nil {
			return nil, err
		}
		if dose < 0 {
			return nil, &InputError{Table: TableSteroids, Column: ColDailyDose, Row: row.Row, Value: row.Value(ColDailyDose), Err: ErrInvalidNumber}
		}
		out = append(out, SteroidCourse{
			Row:       row.Row,
			Steroid:   st,
			DailyDose: dose,
			Interval:  iv,
		})
	}
	return out, nil
}

func (n *Normalizer) Labs(tbl RawTable) ([]LabReading, error) {
	var out []LabReading
	for _, row := range completeRows(tbl, ColDate, ColValue) {
		d, err := n.parseDate(TableLab, ColDate, row)
		if err != nil {
			return nil, err
		}
		v, err := parseNumber(TableLab, ColValue, row)
		if err != nil {
			return nil, err
		}
		out = append(out, LabReading{Row: row.Row, Date: d, Value: v})
	}
	return out, nil
}

// Notes are returned in date order; callout heights are keyed by position
// in that order.
func (n *Normalizer) Notes(tbl RawTable) ([]ClinicalNote, error) {
	var out []ClinicalNote
	for _, row := range completeRows(tbl, ColDate, ColNote) {
		d, err := n.parseDate(TableNotes, ColDate, row)
		if err != nil {
			return nil, err
		}
		out = append(out, ClinicalNote{Row: row.Row, Date: d, Text: row.Value(ColNote)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Temperatures are returned in date order.
func (n *Normalizer) Temperatures(tbl RawTable) ([]TemperatureReading, error) {
	var out []TemperatureReading
	for _, row := range completeRows(tbl, ColDate, ColTemperature) {
		d, err := n.parseDate(TableTemperature, ColDate, row)
		if err != nil {
			return nil, err
		}
		v, err := parseNumber(TableTemperature, ColTemperature, row)
		if err != nil {
			return nil, err
		}
		out = append(out, TemperatureReading{Row: row.Row, Date: d, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (n *Normalizer) interval(tbl Table, row RawRow) (Interval, error) {
	start, err := n.parseDate(tbl, ColStart, row)
	if err != nil {
		return Interval{}, err
	}
	end, err := n.parseEndDate(tbl, row)
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Start: start, End: end}
	if !end.IsOngoing() && iv.Finish(n.today).Before(start) {
		return Interval{}, &InputError{Table: tbl, Column: ColFinish, Row: row.Row, Value: row.Value(ColFinish), Err: ErrEndBeforeStart}
	}
	return iv, nil
}

// parseEndDate resolves the sentinel per row, before any date parsing.
func (n *Normalizer) parseEndDate(tbl Table, row RawRow) (EndDate, error) {
	if strings.TrimSpace(row.Value(ColFinish)) == OngoingSentinel {
		return Ongoing(), nil
	}
	d, err := n.parseDate(tbl, ColFinish, row)
	if err != nil {
		return EndDate{}, err
	}
	return On(d), nil
}

func (n *Normalizer) parseDate(tbl Table, col string, row RawRow) (time.Time, error) {
	s := row.Value(col)
	d, err := ParseDate(s, n.loc)
	if err != nil {
		return time.Time{}, &InputError{Table: tbl, Column: col, Row: row.Row, Value: s, Err: ErrInvalidDate}
	}
	return d, nil
}

// ParseDate parses a day/month/year date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateParseLayout, strings.TrimSpace(s), loc)
}

func parseNumber(tbl Table, col string, row RawRow) (float64, error) {
	s := row.Value(col)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InputError{Table: tbl, Column: col, Row: row.Row, Value: s, Err: ErrInvalidNumber}
	}
	return v, nil
}

// completeRows drops every row with a blank required cell.
func completeRows(tbl RawTable, cols ...string) []RawRow {
	out := make([]RawRow, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		ok := true
		for _, c := range cols {
			if strings.TrimSpace(row.Value(c)) == "" {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, row)
		}
	}
	return out
}
