package timeline

import (
	"time"
)

// Table identifies one of the five column blocks of an input workbook.
type Table string

const (
	TableMedications Table = "medications"
	TableLab         Table = "lab"
	TableSteroids    Table = "steroids"
	TableNotes       Table = "notes"
	TableTemperature Table = "temperature"
)

// Canonical column keys used to address raw cells by name.
const (
	ColMedication  = "medication"
	ColSteroid     = "steroid"
	ColStart       = "start"
	ColFinish      = "finish"
	ColDailyDose   = "daily_dose"
	ColDate        = "date"
	ColValue       = "value"
	ColNote        = "note"
	ColTemperature = "temperature"
)

// DefaultLabName is used when the lab block header does not name the marker.
const DefaultLabName = "CRP"

// RawRow is one spreadsheet row of a block, addressed by canonical column key.
type RawRow struct {
	Row   int
	Cells map[string]string
}

// Value returns the trimmed cell for col, or "" when absent.
func (r RawRow) Value(col string) string {
	if r.Cells == nil {
		return ""
	}
	return r.Cells[col]
}

// RawTable holds the unparsed rows of one block. Label carries the header of
// the lab value column; it is empty for the other blocks.
type RawTable struct {
	Table Table
	Label string
	Rows  []RawRow
}

// RawTables is the loader output: the five blocks of a single workbook.
type RawTables struct {
	Medications RawTable
	Lab         RawTable
	Steroids    RawTable
	Notes       RawTable
	Temperature RawTable
}

// EndDate is the finish of a course: either a concrete date or Ongoing.
type EndDate struct {
	date    time.Time
	ongoing bool
}

// On returns an EndDate fixed at d.
func On(d time.Time) EndDate {
	return EndDate{date: d}
}

// Ongoing returns an EndDate that resolves to the processing date.
func Ongoing() EndDate {
	return EndDate{ongoing: true}
}

func (e EndDate) IsOngoing() bool { return e.ongoing }

// Resolve returns the concrete finish date, substituting today for Ongoing.
func (e EndDate) Resolve(today time.Time) time.Time {
	if e.ongoing {
		return today
	}
	return e.date
}

func (e EndDate) String() string {
	if e.ongoing {
		return OngoingSentinel
	}
	return e.date.Format(DateLayout)
}

// Interval is the start/end pair shared by medication and steroid courses.
type Interval struct {
	Start time.Time
	End   EndDate
}

// Finish resolves the end date against today. An ongoing course that starts
// after today finishes on its start date.
func (iv Interval) Finish(today time.Time) time.Time {
	finish := iv.End.Resolve(today)
	if iv.End.IsOngoing() && finish.Before(iv.Start) {
		return iv.Start
	}
	return finish
}

// Duration is finish minus start.
func (iv Interval) Duration(today time.Time) time.Duration {
	return iv.Finish(today).Sub(iv.Start)
}

// Days is the duration in days, rounded to the nearest whole day so DST
// transitions inside the interval do not shorten it.
func (iv Interval) Days(today time.Time) int {
	return int((iv.Duration(today) + 12*time.Hour) / (24 * time.Hour))
}

type MedicationCourse struct {
	Row  int    `json:"row"`
	Name string `json:"name"`
	Interval
}

type SteroidCourse struct {
	Row       int     `json:"row"`
	Steroid   Steroid `json:"steroid"`
	DailyDose float64 `json:"daily_dose"`
	Interval
}

// PrednisoloneEquivalent returns the course's daily dose on the prednisolone scale.
func (c SteroidCourse) PrednisoloneEquivalent() float64 {
	return PrednisoloneEquivalent(c.Steroid, c.DailyDose)
}

type LabReading struct {
	Row   int       `json:"row"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

type ClinicalNote struct {
	Row  int       `json:"row"`
	Date time.Time `json:"date"`
	Text string    `json:"text"`
}

type TemperatureReading struct {
	Row   int       `json:"row"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Timeline is the normalized content of one upload. Today is the processing
// date every ongoing course resolves to.
type Timeline struct {
	Today        time.Time
	LabName      string
	Medications  []MedicationCourse
	Steroids     []SteroidCourse
	Labs         []LabReading
	Notes        []ClinicalNote
	Temperatures []TemperatureReading
}

// HasObservations reports whether the combined lab/notes/temperature panel has data.
func (t *Timeline) HasObservations() bool {
	return len(t.Labs) > 0 || len(t.Notes) > 0 || len(t.Temperatures) > 0
}

// PanelCount is the number of chart panels the timeline needs.
func (t *Timeline) PanelCount() int {
	n := 0
	if t.HasObservations() {
		n++
	}
	if len(t.Medications) > 0 {
		n++
	}
	if len(t.Steroids) > 0 {
		n++
	}
	return n
}

// PeakLab returns the highest lab value, or 0 when there are no readings.
func (t *Timeline) PeakLab() float64 {
	if len(t.Labs) == 0 {
		return 0
	}
	peak := t.Labs[0].Value
	for _, l := range t.Labs[1:] {
		if l.Value > peak {
			peak = l.Value
		}
	}
	return peak
}
