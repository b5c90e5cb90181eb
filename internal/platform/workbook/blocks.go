package workbook

import (
	"strings"

	"github.com/ehr/timeline/internal/domain/timeline"
)

// column describes one expected header inside a block.
type column struct {
	key    string
	header string
	// prefix matches any header starting with the normalized prefix.
	prefix string
	// named accepts any non-empty header; the header becomes the table label.
	named bool
	date  bool
}

func (c column) matches(header string) bool {
	h := normalizeHeader(header)
	switch {
	case c.named:
		return h != ""
	case c.prefix != "":
		return strings.HasPrefix(h, c.prefix)
	default:
		return h == normalizeHeader(c.header)
	}
}

// block is a fixed run of spreadsheet columns holding one table. first is
// the 1-based index of its leftmost column.
type block struct {
	table   timeline.Table
	first   int
	columns []column
}

const finishHeader = "Finish (date or ‘ongoing’)"

// blocks are laid out A–C, E–F, H–K, M–N and P–Q with one blank column
// between them.
var blocks = []block{
	{
		table: timeline.TableMedications,
		first: 1,
		columns: []column{
			{key: timeline.ColMedication, header: "Medication"},
			{key: timeline.ColStart, header: "Start", date: true},
			{key: timeline.ColFinish, header: finishHeader, prefix: "finish", date: true},
		},
	},
	{
		table: timeline.TableLab,
		first: 5,
		columns: []column{
			{key: timeline.ColDate, header: "Date", date: true},
			{key: timeline.ColValue, header: timeline.DefaultLabName, named: true},
		},
	},
	{
		table: timeline.TableSteroids,
		first: 8,
		columns: []column{
			{key: timeline.ColSteroid, header: "Steroid"},
			{key: timeline.ColStart, header: "Start", date: true},
			{key: timeline.ColFinish, header: finishHeader, prefix: "finish", date: true},
			{key: timeline.ColDailyDose, header: "Daily_dose"},
		},
	},
	{
		table: timeline.TableNotes,
		first: 13,
		columns: []column{
			{key: timeline.ColDate, header: "Date", date: true},
			{key: timeline.ColNote, header: "Note"},
		},
	},
	{
		table: timeline.TableTemperature,
		first: 16,
		columns: []column{
			{key: timeline.ColDate, header: "Date", date: true},
			{key: timeline.ColTemperature, header: "Temperature"},
		},
	},
}

// normalizeHeader lower-cases h, treats underscores as spaces and collapses
// runs of whitespace.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.ReplaceAll(h, "_", " "))
	return strings.Join(strings.Fields(h), " ")
}
