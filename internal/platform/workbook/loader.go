// Package workbook reads timeline tables out of .xlsx uploads and writes the
// blank input template.
package workbook

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ehr/timeline/internal/domain/timeline"
)

const (
	defaultUnzipSizeLimit    = 64 << 20
	defaultUnzipXMLSizeLimit = 16 << 20
)

// Options tunes the Loader.
type Options struct {
	// Sheet to read; empty means the first worksheet.
	Sheet string
	// UnzipSizeLimit caps the decompressed workbook size in bytes.
	UnzipSizeLimit int64
}

// Loader implements timeline.Loader and timeline.TemplateWriter on top of excelize.
type Loader struct {
	opts Options
}

func NewLoader(opts Options) *Loader {
	if opts.UnzipSizeLimit <= 0 {
		opts.UnzipSizeLimit = defaultUnzipSizeLimit
	}
	return &Loader{opts: opts}
}

// Load reads the five column blocks of the workbook in r. A block whose
// header row is blank yields an empty table; a block with a missing or
// misnamed header fails with ErrMissingColumn.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*timeline.RawTables, error) {
	xmlLimit := int64(defaultUnzipXMLSizeLimit)
	if xmlLimit > l.opts.UnzipSizeLimit {
		xmlLimit = l.opts.UnzipSizeLimit
	}
	f, err := excelize.OpenReader(r, excelize.Options{
		UnzipSizeLimit:    l.opts.UnzipSizeLimit,
		UnzipXMLSizeLimit: xmlLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", timeline.ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	sheet := l.opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: no worksheets", timeline.ErrUnreadableWorkbook)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", timeline.ErrUnreadableWorkbook, sheet, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := make(map[timeline.Table]timeline.RawTable, len(blocks))
	for _, b := range blocks {
		tbl, err := readBlock(b, rows)
		if err != nil {
			return nil, err
		}
		tables[b.table] = tbl
	}

	return &timeline.RawTables{
		Medications: tables[timeline.TableMedications],
		Lab:         tables[timeline.TableLab],
		Steroids:    tables[timeline.TableSteroids],
		Notes:       tables[timeline.TableNotes],
		Temperature: tables[timeline.TableTemperature],
	}, nil
}

func readBlock(b block, rows [][]string) (timeline.RawTable, error) {
	tbl := timeline.RawTable{Table: b.table}
	if len(rows) == 0 {
		return tbl, nil
	}

	header := rows[0]
	present := false
	for i := range b.columns {
		if cell(header, b.first+i) != "" {
			present = true
			break
		}
	}
	if !present {
		return tbl, orphanedData(b, rows[1:])
	}

	for i, col := range b.columns {
		h := cell(header, b.first+i)
		if !col.matches(h) {
			return tbl, &timeline.InputError{
				Table:  b.table,
				Column: col.header,
				Row:    1,
				Value:  h,
				Err:    timeline.ErrMissingColumn,
			}
		}
		if col.named {
			tbl.Label = h
		}
	}

	for i, row := range rows[1:] {
		cells := make(map[string]string, len(b.columns))
		blank := true
		for j, col := range b.columns {
			v := cell(row, b.first+j)
			if v == "" {
				continue
			}
			blank = false
			if col.date {
				v = serialToDate(v)
			}
			cells[col.key] = v
		}
		if blank {
			continue
		}
		tbl.Rows = append(tbl.Rows, timeline.RawRow{Row: i + 2, Cells: cells})
	}
	return tbl, nil
}

// orphanedData reports data rows sitting under a blank header row; without
// headers the block cannot be read, so it must not be silently skipped.
func orphanedData(b block, rows [][]string) error {
	for _, row := range rows {
		for i := range b.columns {
			if cell(row, b.first+i) != "" {
				return &timeline.InputError{
					Table:  b.table,
					Column: b.columns[0].header,
					Row:    1,
					Err:    timeline.ErrMissingColumn,
				}
			}
		}
	}
	return nil
}

// cell returns the trimmed value at the 1-based column idx.
func cell(row []string, idx int) string {
	if idx-1 >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx-1])
}

// serialToDate rewrites an Excel date serial as day/month/year text. Other
// values, including the ongoing sentinel, pass through untouched.
func serialToDate(v string) string {
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial <= 0 {
		return v
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return v
	}
	return t.Format(timeline.DateLayout)
}
