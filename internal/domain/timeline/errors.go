package timeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingColumn      = errors.New("missing column")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidNumber      = errors.New("invalid number")
	ErrUnknownSteroid     = errors.New("unknown steroid")
	ErrEndBeforeStart     = errors.New("finish date is before start date")
	ErrNoData             = errors.New("workbook contains no timeline data")
	ErrUnreadableWorkbook = errors.New("unreadable workbook")
)

// InputError is a problem with the uploaded data. It names the table, column
// and spreadsheet row so the user can fix the workbook.
type InputError struct {
	Table  Table
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *InputError) Error() string {
	var b strings.Builder
	if e.Table != "" {
		b.WriteString(string(e.Table))
		b.WriteString(": ")
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, "row %d: ", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, "column %q: ", e.Column)
	}
	b.WriteString(e.Err.Error())
	if e.Value != "" {
		fmt.Fprintf(&b, " %q", e.Value)
	}
	return b.String()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err was caused by the uploaded data rather
// than by the service.
func IsInputError(err error) bool {
	var ie *InputError
	if errors.As(err, &ie) {
		return true
	}
	return errors.Is(err, ErrNoData) || errors.Is(err, ErrUnreadableWorkbook)
}
