package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type CellKind int

const (
	CellEmpty CellKind = iota
	CellNumber
	CellDateTime
	CellText
)

// Cell is a coerced spreadsheet value. Only the member matching Kind is set.
type Cell struct {
	Kind   CellKind
	Number float64
	Time   time.Time
	Text   string
}

// String renders the value the way it is stored: whole numbers without a
// fraction, timestamps as YYYY-MM-DD HH:MM:SS, text trimmed.
func (c Cell) String() string {
	switch c.Kind {
	case CellNumber:
		if c.Number == math.Trunc(c.Number) && math.Abs(c.Number) < 1e15 {
			return strconv.FormatInt(int64(c.Number), 10)
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDateTime:
		return c.Time.Format(timestampLayout)
	case CellText:
		return strings.TrimSpace(c.Text)
	default:
		return ""
	}
}

// classifyCell turns a raw stored value into a Cell. dateFormatted tells
// whether the cell's number format displays a date or time.
func classifyCell(cellType excelize.CellType, raw string, dateFormatted, date1904 bool) Cell {
	if strings.TrimSpace(raw) == "" {
		return Cell{Kind: CellEmpty}
	}

	switch cellType {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Cell{Kind: CellText, Text: raw}
		}
		if dateFormatted {
			if t, err := excelize.ExcelDateToTime(n, date1904); err == nil {
				return Cell{Kind: CellDateTime, Time: t}
			}
		}
		return Cell{Kind: CellNumber, Number: n}

	case excelize.CellTypeBool:
		switch raw {
		case "1":
			return Cell{Kind: CellText, Text: "TRUE"}
		case "0":
			return Cell{Kind: CellText, Text: "FALSE"}
		}
		return Cell{Kind: CellText, Text: raw}

	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
				return Cell{Kind: CellDateTime, Time: t}
			}
		}
		return Cell{Kind: CellText, Text: raw}

	default:
		return Cell{Kind: CellText, Text: raw}
	}
}

// sheetReader reads coerced cells from one worksheet.
type sheetReader struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func newSheetReader(f *excelize.File, sheet string) *sheetReader {
	r := &sheetReader{f: f, sheet: sheet, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

// cell coerces the value at the 0-based row and col. raw is the unformatted
// value already read for that position.
func (r *sheetReader) cell(row, col int, raw string) (Cell, error) {
	if strings.TrimSpace(raw) == "" {
		return Cell{Kind: CellEmpty}, nil
	}

	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return Cell{}, err
	}

	cellType, err := r.f.GetCellType(r.sheet, ref)
	if err != nil {
		return Cell{}, fmt.Errorf("cell %s: %w", ref, err)
	}

	dateFormatted := false
	if cellType == excelize.CellTypeUnset || cellType == excelize.CellTypeNumber {
		if dateFormatted, err = r.isDateStyled(ref); err != nil {
			return Cell{}, fmt.Errorf("cell %s: %w", ref, err)
		}
	}

	return classifyCell(cellType, raw, dateFormatted, r.date1904), nil
}

func (r *sheetReader) isDateStyled(ref string) (bool, error) {
	styleID, err := r.f.GetCellStyle(r.sheet, ref)
	if err != nil {
		return false, err
	}
	if styleID == 0 {
		return false, nil
	}
	if cached, ok := r.dateStyles[styleID]; ok {
		return cached, nil
	}

	style, err := r.f.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	isDate := isDateNumFmt(style.NumFmt)
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	r.dateStyles[styleID] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a built-in number format id shows a date or time.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode inspects a custom format code, ignoring quoted literals,
// escaped characters and bracketed sections such as colors or locales.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, ch := range code {
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(ch)
		}
	}

	cleaned := strings.ToLower(b.String())
	for _, token := range []string{"yy", "dd", "mmm", "h:", "hh", "ss", "m/d", "d/m", "d-m", "m-d", "am/pm"} {
		if strings.Contains(cleaned, token) {
			return true
		}
	}
	return false
}
