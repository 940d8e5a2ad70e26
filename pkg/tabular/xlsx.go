package tabular

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const isoDate = "2006-01-02"

func decodeXLSX(payload []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	// GetRows yields the cached display value per cell. Error cells and
	// date-styled numbers need coercion before the values are comparable to
	// their CSV counterparts.
	for ri := range rows {
		for ci := range rows[ri] {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve cell name: %w", err)
			}
			rows[ri][ci] = coerceCell(f, sheet, cell, rows[ri][ci])
		}
	}

	return normalize(rows)
}

// coerceCell rewrites cells whose display value would mislead downstream
// parsing: error cells (cached #DIV/0!, #N/A and friends) become empty
// strings, and date cells become the ISO calendar date truncated to the day
// regardless of how the sheet formats them.
func coerceCell(f *excelize.File, sheet, cell, formatted string) string {
	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return formatted
	}
	if cellType == excelize.CellTypeError {
		return ""
	}
	if cellType != excelize.CellTypeDate && !isDateStyled(f, sheet, cell) {
		return formatted
	}

	raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil || raw == "" {
		return formatted
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		ts, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return formatted
		}
		return ts.Format(isoDate)
	}
	// t="d" cells store an ISO-8601 literal instead of a serial number
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", isoDate} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format(isoDate)
		}
	}
	return formatted
}

// Builtin number formats Excel reserves for calendar dates. Pure time and
// duration formats are excluded: they carry no calendar day.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true,
	32: true, 33: true, 34: true, 35: true, 36: true,
}

func isDateStyled(f *excelize.File, sheet, cell string) bool {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil {
		return false
	}
	if builtinDateFormats[style.NumFmt] {
		return true
	}
	if style.CustomNumFmt != nil {
		return hasDateTokens(*style.CustomNumFmt)
	}
	return false
}

// hasDateTokens reports whether a custom number format carries unquoted
// year or day tokens. Month tokens are ambiguous with minutes and so are
// not considered on their own.
func hasDateTokens(code string) bool {
	inQuote := false
	for i := 0; i < len(code); i++ {
		switch c := code[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			for i < len(code) && code[i] != ']' {
				i++
			}
		case c == '\\':
			i++
		case c == 'y' || c == 'Y' || c == 'd' || c == 'D':
			return true
		}
	}
	return false
}
