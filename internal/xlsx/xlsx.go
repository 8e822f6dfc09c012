// File path: internal/xlsx/xlsx.go

// Package xlsx adapts uploaded workbooks to raw schedule rows and
// re-serializes derived tables for export. All tolerance for messy cell
// content lives in the schedule parsers; this package only moves strings.
package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jvaldebenito/cronoplan/internal/schedule"
)

// PreferredSheet is used when present; otherwise the first sheet is read.
const PreferredSheet = "Cronograma Detallado"

// ExportSheet is the sheet name of exported workbooks.
const ExportSheet = "Proyecto"

// dateColumns are the headers whose cells may arrive as Excel date serials.
var dateColumns = map[string]struct{}{
	schedule.ColPlannedStart:  {},
	schedule.ColPlannedFinish: {},
	schedule.ColActualStart:   {},
	schedule.ColActualFinish:  {},
}

// Read extracts the schedule sheet of a workbook as raw rows keyed by the
// header row, which is also returned so callers can validate a sheet that
// carries headers but no tasks yet. Cells are read raw: date-typed cells come
// back as serial numbers and are rewritten as ISO strings here, so the
// day-first text parser never sees a display format. Blank lines are dropped.
func Read(r io.Reader) ([]schedule.Row, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := pickSheet(f.GetSheetList())
	if sheet == "" {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	cells, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	headers := cells[0]
	rows := make([]schedule.Row, 0, len(cells)-1)
	for _, line := range cells[1:] {
		if blankLine(line) {
			continue
		}
		row := make(schedule.Row, len(headers))
		for i, header := range headers {
			if strings.TrimSpace(header) == "" {
				continue
			}
			value := ""
			if i < len(line) {
				value = line[i]
			}
			if _, isDate := dateColumns[strings.TrimSpace(header)]; isDate {
				value = normalizeDateCell(value)
			}
			row[header] = value
		}
		rows = append(rows, row)
	}
	return rows, headers, nil
}

// normalizeDateCell rewrites an Excel date serial as an ISO date string; text
// cells pass through untouched for the tolerant parser.
func normalizeDateCell(cell string) string {
	s := strings.TrimSpace(cell)
	if s == "" {
		return cell
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial <= 0 {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return t.Format("2006-01-02")
}

func pickSheet(sheets []string) string {
	for _, name := range sheets {
		if name == PreferredSheet {
			return name
		}
	}
	if len(sheets) > 0 {
		return sheets[0]
	}
	return ""
}

func blankLine(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Write re-serializes a derived table, raw and derived columns alike, in the
// fixed column order. Dates are written as ISO strings so an exported
// workbook re-imports byte-for-byte.
func Write(t *schedule.Table) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(ExportSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	columns := schedule.Columns()
	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(ExportSheet, cell, name); err != nil {
			return nil, err
		}
	}
	for rowIdx, record := range t.Records() {
		for colIdx, name := range columns {
			value := cellValue(record[name])
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(ExportSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return f.WriteToBuffer()
}

func cellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case *schedule.Date:
		if val == nil {
			return nil
		}
		return val.String()
	case schedule.Date:
		return val.String()
	case *float64:
		if val == nil {
			return nil
		}
		return *val
	case []string:
		if len(val) == 0 {
			return nil
		}
		return strings.Join(val, ", ")
	case schedule.Status:
		return string(val)
	case string:
		if val == "" {
			return nil
		}
		return val
	default:
		return val
	}
}
