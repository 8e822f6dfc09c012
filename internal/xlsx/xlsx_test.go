// File path: internal/xlsx/xlsx_test.go
package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jvaldebenito/cronoplan/internal/schedule"
)

func buildWorkbook(t *testing.T, sheet string, cells [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("delete default sheet: %v", err)
		}
	}
	for r, line := range cells {
		for c, value := range line {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf
}

func TestReadPrefersScheduleSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(PreferredSheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	// Decoy data on the default first sheet.
	if err := f.SetCellValue("Sheet1", "A1", "otra cosa"); err != nil {
		t.Fatalf("set decoy: %v", err)
	}
	headers := []string{"ID", "Tarea", "Inicio Planificado", "Fin Planificado", "Predecesor", "Inicio Real", "Fin Real"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(PreferredSheet, cell, h); err != nil {
			t.Fatalf("set header: %v", err)
		}
	}
	if err := f.SetCellValue(PreferredSheet, "A2", "1"); err != nil {
		t.Fatalf("set id: %v", err)
	}
	if err := f.SetCellValue(PreferredSheet, "B2", "excavación"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	rows, got, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(headers) || got[0] != "ID" || got[6] != "Fin Real" {
		t.Fatalf("headers = %v", got)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0]["ID"] != "1" || rows[0]["Tarea"] != "excavación" {
		t.Fatalf("unexpected row %v", rows[0])
	}
	// Short rows read as empty cells for trailing headers.
	if cell, ok := rows[0]["Fin Real"]; !ok || cell != "" {
		t.Fatalf("expected empty Fin Real cell, got %v (present=%v)", cell, ok)
	}
}

func TestReadFallsBackToFirstSheet(t *testing.T) {
	buf := buildWorkbook(t, "Hoja1", [][]interface{}{
		{"ID", "Tarea"},
		{"7", "terminaciones"},
	})
	rows, _, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 1 || rows[0]["ID"] != "7" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestReadSkipsBlankLines(t *testing.T) {
	buf := buildWorkbook(t, "Hoja1", [][]interface{}{
		{"ID", "Tarea"},
		{"1", "a"},
		{"", ""},
		{"2", "b"},
	})
	rows, _, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}

func TestReadHeaderOnlySheet(t *testing.T) {
	buf := buildWorkbook(t, "Hoja1", [][]interface{}{
		{"ID", "Tarea", "Inicio Planificado", "Fin Planificado", "Predecesor", "Inicio Real", "Fin Real"},
	})
	rows, headers, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
	if missing := schedule.ValidateHeaders(headers); missing != nil {
		t.Fatalf("headers reported missing: %v", missing.Columns)
	}
}

func TestReadConvertsDateCells(t *testing.T) {
	buf := buildWorkbook(t, "Hoja1", [][]interface{}{
		{"ID", "Tarea", "Inicio Planificado", "Fin Planificado", "Predecesor", "Inicio Real", "Fin Real"},
		{"1", "excavación", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "10/02/2024", "", time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), ""},
	})
	rows, _, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	// Date-typed cells come through as ISO, never a display format that the
	// day-first parser could read with day and month swapped.
	if rows[0]["Inicio Planificado"] != "2024-01-15" {
		t.Fatalf("planned start cell = %v, want 2024-01-15", rows[0]["Inicio Planificado"])
	}
	if rows[0]["Inicio Real"] != "2024-01-03" {
		t.Fatalf("actual start cell = %v, want 2024-01-03", rows[0]["Inicio Real"])
	}
	// Text dates pass through for the tolerant parser.
	if rows[0]["Fin Planificado"] != "10/02/2024" {
		t.Fatalf("planned finish cell = %v", rows[0]["Fin Planificado"])
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	raw := []schedule.Row{{
		"ID":                 "1",
		"Tarea":              "obra gruesa",
		"Inicio Planificado": "2024-01-01",
		"Fin Planificado":    "2024-01-10",
		"Predecesor":         "2; 3",
		"Inicio Real":        "2024-01-02",
		"Fin Real":           "2024-01-12",
		"% Avance Físico":    "100",
		"Fase":               "Construcción",
	}}
	today := schedule.NewDate(2024, 1, 20)
	table, err := schedule.Derive(raw, today)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}

	buf, err := Write(table)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, _, err := Read(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	again, err := schedule.Derive(rows, today)
	if err != nil {
		t.Fatalf("re-derive: %v", err)
	}
	if len(again.Tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(again.Tasks))
	}
	got, want := again.Tasks[0], table.Tasks[0]
	if got.ID != want.ID || got.Name != want.Name || got.Phase != want.Phase {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, want)
	}
	if got.AutoStatus != schedule.StatusCompletedLate || got.AutoDelayDays != 2 {
		t.Fatalf("unexpected derived fields %+v", got)
	}
	if got.PlannedStart == nil || !got.PlannedStart.Equal(schedule.NewDate(2024, 1, 1)) {
		t.Fatalf("planned start = %v", got.PlannedStart)
	}
}
