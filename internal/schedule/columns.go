// File path: internal/schedule/columns.go
package schedule

import (
	"fmt"
	"sort"
	"strings"
)

// Column names follow the workbook template exactly; header matching trims
// whitespace only.
const (
	ColID            = "ID"
	ColName          = "Tarea"
	ColPlannedStart  = "Inicio Planificado"
	ColPlannedFinish = "Fin Planificado"
	ColPredecessor   = "Predecesor"
	ColActualStart   = "Inicio Real"
	ColActualFinish  = "Fin Real"

	ColPhase           = "Fase"
	ColPlannedDuration = "Duración Planificada (días)"
	ColPlannedCost     = "Costo Planificado (USD)"
	ColDelayRisk       = "Riesgo de Retraso (%)"
	ColManualStatus    = "Estado"
	ColManualDuration  = "Duración Real (días)"
	ColProgress        = "% Avance Físico"
	ColActualCost      = "Costo Real (USD)"
	ColManualDelay     = "Retraso (días)"
	ColManualOverrun   = "Sobrecosto (USD)"
	ColDelayCause      = "Causa de Retraso"
	ColNotes           = "Observaciones"
	ColDelayDaysInput  = "Días de Retraso"
	ColBufferDays      = "Buffer sugerido (días)"

	ColAutoStatus   = "Estado (auto)"
	ColAutoDelay    = "Retraso (días) (auto)"
	ColRealDuration = "Duración Real (días) (auto)"
	ColCostOverrun  = "Sobrecosto (USD) (auto)"
	ColProgressNorm = "% Avance Físico (norm)"
	ColProgressCum  = "% Avance Físico (acum)"
	ColPredecessors = "Predecesores (lista)"
)

// RequiredColumns lists the columns an input table must carry before any
// coercion is attempted.
var RequiredColumns = []string{
	ColID, ColName, ColPlannedStart, ColPlannedFinish,
	ColPredecessor, ColActualStart, ColActualFinish,
}

// OptionalColumns lists the recognized optional columns in workbook order.
// Absent ones are created during coercion with their documented defaults
// (empty text or absent numeric) so later stages never branch on existence.
var OptionalColumns = []string{
	ColPhase, ColPlannedDuration, ColPlannedCost, ColDelayRisk,
	ColManualStatus, ColManualDuration, ColProgress, ColActualCost,
	ColManualDelay, ColManualOverrun, ColDelayCause, ColNotes,
	ColDelayDaysInput, ColBufferDays,
}

// DerivedColumns lists the recomputed columns appended by derivation.
var DerivedColumns = []string{
	ColAutoStatus, ColAutoDelay, ColRealDuration, ColCostOverrun,
	ColProgressNorm, ColProgressCum, ColPredecessors,
}

// Columns returns the full serialization order: required, optional, derived.
func Columns() []string {
	out := make([]string, 0, len(RequiredColumns)+len(OptionalColumns)+len(DerivedColumns))
	out = append(out, RequiredColumns...)
	out = append(out, OptionalColumns...)
	out = append(out, DerivedColumns...)
	return out
}

// Row is one raw record of an input table, keyed by column name. Values are
// whatever the upstream decoder produced (strings from a workbook, mixed JSON
// scalars from the table UI); the tolerant parsers absorb the difference.
type Row map[string]interface{}

// MissingColumnsError reports every required column absent from an input
// table, never just the first.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("faltan columnas requeridas: %s", strings.Join(e.Columns, ", "))
}

// NormalizeColumns rewrites every row with whitespace-trimmed keys. When a
// padded header collides with an exact one the exact header wins; collisions
// between padded headers resolve in sorted header order.
func NormalizeColumns(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		normalized := make(Row, len(row))
		var padded []string
		for key, value := range row {
			if strings.TrimSpace(key) == key {
				normalized[key] = value
			} else {
				padded = append(padded, key)
			}
		}
		sort.Strings(padded)
		for _, key := range padded {
			trimmed := strings.TrimSpace(key)
			if _, exists := normalized[trimmed]; !exists {
				normalized[trimmed] = row[key]
			}
		}
		out[i] = normalized
	}
	return out
}

// ValidateColumns checks that every required column appears somewhere in the
// table. Rows is assumed normalized. A nil return means the table is usable.
func ValidateColumns(rows []Row) *MissingColumnsError {
	present := make(map[string]struct{})
	for _, row := range rows {
		for key := range row {
			present[key] = struct{}{}
		}
	}
	return validatePresent(present)
}

// ValidateHeaders checks a bare header row against the required columns, for
// tables that carry headers but no data rows yet.
func ValidateHeaders(headers []string) *MissingColumnsError {
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[strings.TrimSpace(h)] = struct{}{}
	}
	return validatePresent(present)
}

func validatePresent(present map[string]struct{}) *MissingColumnsError {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Columns: missing}
	}
	return nil
}
