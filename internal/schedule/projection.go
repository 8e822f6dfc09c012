// File path: internal/schedule/projection.go
package schedule

import (
	"math"
	"sort"
)

// Records renders the table as one map per task keyed by column name, raw and
// derived columns alike. This is the shape the editable table consumes and
// sends back; feeding Records output through Derive again yields the same
// table.
func (t *Table) Records() []Row {
	out := make([]Row, len(t.Tasks))
	for i := range t.Tasks {
		task := &t.Tasks[i]
		out[i] = Row{
			ColID:            task.ID,
			ColName:          task.Name,
			ColPlannedStart:  task.PlannedStart,
			ColPlannedFinish: task.PlannedFinish,
			ColPredecessor:   task.PredecessorExpr,
			ColActualStart:   task.ActualStart,
			ColActualFinish:  task.ActualFinish,

			ColPhase:           task.Phase,
			ColPlannedDuration: task.PlannedDuration,
			ColPlannedCost:     task.PlannedCost,
			ColDelayRisk:       task.DelayRisk,
			ColManualStatus:    task.ManualStatus,
			ColManualDuration:  task.ManualDuration,
			ColProgress:        task.Progress,
			ColActualCost:      task.ActualCost,
			ColManualDelay:     task.ManualDelay,
			ColManualOverrun:   task.ManualOverrun,
			ColDelayCause:      task.DelayCause,
			ColNotes:           task.Notes,
			ColDelayDaysInput:  task.DelayDaysInput,
			ColBufferDays:      task.BufferDays,

			ColAutoStatus:   task.AutoStatus,
			ColAutoDelay:    task.AutoDelayDays,
			ColRealDuration: task.RealDuration,
			ColCostOverrun:  task.CostOverrun,
			ColProgressNorm: task.ProgressNorm,
			ColProgressCum:  task.ProgressCum,
			ColPredecessors: task.Predecessors,
		}
	}
	return out
}

// DataRow is the per-task payload of the table/gantt projection. Key names
// are the contract with the front end and must not change casually.
type DataRow struct {
	ID             string   `json:"ID"`
	Phase          string   `json:"Fase"`
	Name           string   `json:"Tarea"`
	PlannedStart   *Date    `json:"InicioPlan"`
	PlannedFinish  *Date    `json:"FinPlan"`
	ActualStart    *Date    `json:"InicioReal"`
	ActualFinish   *Date    `json:"FinReal"`
	AutoStatus     Status   `json:"EstadoAuto"`
	DelayRisk      *float64 `json:"RiesgoRetraso"`
	Progress       *float64 `json:"AvanceFisico"`
	ProgressCum    float64  `json:"AvanceFisicoAcum"`
	PlannedCost    *float64 `json:"CostoPlan"`
	ActualCost     *float64 `json:"CostoReal"`
	CostOverrun    *float64 `json:"SobrecostoAuto"`
	BufferDays     *float64 `json:"BufferSugerido"`
	DelayDays      int      `json:"RetrasoDias"`
	DelayDaysInput *float64 `json:"DiasRetrasoExcel"`
	Predecessors   []string `json:"Predecesores"`
}

// Filters enumerates the values the table UI offers for filtering.
type Filters struct {
	Phases   []string `json:"fases"`
	Statuses []Status `json:"estados"`
}

// DataView is the full table/gantt projection: rows plus filter values plus
// the status palette, so display coloring can never drift from derivation.
type DataView struct {
	Rows    []DataRow         `json:"rows"`
	Filters Filters           `json:"filters"`
	Palette map[Status]string `json:"paletaEstados"`
}

// Project shapes the derived table for the table and gantt consumers.
func Project(t *Table) DataView {
	rows := make([]DataRow, len(t.Tasks))
	phaseSet := make(map[string]struct{})
	for i := range t.Tasks {
		task := &t.Tasks[i]
		rows[i] = DataRow{
			ID:             task.ID,
			Phase:          task.Phase,
			Name:           task.Name,
			PlannedStart:   task.PlannedStart,
			PlannedFinish:  task.PlannedFinish,
			ActualStart:    task.ActualStart,
			ActualFinish:   task.ActualFinish,
			AutoStatus:     task.AutoStatus,
			DelayRisk:      task.DelayRisk,
			Progress:       task.ProgressNorm,
			ProgressCum:    task.ProgressCum,
			PlannedCost:    task.PlannedCost,
			ActualCost:     task.ActualCost,
			CostOverrun:    task.CostOverrun,
			BufferDays:     task.BufferDays,
			DelayDays:      task.AutoDelayDays,
			DelayDaysInput: task.DelayDaysInput,
			Predecessors:   task.Predecessors,
		}
		if task.Phase != "" {
			phaseSet[task.Phase] = struct{}{}
		}
	}
	phases := make([]string, 0, len(phaseSet))
	for phase := range phaseSet {
		phases = append(phases, phase)
	}
	sort.Strings(phases)
	return DataView{
		Rows:    rows,
		Filters: Filters{Phases: phases, Statuses: Statuses()},
		Palette: StatusColors(),
	}
}

// Summary is the dashboard aggregate view.
type Summary struct {
	Totals           SummaryTotals      `json:"totales"`
	Percentages      SummaryPercentages `json:"porcentajes"`
	TotalCostOverrun float64            `json:"sobrecostoTotalUSD"`
	AverageRisk      float64            `json:"riesgoPromedioPct"`
}

type SummaryTotals struct {
	Tasks     int `json:"tareas"`
	Completed int `json:"tareasCompletadas"`
}

type SummaryPercentages struct {
	CompletedOnTime float64 `json:"completadasATiempo"`
	CompletedLate   float64 `json:"completadasConRetraso"`
}

// Summarize aggregates the derived table for the dashboard. Percentages are
// over all tasks, on-time counts early completions, and absent costs/risks
// contribute zero/nothing.
func Summarize(t *Table) Summary {
	total := len(t.Tasks)
	var completed, onTime, late int
	var overrun float64
	var riskSum float64
	var riskCount int
	for i := range t.Tasks {
		task := &t.Tasks[i]
		if task.AutoStatus.Completed() {
			completed++
		}
		switch task.AutoStatus {
		case StatusCompletedOnTime, StatusCompletedEarly:
			onTime++
		case StatusCompletedLate:
			late++
		}
		if task.CostOverrun != nil {
			overrun += *task.CostOverrun
		}
		if task.DelayRisk != nil {
			riskSum += *task.DelayRisk
			riskCount++
		}
	}
	var pctOnTime, pctLate float64
	if total > 0 {
		pctOnTime = round2(100 * float64(onTime) / float64(total))
		pctLate = round2(100 * float64(late) / float64(total))
	}
	avgRisk := 0.0
	if riskCount > 0 {
		avgRisk = round2(riskSum / float64(riskCount))
	}
	return Summary{
		Totals:           SummaryTotals{Tasks: total, Completed: completed},
		Percentages:      SummaryPercentages{CompletedOnTime: pctOnTime, CompletedLate: pctLate},
		TotalCostOverrun: round2(overrun),
		AverageRisk:      avgRisk,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
