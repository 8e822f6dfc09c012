// File path: internal/schedule/derive.go
package schedule

import (
	"sort"
	"strings"

	"github.com/jvaldebenito/cronoplan/internal/common"
)

// Table is a fully coerced and derived schedule, rows in schedule order.
type Table struct {
	Tasks []Task `json:"tasks"`
}

// Derive runs the whole pipeline on a raw table: header normalization,
// required-column validation, type coercion, per-task derivation, schedule
// ordering and cumulative progress. today is the as-of date every time
// comparison uses, passed explicitly so derivation stays a pure function of
// (raw table, as-of date).
//
// Either the whole table derives or the call fails with a
// *MissingColumnsError; no partial output is ever produced.
func Derive(rows []Row, today Date) (*Table, error) {
	normalized := NormalizeColumns(rows)
	if missing := ValidateColumns(normalized); missing != nil {
		return nil, missing
	}
	tasks := coerce(normalized)
	warnDuplicateIDs(tasks)
	for i := range tasks {
		deriveTask(&tasks[i], today)
	}
	sortSchedule(tasks)
	accumulateProgress(tasks)
	return &Table{Tasks: tasks}, nil
}

// coerce applies the tolerant parsers across the required and optional
// columns, producing typed tasks. Unknown columns (including stale derived
// ones sent back by the table UI) are ignored; absent optional columns read
// as their defaults.
func coerce(rows []Row) []Task {
	tasks := make([]Task, len(rows))
	for i, row := range rows {
		tasks[i] = Task{
			ID:   strings.TrimSpace(stringify(row[ColID])),
			Name: strings.TrimSpace(stringify(row[ColName])),

			PlannedStart:  ParseDate(row[ColPlannedStart]),
			PlannedFinish: ParseDate(row[ColPlannedFinish]),
			ActualStart:   ParseDate(row[ColActualStart]),
			ActualFinish:  ParseDate(row[ColActualFinish]),

			PredecessorExpr: strings.TrimSpace(stringify(row[ColPredecessor])),

			Phase:           strings.TrimSpace(stringify(row[ColPhase])),
			PlannedDuration: ParseFloat(row[ColPlannedDuration]),
			PlannedCost:     ParseFloat(row[ColPlannedCost]),
			DelayRisk:       ParsePercent(row[ColDelayRisk]),
			ManualStatus:    strings.TrimSpace(stringify(row[ColManualStatus])),
			ManualDuration:  ParseFloat(row[ColManualDuration]),
			Progress:        ParsePercent(row[ColProgress]),
			ActualCost:      ParseFloat(row[ColActualCost]),
			ManualDelay:     ParseFloat(row[ColManualDelay]),
			ManualOverrun:   ParseFloat(row[ColManualOverrun]),
			DelayCause:      strings.TrimSpace(stringify(row[ColDelayCause])),
			Notes:           strings.TrimSpace(stringify(row[ColNotes])),
			DelayDaysInput:  ParseFloat(row[ColDelayDaysInput]),
			BufferDays:      ParseFloat(row[ColBufferDays]),
		}
	}
	return tasks
}

// deriveTask fills every derived field except cumulative progress, which
// needs the final ordering.
func deriveTask(t *Task, today Date) {
	t.AutoStatus = computeStatus(t, today)
	t.AutoDelayDays = delayDays(t, today)
	t.RealDuration = realDuration(t)
	t.CostOverrun = costOverrun(t)
	t.ProgressNorm = clampProgress(t.Progress)
	t.Predecessors = SplitPredecessors(t.PredecessorExpr)
	if t.Predecessors == nil {
		t.Predecessors = []string{}
	}
}

// computeStatus applies the status decision table. The order matters: start
// presence first, then finish presence, then the finish-vs-plan comparison.
func computeStatus(t *Task, today Date) Status {
	if t.ActualStart == nil {
		return StatusPending
	}
	if t.ActualFinish == nil {
		if t.PlannedFinish == nil || !today.After(*t.PlannedFinish) {
			return StatusOnTime
		}
		return StatusBehind
	}
	if t.PlannedFinish != nil {
		switch {
		case t.ActualFinish.Before(*t.PlannedFinish):
			return StatusCompletedEarly
		case t.ActualFinish.Equal(*t.PlannedFinish):
			return StatusCompletedOnTime
		default:
			return StatusCompletedLate
		}
	}
	// No baseline to compare against.
	return StatusCompletedOnTime
}

// delayDays is signed for completed tasks (negative means early) and clamped
// at zero for running ones.
func delayDays(t *Task, today Date) int {
	if t.ActualFinish != nil && t.PlannedFinish != nil {
		return t.ActualFinish.DaysSince(*t.PlannedFinish)
	}
	if t.ActualStart != nil && t.ActualFinish == nil && t.PlannedFinish != nil {
		if d := today.DaysSince(*t.PlannedFinish); d > 0 {
			return d
		}
	}
	return 0
}

// realDuration counts both endpoints (finish - start + 1, floored at one
// day) and falls back to the manually supplied value when the actual dates
// give no basis.
func realDuration(t *Task) *float64 {
	if t.ActualStart != nil && t.ActualFinish != nil {
		days := float64(t.ActualFinish.DaysSince(*t.ActualStart) + 1)
		if days < 1 {
			days = 1
		}
		return &days
	}
	return t.ManualDuration
}

func costOverrun(t *Task) *float64 {
	if t.ActualCost != nil && t.PlannedCost != nil {
		diff := *t.ActualCost - *t.PlannedCost
		return &diff
	}
	return t.ManualOverrun
}

func clampProgress(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return &v
}

// sortSchedule orders tasks by planned finish, falling back to planned start
// when finish is absent; tasks with neither date sort last. Ties break by
// identifier so the order is deterministic.
func sortSchedule(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		ki, oki := sortKey(&tasks[i])
		kj, okj := sortKey(&tasks[j])
		if oki != okj {
			return oki
		}
		if oki && okj && !ki.Equal(kj) {
			return ki.Before(kj)
		}
		return tasks[i].ID < tasks[j].ID
	})
}

func sortKey(t *Task) (Date, bool) {
	if t.PlannedFinish != nil {
		return *t.PlannedFinish, true
	}
	if t.PlannedStart != nil {
		return *t.PlannedStart, true
	}
	return Date{}, false
}

// accumulateProgress runs over tasks in schedule order summing normalized
// progress (absent counts as zero), capping the running total at 100 at
// every step.
func accumulateProgress(tasks []Task) {
	sum := 0.0
	for i := range tasks {
		if tasks[i].ProgressNorm != nil {
			sum += *tasks[i].ProgressNorm
		}
		if sum > 100 {
			sum = 100
		}
		tasks[i].ProgressCum = sum
	}
}

// warnDuplicateIDs logs duplicate identifiers without rejecting the table;
// dirty workbooks keep loading, the log keeps the gap visible.
func warnDuplicateIDs(tasks []Task) {
	seen := make(map[string]int, len(tasks))
	var dups []string
	for _, t := range tasks {
		seen[t.ID]++
		if seen[t.ID] == 2 {
			dups = append(dups, t.ID)
		}
	}
	if len(dups) > 0 {
		common.Logger().Warn("schedule: duplicate task identifiers", "ids", strings.Join(dups, ", "))
	}
}
