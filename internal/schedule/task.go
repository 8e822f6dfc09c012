// File path: internal/schedule/task.go
package schedule

import (
	"fmt"
	"time"
)

// Status is the automatic per-task state derived from the planned and actual
// dates. The labels are the exact values the workbook template and the front
// end use; consumers must read them (and the palette) from here instead of
// hardcoding their own.
type Status string

const (
	StatusCompletedOnTime Status = "Completada a tiempo"
	StatusCompletedEarly  Status = "Completada anticipadamente"
	StatusCompletedLate   Status = "Completada con retraso"
	StatusOnTime          Status = "En progreso (a tiempo)"
	StatusBehind          Status = "En progreso (atrasada)"
	StatusPending         Status = "Pendiente"
)

var statusColors = map[Status]string{
	StatusCompletedOnTime: "#2ecc71",
	StatusCompletedEarly:  "#f1c40f",
	StatusCompletedLate:   "#e74c3c",
	StatusOnTime:          "#e67e22",
	StatusBehind:          "#c0392b",
	StatusPending:         "#ecf0f1",
}

var statusOrder = []Status{
	StatusCompletedOnTime,
	StatusCompletedEarly,
	StatusCompletedLate,
	StatusOnTime,
	StatusBehind,
	StatusPending,
}

// Statuses returns every status in display order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// StatusColors returns the fixed status-to-color palette.
func StatusColors() map[Status]string {
	out := make(map[Status]string, len(statusColors))
	for k, v := range statusColors {
		out[k] = v
	}
	return out
}

// Completed reports whether the status represents a finished task.
func (s Status) Completed() bool {
	switch s {
	case StatusCompletedOnTime, StatusCompletedEarly, StatusCompletedLate:
		return true
	}
	return false
}

// Date is a calendar date with no time-of-day component, stored at UTC
// midnight. A nil *Date means "absent" throughout the package.
type Date struct {
	t time.Time
}

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar date in the instant's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Today returns the current calendar date in the given zone.
func Today(loc *time.Location) Date {
	return DateOf(time.Now().In(loc))
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

// DaysSince returns the signed number of whole days from other to d.
func (d Date) DaysSince(other Date) int {
	return int(d.t.Sub(other.t) / (24 * time.Hour))
}

func (d Date) String() string { return d.t.Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed := ParseDate(s[1 : len(s)-1])
	if parsed == nil {
		return fmt.Errorf("invalid date %s", s)
	}
	*d = *parsed
	return nil
}

// Task is one fully-typed row of the schedule. Raw fields come straight from
// coercion; the derived fields are recomputed on every Derive call and never
// trusted from input.
type Task struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	PlannedStart  *Date `json:"planned_start"`
	PlannedFinish *Date `json:"planned_finish"`
	ActualStart   *Date `json:"actual_start"`
	ActualFinish  *Date `json:"actual_finish"`

	PredecessorExpr string `json:"predecessor_expr"`

	Phase           string   `json:"phase"`
	PlannedDuration *float64 `json:"planned_duration"`
	PlannedCost     *float64 `json:"planned_cost"`
	DelayRisk       *float64 `json:"delay_risk"`
	ManualStatus    string   `json:"manual_status"`
	ManualDuration  *float64 `json:"manual_duration"`
	Progress        *float64 `json:"progress"`
	ActualCost      *float64 `json:"actual_cost"`
	ManualDelay     *float64 `json:"manual_delay"`
	ManualOverrun   *float64 `json:"manual_overrun"`
	DelayCause      string   `json:"delay_cause"`
	Notes           string   `json:"notes"`
	DelayDaysInput  *float64 `json:"delay_days_input"`
	BufferDays      *float64 `json:"buffer_days"`

	AutoStatus    Status   `json:"auto_status"`
	AutoDelayDays int      `json:"auto_delay_days"`
	RealDuration  *float64 `json:"real_duration"`
	CostOverrun   *float64 `json:"cost_overrun"`
	ProgressNorm  *float64 `json:"progress_norm"`
	ProgressCum   float64  `json:"progress_cum"`
	Predecessors  []string `json:"predecessors"`
}
