package model

import "time"

const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"

	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"

	DefaultCategory = "General"
)

// Todo is the persisted to-do item. completed_at is set exactly when
// completed is true.
type Todo struct {
	ID          int        `json:"id"`
	Task        string     `json:"task"`
	Completed   bool       `json:"completed"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Recurrence  string     `json:"recurrence"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

func ValidPriority(p string) bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

func ValidRecurrence(r string) bool {
	return r == RecurrenceNone || r == RecurrenceDaily ||
		r == RecurrenceWeekly || r == RecurrenceMonthly
}

// Overdue reports whether the todo has a past due date and is not done.
// A todo without a due date is never overdue.
func (t Todo) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}
