package mq

import "time"

// Routing keys for todo lifecycle events.
const (
	TodoCreatedKey   = "todo.created"
	TodoCompletedKey = "todo.completed"
	TodoDeletedKey   = "todo.deleted"
)

type TodoCreatedPayload struct {
	TodoID    int       `json:"todo_id"`
	Task      string    `json:"task"`
	Category  string    `json:"category"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoCompletedPayload is emitted on a false->true completion flip. The
// recurrence worker uses it to insert the next occurrence.
type TodoCompletedPayload struct {
	TodoID      int        `json:"todo_id"`
	Task        string     `json:"task"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Recurrence  string     `json:"recurrence"`
	DueDate     *time.Time `json:"due_date"`
	CompletedAt time.Time  `json:"completed_at"`
}

type TodoDeletedPayload struct {
	TodoID int `json:"todo_id"`
}
