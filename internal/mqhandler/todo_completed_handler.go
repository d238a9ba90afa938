package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"todoservice/internal/model"
	"todoservice/internal/mq"
	"todoservice/internal/repository"
	"todoservice/pkg/metrics"
)

// Deduper guards against redelivered events. pkg/util.Deduper
// implements it on redis.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler, key string) bool
}

// TodoCompletedHandler consumes todo.completed events and inserts the
// next occurrence for recurring todos.
type TodoCompletedHandler struct {
	store   repository.Store
	deduper Deduper
	logger  *zap.Logger
}

func NewTodoCompletedHandler(store repository.Store, deduper Deduper, logger *zap.Logger) *TodoCompletedHandler {
	return &TodoCompletedHandler{
		store:   store,
		deduper: deduper,
		logger:  logger,
	}
}

func (h *TodoCompletedHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mq.TodoCompletedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal todo completed payload", zap.Error(err))
		return err
	}

	if p.Recurrence == "" || p.Recurrence == model.RecurrenceNone {
		return nil
	}
	if !model.ValidRecurrence(p.Recurrence) {
		h.logger.Warn("Ignoring unknown recurrence",
			zap.Int("todo_id", p.TodoID),
			zap.String("recurrence", p.Recurrence),
		)
		return nil
	}

	// one regeneration per completion, even when MQ redelivers
	dedupKey := fmt.Sprintf("%d:%d", p.TodoID, p.CompletedAt.Unix())
	if h.deduper != nil && !h.deduper.AcquireOnce(ctx, "recurrence", dedupKey) {
		h.logger.Debug("Duplicate todo completed event, skipping",
			zap.Int("todo_id", p.TodoID),
		)
		return nil
	}

	next := model.Todo{
		Task:       p.Task,
		Category:   p.Category,
		Priority:   p.Priority,
		Recurrence: p.Recurrence,
		DueDate:    NextDueDate(p.Recurrence, p.DueDate, p.CompletedAt),
	}

	created, err := h.store.Insert(ctx, next)
	if err != nil {
		h.logger.Error("Failed to insert next occurrence",
			zap.Int("todo_id", p.TodoID),
			zap.Error(err),
		)
		return err
	}

	metrics.IncrementTodoMutation("recur")
	h.logger.Info("Next occurrence created",
		zap.Int("todo_id", p.TodoID),
		zap.Int("next_id", created.ID),
		zap.String("recurrence", p.Recurrence),
	)
	return nil
}

// NextDueDate advances the due date by one recurrence interval. When
// the completed todo had no due date, the interval is counted from the
// completion time.
func NextDueDate(recurrence string, dueDate *time.Time, completedAt time.Time) *time.Time {
	base := completedAt
	if dueDate != nil {
		base = *dueDate
	}
	var next time.Time
	switch recurrence {
	case model.RecurrenceDaily:
		next = base.AddDate(0, 0, 1)
	case model.RecurrenceWeekly:
		next = base.AddDate(0, 0, 7)
	case model.RecurrenceMonthly:
		next = base.AddDate(0, 1, 0)
	default:
		return nil
	}
	return &next
}
