package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"todoservice/internal/model"
	"todoservice/internal/mq"
	"todoservice/internal/repository"
	"todoservice/pkg/circuitbreaker"
	"todoservice/pkg/metrics"
)

var (
	ErrEmptyTask         = errors.New("task is required")
	ErrInvalidPriority   = errors.New("priority must be High, Medium or Low")
	ErrInvalidRecurrence = errors.New("recurrence must be none, daily, weekly or monthly")
	ErrInvalidDueDate    = errors.New("due_date must be RFC3339 or YYYY-MM-DD")
)

// Publisher emits todo lifecycle events. pkg/mq.Publisher implements it.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

type CreateTodoInput struct {
	Task       string `json:"task"`
	Category   string `json:"category"`
	Priority   string `json:"priority"`
	Recurrence string `json:"recurrence"`
	DueDate    string `json:"due_date"`
}

// TodoService validates input and orchestrates the store and the event
// publisher. Every mutation returns the row as re-read from storage.
type TodoService struct {
	store     repository.Store
	publisher Publisher
	breaker   *circuitbreaker.CircuitBreaker
	logger    *zap.Logger
}

func NewTodoService(store repository.Store, publisher Publisher, logger *zap.Logger) *TodoService {
	return &TodoService{
		store:     store,
		publisher: publisher,
		breaker:   circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()),
		logger:    logger,
	}
}

func (s *TodoService) Create(ctx context.Context, in CreateTodoInput) (model.Todo, error) {
	task := strings.TrimSpace(in.Task)
	if task == "" {
		return model.Todo{}, ErrEmptyTask
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return model.Todo{}, ErrInvalidPriority
	}

	recurrence := in.Recurrence
	if recurrence == "" {
		recurrence = model.RecurrenceNone
	}
	if !model.ValidRecurrence(recurrence) {
		return model.Todo{}, ErrInvalidRecurrence
	}

	dueDate, err := parseDueDate(in.DueDate)
	if err != nil {
		return model.Todo{}, err
	}

	created, err := s.store.Insert(ctx, model.Todo{
		Task:       task,
		Category:   category,
		Priority:   priority,
		Recurrence: recurrence,
		DueDate:    dueDate,
	})
	if err != nil {
		return model.Todo{}, fmt.Errorf("insert todo: %w", err)
	}

	metrics.IncrementTodoMutation("create")
	s.publish(mq.TodoCreatedKey, mq.TodoCreatedPayload{
		TodoID:    created.ID,
		Task:      created.Task,
		Category:  created.Category,
		Priority:  created.Priority,
		CreatedAt: created.CreatedAt,
	})
	return created, nil
}

func (s *TodoService) List(ctx context.Context) ([]model.Todo, error) {
	return s.store.ListAll(ctx)
}

func (s *TodoService) Get(ctx context.Context, id int) (model.Todo, error) {
	return s.store.GetByID(ctx, id)
}

// Toggle flips the completion state. A false->true flip with a
// recurrence set is announced so the worker can insert the next
// occurrence.
func (s *TodoService) Toggle(ctx context.Context, id int) (model.Todo, error) {
	t, err := s.store.ToggleCompletion(ctx, id)
	if err != nil {
		return model.Todo{}, err
	}

	metrics.IncrementTodoMutation("toggle")
	if t.Completed && t.CompletedAt != nil {
		s.publish(mq.TodoCompletedKey, mq.TodoCompletedPayload{
			TodoID:      t.ID,
			Task:        t.Task,
			Category:    t.Category,
			Priority:    t.Priority,
			Recurrence:  t.Recurrence,
			DueDate:     t.DueDate,
			CompletedAt: *t.CompletedAt,
		})
	}
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id int) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncrementTodoMutation("delete")
	s.publish(mq.TodoDeletedKey, mq.TodoDeletedPayload{TodoID: id})
	return nil
}

func (s *TodoService) Categories(ctx context.Context) ([]string, error) {
	return s.store.DistinctCategories(ctx)
}

// publish is best-effort: a broker failure is logged and counted, never
// surfaced to the caller. The breaker keeps a dead broker off the
// request path.
func (s *TodoService) publish(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	err := s.breaker.Execute(func() error {
		return s.publisher.Publish(routingKey, payload)
	})
	if err != nil {
		metrics.IncrementMQPublish(routingKey, "failed")
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return
	}
	metrics.IncrementMQPublish(routingKey, "success")
}

func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	return nil, ErrInvalidDueDate
}
