package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"todoservice/internal/model"
	"todoservice/internal/repository"
	"todoservice/internal/repository/memory"
)

type fakePublisher struct {
	published []string
	fail      bool
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	if f.fail {
		return errors.New("broker down")
	}
	f.published = append(f.published, routingKey)
	return nil
}

func newTodoService(t *testing.T) (*TodoService, *memory.Store, *fakePublisher) {
	t.Helper()
	store := memory.New()
	pub := &fakePublisher{}
	return NewTodoService(store, pub, zap.NewNop()), store, pub
}

func TestTodoServiceCreate_Validation(t *testing.T) {
	svc, _, _ := newTodoService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateTodoInput
		want error
	}{
		{"empty task", CreateTodoInput{Task: ""}, ErrEmptyTask},
		{"whitespace task", CreateTodoInput{Task: "   "}, ErrEmptyTask},
		{"bad priority", CreateTodoInput{Task: "x", Priority: "Urgent"}, ErrInvalidPriority},
		{"bad recurrence", CreateTodoInput{Task: "x", Recurrence: "hourly"}, ErrInvalidRecurrence},
		{"bad due date", CreateTodoInput{Task: "x", DueDate: "tomorrow"}, ErrInvalidDueDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	todos, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 0 {
		t.Fatalf("validation failures must not touch storage, got %d todos", len(todos))
	}
}

func TestTodoServiceCreate_Defaults(t *testing.T) {
	svc, _, pub := newTodoService(t)

	created, err := svc.Create(context.Background(), CreateTodoInput{Task: "  Buy milk  "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Task != "Buy milk" {
		t.Fatalf("expected trimmed task, got %q", created.Task)
	}
	if created.Category != model.DefaultCategory {
		t.Fatalf("expected default category, got %q", created.Category)
	}
	if created.Priority != model.PriorityMedium {
		t.Fatalf("expected default priority, got %q", created.Priority)
	}
	if created.Recurrence != model.RecurrenceNone {
		t.Fatalf("expected default recurrence, got %q", created.Recurrence)
	}
	if created.Completed || created.CompletedAt != nil {
		t.Fatalf("new todo must be pending, got completed=%v completed_at=%v",
			created.Completed, created.CompletedAt)
	}
	if len(pub.published) != 1 || pub.published[0] != "todo.created" {
		t.Fatalf("expected todo.created event, got %v", pub.published)
	}
}

func TestTodoServiceCreate_ParsesDueDate(t *testing.T) {
	svc, _, _ := newTodoService(t)

	created, err := svc.Create(context.Background(), CreateTodoInput{
		Task:    "dated",
		DueDate: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if created.DueDate == nil || !created.DueDate.Equal(want) {
		t.Fatalf("expected due date %v, got %v", want, created.DueDate)
	}

	created, err = svc.Create(context.Background(), CreateTodoInput{
		Task:    "dated rfc3339",
		DueDate: "2026-09-01T15:04:05+02:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want = time.Date(2026, 9, 1, 13, 4, 5, 0, time.UTC)
	if created.DueDate == nil || !created.DueDate.Equal(want) {
		t.Fatalf("expected due date %v, got %v", want, created.DueDate)
	}
}

func TestTodoServiceToggle_EvenNumberRestoresState(t *testing.T) {
	svc, _, pub := newTodoService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTodoInput{Task: "flip me"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	toggled, err := svc.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !toggled.Completed || toggled.CompletedAt == nil {
		t.Fatalf("expected completed with completed_at set, got %+v", toggled)
	}

	toggled, err = svc.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if toggled.Completed || toggled.CompletedAt != nil {
		t.Fatalf("expected pending with completed_at cleared, got %+v", toggled)
	}

	// only the false->true flip publishes
	var completedEvents int
	for _, key := range pub.published {
		if key == "todo.completed" {
			completedEvents++
		}
	}
	if completedEvents != 1 {
		t.Fatalf("expected 1 todo.completed event, got %d", completedEvents)
	}
}

func TestTodoServiceToggle_NotFound(t *testing.T) {
	svc, _, _ := newTodoService(t)
	if _, err := svc.Toggle(context.Background(), 42); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTodoServiceDelete_SecondCallFails(t *testing.T) {
	svc, _, _ := newTodoService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateTodoInput{Task: "ephemeral"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := svc.Delete(ctx, 42); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestTodoServicePublish_BrokerFailureDoesNotFailRequest(t *testing.T) {
	store := memory.New()
	pub := &fakePublisher{fail: true}
	svc := NewTodoService(store, pub, zap.NewNop())

	created, err := svc.Create(context.Background(), CreateTodoInput{Task: "still works"})
	if err != nil {
		t.Fatalf("create should not fail on publish error: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected created todo, got %+v", created)
	}
}

func TestTodoServiceCategories(t *testing.T) {
	svc, _, _ := newTodoService(t)
	ctx := context.Background()

	for _, c := range []string{"Work", "Shopping", "Work"} {
		if _, err := svc.Create(ctx, CreateTodoInput{Task: "t", Category: c}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	categories, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(categories) != 2 || categories[0] != "Shopping" || categories[1] != "Work" {
		t.Fatalf("expected [Shopping Work], got %v", categories)
	}
}
