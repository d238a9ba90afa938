package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"todoservice/internal/model"
	"todoservice/internal/repository"
)

// Store is an in-memory todo store. It backs the "memory" storage mode
// and the test suites.
type Store struct {
	mu     sync.Mutex
	todos  map[int]model.Todo
	nextID int
	now    func() time.Time
}

func New() *Store {
	return &Store{
		todos:  make(map[int]model.Todo),
		nextID: 1,
		now:    time.Now,
	}
}

// SetClock replaces the store clock. Tests use this to control
// created_at and completed_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Insert(_ context.Context, t model.Todo) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextID
	s.nextID++
	t.Completed = false
	t.CompletedAt = nil
	t.CreatedAt = s.now().UTC()
	s.todos[t.ID] = t
	return t, nil
}

func (s *Store) ListAll(_ context.Context) ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id int) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return model.Todo{}, repository.ErrNotFound
	}
	return t, nil
}

func (s *Store) ToggleCompletion(_ context.Context, id int) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok {
		return model.Todo{}, repository.ErrNotFound
	}
	t.Completed = !t.Completed
	if t.Completed {
		now := s.now().UTC()
		t.CompletedAt = &now
	} else {
		t.CompletedAt = nil
	}
	s.todos[id] = t
	return t, nil
}

func (s *Store) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.todos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *Store) DistinctCategories(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, t := range s.todos {
		if !seen[t.Category] {
			seen[t.Category] = true
			categories = append(categories, t.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}
