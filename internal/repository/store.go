package repository

import (
	"context"

	"todoservice/internal/model"
)

// Store is the persistence contract for todos. Timestamps are stored
// and returned in UTC.
type Store interface {
	Insert(ctx context.Context, t model.Todo) (model.Todo, error)
	ListAll(ctx context.Context) ([]model.Todo, error)
	GetByID(ctx context.Context, id int) (model.Todo, error)
	ToggleCompletion(ctx context.Context, id int) (model.Todo, error)
	Delete(ctx context.Context, id int) error
	DistinctCategories(ctx context.Context) ([]string, error)
}
