package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"todoservice/internal/model"
	"todoservice/pkg/metrics"
)

const todoColumns = `id, task, completed, category, priority, recurrence, due_date, created_at, completed_at`

type TodoRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTodoRepository(db *pgxpool.Pool, logger *zap.Logger) *TodoRepository {
	return &TodoRepository{db: db, logger: logger}
}

// EnsureSchema creates the todos table when it does not exist yet.
func (r *TodoRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS todos (
            id           SERIAL PRIMARY KEY,
            task         TEXT NOT NULL,
            completed    BOOLEAN NOT NULL DEFAULT FALSE,
            category     TEXT NOT NULL DEFAULT 'General',
            priority     TEXT NOT NULL DEFAULT 'Medium',
            recurrence   TEXT NOT NULL DEFAULT 'none',
            due_date     TIMESTAMPTZ,
            created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            completed_at TIMESTAMPTZ
        )
    `)
	if err != nil {
		r.logger.Error("Failed to ensure todos schema", zap.Error(err))
		return err
	}
	r.logger.Info("Todos schema ensured")
	return nil
}

func (r *TodoRepository) Insert(ctx context.Context, t model.Todo) (model.Todo, error) {
	r.logger.Debug("Inserting todo",
		zap.String("task", t.Task),
		zap.String("category", t.Category),
		zap.String("priority", t.Priority),
	)
	start := time.Now()
	query := `
        INSERT INTO todos (task, category, priority, recurrence, due_date)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING ` + todoColumns
	row := r.db.QueryRow(ctx, query,
		t.Task,
		t.Category,
		t.Priority,
		t.Recurrence,
		t.DueDate,
	)
	created, err := scanTodo(row)
	metrics.RecordDBQueryDuration("insert", "todos", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to insert todo",
			zap.Error(err),
			zap.String("task", t.Task),
		)
		return model.Todo{}, err
	}
	r.logger.Info("Todo inserted successfully",
		zap.Int("todo_id", created.ID),
		zap.String("category", created.Category),
	)
	return created, nil
}

func (r *TodoRepository) ListAll(ctx context.Context) ([]model.Todo, error) {
	r.logger.Debug("Listing todos")
	start := time.Now()
	query := `
        SELECT ` + todoColumns + `
        FROM todos
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query todos", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			r.logger.Error("Failed to scan todo row", zap.Error(err))
			return nil, err
		}
		todos = append(todos, t)
	}
	metrics.RecordDBQueryDuration("list", "todos", time.Since(start))
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Debug("Todos listed successfully", zap.Int("count", len(todos)))
	return todos, nil
}

func (r *TodoRepository) GetByID(ctx context.Context, id int) (model.Todo, error) {
	start := time.Now()
	query := `
        SELECT ` + todoColumns + `
        FROM todos
        WHERE id = $1
    `
	t, err := scanTodo(r.db.QueryRow(ctx, query, id))
	metrics.RecordDBQueryDuration("get", "todos", time.Since(start))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Todo{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get todo", zap.Error(err), zap.Int("todo_id", id))
		return model.Todo{}, err
	}
	return t, nil
}

// ToggleCompletion flips completed in a single statement. CASE reads the
// pre-update value, so a false->true flip stamps completed_at and a
// true->false flip clears it.
func (r *TodoRepository) ToggleCompletion(ctx context.Context, id int) (model.Todo, error) {
	r.logger.Debug("Toggling todo completion", zap.Int("todo_id", id))
	start := time.Now()
	query := `
        UPDATE todos
        SET completed = NOT completed,
            completed_at = CASE WHEN completed THEN NULL ELSE NOW() END
        WHERE id = $1
        RETURNING ` + todoColumns
	t, err := scanTodo(r.db.QueryRow(ctx, query, id))
	metrics.RecordDBQueryDuration("toggle", "todos", time.Since(start))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Todo{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to toggle todo",
			zap.Error(err),
			zap.Int("todo_id", id),
		)
		return model.Todo{}, err
	}
	r.logger.Info("Todo completion toggled",
		zap.Int("todo_id", t.ID),
		zap.Bool("completed", t.Completed),
	)
	return t, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int) error {
	r.logger.Debug("Deleting todo", zap.Int("todo_id", id))
	start := time.Now()
	result, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	metrics.RecordDBQueryDuration("delete", "todos", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to delete todo",
			zap.Error(err),
			zap.Int("todo_id", id),
		)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	r.logger.Info("Todo deleted successfully", zap.Int("todo_id", id))
	return nil
}

func (r *TodoRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	start := time.Now()
	rows, err := r.db.Query(ctx, `
        SELECT DISTINCT category
        FROM todos
        ORDER BY category
    `)
	if err != nil {
		r.logger.Error("Failed to query categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			r.logger.Error("Failed to scan category row", zap.Error(err))
			return nil, err
		}
		categories = append(categories, c)
	}
	metrics.RecordDBQueryDuration("categories", "todos", time.Since(start))
	return categories, rows.Err()
}

func scanTodo(row pgx.Row) (model.Todo, error) {
	var t model.Todo
	err := row.Scan(
		&t.ID,
		&t.Task,
		&t.Completed,
		&t.Category,
		&t.Priority,
		&t.Recurrence,
		&t.DueDate,
		&t.CreatedAt,
		&t.CompletedAt,
	)
	return t, err
}
