package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"todo-api/internal/model"
)

var tracer = otel.Tracer("todo-api/internal/repository")

// TodoRepository is the persistence gateway for todos. Absence of a
// record surfaces as model.ErrTodoNotFound, never a nil result.
type TodoRepository interface {
	List(ctx context.Context, limit, offset int) ([]model.Todo, error)
	Count(ctx context.Context) (int64, error)
	Get(ctx context.Context, id int64) (*model.Todo, error)
	Create(ctx context.Context, req *model.CreateTodoRequest) (*model.Todo, error)
	Update(ctx context.Context, id int64, req *model.UpdateTodoRequest) (*model.Todo, error)
	Delete(ctx context.Context, id int64) error
}

const todoColumns = "id, title, description, is_completed, created_at, updated_at"

// PostgresTodoRepository stores todos in a Postgres table. Each call
// runs as its own implicit transaction against the pool.
type PostgresTodoRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTodoRepository creates a PostgresTodoRepository.
func NewPostgresTodoRepository(pool *pgxpool.Pool) *PostgresTodoRepository {
	return &PostgresTodoRepository{pool: pool}
}

// List returns todos ordered by creation time, most recent first.
func (r *PostgresTodoRepository) List(ctx context.Context, limit, offset int) ([]model.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoRepository.List",
		trace.WithAttributes(
			attribute.Int("todo.limit", limit),
			attribute.Int("todo.offset", offset),
		),
	)
	defer span.End()

	const q = `
		SELECT ` + todoColumns + `
		FROM todos
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0, limit)
	for rows.Next() {
		var t model.Todo
		if err := scanTodo(rows, &t); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))
	return todos, nil
}

// Count returns the total number of rows independent of pagination.
func (r *PostgresTodoRepository) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "TodoRepository.Count")
	defer span.End()

	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(id) FROM todos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count todos: %w", err)
	}
	return n, nil
}

// Get performs a point lookup by primary key.
func (r *PostgresTodoRepository) Get(ctx context.Context, id int64) (*model.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoRepository.Get",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	const q = `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`

	var t model.Todo
	if err := scanTodo(r.pool.QueryRow(ctx, q, id), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetAttributes(attribute.Bool("todo.found", false))
			return nil, model.ErrTodoNotFound
		}
		return nil, fmt.Errorf("get todo: %w", err)
	}

	span.SetAttributes(attribute.Bool("todo.found", true))
	return &t, nil
}

// Create inserts a new row. The returned record reflects post-commit
// state including the server-assigned id and timestamps.
func (r *PostgresTodoRepository) Create(ctx context.Context, req *model.CreateTodoRequest) (*model.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoRepository.Create",
		trace.WithAttributes(attribute.String("todo.title", req.Title)),
	)
	defer span.End()

	const q = `
		INSERT INTO todos (title, description)
		VALUES ($1, $2)
		RETURNING ` + todoColumns

	var t model.Todo
	if err := scanTodo(r.pool.QueryRow(ctx, q, req.Title, req.Description), &t); err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}

	span.SetAttributes(attribute.Int64("todo.id", t.ID))
	return &t, nil
}

// updatableColumns is the allow-list for partial updates. Fields not
// named here can never be overwritten through Update.
var updatableColumns = [...]struct {
	column string
	value  func(req *model.UpdateTodoRequest) (any, bool)
}{
	{"title", func(req *model.UpdateTodoRequest) (any, bool) {
		if req.Title == nil {
			return nil, false
		}
		return *req.Title, true
	}},
	{"description", func(req *model.UpdateTodoRequest) (any, bool) {
		if req.Description == nil {
			return nil, false
		}
		return *req.Description, true
	}},
	{"is_completed", func(req *model.UpdateTodoRequest) (any, bool) {
		if req.IsCompleted == nil {
			return nil, false
		}
		return *req.IsCompleted, true
	}},
}

// Update applies only the fields present in the request and refreshes
// updated_at. Unset fields are left untouched.
func (r *PostgresTodoRepository) Update(ctx context.Context, id int64, req *model.UpdateTodoRequest) (*model.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoRepository.Update",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	var (
		sb   strings.Builder
		args []any
	)
	args = append(args, id)

	sb.WriteString("UPDATE todos SET updated_at = now()")
	for _, c := range updatableColumns {
		v, ok := c.value(req)
		if !ok {
			continue
		}
		args = append(args, v)
		fmt.Fprintf(&sb, ", %s = $%d", c.column, len(args))
	}
	sb.WriteString(" WHERE id = $1 RETURNING " + todoColumns)

	var t model.Todo
	if err := scanTodo(r.pool.QueryRow(ctx, sb.String(), args...), &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetAttributes(attribute.Bool("todo.found", false))
			return nil, model.ErrTodoNotFound
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}

	span.SetAttributes(attribute.Bool("todo.found", true))
	return &t, nil
}

// Delete removes the row physically. Deleting an absent record
// returns model.ErrTodoNotFound.
func (r *PostgresTodoRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "TodoRepository.Delete",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetAttributes(attribute.Bool("todo.found", false))
		return model.ErrTodoNotFound
	}

	span.SetAttributes(attribute.Bool("todo.found", true))
	return nil
}

func scanTodo(row pgx.Row, t *model.Todo) error {
	return row.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
}
