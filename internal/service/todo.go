package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"todo-api/internal/model"
	"todo-api/internal/repository"
)

var tracer = otel.Tracer("todo-api/internal/service")

// TodoService bridges validated input to the persistence gateway. It
// is the single place that turns record absence into the not-found
// signal; every other error passes through unchanged.
type TodoService struct {
	repo   repository.TodoRepository
	logger *slog.Logger
}

// NewTodoService creates a TodoService.
func NewTodoService(repo repository.TodoRepository, logger *slog.Logger) *TodoService {
	return &TodoService{
		repo:   repo,
		logger: logger,
	}
}

// ListTodos returns a page of todos plus pagination metadata.
func (s *TodoService) ListTodos(ctx context.Context, limit, offset int) (*model.TodoList, error) {
	ctx, span := tracer.Start(ctx, "TodoService.ListTodos",
		trace.WithAttributes(
			attribute.Int("todo.limit", limit),
			attribute.Int("todo.offset", offset),
		),
	)
	defer span.End()

	todos, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "todos listed", slog.Int("count", len(todos)), slog.Int64("total", total))

	return &model.TodoList{
		Items:  todos,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// GetTodo returns the todo with the given id, or model.ErrTodoNotFound.
func (s *TodoService) GetTodo(ctx context.Context, id int64) (*model.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.GetTodo",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	return s.repo.Get(ctx, id)
}

// CreateTodo persists a new todo from a validated request.
func (s *TodoService) CreateTodo(ctx context.Context, req *model.CreateTodoRequest) (*model.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.CreateTodo")
	defer span.End()

	todo, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("todo.id", todo.ID))
	s.logger.InfoContext(ctx, "todo created", slog.Int64("id", todo.ID), slog.String("title", todo.Title))
	return todo, nil
}

// UpdateTodo applies a partial update to an existing todo. The
// existence check and the mutation are separate statements; a
// concurrent delete between them surfaces as not-found from the
// gateway.
func (s *TodoService) UpdateTodo(ctx context.Context, id int64, req *model.UpdateTodoRequest) (*model.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.UpdateTodo",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	todo, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "todo updated", slog.Int64("id", id))
	return todo, nil
}

// DeleteTodo removes an existing todo. A second delete of the same id
// returns not-found; deletion is not silently idempotent.
func (s *TodoService) DeleteTodo(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "TodoService.DeleteTodo",
		trace.WithAttributes(attribute.Int64("todo.id", id)),
	)
	defer span.End()

	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "todo deleted", slog.Int64("id", id))
	return nil
}
