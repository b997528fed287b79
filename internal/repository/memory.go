package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"todo-api/internal/model"
)

// MemoryTodoRepository keeps todos in process memory. It backs the
// test suites and local development without a database, and honors
// the same contract as the Postgres gateway: ids are assigned by the
// store, timestamps are store-managed, absence is ErrTodoNotFound.
type MemoryTodoRepository struct {
	mu     sync.RWMutex
	nextID int64
	todos  map[int64]model.Todo
}

// NewMemoryTodoRepository creates an empty MemoryTodoRepository.
func NewMemoryTodoRepository() *MemoryTodoRepository {
	return &MemoryTodoRepository{
		nextID: 1,
		todos:  make(map[int64]model.Todo),
	}
}

// List returns todos ordered by creation time, most recent first.
func (r *MemoryTodoRepository) List(ctx context.Context, limit, offset int) ([]model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]model.Todo, 0, len(r.todos))
	for _, t := range r.todos {
		all = append(all, cloneTodo(t))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if offset >= len(all) {
		return []model.Todo{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Count returns the total number of stored todos.
func (r *MemoryTodoRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.todos)), nil
}

// Get performs a point lookup by id.
func (r *MemoryTodoRepository) Get(ctx context.Context, id int64) (*model.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.todos[id]
	if !ok {
		return nil, model.ErrTodoNotFound
	}
	out := cloneTodo(t)
	return &out, nil
}

// Create stores a new todo with an assigned id and timestamps.
func (r *MemoryTodoRepository) Create(ctx context.Context, req *model.CreateTodoRequest) (*model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	t := model.Todo{
		ID:        r.nextID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Description != nil {
		d := *req.Description
		t.Description = &d
	}
	r.nextID++
	r.todos[t.ID] = t

	out := cloneTodo(t)
	return &out, nil
}

// Update applies only the fields present in the request.
func (r *MemoryTodoRepository) Update(ctx context.Context, id int64, req *model.UpdateTodoRequest) (*model.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.todos[id]
	if !ok {
		return nil, model.ErrTodoNotFound
	}

	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		d := *req.Description
		t.Description = &d
	}
	if req.IsCompleted != nil {
		t.IsCompleted = *req.IsCompleted
	}
	t.UpdatedAt = time.Now()
	r.todos[id] = t

	out := cloneTodo(t)
	return &out, nil
}

// Delete removes the todo; an absent id returns ErrTodoNotFound.
func (r *MemoryTodoRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[id]; !ok {
		return model.ErrTodoNotFound
	}
	delete(r.todos, id)
	return nil
}

func cloneTodo(t model.Todo) model.Todo {
	out := t
	if t.Description != nil {
		d := *t.Description
		out.Description = &d
	}
	return out
}
