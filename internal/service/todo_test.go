package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"todo-api/internal/model"
	"todo-api/internal/repository"
)

func newTestService() *TodoService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewTodoService(repository.NewMemoryTodoRepository(), logger)
}

func strPtr(s string) *string { return &s }

func TestCreateTodo_Defaults(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	todo, err := svc.CreateTodo(context.Background(), &model.CreateTodoRequest{Title: "buy milk"})
	if err != nil {
		t.Fatalf("CreateTodo returned error: %v", err)
	}

	if todo.Description != nil {
		t.Fatalf("expected nil description, got %q", *todo.Description)
	}
	if todo.IsCompleted {
		t.Fatal("expected is_completed false")
	}
	if !todo.CreatedAt.Equal(todo.UpdatedAt) {
		t.Fatal("expected created_at == updated_at at creation")
	}
}

func TestGetTodo_AfterCreate(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	created, err := svc.CreateTodo(context.Background(), &model.CreateTodoRequest{
		Title:       "read the docs",
		Description: strPtr("chapter four of the handbook"),
	})
	if err != nil {
		t.Fatalf("CreateTodo returned error: %v", err)
	}

	got, err := svc.GetTodo(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetTodo returned error: %v", err)
	}
	if got.ID != created.ID || got.Title != "read the docs" || *got.Description != "chapter four of the handbook" {
		t.Fatalf("record does not match input: %+v", got)
	}
}

func TestGetTodo_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	_, err := svc.GetTodo(context.Background(), 12345)
	if !errors.Is(err, model.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

func TestUpdateTodo_CompletionOnly(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	created, err := svc.CreateTodo(context.Background(), &model.CreateTodoRequest{
		Title:       "water plants",
		Description: strPtr("balcony first"),
	})
	if err != nil {
		t.Fatalf("CreateTodo returned error: %v", err)
	}

	time.Sleep(time.Millisecond)

	done := true
	updated, err := svc.UpdateTodo(context.Background(), created.ID, &model.UpdateTodoRequest{IsCompleted: &done})
	if err != nil {
		t.Fatalf("UpdateTodo returned error: %v", err)
	}

	if updated.Title != created.Title {
		t.Fatalf("title changed: %q", updated.Title)
	}
	if *updated.Description != *created.Description {
		t.Fatal("description changed")
	}
	if !updated.IsCompleted {
		t.Fatal("completion not applied")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatal("expected updated_at strictly later than before")
	}
}

func TestUpdateTodo_NotFound(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	title := "no home"
	_, err := svc.UpdateTodo(context.Background(), 404, &model.UpdateTodoRequest{Title: &title})
	if !errors.Is(err, model.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

func TestDeleteTodo_SecondDeleteFails(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	created, err := svc.CreateTodo(context.Background(), &model.CreateTodoRequest{Title: "short lived"})
	if err != nil {
		t.Fatalf("CreateTodo returned error: %v", err)
	}

	if err := svc.DeleteTodo(context.Background(), created.ID); err != nil {
		t.Fatalf("DeleteTodo returned error: %v", err)
	}
	if _, err := svc.GetTodo(context.Background(), created.ID); !errors.Is(err, model.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound after delete, got %v", err)
	}
	if err := svc.DeleteTodo(context.Background(), created.ID); !errors.Is(err, model.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound on second delete, got %v", err)
	}
}

func TestListTodos_PaginationMetadata(t *testing.T) {
	t.Parallel()

	svc := newTestService()
	for i := 0; i < 5; i++ {
		if _, err := svc.CreateTodo(context.Background(), &model.CreateTodoRequest{Title: "item"}); err != nil {
			t.Fatalf("CreateTodo returned error: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	pageOne, err := svc.ListTodos(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("ListTodos returned error: %v", err)
	}
	pageTwo, err := svc.ListTodos(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("ListTodos returned error: %v", err)
	}

	if pageOne.Total != 5 || pageTwo.Total != 5 {
		t.Fatalf("expected total 5, got %d / %d", pageOne.Total, pageTwo.Total)
	}
	if pageOne.Limit != 2 || pageOne.Offset != 0 || pageTwo.Offset != 2 {
		t.Fatal("pagination metadata does not echo the request")
	}

	seen := map[int64]bool{}
	for _, todo := range append(pageOne.Items, pageTwo.Items...) {
		if seen[todo.ID] {
			t.Fatalf("pages overlap on id %d", todo.ID)
		}
		seen[todo.ID] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected union of 4 distinct ids, got %d", len(seen))
	}
}

func TestCreateTodo_ConcurrentDistinctIDs(t *testing.T) {
	t.Parallel()

	svc := newTestService()

	const n = 5
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[int64]bool, n)
	)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			todo, err := svc.CreateTodo(context.Background(), &model.CreateTodoRequest{Title: "concurrent"})
			if err != nil {
				t.Errorf("CreateTodo returned error: %v", err)
				return
			}
			mu.Lock()
			ids[todo.ID] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != n {
		t.Fatalf("expected %d distinct ids, got %d", n, len(ids))
	}
}
