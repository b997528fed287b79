package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"todo-api/internal/model"
)

func strPtr(s string) *string { return &s }

func mustCreate(t *testing.T, repo *MemoryTodoRepository, title string) *model.Todo {
	t.Helper()

	todo, err := repo.Create(context.Background(), &model.CreateTodoRequest{Title: title})
	if err != nil {
		t.Fatalf("failed to prepare todo: %v", err)
	}
	return todo
}

func TestMemoryCreate_AssignsStoreState(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	todo := mustCreate(t, repo, "first")

	if todo.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if todo.Description != nil {
		t.Fatalf("expected nil description, got %q", *todo.Description)
	}
	if todo.IsCompleted {
		t.Fatal("expected is_completed false at creation")
	}
	if !todo.CreatedAt.Equal(todo.UpdatedAt) {
		t.Fatalf("expected created_at == updated_at at creation, got %v / %v", todo.CreatedAt, todo.UpdatedAt)
	}
}

func TestMemoryList_OrderAndPagination(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	for i := 0; i < 5; i++ {
		mustCreate(t, repo, "todo")
		time.Sleep(time.Millisecond)
	}

	pageOne, err := repo.List(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	pageTwo, err := repo.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	seen := map[int64]bool{}
	for _, todo := range append(pageOne, pageTwo...) {
		if seen[todo.ID] {
			t.Fatalf("pages overlap on id %d", todo.ID)
		}
		seen[todo.ID] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct ids across pages, got %d", len(seen))
	}

	for _, page := range [][]model.Todo{pageOne, pageTwo} {
		for i := 1; i < len(page); i++ {
			if page[i].CreatedAt.After(page[i-1].CreatedAt) {
				t.Fatal("expected descending creation order")
			}
		}
	}
}

func TestMemoryList_OffsetPastEnd(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	mustCreate(t, repo, "only")

	todos, err := repo.List(context.Background(), 10, 50)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(todos) != 0 {
		t.Fatalf("expected empty page, got %d items", len(todos))
	}
}

func TestMemoryUpdate_PartialFields(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	created, err := repo.Create(context.Background(), &model.CreateTodoRequest{
		Title:       "original",
		Description: strPtr("keep me"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	time.Sleep(time.Millisecond)

	done := true
	updated, err := repo.Update(context.Background(), created.ID, &model.UpdateTodoRequest{IsCompleted: &done})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.Title != "original" {
		t.Fatalf("title changed: %q", updated.Title)
	}
	if updated.Description == nil || *updated.Description != "keep me" {
		t.Fatal("description changed")
	}
	if !updated.IsCompleted {
		t.Fatal("is_completed not applied")
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if updated.CreatedAt.After(updated.UpdatedAt) {
		t.Fatal("created_at must not exceed updated_at")
	}
}

func TestMemoryDelete_AbsentID(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	todo := mustCreate(t, repo, "gone soon")

	if err := repo.Delete(context.Background(), todo.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := repo.Delete(context.Background(), todo.ID); !errors.Is(err, model.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
	if _, err := repo.Get(context.Background(), todo.ID); !errors.Is(err, model.ErrTodoNotFound) {
		t.Fatalf("expected ErrTodoNotFound, got %v", err)
	}
}

func TestMemoryGet_ReturnsCopy(t *testing.T) {
	t.Parallel()

	repo := NewMemoryTodoRepository()
	created, err := repo.Create(context.Background(), &model.CreateTodoRequest{
		Title:       "stable",
		Description: strPtr("original"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first, err := repo.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	first.Title = "mutated"
	*first.Description = "mutated"

	second, err := repo.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if second.Title != "stable" || *second.Description != "original" {
		t.Fatal("stored record was mutated through a returned pointer")
	}
}
