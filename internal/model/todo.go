package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTitleLen bounds the title length in characters after trimming.
	MaxTitleLen = 255
	// MaxDescriptionLen bounds the description length in characters after trimming.
	MaxDescriptionLen = 1024
)

// Todo represents a todo item in the system.
type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TodoList is the paginated list response.
type TodoList struct {
	Items  []Todo `json:"items"`
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// CreateTodoRequest represents the request body for creating a todo.
type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

// UpdateTodoRequest represents the request body for updating a todo.
// Nil fields are left untouched by the update.
type UpdateTodoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsCompleted *bool   `json:"is_completed"`
}

// Validate normalizes the request in place and checks its contract.
// Trimming happens before the length and emptiness checks.
func (r *CreateTodoRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return &ValidationError{Field: "title", Message: "must not be empty or whitespace"}
	}
	if utf8.RuneCountInString(r.Title) > MaxTitleLen {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLen)}
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if utf8.RuneCountInString(d) > MaxDescriptionLen {
			return &ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", MaxDescriptionLen)}
		}
		r.Description = &d
	}
	return nil
}

// Validate normalizes the request in place and checks its contract.
// A supplied title must be non-empty after trimming; a supplied
// description may be empty.
func (r *UpdateTodoRequest) Validate() error {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if t == "" {
			return &ValidationError{Field: "title", Message: "must not be empty or whitespace"}
		}
		if utf8.RuneCountInString(t) > MaxTitleLen {
			return &ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", MaxTitleLen)}
		}
		r.Title = &t
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		if utf8.RuneCountInString(d) > MaxDescriptionLen {
			return &ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", MaxDescriptionLen)}
		}
		r.Description = &d
	}
	return nil
}
