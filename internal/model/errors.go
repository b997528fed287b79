package model

// TodoError represents a domain error for todos.
type TodoError struct {
	Message string
}

func (e TodoError) Error() string {
	return e.Message
}

// ErrTodoNotFound signals that no record matches the given id. It is
// an expected branch in the service logic, not a fatal condition.
var ErrTodoNotFound = TodoError{Message: "todo not found"}

// ValidationError carries field-level detail for out-of-contract
// input. The boundary maps it to an unprocessable-entity response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Message
}
