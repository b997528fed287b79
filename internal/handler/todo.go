package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"todo-api/internal/model"
	"todo-api/internal/service"
	"todo-api/internal/telemetry"
)

var tracer = otel.Tracer("todo-api/internal/handler")

const (
	defaultLimit = 50
	maxLimit     = 200
)

// TodoHandler handles HTTP requests for todos.
type TodoHandler struct {
	svc         *service.TodoService
	logger      *slog.Logger
	metrics     *telemetry.Metrics
	serviceName string
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(svc *service.TodoService, logger *slog.Logger, metrics *telemetry.Metrics, serviceName string) *TodoHandler {
	return &TodoHandler{
		svc:         svc,
		logger:      logger,
		metrics:     metrics,
		serviceName: serviceName,
	}
}

// Routes returns the chi router with todo routes.
func (h *TodoHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// List returns a page of todos with pagination metadata.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TodoHandler.List")
	defer span.End()

	limit, offset, err := paginationParams(r)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid pagination", slog.Any("error", err))
		h.respondValidationError(w, err)
		h.recordMetrics(ctx, "GET", "/todos", http.StatusUnprocessableEntity, start)
		return
	}

	list, err := h.svc.ListTodos(ctx, limit, offset)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list todos", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to list todos")
		h.recordMetrics(ctx, "GET", "/todos", http.StatusInternalServerError, start)
		return
	}

	span.SetAttributes(attribute.Int("todo.count", len(list.Items)))

	h.respondJSON(w, http.StatusOK, list)
	h.recordMetrics(ctx, "GET", "/todos", http.StatusOK, start)
}

// Create adds a new todo.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TodoHandler.Create")
	defer span.End()

	var req model.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		h.respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		h.recordMetrics(ctx, "POST", "/todos", http.StatusUnprocessableEntity, start)
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
		h.respondValidationError(w, err)
		h.recordMetrics(ctx, "POST", "/todos", http.StatusUnprocessableEntity, start)
		return
	}

	todo, err := h.svc.CreateTodo(ctx, &req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create todo", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to create todo")
		h.recordMetrics(ctx, "POST", "/todos", http.StatusInternalServerError, start)
		return
	}

	span.SetAttributes(attribute.Int64("todo.id", todo.ID))

	h.respondJSON(w, http.StatusCreated, todo)
	h.recordMetrics(ctx, "POST", "/todos", http.StatusCreated, start)
}

// GetByID returns a todo by id.
func (h *TodoHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TodoHandler.GetByID")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		h.respondValidationError(w, err)
		h.recordMetrics(ctx, "GET", "/todos/{id}", http.StatusUnprocessableEntity, start)
		return
	}
	span.SetAttributes(attribute.Int64("todo.id", id))

	todo, err := h.svc.GetTodo(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrTodoNotFound) {
			h.logger.WarnContext(ctx, "todo not found", slog.Int64("id", id))
			h.respondError(w, http.StatusNotFound, "todo not found")
			h.recordMetrics(ctx, "GET", "/todos/{id}", http.StatusNotFound, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get todo", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to get todo")
		h.recordMetrics(ctx, "GET", "/todos/{id}", http.StatusInternalServerError, start)
		return
	}

	h.respondJSON(w, http.StatusOK, todo)
	h.recordMetrics(ctx, "GET", "/todos/{id}", http.StatusOK, start)
}

// Update applies a partial update to an existing todo.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TodoHandler.Update")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		h.respondValidationError(w, err)
		h.recordMetrics(ctx, "PUT", "/todos/{id}", http.StatusUnprocessableEntity, start)
		return
	}
	span.SetAttributes(attribute.Int64("todo.id", id))

	var req model.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid request body", slog.Any("error", err))
		h.respondError(w, http.StatusUnprocessableEntity, "invalid request body")
		h.recordMetrics(ctx, "PUT", "/todos/{id}", http.StatusUnprocessableEntity, start)
		return
	}

	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "validation failed", slog.Any("error", err))
		h.respondValidationError(w, err)
		h.recordMetrics(ctx, "PUT", "/todos/{id}", http.StatusUnprocessableEntity, start)
		return
	}

	todo, err := h.svc.UpdateTodo(ctx, id, &req)
	if err != nil {
		if errors.Is(err, model.ErrTodoNotFound) {
			h.logger.WarnContext(ctx, "todo not found", slog.Int64("id", id))
			h.respondError(w, http.StatusNotFound, "todo not found")
			h.recordMetrics(ctx, "PUT", "/todos/{id}", http.StatusNotFound, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to update todo", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to update todo")
		h.recordMetrics(ctx, "PUT", "/todos/{id}", http.StatusInternalServerError, start)
		return
	}

	h.respondJSON(w, http.StatusOK, todo)
	h.recordMetrics(ctx, "PUT", "/todos/{id}", http.StatusOK, start)
}

// Delete removes a todo.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "TodoHandler.Delete")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		h.respondValidationError(w, err)
		h.recordMetrics(ctx, "DELETE", "/todos/{id}", http.StatusUnprocessableEntity, start)
		return
	}
	span.SetAttributes(attribute.Int64("todo.id", id))

	if err := h.svc.DeleteTodo(ctx, id); err != nil {
		if errors.Is(err, model.ErrTodoNotFound) {
			h.logger.WarnContext(ctx, "todo not found", slog.Int64("id", id))
			h.respondError(w, http.StatusNotFound, "todo not found")
			h.recordMetrics(ctx, "DELETE", "/todos/{id}", http.StatusNotFound, start)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete todo", slog.Any("error", err))
		h.respondError(w, http.StatusInternalServerError, "failed to delete todo")
		h.recordMetrics(ctx, "DELETE", "/todos/{id}", http.StatusInternalServerError, start)
		return
	}

	w.WriteHeader(http.StatusNoContent)
	h.recordMetrics(ctx, "DELETE", "/todos/{id}", http.StatusNoContent, start)
}

// Health returns a static liveness payload independent of the data layer.
func (h *TodoHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": h.serviceName,
	})
}

func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &model.ValidationError{Field: "id", Message: "must be an integer"}
	}
	return id, nil
}

func paginationParams(r *http.Request) (limit, offset int, err error) {
	limit, offset = defaultLimit, 0

	q := r.URL.Query()
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return 0, 0, &model.ValidationError{Field: "limit", Message: "must be a positive integer"}
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, &model.ValidationError{Field: "offset", Message: "must be a non-negative integer"}
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, offset, nil
}

func (h *TodoHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *TodoHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *TodoHandler) respondValidationError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": ve.Message,
			"field": ve.Field,
		})
		return
	}
	h.respondError(w, http.StatusUnprocessableEntity, err.Error())
}

func (h *TodoHandler) recordMetrics(ctx context.Context, method, route string, status int, start time.Time) {
	duration := time.Since(start).Seconds()

	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)

	h.metrics.RequestCounter.Add(ctx, 1, attrs)
	h.metrics.RequestDuration.Record(ctx, duration, attrs)
}
