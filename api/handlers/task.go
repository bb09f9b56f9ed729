package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"subtitler/api/dto"
	"subtitler/api/middleware"
	"subtitler/api/validation"
)

const ownerHeader = "X-Owner-Token"

type TaskService interface {
	CreateTask(ctx context.Context, traceID, ownerToken string, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error)
	GetTask(ctx context.Context, taskID string) (*dto.TaskResponse, error)
	ListTasks(ctx context.Context, ownerToken string) ([]*dto.TaskResponse, error)
}

// ServerResolver resolves the best remote upload server so clients can
// push the source media there before submitting a task.
type ServerResolver interface {
	Server(ctx context.Context) (string, error)
}

type TaskHandler struct {
	service  TaskService
	resolver ServerResolver
	logger   *zap.Logger
}

func NewTaskHandler(service TaskService, resolver ServerResolver, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service:  service,
		resolver: resolver,
		logger:   logger,
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleError(w, "Invalid request body", err, traceID, http.StatusBadRequest)
		return
	}

	if err := validation.ValidateSubmission(&req); err != nil {
		h.handleError(w, err.Error(), err, traceID, http.StatusBadRequest)
		return
	}

	ownerToken := r.Header.Get(ownerHeader)
	if ownerToken == "" {
		ownerToken = uuid.New().String()
	}

	resp, err := h.service.CreateTask(r.Context(), traceID, ownerToken, &req)
	if err != nil {
		h.handleError(w, "Failed to create task", err, traceID, http.StatusInternalServerError)
		return
	}

	h.logger.Info("Task created",
		zap.String("trace_id", traceID),
		zap.String("task_id", resp.TaskID),
		zap.String("filename", req.Filename),
	)

	h.respondJSON(w, http.StatusCreated, resp)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	taskID := strings.TrimPrefix(r.URL.Path, "/api/task/")
	if taskID == "" {
		h.handleError(w, "Task ID is required", nil, traceID, http.StatusBadRequest)
		return
	}

	resp, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, dto.ErrTaskNotFound) {
			h.handleError(w, "Task not found", err, traceID, http.StatusNotFound)
			return
		}
		h.handleError(w, "Failed to get task", err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	ownerToken := r.URL.Query().Get("owner")
	if ownerToken == "" {
		ownerToken = r.Header.Get(ownerHeader)
	}
	if ownerToken == "" {
		// No owner yet means no tasks yet.
		h.respondJSON(w, http.StatusOK, []*dto.TaskResponse{})
		return
	}

	resp, err := h.service.ListTasks(r.Context(), ownerToken)
	if err != nil {
		h.handleError(w, "Failed to list tasks", err, traceID, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

func (h *TaskHandler) StorageServer(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	server, err := h.resolver.Server(r.Context())
	if err != nil {
		h.handleError(w, "Failed to resolve upload server", err, traceID, http.StatusBadGateway)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.ServerResponse{Server: server})
}

func (h *TaskHandler) handleError(w http.ResponseWriter, message string, err error, traceID string, status int) {
	h.logger.Error(message,
		zap.String("trace_id", traceID),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *TaskHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
