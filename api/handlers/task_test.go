package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"subtitler/api/dto"
	"subtitler/api/middleware"
	"subtitler/api/models"
)

type mockTaskService struct {
	createTaskFunc func(ctx context.Context, traceID, ownerToken string, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error)
	getTaskFunc    func(ctx context.Context, taskID string) (*dto.TaskResponse, error)
	listTasksFunc  func(ctx context.Context, ownerToken string) ([]*dto.TaskResponse, error)
}

func (m *mockTaskService) CreateTask(ctx context.Context, traceID, ownerToken string, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error) {
	if m.createTaskFunc != nil {
		return m.createTaskFunc(ctx, traceID, ownerToken, req)
	}
	return &dto.CreateTaskResponse{
		TaskID:     uuid.New().String(),
		OwnerToken: ownerToken,
		Status:     string(models.StatusPending),
	}, nil
}

func (m *mockTaskService) GetTask(ctx context.Context, taskID string) (*dto.TaskResponse, error) {
	if m.getTaskFunc != nil {
		return m.getTaskFunc(ctx, taskID)
	}
	return &dto.TaskResponse{
		TaskID:    taskID,
		Status:    string(models.StatusCompleted),
		CreatedAt: time.Now().Format("2006-01-02 15:04:05"),
	}, nil
}

func (m *mockTaskService) ListTasks(ctx context.Context, ownerToken string) ([]*dto.TaskResponse, error) {
	if m.listTasksFunc != nil {
		return m.listTasksFunc(ctx, ownerToken)
	}
	return []*dto.TaskResponse{}, nil
}

type mockResolver struct {
	server string
	err    error
}

func (m *mockResolver) Server(ctx context.Context) (string, error) {
	return m.server, m.err
}

func newTestHandler(t *testing.T, svc *mockTaskService, resolver *mockResolver) *TaskHandler {
	if resolver == nil {
		resolver = &mockResolver{server: "store1"}
	}
	return NewTaskHandler(svc, resolver, zaptest.NewLogger(t))
}

func withTrace(req *http.Request) *http.Request {
	traceID := uuid.New().String()
	req.Header.Set("X-Trace-ID", traceID)
	ctx := context.WithValue(req.Context(), middleware.TraceIDKey, traceID)
	return req.WithContext(ctx)
}

func validSubmission() map[string]string {
	return map[string]string{
		"remote_id":       "abc123",
		"remote_link":     "https://gofile.io/d/abc123",
		"filename":        "video.mp4",
		"source_language": "auto",
		"model_size":      "base",
		"output_format":   "srt",
	}
}

func postTask(t *testing.T, handler *TaskHandler, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}

	req := withTrace(httptest.NewRequest("POST", "/api/task", bytes.NewReader(data)))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	return rec
}

func TestTaskHandler_Create_Success(t *testing.T) {
	handler := newTestHandler(t, &mockTaskService{}, nil)

	rec := postTask(t, handler, validSubmission())

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.CreateTaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.TaskID == "" {
		t.Error("Expected a task id")
	}
	if resp.OwnerToken == "" {
		t.Error("Expected a generated owner token")
	}
	if resp.Status != "pending" {
		t.Errorf("Expected status pending, got %s", resp.Status)
	}
}

func TestTaskHandler_Create_ReusesOwnerToken(t *testing.T) {
	var gotOwner string
	svc := &mockTaskService{
		createTaskFunc: func(ctx context.Context, traceID, ownerToken string, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error) {
			gotOwner = ownerToken
			return &dto.CreateTaskResponse{TaskID: "t1", OwnerToken: ownerToken, Status: "pending"}, nil
		},
	}
	handler := newTestHandler(t, svc, nil)

	data, _ := json.Marshal(validSubmission())
	req := withTrace(httptest.NewRequest("POST", "/api/task", bytes.NewReader(data)))
	req.Header.Set("X-Owner-Token", "owner-42")
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}
	if gotOwner != "owner-42" {
		t.Errorf("Expected owner token from header, got %s", gotOwner)
	}
}

func TestTaskHandler_Create_InvalidBody(t *testing.T) {
	handler := newTestHandler(t, &mockTaskService{}, nil)

	req := withTrace(httptest.NewRequest("POST", "/api/task", strings.NewReader("not json")))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestTaskHandler_Create_ValidationFailures(t *testing.T) {
	handler := newTestHandler(t, &mockTaskService{}, nil)

	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing remote link", func(m map[string]string) { delete(m, "remote_link") }},
		{"missing filename", func(m map[string]string) { delete(m, "filename") }},
		{"bad model size", func(m map[string]string) { m["model_size"] = "enormous" }},
		{"bad output format", func(m map[string]string) { m["output_format"] = "pdf" }},
		{"bad language", func(m map[string]string) { m["source_language"] = "english!" }},
		{"non-media filename", func(m map[string]string) { m["filename"] = "report.pdf" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := validSubmission()
			tc.mutate(body)

			rec := postTask(t, handler, body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTaskHandler_Get_Success(t *testing.T) {
	taskID := uuid.New().String()
	svc := &mockTaskService{
		getTaskFunc: func(ctx context.Context, id string) (*dto.TaskResponse, error) {
			if id != taskID {
				t.Errorf("Expected task id %s, got %s", taskID, id)
			}
			return &dto.TaskResponse{
				TaskID:   id,
				Status:   string(models.StatusProcessing),
				Progress: "Generating subtitles",
			}, nil
		},
	}
	handler := newTestHandler(t, svc, nil)

	req := withTrace(httptest.NewRequest("GET", "/api/task/"+taskID, nil))
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var resp dto.TaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Progress != "Generating subtitles" {
		t.Errorf("Unexpected progress: %q", resp.Progress)
	}
}

func TestTaskHandler_Get_NotFound(t *testing.T) {
	svc := &mockTaskService{
		getTaskFunc: func(ctx context.Context, id string) (*dto.TaskResponse, error) {
			return nil, dto.ErrTaskNotFound
		},
	}
	handler := newTestHandler(t, svc, nil)

	req := withTrace(httptest.NewRequest("GET", "/api/task/"+uuid.New().String(), nil))
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestTaskHandler_Get_EmptyTaskID(t *testing.T) {
	handler := newTestHandler(t, &mockTaskService{}, nil)

	req := withTrace(httptest.NewRequest("GET", "/api/task/", nil))
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestTaskHandler_List_ByOwner(t *testing.T) {
	svc := &mockTaskService{
		listTasksFunc: func(ctx context.Context, ownerToken string) ([]*dto.TaskResponse, error) {
			if ownerToken != "owner-7" {
				t.Errorf("Expected owner-7, got %s", ownerToken)
			}
			return []*dto.TaskResponse{
				{TaskID: "t2", Status: "completed"},
				{TaskID: "t1", Status: "failed"},
			}, nil
		},
	}
	handler := newTestHandler(t, svc, nil)

	req := withTrace(httptest.NewRequest("GET", "/api/tasks?owner=owner-7", nil))
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var resp []*dto.TaskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Errorf("Expected 2 tasks, got %d", len(resp))
	}
}

func TestTaskHandler_List_NoOwnerReturnsEmptyList(t *testing.T) {
	handler := newTestHandler(t, &mockTaskService{}, nil)

	req := withTrace(httptest.NewRequest("GET", "/api/tasks", nil))
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected empty array, got %s", rec.Body.String())
	}
}

func TestTaskHandler_StorageServer_Success(t *testing.T) {
	handler := newTestHandler(t, &mockTaskService{}, &mockResolver{server: "store4"})

	req := withTrace(httptest.NewRequest("GET", "/api/storage/server", nil))
	rec := httptest.NewRecorder()

	handler.StorageServer(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var resp dto.ServerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Server != "store4" {
		t.Errorf("Expected server store4, got %s", resp.Server)
	}
}

func TestTaskHandler_StorageServer_Unavailable(t *testing.T) {
	handler := newTestHandler(t, &mockTaskService{}, &mockResolver{err: errors.New("all attempts failed")})

	req := withTrace(httptest.NewRequest("GET", "/api/storage/server", nil))
	rec := httptest.NewRecorder()

	handler.StorageServer(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", rec.Code)
	}
}
