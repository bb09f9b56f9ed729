package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"subtitler/api/cache"
	"subtitler/api/dto"
	"subtitler/api/kafka"
	"subtitler/api/models"
	"subtitler/api/repository"
)

const timeLayout = "2006-01-02 15:04:05"

// StatusStore is the poll-path cache. Lookups answer cheap non-terminal
// polls; terminal answers always come from the repository so the
// result link is included.
type StatusStore interface {
	Get(ctx context.Context, taskID string) (*cache.StatusEntry, error)
	Set(ctx context.Context, taskID string, status models.TaskStatus, progress string) error
}

type TaskService struct {
	repo     repository.Repository
	cache    StatusStore
	producer kafka.Producer
	topic    string
}

func NewTaskService(repo repository.Repository, cache StatusStore, producer kafka.Producer, topic string) *TaskService {
	return &TaskService{
		repo:     repo,
		cache:    cache,
		producer: producer,
		topic:    topic,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, traceID, ownerToken string, req *dto.CreateTaskRequest) (*dto.CreateTaskResponse, error) {
	outputLanguage := req.OutputLanguage
	if outputLanguage == "" {
		outputLanguage = "same"
	}

	task := &models.Task{
		ID:               uuid.New().String(),
		OwnerToken:       ownerToken,
		Status:           models.StatusPending,
		Progress:         "Waiting to start",
		OriginalFilename: req.Filename,
		InputFileID:      req.RemoteID,
		InputLink:        req.RemoteLink,
		SourceLanguage:   req.SourceLanguage,
		OutputLanguage:   outputLanguage,
		ModelSize:        req.ModelSize,
		OutputFormat:     req.OutputFormat,
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	s.cache.Set(ctx, task.ID, models.StatusPending, task.Progress)

	msg := &kafka.TaskMessage{
		TaskID:     task.ID,
		TraceID:    traceID,
		OwnerToken: ownerToken,
	}
	if err := s.producer.SendTaskMessage(ctx, s.topic, msg); err != nil {
		// The row exists but no worker will ever see it; fail it so
		// the client is not left polling a stuck pending task.
		s.repo.FailTask(ctx, task.ID, "failed to enqueue task")
		s.cache.Set(ctx, task.ID, models.StatusFailed, "Error: failed to enqueue task")
		return nil, fmt.Errorf("enqueue task: %w", err)
	}

	return &dto.CreateTaskResponse{
		TaskID:     task.ID,
		OwnerToken: ownerToken,
		Status:     string(models.StatusPending),
	}, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (*dto.TaskResponse, error) {
	if entry, err := s.cache.Get(ctx, taskID); err == nil && !entry.Status.Terminal() {
		return &dto.TaskResponse{
			TaskID:   taskID,
			Status:   string(entry.Status),
			Progress: entry.Progress,
		}, nil
	}

	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, dto.ErrTaskNotFound
		}
		return nil, err
	}

	s.cache.Set(ctx, task.ID, task.Status, task.Progress)

	return s.toView(task), nil
}

func (s *TaskService) ListTasks(ctx context.Context, ownerToken string) ([]*dto.TaskResponse, error) {
	tasks, err := s.repo.ListTasksByOwner(ctx, ownerToken)
	if err != nil {
		return nil, err
	}

	views := make([]*dto.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		views = append(views, s.toView(task))
	}

	return views, nil
}

func (s *TaskService) toView(task *models.Task) *dto.TaskResponse {
	var completedAt *string
	if task.CompletedAt != nil {
		formatted := task.CompletedAt.Format(timeLayout)
		completedAt = &formatted
	}

	return &dto.TaskResponse{
		TaskID:           task.ID,
		Status:           string(task.Status),
		Progress:         task.Progress,
		OriginalFilename: task.OriginalFilename,
		SourceLanguage:   task.SourceLanguage,
		OutputLanguage:   task.OutputLanguage,
		ModelSize:        task.ModelSize,
		OutputFormat:     task.OutputFormat,
		SubtitleLink:     task.SubtitleLink,
		SubtitleFilename: task.SubtitleFilename,
		ErrorMessage:     task.ErrorMessage,
		CreatedAt:        task.CreatedAt.Format(timeLayout),
		CompletedAt:      completedAt,
	}
}
