package repository

import (
	"context"
	"errors"

	"subtitler/api/models"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskAlreadyExists = errors.New("task already exists")
)

type Repository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasksByOwner(ctx context.Context, ownerToken string) ([]*models.Task, error)
	FailTask(ctx context.Context, id string, message string) error
}
