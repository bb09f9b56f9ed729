package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskNotActive means the row is already terminal (or gone), so
	// the attempted transition was refused.
	ErrTaskNotActive = errors.New("task is not active")
)

// Task is the worker's view of a task record: everything the pipeline
// needs to drive one job.
type Task struct {
	ID               string
	OwnerToken       string
	Status           string
	OriginalFilename string
	InputLink        string
	SourceLanguage   string
	OutputLanguage   string
	ModelSize        string
	OutputFormat     string
}

func IsTerminal(status string) bool {
	return status == "completed" || status == "failed"
}

type Repository interface {
	GetTask(ctx context.Context, id string) (*Task, error)
	SetStage(ctx context.Context, id, status, progress string) error
	Complete(ctx context.Context, id, fileID, link, filename string) error
	Fail(ctx context.Context, id, message string) error
}

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) Repository {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) GetTask(ctx context.Context, id string) (*Task, error) {
	query := `
		SELECT id, owner_token, status, original_filename, input_link,
			source_language, output_language, model_size, output_format
		FROM tasks
		WHERE id = $1
	`

	var task Task
	err := r.db.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.OwnerToken,
		&task.Status,
		&task.OriginalFilename,
		&task.InputLink,
		&task.SourceLanguage,
		&task.OutputLanguage,
		&task.ModelSize,
		&task.OutputFormat,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return &task, nil
}

// SetStage moves a non-terminal task to the given status and progress
// text. Terminal rows are never touched; the guard in the WHERE clause
// is what keeps redelivered messages from resurrecting finished tasks.
func (r *PostgresRepo) SetStage(ctx context.Context, id, status, progress string) error {
	query := `
		UPDATE tasks
		SET status = $2, progress = $3, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`

	result, err := r.db.Exec(ctx, query, id, status, progress)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotActive
	}

	return nil
}

// Complete records the uploaded subtitle file and finishes the task.
// completed_at is set only on the first terminal transition.
func (r *PostgresRepo) Complete(ctx context.Context, id, fileID, link, filename string) error {
	query := `
		UPDATE tasks
		SET status = 'completed',
			progress = 'Subtitles generated successfully',
			subtitle_file_id = $2, subtitle_link = $3, subtitle_filename = $4,
			updated_at = NOW(), completed_at = COALESCE(completed_at, NOW())
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`

	result, err := r.db.Exec(ctx, query, id, fileID, link, filename)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotActive
	}

	return nil
}

func (r *PostgresRepo) Fail(ctx context.Context, id, message string) error {
	query := `
		UPDATE tasks
		SET status = 'failed', error_message = $2, progress = $3,
			updated_at = NOW(), completed_at = COALESCE(completed_at, NOW())
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`

	result, err := r.db.Exec(ctx, query, id, message, "Error: "+message)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotActive
	}

	return nil
}
