package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"subtitler/api/database"
	"subtitler/api/models"
)

const taskColumns = `
	id, owner_token, status, progress,
	original_filename, input_file_id, input_link,
	source_language, output_language, model_size, output_format,
	subtitle_file_id, subtitle_link, subtitle_filename,
	error_message, created_at, updated_at, completed_at
`

type PostgresRepo struct {
	db *database.DB
}

func NewPostgresRepo(db *database.DB) Repository {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) CreateTask(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			id, owner_token, status, progress,
			original_filename, input_file_id, input_link,
			source_language, output_language, model_size, output_format
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerToken,
		task.Status,
		task.Progress,
		task.OriginalFilename,
		task.InputFileID,
		task.InputLink,
		task.SourceLanguage,
		task.OutputLanguage,
		task.ModelSize,
		task.OutputFormat,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrTaskAlreadyExists
		}
		return err
	}

	return nil
}

func (r *PostgresRepo) GetTask(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return task, nil
}

func (r *PostgresRepo) ListTasksByOwner(ctx context.Context, ownerToken string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_token = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, ownerToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// FailTask marks a still-pending task failed. Used when enqueueing
// fails after the row was inserted, so a task never sits in pending
// with no worker ever going to pick it up.
func (r *PostgresRepo) FailTask(ctx context.Context, id string, message string) error {
	query := `
		UPDATE tasks
		SET status = 'failed', error_message = $2, progress = $3,
			updated_at = NOW(), completed_at = COALESCE(completed_at, NOW())
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`

	result, err := r.db.Pool.Exec(ctx, query, id, message, "Error: "+message)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.OwnerToken,
		&task.Status,
		&task.Progress,
		&task.OriginalFilename,
		&task.InputFileID,
		&task.InputLink,
		&task.SourceLanguage,
		&task.OutputLanguage,
		&task.ModelSize,
		&task.OutputFormat,
		&task.SubtitleFileID,
		&task.SubtitleLink,
		&task.SubtitleFilename,
		&task.ErrorMessage,
		&task.CreatedAt,
		&task.UpdatedAt,
		&task.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
