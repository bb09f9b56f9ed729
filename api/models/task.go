package models

import (
	"time"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusProcessing TaskStatus = "processing"
	StatusUploading  TaskStatus = "uploading"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is one subtitle generation job. Result fields are empty until
// the job completes; ErrorMessage is empty unless it failed.
type Task struct {
	ID         string
	OwnerToken string
	Status     TaskStatus
	Progress   string

	OriginalFilename string
	InputFileID      string
	InputLink        string

	SourceLanguage string
	OutputLanguage string
	ModelSize      string
	OutputFormat   string

	SubtitleFileID   string
	SubtitleLink     string
	SubtitleFilename string

	ErrorMessage string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}
