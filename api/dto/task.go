package dto

import "errors"

var ErrTaskNotFound = errors.New("task not found")

type CreateTaskRequest struct {
	RemoteID       string `json:"remote_id"`
	RemoteLink     string `json:"remote_link"`
	Filename       string `json:"filename"`
	SourceLanguage string `json:"source_language"`
	OutputLanguage string `json:"output_language,omitempty"`
	ModelSize      string `json:"model_size"`
	OutputFormat   string `json:"output_format"`
}

type CreateTaskResponse struct {
	TaskID     string `json:"task_id"`
	OwnerToken string `json:"owner_token"`
	Status     string `json:"status"`
}

type TaskResponse struct {
	TaskID           string  `json:"task_id"`
	Status           string  `json:"status"`
	Progress         string  `json:"progress,omitempty"`
	OriginalFilename string  `json:"original_filename,omitempty"`
	SourceLanguage   string  `json:"source_language,omitempty"`
	OutputLanguage   string  `json:"output_language,omitempty"`
	ModelSize        string  `json:"model_size,omitempty"`
	OutputFormat     string  `json:"output_format,omitempty"`
	SubtitleLink     string  `json:"subtitle_link,omitempty"`
	SubtitleFilename string  `json:"subtitle_filename,omitempty"`
	ErrorMessage     string  `json:"error_message,omitempty"`
	CreatedAt        string  `json:"created_at,omitempty"`
	CompletedAt      *string `json:"completed_at,omitempty"`
}

type ServerResponse struct {
	Server string `json:"server"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}
