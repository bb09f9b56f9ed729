package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"subtitler/pkg/gofile"
	"subtitler/worker/kafka"
	"subtitler/worker/repository"
	"subtitler/worker/subtitle"
)

// Transfer is the remote blob host: fetch the source media, store the
// finished subtitle file. Both already retry internally.
type Transfer interface {
	Download(ctx context.Context, link, dest string) error
	Upload(ctx context.Context, path, filename string) (*gofile.UploadResult, error)
}

// StatusCache mirrors transitions for the poll path. Failures here are
// logged and ignored; postgres stays authoritative.
type StatusCache interface {
	Set(ctx context.Context, taskID, status, progress string) error
}

// Processor drives one task through download, transcribe, and upload,
// recording every transition in the task store.
type Processor struct {
	repo        repository.Repository
	cache       StatusCache
	transfer    Transfer
	transcriber subtitle.Transcriber
	taskTimeout time.Duration
	logger      *zap.Logger
}

func NewProcessor(repo repository.Repository, cache StatusCache, transfer Transfer, transcriber subtitle.Transcriber, taskTimeout time.Duration, logger *zap.Logger) *Processor {
	return &Processor{
		repo:        repo,
		cache:       cache,
		transfer:    transfer,
		transcriber: transcriber,
		taskTimeout: taskTimeout,
		logger:      logger,
	}
}

// Process executes the pipeline for one queued task id. A task already
// in a terminal state is left untouched, which makes redelivery safe.
// Pipeline failures end up as a failed task row, never as an error to
// the queue.
func (p *Processor) Process(ctx context.Context, msg *kafka.TaskMessage) error {
	log := p.logger.With(
		zap.String("task_id", msg.TaskID),
		zap.String("trace_id", msg.TraceID),
	)

	task, err := p.repo.GetTask(ctx, msg.TaskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			log.Warn("Queued task does not exist")
			return nil
		}
		log.Error("Failed to load task", zap.Error(err))
		return err
	}

	if repository.IsTerminal(task.Status) {
		log.Info("Task already finished, skipping", zap.String("status", task.Status))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.taskTimeout)
	defer cancel()

	workDir, err := os.MkdirTemp("", "subtitler-task-")
	if err != nil {
		p.fail(ctx, log, task.ID, fmt.Sprintf("create work dir: %v", err))
		return nil
	}
	defer os.RemoveAll(workDir)

	if err := p.run(ctx, log, task, workDir); err != nil {
		if errors.Is(err, repository.ErrTaskNotActive) {
			// Someone else finished the task while we were working.
			log.Warn("Task went terminal mid-run, dropping result")
			return nil
		}

		message := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			message = fmt.Sprintf("processing exceeded the %s time budget", p.taskTimeout)
		}

		p.fail(ctx, log, task.ID, message)
		return nil
	}

	log.Info("Task completed")
	return nil
}

func (p *Processor) run(ctx context.Context, log *zap.Logger, task *repository.Task, workDir string) error {
	if err := p.stage(ctx, task.ID, "processing", "Downloading file"); err != nil {
		return err
	}

	mediaPath := filepath.Join(workDir, "source"+filepath.Ext(task.OriginalFilename))
	if err := p.transfer.Download(ctx, task.InputLink, mediaPath); err != nil {
		return fmt.Errorf("download source: %w", err)
	}
	log.Info("Source media downloaded", zap.String("path", mediaPath))

	if err := checkBudget(ctx); err != nil {
		return err
	}
	if err := p.stage(ctx, task.ID, "processing", "Generating subtitles"); err != nil {
		return err
	}

	segments, err := p.transcriber.Transcribe(ctx, mediaPath, task.SourceLanguage, task.ModelSize, task.OutputLanguage)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	log.Info("Transcription produced segments", zap.Int("segments", len(segments)))

	subtitleName := derivedFilename(task.OriginalFilename, task.OutputFormat)
	subtitlePath := filepath.Join(workDir, subtitleName)
	if err := subtitle.Save(subtitlePath, segments, task.OutputFormat); err != nil {
		return fmt.Errorf("serialize subtitles: %w", err)
	}

	if err := checkBudget(ctx); err != nil {
		return err
	}
	if err := p.stage(ctx, task.ID, "uploading", "Uploading subtitle file"); err != nil {
		return err
	}

	result, err := p.transfer.Upload(ctx, subtitlePath, subtitleName)
	if err != nil {
		return fmt.Errorf("upload subtitles: %w", err)
	}

	if err := p.repo.Complete(ctx, task.ID, result.FileID, result.DownloadPage, subtitleName); err != nil {
		return err
	}
	p.setCache(ctx, log, task.ID, "completed", "Subtitles generated successfully")

	return nil
}

func (p *Processor) stage(ctx context.Context, taskID, status, progress string) error {
	if err := p.repo.SetStage(ctx, taskID, status, progress); err != nil {
		return err
	}
	p.setCache(ctx, p.logger, taskID, status, progress)
	return nil
}

// fail writes the terminal failure record. The pipeline context may
// already be dead here, so the writes get a detached context.
func (p *Processor) fail(ctx context.Context, log *zap.Logger, taskID, message string) {
	log.Error("Task failed", zap.String("cause", message))

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := p.repo.Fail(writeCtx, taskID, message); err != nil {
		if errors.Is(err, repository.ErrTaskNotActive) {
			return
		}
		log.Error("Failed to record task failure", zap.Error(err))
		return
	}
	p.setCache(writeCtx, log, taskID, "failed", "Error: "+message)
}

func (p *Processor) setCache(ctx context.Context, log *zap.Logger, taskID, status, progress string) {
	if err := p.cache.Set(ctx, taskID, status, progress); err != nil {
		log.Warn("Failed to update status cache", zap.String("task_id", taskID), zap.Error(err))
	}
}

// checkBudget is the cooperative abort point between pipeline stages.
func checkBudget(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func derivedFilename(original, format string) string {
	stem := strings.TrimSuffix(original, filepath.Ext(original))
	if stem == "" {
		stem = "subtitles"
	}
	return stem + "." + format
}
