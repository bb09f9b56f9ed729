package subtitle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// runner abstracts process execution so transcription can be tested
// without whisper or ffmpeg installed.
type runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// WhisperCLI runs a whisper command-line binary, extracting audio with
// ffmpeg first when the input is a video container.
type WhisperCLI struct {
	whisperBin string
	ffmpegBin  string
	run        runner
	logger     *zap.Logger
}

func NewWhisperCLI(whisperBin, ffmpegBin string, logger *zap.Logger) *WhisperCLI {
	return &WhisperCLI{
		whisperBin: whisperBin,
		ffmpegBin:  ffmpegBin,
		run:        execRunner{},
		logger:     logger,
	}
}

func (t *WhisperCLI) Transcribe(ctx context.Context, path, language, model, outputLanguage string) ([]Segment, error) {
	if !modelSizes[model] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
	}

	audioPath := path
	if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
		extracted, err := t.extractAudio(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("extract audio: %w", err)
		}
		defer os.Remove(extracted)
		audioPath = extracted
	}

	args := []string{audioPath, "--model", model, "--output-json"}
	if language != "" && language != "auto" {
		args = append(args, "--language", language)
	}
	if translateRequested(language, outputLanguage) {
		// Whisper only translates into English.
		args = append(args, "--task", "translate")
	}

	t.logger.Info("Running transcription",
		zap.String("audio", audioPath),
		zap.String("model", model),
		zap.String("language", language),
	)

	stdout, stderr, err := t.run.Run(ctx, t.whisperBin, args...)
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %w: %s", err, strings.TrimSpace(stderr))
	}

	segments, err := parseWhisperOutput([]byte(stdout))
	if err != nil {
		return nil, err
	}

	t.logger.Info("Transcription finished", zap.Int("segments", len(segments)))
	return segments, nil
}

// extractAudio strips the audio track into a temporary wav file. The
// caller removes the file.
func (t *WhisperCLI) extractAudio(ctx context.Context, videoPath string) (string, error) {
	out, err := os.CreateTemp("", "subtitler-audio-*.wav")
	if err != nil {
		return "", err
	}
	audioPath := out.Name()
	out.Close()

	_, stderr, err := t.run.Run(ctx, t.ffmpegBin,
		"-y", "-i", videoPath, "-q:a", "0", "-map", "a", audioPath)
	if err != nil {
		os.Remove(audioPath)
		return "", fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr))
	}

	return audioPath, nil
}

func translateRequested(language, outputLanguage string) bool {
	switch outputLanguage {
	case "", "same", language:
		return false
	}
	return outputLanguage == "en"
}

type whisperOutput struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

func parseWhisperOutput(data []byte) ([]Segment, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	segments := make([]Segment, 0, len(out.Segments))
	for _, s := range out.Segments {
		segments = append(segments, Segment{Start: s.Start, End: s.End, Text: s.Text})
	}

	return segments, nil
}
