package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	"subtitler/api/dto"
)

var modelSizes = map[string]bool{
	"tiny":   true,
	"base":   true,
	"small":  true,
	"medium": true,
	"large":  true,
}

var outputFormats = map[string]bool{
	"srt": true,
	"vtt": true,
	"txt": true,
}

var mediaExtensions = map[string]bool{
	".mp3":  true,
	".mp4":  true,
	".wav":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
}

// ValidateSubmission checks a create request before any task row
// exists. Every problem wraps one of the sentinel errors above so the
// handler can map it to a 400.
func ValidateSubmission(req *dto.CreateTaskRequest) error {
	if req.RemoteID == "" {
		return fmt.Errorf("%w: remote_id", ErrMissingField)
	}
	if req.RemoteLink == "" {
		return fmt.Errorf("%w: remote_link", ErrMissingField)
	}
	if req.Filename == "" {
		return fmt.Errorf("%w: filename", ErrMissingField)
	}
	if req.SourceLanguage == "" {
		return fmt.Errorf("%w: source_language", ErrMissingField)
	}
	if req.ModelSize == "" {
		return fmt.Errorf("%w: model_size", ErrMissingField)
	}
	if req.OutputFormat == "" {
		return fmt.Errorf("%w: output_format", ErrMissingField)
	}

	ext := strings.ToLower(filepath.Ext(req.Filename))
	if !mediaExtensions[ext] {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, req.Filename)
	}

	if !modelSizes[req.ModelSize] {
		return fmt.Errorf("%w: %s", ErrInvalidModelSize, req.ModelSize)
	}
	if !outputFormats[req.OutputFormat] {
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, req.OutputFormat)
	}
	if !validLanguage(req.SourceLanguage, "auto") {
		return fmt.Errorf("%w: %s", ErrInvalidLanguage, req.SourceLanguage)
	}
	if req.OutputLanguage != "" && !validLanguage(req.OutputLanguage, "same") {
		return fmt.Errorf("%w: %s", ErrInvalidLanguage, req.OutputLanguage)
	}

	return nil
}

func validLanguage(lang, wildcard string) bool {
	if lang == wildcard {
		return true
	}
	if len(lang) < 2 || len(lang) > 3 {
		return false
	}
	for _, r := range lang {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
