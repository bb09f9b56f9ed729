package subtitle

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedModel  = errors.New("unsupported whisper model")
	ErrUnsupportedFormat = errors.New("unsupported subtitle format")
)

// Segment is one timed line of transcribed text. Start and End are
// offsets in seconds.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// Transcriber converts a local media file into timed text segments.
// Errors from a Transcriber are final; the pipeline never retries
// transcription.
type Transcriber interface {
	Transcribe(ctx context.Context, path, language, model, outputLanguage string) ([]Segment, error)
}

var modelSizes = map[string]bool{
	"tiny":   true,
	"base":   true,
	"small":  true,
	"medium": true,
	"large":  true,
}

// audioExtensions lists formats whisper consumes directly; anything
// else goes through ffmpeg audio extraction first.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
}
