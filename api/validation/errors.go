package validation

import "errors"

var (
	ErrMissingField         = errors.New("missing required field")
	ErrInvalidModelSize     = errors.New("invalid model size")
	ErrInvalidOutputFormat  = errors.New("invalid output format")
	ErrInvalidLanguage      = errors.New("invalid language code")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// IsValidationError reports whether err stems from submission
// validation, as opposed to an internal failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidModelSize) ||
		errors.Is(err, ErrInvalidOutputFormat) ||
		errors.Is(err, ErrInvalidLanguage) ||
		errors.Is(err, ErrUnsupportedMediaType)
}
