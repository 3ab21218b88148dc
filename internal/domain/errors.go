package domain

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrMissingInput      = errors.New("either a file upload or a url is required")
	ErrInputUnreachable  = errors.New("input resource could not be fetched")
	ErrUnsupportedFormat = errors.New("unsupported or corrupt input format")
	ErrEmptyDocument     = errors.New("no pages could be extracted from the input")
	ErrFileTooLarge      = errors.New("file exceeds maximum allowed size")
	ErrInferenceFailed   = errors.New("model inference failed")
	ErrConversionFailed  = errors.New("tag conversion failed")
)
