package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Failure kinds surfaced by the pipeline. Extraction failures are terminal:
// the caller gets exactly one of these wrapped in a descriptive message,
// never a partial result.
var (
	ErrUnsupportedFormat    = errors.New("unsupported document format")
	ErrNoExtractableText    = errors.New("no text could be extracted from the document")
	ErrPDFExtraction        = errors.New("pdf text extraction failed")
	ErrDocxExtraction       = errors.New("docx text extraction failed")
	ErrOCRExtraction        = errors.New("ocr extraction failed")
	ErrProposer             = errors.New("event proposer failed")
	ErrExport               = errors.New("export failed")
	ErrStructureUnsupported = errors.New("structure analysis only supported for pdf files")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
