package analysis

import (
	"errors"
	"fmt"
)

// Messages shown to the user. Underlying causes are only logged.
const (
	MsgMissingFile   = "Please upload a PDF file"
	MsgAnalyzeFailed = "Failed to analyze the text."
	MsgMalformed     = "The analysis service returned an unexpected response."
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrMissingFile       = fmt.Errorf("%w: no file selected", ErrValidation)
	ErrMalformedResponse = errors.New("malformed analysis response")
	ErrSuperseded        = errors.New("submission superseded by a newer one")
)

// RequestError is a transport failure (StatusCode 0) or a non-2xx response.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("analysis request failed: %v", e.Err)
	}
	return fmt.Sprintf("analysis request failed: status %d: %v", e.StatusCode, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// UserMessage maps a submission error to the fixed string shown in the view.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return MsgMissingFile
	case errors.Is(err, ErrMalformedResponse):
		return MsgMalformed
	default:
		return MsgAnalyzeFailed
	}
}
