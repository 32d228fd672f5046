package ai

import (
	"errors"
	"fmt"
)

var (
	ErrCompletionFailure = errors.New("completion request failed")
	ErrParseFailure      = errors.New("completion content is not a valid suggestion list")
	ErrInvalidInput      = errors.New("invalid input parameters") // 400
)

// CompletionError describes a failed call to the completion endpoint.
// StatusCode is zero for transport failures.
type CompletionError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *CompletionError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("completion request failed: status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("completion request failed: %v", e.Err)
	default:
		return "completion request failed"
	}
}

func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletionFailure
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// ParseError describes why completion content could not be turned into suggestions.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing suggestions: %s: %v", e.Reason, e.Err)
	}
	return "parsing suggestions: " + e.Reason
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailure
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
