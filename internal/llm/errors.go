package llm

import (
	"context"
	"errors"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// ErrChainExhausted is returned when every provider of a chain failed.
var ErrChainExhausted = errors.New("llm: all providers failed")

// ErrEmptyResponse is returned when a provider answered without content.
var ErrEmptyResponse = errors.New("llm: empty response")

// TransientError represents a temporary error that may succeed on retry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError represents a permanent error that should not be retried
// against the same provider.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

func NewFatalError(err error) error {
	return &FatalError{err: err}
}

func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// Classify wraps a raw provider SDK error as transient or fatal.
// Unknown errors are treated as transient.
func Classify(err error) error {
	if err == nil || IsTransient(err) || IsFatal(err) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return NewFatalError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransientError(err)
	}

	if code, ok := statusCode(err); ok {
		return classifyStatus(code, err)
	}

	return NewTransientError(err)
}

func statusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return reqErr.HTTPStatusCode, true
	}
	var anthropicReqErr *anthropic.RequestError
	if errors.As(err, &anthropicReqErr) && anthropicReqErr.StatusCode > 0 {
		return anthropicReqErr.StatusCode, true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code > 0 {
		return gErr.Code, true
	}
	return 0, false
}

func classifyStatus(code int, err error) error {
	switch {
	case code == 408, code == 409, code == 425, code == 429, code >= 500:
		return NewTransientError(err)
	default:
		return NewFatalError(err)
	}
}
