package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when an email is missing a subject or body
	ErrInvalidInput = errors.New("invalid email input")
	// ErrUnknownCategory is returned for category values outside the enumeration
	ErrUnknownCategory = errors.New("unknown category")
	// ErrDuplicateID is returned when a knowledge base identifier already exists
	ErrDuplicateID = errors.New("duplicate knowledge entry id")
	// ErrProviderTimeout is returned when a provider call exceeds the configured timeout
	ErrProviderTimeout = errors.New("llm provider call timed out")
)

// ParseError indicates that a provider response could not be mapped to a
// ClassificationResult. The raw response is retained for diagnostics.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse classification response: %s", e.Reason)
}

// ProviderError wraps a failure from an external LLM provider
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
