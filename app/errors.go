// Package app implements the story, audio, sharing and billing workflows.
package app

import (
	"errors"
	"fmt"
)

var (
	ErrStoryNotFound       = errors.New("story not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("caller does not own this story")
	ErrLoginRequired       = errors.New("login required")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoNarrationText     = errors.New("story has no narration text")
)

// ConfigurationError marks a missing credential or voice mapping. It is fatal
// for the request and never retried.
type ConfigurationError struct {
	Missing string
}

func (e ConfigurationError) Error() string {
	return "missing configuration: " + e.Missing
}

// ProviderError wraps a failed call to an external provider (TTS, storage,
// story generation). Transient from the workflow's point of view; the caller
// may re-invoke.
type ProviderError struct {
	Provider string
	Status   int
	Err      error
}

func (e ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e ProviderError) Unwrap() error { return e.Err }
