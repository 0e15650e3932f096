package savile

import (
	"context"
	"errors"
	"fmt"

	"savile/internal/batch"
)

// ErrCancelled is returned when the user aborts at a prompt or declines a
// confirmation. Nothing has been written when it is returned.
var ErrCancelled = errors.New("cancelled")

// ImageError is one image's failure inside a batch. Batch operations
// combine them with multierr.
type ImageError struct {
	Path string
	Err  error
}

func (e *ImageError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *ImageError) Unwrap() error { return e.Err }

// ValidationError is returned by prompt validators. The prompt shows the
// message and asks again.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Choice is one entry of a Select prompt.
type Choice struct {
	Value string
	Label string
}

// TextPrompt asks for free text. Validate runs on every submission; a
// non-nil error is shown inline and the question is asked again.
type TextPrompt struct {
	Message     string
	Placeholder string
	Validate    func(string) error
}

// Prompter is the interactive collaborator. Text, Select and Confirm
// return ErrCancelled when the user aborts.
type Prompter interface {
	Text(ctx context.Context, p TextPrompt) (string, error)
	Select(ctx context.Context, message string, choices []Choice) (string, error)
	Confirm(ctx context.Context, message string) (bool, error)
	Note(title, body string)
	Info(msg string)
}

// Tracker displays progress for a running batch. The returned channel is
// drained until done is called.
type Tracker interface {
	Track(label string) (updates chan<- batch.Update, done func())
}
