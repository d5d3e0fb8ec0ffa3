package errors

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder assembles an error chain fluently. It is not itself an
// error; Mark must terminate the chain and returns the built error.
type ErrorBuilder struct {
	err error
}

// NewError starts a builder chain from a message
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a builder chain wrapping an existing error
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithHint attaches the message shown to API callers. Internal detail
// stays in the wrapped error; the hint is what a student or teacher sees.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithReportableDetails attaches structured details that are safe to
// return in the error envelope (entity IDs, limits, dates). The details
// ride as a safe-details payload and are decoded by the error handler
// middleware.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, "__json__:%s", errors.Safe(string(marshaled)))
	return b
}

// Mark tags the error with a sentinel for errors.Is matching. Must be
// the last call in the chain.
func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}
