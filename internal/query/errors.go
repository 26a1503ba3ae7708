package query

import "fmt"

// ParseError reports a malformed shorthand query or command line.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed: %s (query %q)", e.Reason, e.Input)
}

// TopicNotFoundError reports a *slug that has no stored expansion.
type TopicNotFoundError struct {
	Slug string
}

func (e *TopicNotFoundError) Error() string {
	return fmt.Sprintf("topic not found: %s", e.Slug)
}

// IntervalSpecError reports a malformed bucket size such as "2x" or "1dd".
type IntervalSpecError struct {
	Spec   string
	Reason string
}

func (e *IntervalSpecError) Error() string {
	return fmt.Sprintf("invalid interval %q: %s", e.Spec, e.Reason)
}

// StoreError wraps a failure returned by the document store with the
// operation that triggered it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return "store " + e.Op + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

func newParseError(input, format string, args ...any) *ParseError {
	return &ParseError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
