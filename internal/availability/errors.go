package availability

import "fmt"

// ValidationError rejects a request before anything is fetched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MissingTimeError reports an event without a usable start or end.
// One such event fails the whole call.
type MissingTimeError struct {
	EventID string
	Side    string // "start" or "end"
}

func (e *MissingTimeError) Error() string {
	return fmt.Sprintf("event %q has no %s time", e.EventID, e.Side)
}

// SourceUnavailableError wraps a failed upstream fetch.
type SourceUnavailableError struct {
	Err error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("event source unavailable: %v", e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }
