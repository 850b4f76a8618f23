// Package corerr defines the typed error taxonomy the orchestrator uses to
// decide, per stage, whether to recover with a fallback or abort the Run.
package corerr

import (
	"errors"
	"fmt"
)

// Kind enumerates the error kinds a stage can fail with.
type Kind string

const (
	KindTransientProvider Kind = "TransientProviderError"
	KindPermanentProvider Kind = "PermanentProviderError"
	KindParse             Kind = "ParseError"
	KindTimeout           Kind = "TimeoutError"
	KindCancellation      Kind = "CancellationError"
	KindInvariantViolated Kind = "InvariantViolation"
	KindConfiguration     Kind = "ConfigurationError"
)

// Sentinel abort-level errors. Per-stage recoverable failures are not
// sentinels; the orchestrator records them as FailureNotes carrying the
// Kind and the error message.
var (
	ErrNoNovelIdeas           = errors.New("no novel ideas survived filtering")
	ErrGlobalDeadlineExceeded = errors.New("workflow global deadline exceeded")
	ErrCancelled              = errors.New("workflow run cancelled")
	ErrInvalidOptions         = errors.New("invalid workflow options")
)

// WorkflowError is the typed error surfaced to callers when a Run aborts.
// Op names the stage/operation that failed (e.g.
// "GenerateIdeas", "cache.GetWorkflow"); RunID is empty when the failure
// predates Run-ID assignment (configuration errors).
type WorkflowError struct {
	Op      string
	Kind    Kind
	RunID   string
	Message string
	Err     error
}

func (e *WorkflowError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("%s: %s [%s] (run %s): %v", e.Op, e.Message, e.Kind, e.RunID, e.Err)
	}
	return fmt.Sprintf("%s: %s [%s]: %v", e.Op, e.Message, e.Kind, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }

// New builds a WorkflowError, tolerating a nil underlying err (some kinds,
// like InvariantViolation, are not wrapping anything).
func New(op string, kind Kind, runID, message string, err error) *WorkflowError {
	return &WorkflowError{Op: op, Kind: kind, RunID: runID, Message: message, Err: err}
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool { return hasKind(err, KindTimeout) }

// IsCancellation reports whether err is (or wraps) a CancellationError.
func IsCancellation(err error) bool { return hasKind(err, KindCancellation) || errors.Is(err, ErrCancelled) }

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool { return hasKind(err, KindConfiguration) }

// IsRetryable reports whether the stage that produced err might succeed on
// a fresh attempt. No code in the module calls it; the orchestrator core
// does not auto-retry provider calls.
func IsRetryable(err error) bool { return hasKind(err, KindTransientProvider) }

func hasKind(err error, k Kind) bool {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind == k
	}
	return false
}
