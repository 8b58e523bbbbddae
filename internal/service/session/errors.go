package session

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means the process has no API key configured. The remote
	// call is never attempted in this state.
	ErrMissingCredential = errors.New("chatkit api credential is not configured")

	// ErrWorkflowUnresolved means neither the request body nor the process
	// configuration supplied a workflow identifier.
	ErrWorkflowUnresolved = errors.New("no workflow id provided and no default configured")

	// ErrUpstreamUnavailable marks a transport-level failure reaching the remote
	// session API. Never retried.
	ErrUpstreamUnavailable = errors.New("chatkit session api unreachable")
)

// UpstreamError is a non-success response from the remote session API. Status is the
// remote HTTP status, Message the most specific human-readable message the error body
// carried, Details the decoded error object when one was present.
type UpstreamError struct {
	Status  int
	Message string
	Details map[string]any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chatkit session api rejected request (status %d): %s", e.Status, e.Message)
}
