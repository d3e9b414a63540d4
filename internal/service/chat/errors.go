package chat

import "errors"

// Kind classifies every failure the dispatcher can surface. Collaborator
// errors are normalized to one of these at this boundary; no raw detail is
// guaranteed to reach the client beyond a readable message.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindInvalidArgument  Kind = "invalid_argument"
	KindStoreUnavailable Kind = "store_unavailable"
	KindGenerationFailed Kind = "generation_failed"
)

// Error carries a failure kind across the dispatcher boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the failure kind from an error chain. Unclassified
// errors count as store failures, the most conservative bucket.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindStoreUnavailable
}

func invalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

func storeUnavailable(message string, err error) *Error {
	return &Error{Kind: KindStoreUnavailable, Message: message, Err: err}
}

func generationFailed(err error) *Error {
	return &Error{Kind: KindGenerationFailed, Message: "generation failed", Err: err}
}
