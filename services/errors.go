package services

import "fmt"

// The service layer raises typed errors; controllers map them to HTTP status
// codes in one place and never leak internals to the client.

// ValidationError means malformed or missing input. Always client-fixable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ForbiddenError means the caller is authenticated but does not own the
// resource. The message stays generic so existence is not leaked.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NotFoundError means the resource is genuinely absent.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// GoneError means the resource existed but is permanently unusable (revoked
// or expired), distinct from NotFoundError so clients can say "this link is
// no longer available" rather than "link doesn't exist".
type GoneError struct {
	Message string
}

func (e *GoneError) Error() string { return e.Message }

// ConflictError means a state-machine violation: double claim, double
// convert, slug collisions exhausting their retries.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }
