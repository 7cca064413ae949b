package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Globs error code.
type ErrorCode string

const (
	ErrDegenerateGlob      ErrorCode = "DEGENERATE_GLOB"       // 422
	ErrUnknownEntity       ErrorCode = "UNKNOWN_ENTITY"        // 404
	ErrInvalidSessionState ErrorCode = "INVALID_SESSION_STATE" // 409
	ErrAmbiguousAddressing ErrorCode = "AMBIGUOUS_ADDRESSING"  // 400
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"       // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"             // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"        // 404
	ErrNameAlreadyExists   ErrorCode = "NAME_ALREADY_EXISTS"   // 409
	ErrConflict            ErrorCode = "CONFLICT"              // 409
	ErrDocumentTooLarge    ErrorCode = "DOCUMENT_TOO_LARGE"    // 413
	ErrCancelled           ErrorCode = "CANCELLED"             // 499
	ErrInternal            ErrorCode = "INTERNAL"              // 500
)

// GlobsError represents a structured error with code, status, and details.
type GlobsError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *GlobsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDegenerateGlob creates a 422 error for geometry with no valid tangent
// construction. Callers drawing a glob treat it as "draw nothing".
func NewDegenerateGlob(reason string) *GlobsError {
	return &GlobsError{
		Code:    ErrDegenerateGlob,
		Status:  422,
		Message: fmt.Sprintf("degenerate glob: %s", reason),
		Details: map[string]any{"reason": reason},
	}
}

// NewUnknownEntity creates a 404 error for a node or glob id missing from a document.
func NewUnknownEntity(kind, id string) *GlobsError {
	return &GlobsError{
		Code:    ErrUnknownEntity,
		Status:  404,
		Message: fmt.Sprintf("unknown %s: %s", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewInvalidSessionState creates a 409 error for a session whose anchored
// entities are no longer in the document.
func NewInvalidSessionState(msg string) *GlobsError {
	return &GlobsError{
		Code:    ErrInvalidSessionState,
		Status:  409,
		Message: msg,
	}
}

// NewAmbiguousAddressing creates a 400 error for when both ID and name are provided.
func NewAmbiguousAddressing() *GlobsError {
	return &GlobsError{
		Code:    ErrAmbiguousAddressing,
		Status:  400,
		Message: "cannot specify both id and name; use one addressing mode",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GlobsError {
	return &GlobsError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a document cannot be found.
func NewNotFound(identifier string) *GlobsError {
	return &GlobsError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("document not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *GlobsError {
	return &GlobsError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNameAlreadyExists creates a 409 error for name collisions.
func NewNameAlreadyExists(name string) *GlobsError {
	return &GlobsError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("document with name %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *GlobsError {
	return &GlobsError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewDocumentTooLarge creates a 413 error when a document has too many nodes.
func NewDocumentTooLarge(max, actual int) *GlobsError {
	return &GlobsError{
		Code:    ErrDocumentTooLarge,
		Status:  413,
		Message: fmt.Sprintf("document exceeds maximum size: %d nodes (max %d)", actual, max),
		Details: map[string]any{"max_nodes": max, "actual_nodes": actual},
	}
}

// NewCancelled creates a 499 error when the caller's context is done.
func NewCancelled(op string) *GlobsError {
	return &GlobsError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GlobsError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GlobsError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a GlobsError with the given code.
func Is(err error, code ErrorCode) bool {
	var gErr *GlobsError
	if stderrors.As(err, &gErr) {
		return gErr.Code == code
	}
	return false
}

// As returns the GlobsError in err's chain, if any.
func As(err error) (*GlobsError, bool) {
	var gErr *GlobsError
	if stderrors.As(err, &gErr) {
		return gErr, true
	}
	return nil, false
}
