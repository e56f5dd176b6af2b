package domain

import "errors"

// ValidationCode identifies which entry rule failed.
type ValidationCode string

const (
	CodeInvalidDescription ValidationCode = "invalid_description"
	CodeInvalidMonth       ValidationCode = "invalid_month"
	CodeInvalidYear        ValidationCode = "invalid_year"
	CodeMissingOwner       ValidationCode = "missing_owner"
	CodeInvalidAmount      ValidationCode = "invalid_amount"
	CodeInvalidKind        ValidationCode = "invalid_kind"
	CodeInvalidStatus      ValidationCode = "invalid_status"
)

// ValidationError is a recoverable, user-facing rule violation.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PreconditionError signals a programming error such as updating an entry
// that was never persisted. It is not meant to be recovered by users.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return "precondition violated: " + e.Message
}

// Entry validation errors
var (
	ErrInvalidDescription = &ValidationError{Code: CodeInvalidDescription, Message: "enter a valid description"}
	ErrInvalidMonth       = &ValidationError{Code: CodeInvalidMonth, Message: "enter a valid month"}
	ErrInvalidYear        = &ValidationError{Code: CodeInvalidYear, Message: "enter a valid year"}
	ErrMissingOwner       = &ValidationError{Code: CodeMissingOwner, Message: "enter an owner"}
	ErrInvalidAmount      = &ValidationError{Code: CodeInvalidAmount, Message: "enter a valid amount"}
	ErrInvalidKind        = &ValidationError{Code: CodeInvalidKind, Message: "enter a valid kind"}
	ErrInvalidStatus      = &ValidationError{Code: CodeInvalidStatus, Message: "enter a valid status"}
)

// Precondition errors
var (
	ErrMissingEntryID = &PreconditionError{Message: "entry identifier is required"}
)

var (
	// Lookup errors
	ErrEntryNotFound = errors.New("entry not found")
	ErrUserNotFound  = errors.New("user not found")

	// Conflict errors
	ErrEmailAlreadyRegistered = errors.New("a user is already registered with this email")
	ErrIllegalTransition      = errors.New("status transition not allowed")
)

// ErrorKind groups errors by how callers are expected to react.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindPrecondition
	KindNotFound
	KindAuthentication
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPrecondition:
		return "precondition"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// KindOf classifies err. Unknown errors, including persistence failures, are
// KindInternal.
func KindOf(err error) ErrorKind {
	var validationErr *ValidationError
	var preconditionErr *PreconditionError

	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &validationErr),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrPasswordTooWeak),
		errors.Is(err, ErrInvalidUserName):
		return KindValidation
	case errors.As(err, &preconditionErr):
		return KindPrecondition
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidCredentialsEmail),
		errors.Is(err, ErrInvalidCredentialsPassword),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpiredToken):
		return KindAuthentication
	case errors.Is(err, ErrEmailAlreadyRegistered), errors.Is(err, ErrIllegalTransition):
		return KindConflict
	default:
		return KindInternal
	}
}
