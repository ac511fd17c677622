// Package apperr defines the typed errors domain code returns. The HTTP
// layer turns the Kind into a status code without knowing which operation
// failed.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound: the lead does not exist in the caller's organization.
	KindNotFound
	// KindValidation: input rejected before any read.
	KindValidation
	// KindPrecondition: the lead is not in a status the operation accepts.
	KindPrecondition
	// KindFinancial: the money side is inconsistent, e.g. no total or a
	// second invoice validation.
	KindFinancial
	KindInternal
)

var kinds = map[Kind]struct {
	name   string
	status int
}{
	KindNotFound:     {"not_found", http.StatusNotFound},
	KindValidation:   {"validation", http.StatusBadRequest},
	KindPrecondition: {"precondition", http.StatusConflict},
	KindFinancial:    {"financial", http.StatusUnprocessableEntity},
	KindInternal:     {"internal", http.StatusInternalServerError},
}

// String is the stable name used in API error bodies and metric labels.
func (k Kind) String() string {
	if d, ok := kinds[k]; ok {
		return d.name
	}
	return "unknown"
}

// Error carries a Kind, a message safe to show to API clients, and
// optionally the operation name and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
	Details any
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to a response status. Unknown kinds are treated
// as client errors.
func (e *Error) HTTPStatus() int {
	if d, ok := kinds[e.Kind]; ok {
		return d.status
	}
	return http.StatusBadRequest
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the failing operation, e.g. "transitions.MarkLost".
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Validation(message string) *Error { return New(KindValidation, message) }
func Internal(message string) *Error   { return New(KindInternal, message) }

// Financial messages are shown to the operator verbatim.
func Financial(message string) *Error { return New(KindFinancial, message) }

// Precondition builds the "current status X, required Y or Z" error.
func Precondition(current string, required ...string) *Error {
	return New(KindPrecondition, fmt.Sprintf("current status %s, required %s", current, strings.Join(required, " or ")))
}

// GetKind returns the Kind of the first *Error in err's chain, or KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err's chain carries an *Error of kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
