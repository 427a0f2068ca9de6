package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind names one of the domain failure reasons. Anything not covered by
// a kind is an internal failure and must not leak details to the caller.
type ErrorKind string

const (
	InvalidInterval   ErrorKind = "InvalidInterval"
	UnavailableDay    ErrorKind = "UnavailableDay"
	OutsideHours      ErrorKind = "OutsideHours"
	SlotConflict      ErrorKind = "SlotConflict"
	InvalidPromotion  ErrorKind = "InvalidPromotion"
	InvalidTransition ErrorKind = "InvalidTransition"
	NotFound          ErrorKind = "NotFound"
	PermissionDenied  ErrorKind = "PermissionDenied"
)

// DomainError is a validation or authorization failure scoped to a field.
// Domain errors are detected before any mutation is persisted.
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *DomainError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
}

func NewDomainError(kind ErrorKind, field, message string) *DomainError {
	return &DomainError{Kind: kind, Field: field, Message: message}
}

// AsDomain unwraps err into a DomainError if it is one.
func AsDomain(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	de, ok := AsDomain(err)
	return ok && de.Kind == kind
}

// HTTPStatus maps a domain error to a response status. Non-domain errors map
// to 500 and their message must not be surfaced.
func HTTPStatus(err error) int {
	de, ok := AsDomain(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch de.Kind {
	case NotFound:
		return http.StatusNotFound
	case PermissionDenied:
		return http.StatusForbidden
	case SlotConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
