package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

// Error codes surfaced to API callers.
const (
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeNotFound              = "NOT_FOUND"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL_ERROR"
	CodeDuplicateInscription  = "DUPLICATE_INSCRIPTION"
	CodeConvocatoriaClosed    = "CONVOCATORIA_CLOSED"
	CodeTooYoung              = "TOO_YOUNG"
	CodeTooOld                = "TOO_OLD"
	CodeGenderMismatch        = "GENDER_MISMATCH"
	CodeInvalidCategoryBounds = "INVALID_CATEGORY_BOUNDS"
)

// Sentinels for errors.Is checks. Matching is by Code, so errors built with
// details still compare equal to these.
var (
	ErrNotFound              = NewDomainError(CodeNotFound, "resource not found", http.StatusNotFound, nil)
	ErrDuplicateInscription  = NewDomainError(CodeDuplicateInscription, "athlete already registered in this convocatoria", http.StatusConflict, nil)
	ErrConvocatoriaClosed    = NewDomainError(CodeConvocatoriaClosed, "convocatoria is closed for inscriptions", http.StatusConflict, nil)
	ErrTooYoung              = NewDomainError(CodeTooYoung, "athlete is too young for this convocatoria", http.StatusUnprocessableEntity, nil)
	ErrTooOld                = NewDomainError(CodeTooOld, "athlete is too old for this convocatoria", http.StatusUnprocessableEntity, nil)
	ErrGenderMismatch        = NewDomainError(CodeGenderMismatch, "athlete gender does not match convocatoria", http.StatusUnprocessableEntity, nil)
	ErrInvalidCategoryBounds = NewDomainError(CodeInvalidCategoryBounds, "invalid category age bounds", http.StatusBadRequest, nil)
	ErrForbiddenRole         = NewDomainError(CodeForbidden, "role not permitted for this operation", http.StatusForbidden, nil)
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of e carrying details.
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInvalidCategoryBounds(minAge, maxAge int) error {
	return ErrInvalidCategoryBounds.WithDetails(map[string]any{
		"age_min": minAge,
		"age_max": maxAge,
	})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeValidationFailed
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	}
	if status >= http.StatusInternalServerError {
		return CodeInternal
	}
	return http.StatusText(status)
}
