// Package errors renders failures as RFC 7807 Problem Details.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail represents an RFC 7807 Problem Details response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Code is the stable machine-readable failure kind shoppers and vendors branch on.
	Code       string         `json:"code,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with an additional extension property.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

const (
	TypeBadRequest          = "/problems/bad-request"
	TypeNotFound            = "/problems/not-found"
	TypeForbidden           = "/problems/forbidden"
	TypeUnauthorized        = "/problems/unauthorized"
	TypeItemUnavailable     = "/problems/item-unavailable"
	TypeEmptyCart           = "/problems/empty-cart"
	TypeInvalidTransition   = "/problems/invalid-transition"
	TypeIdempotencyConflict = "/problems/idempotency-conflict"
	TypeConcurrentUpdate    = "/problems/concurrent-update"
	TypeRateLimited         = "/problems/rate-limited"
	TypeInternal            = "/problems/internal-error"
)

var (
	ErrBadRequest = ProblemDetail{
		Type:   TypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Code:   "InvalidInput",
	}

	ErrNotFound = ProblemDetail{
		Type:   TypeNotFound,
		Title:  "Resource Not Found",
		Status: http.StatusNotFound,
	}

	ErrForbidden = ProblemDetail{
		Type:   TypeForbidden,
		Title:  "Forbidden",
		Status: http.StatusForbidden,
	}

	ErrUnauthorized = ProblemDetail{
		Type:   TypeUnauthorized,
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
		Code:   "Unauthorized",
	}

	ErrItemUnavailable = ProblemDetail{
		Type:   TypeItemUnavailable,
		Title:  "Item Unavailable",
		Status: http.StatusUnprocessableEntity,
		Code:   "ItemUnavailable",
	}

	ErrEmptyCart = ProblemDetail{
		Type:   TypeEmptyCart,
		Title:  "Cart Is Empty",
		Status: http.StatusUnprocessableEntity,
		Code:   "EmptyCart",
	}

	ErrInvalidTransition = ProblemDetail{
		Type:   TypeInvalidTransition,
		Title:  "Invalid Status Transition",
		Status: http.StatusConflict,
		Code:   "InvalidTransition",
	}

	ErrIdempotencyConflict = ProblemDetail{
		Type:   TypeIdempotencyConflict,
		Title:  "Idempotency Key Reused",
		Status: http.StatusConflict,
		Code:   "IdempotencyConflict",
	}

	ErrConcurrentUpdate = ProblemDetail{
		Type:   TypeConcurrentUpdate,
		Title:  "Concurrent Update",
		Status: http.StatusConflict,
		Code:   "ConcurrentUpdate",
	}

	ErrRateLimited = ProblemDetail{
		Type:   TypeRateLimited,
		Title:  "Too Many Requests",
		Status: http.StatusTooManyRequests,
		Code:   "RateLimited",
	}

	ErrInternal = ProblemDetail{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Code:   "Internal",
	}
)

// NewNotFoundProblem creates a not found problem for a specific resource.
func NewNotFoundProblem(code, resourceType string, identifier any) ProblemDetail {
	p := ErrNotFound.
		WithDetail(fmt.Sprintf("%s '%v' not found", resourceType, identifier)).
		WithExtension("resourceType", resourceType).
		WithExtension("identifier", identifier)
	p.Code = code
	return p
}

// NewForbiddenProblem creates a forbidden problem with a machine-readable code.
func NewForbiddenProblem(code, detail string) ProblemDetail {
	p := ErrForbidden.WithDetail(detail)
	p.Code = code
	return p
}
