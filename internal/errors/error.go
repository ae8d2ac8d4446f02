package errors

import (
	"errors"
)

// Kinds. Every domain error unwraps to exactly one of them.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")
	ErrUpstream        = errors.New("upstream error")
)

type DomainError struct {
	kind    error
	message string
}

func New(kind error, message string) *DomainError {
	return &DomainError{kind: kind, message: message}
}

func (e *DomainError) Error() string { return e.message }

func (e *DomainError) Unwrap() error { return e.kind }

var (
	ErrInvalidQuantity      = New(ErrValidation, "Invalid quantity")
	ErrInvalidAmount        = New(ErrValidation, "Invalid quantity to remove")
	ErrInvalidCart          = New(ErrValidation, "Invalid cart")
	ErrNegativeQuantity     = New(ErrValidation, "Quantity cannot be negative")
	ErrPaymentFailed        = New(ErrValidation, "Payment failed")
	ErrEmailExists          = New(ErrValidation, "User already exists.")
	ErrInsufficientStock    = New(ErrConflict, "Insufficient stock")
	ErrDivisionByZero       = New(ErrConflict, "Cannot rescale an order detail with zero quantity")
	ErrProductReferenced    = New(ErrConflict, "Cannot delete product because it is associated with one or more orders")
	ErrCartNotFound         = New(ErrNotFound, "Cart not found")
	ErrItemNotFound         = New(ErrNotFound, "Item not found")
	ErrUserNotFound         = New(ErrNotFound, "User not found")
	ErrProductNotFound      = New(ErrNotFound, "Product not found")
	ErrOrderNotFound        = New(ErrNotFound, "Order not found")
	ErrOrderDetailNotFound  = New(ErrNotFound, "Order detail not found")
	ErrNotOwner             = New(ErrForbidden, "Not authorized to access other users' resources")
	ErrAuthenticationFailed = New(ErrUnauthorized, "Authentication failed")
	ErrEmptyAuth            = New(ErrUnauthorized, "missing authorization")
	ErrEmptySubject         = New(ErrUnauthorized, "missing subject")
	ErrTokenInvalid         = New(ErrUnauthorized, "invalid token")
	ErrTokenRevoked         = New(ErrUnauthorized, "token has been revoked")
	ErrTooManyAttempts      = New(ErrTooManyRequests, "Too many login attempts, try again later")
	ErrFailedHashPassword   = New(ErrUpstream, "failed hashing password")
	ErrInternal             = New(ErrUpstream, "Internal Server Error")
)

// Message returns the client facing message of err: the innermost domain error
// message when there is one, the raw error otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.message
	}
	return err.Error()
}
