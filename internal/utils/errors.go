package utils

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers pick the HTTP status from the kind with errors.Is.
var (
	ErrValidation      = errors.New("VALIDATION_ERROR")
	ErrNotFound        = errors.New("NOT_FOUND")
	ErrConflict        = errors.New("CONFLICT")
	ErrAuthentication  = errors.New("AUTHENTICATION_FAILED")
	ErrExternalService = errors.New("EXTERNAL_SERVICE_ERROR")
)

// Validation errors.
var (
	ErrInvalidPriceRange     = kindError(ErrValidation, "invalid price range: the start price has to be lower than the end price")
	ErrMalformedPriceRange   = kindError(ErrValidation, "price must be two comma separated decimals")
	ErrMalformedIDList       = kindError(ErrValidation, "ids must be a comma separated list of integers")
	ErrInvalidPrice          = kindError(ErrValidation, "price must be between 0.00 and 9999.99 with at most two decimals")
	ErrInvalidQuantity       = kindError(ErrValidation, "quantity must be greater than zero")
	ErrEmptyOrder            = kindError(ErrValidation, "the products list cannot be empty")
	ErrUnknownInventory      = kindError(ErrValidation, "one or more products do not exist")
	ErrUnknownAttributeValue = kindError(ErrValidation, "one or more attribute values do not exist")
	ErrUnknownCategory       = kindError(ErrValidation, "one or more categories do not exist")
	ErrUnknownBrand          = kindError(ErrValidation, "brand does not exist")
	ErrDuplicateName         = kindError(ErrValidation, "an entry with this name or slug already exists")
	ErrEmailTaken            = kindError(ErrValidation, "a user with this email already exists")
	ErrPasswordTooShort      = kindError(ErrValidation, "password must be at least 6 characters")
	ErrEmailImmutable        = kindError(ErrValidation, "email cannot be changed")
	ErrInvalidResetLink      = kindError(ErrValidation, "the reset link is invalid or has expired")
)

// Not found errors.
var (
	ErrCategoryNotFound  = kindError(ErrNotFound, "category not found")
	ErrBrandNotFound     = kindError(ErrNotFound, "brand not found")
	ErrAttributeNotFound = kindError(ErrNotFound, "attribute not found")
	ErrProductNotFound   = kindError(ErrNotFound, "product not found")
	ErrInventoryNotFound = kindError(ErrNotFound, "inventory not found")
	ErrStockNotFound     = kindError(ErrNotFound, "stock not found")
	ErrOrderNotFound     = kindError(ErrNotFound, "order not found")
	ErrUserNotFound      = kindError(ErrNotFound, "user not found")
)

// Conflicts, authentication and upstream failures.
var (
	ErrInsufficientStock  = kindError(ErrConflict, "there are not enough units in stock")
	ErrCategoryInUse      = kindError(ErrConflict, "category has children or products")
	ErrBrandInUse         = kindError(ErrConflict, "brand is referenced by products")
	ErrInvalidCredentials = kindError(ErrAuthentication, "unable to log in with provided credentials")
	ErrSearchUnavailable  = kindError(ErrExternalService, "search service unavailable")
	ErrStorageUnavailable = kindError(ErrExternalService, "image storage unavailable")
)

// Auth errors raised by the token middleware.
var (
	ErrInvalidToken = errors.New("INVALID_TOKEN")
	ErrMissingToken = errors.New("MISSING_TOKEN")
)

// appError carries a user facing message and unwraps to its kind.
type appError struct {
	kind error
	msg  string
}

func (e *appError) Error() string { return e.msg }
func (e *appError) Unwrap() error { return e.kind }

func kindError(kind error, msg string) error {
	return &appError{kind: kind, msg: msg}
}

// NewValidationError returns an ErrValidation error with a custom message.
func NewValidationError(format string, args ...interface{}) error {
	return &appError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}
