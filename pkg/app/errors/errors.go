// Package errors contains helper functions and types to work with errors
package errors

import (
	"errors"
	"net/http"
)

// Category defines error category
type Category int

const (
	// CategoryNoError means the operation completed without error.
	CategoryNoError Category = iota
	// CategoryDataError The client sends some invalid data in the request,
	// for example, missing or incorrect content in the payload or parameters.
	// Could also represent a generic client error.
	CategoryDataError
	// CategoryUnauthorized The client is not authorized to access the requested resource
	CategoryUnauthorized
	// CategoryNotSupported The requested chain or token is not in the bridge catalog
	CategoryNotSupported
	// CategoryInsufficientBalance The requesting account does not hold enough funds
	CategoryInsufficientBalance
	// CategoryRateLimited The client exceeded the admission window for bridge submissions
	CategoryRateLimited
	// CategoryResourceNotFound The client is attempting to access a resource that does
	// not exist or is not owned by the caller (indistinguishable on purpose)
	CategoryResourceNotFound
	// CategoryNotCancellable The transaction exists but is past the point of cancellation
	CategoryNotCancellable
	// CategoryDependencyFailure A dependent service (chain client, relayer) is throwing errors
	CategoryDependencyFailure
	// CategoryGeneralError The service failed in an unexpected way
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryDataError:
		return "CategoryDataError"
	case CategoryUnauthorized:
		return "CategoryUnauthorized"
	case CategoryNotSupported:
		return "CategoryNotSupported"
	case CategoryInsufficientBalance:
		return "CategoryInsufficientBalance"
	case CategoryRateLimited:
		return "CategoryRateLimited"
	case CategoryResourceNotFound:
		return "CategoryResourceNotFound"
	case CategoryNotCancellable:
		return "CategoryNotCancellable"
	case CategoryDependencyFailure:
		return "CategoryDependencyFailure"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError represents service specific type that
// is used all over the services.
type ServiceError struct {
	Category Category
	Message  string
	// Details carries machine-readable context surfaced to the caller in the
	// error payload (required/available balance, supported chain list, retry-after).
	Details map[string]any
	Err     error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is implements the custom condition to check an error is equal to a service error
func (err ServiceError) Is(target error) bool {
	return err.Message == target.Error()
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// Details returns the detail map of the ServiceError wrapped in err, if any.
func Details(err error) map[string]any {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Details
	}
	return nil
}

// IsInternalError checks that provided error is an internal system error
func IsInternalError(err error) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && (svcErr.Category < CategoryDependencyFailure) {
		return false
	}
	return true
}

// GeneralError returns a general service error
// this error message sent to the user is "Internal Server Error"
// the error passed is logged in the logger
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal server error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "Internal Server Error",
		Err:      err,
	}
}

// BadRequestError returns an error with category DataError
// the error message provided is returned to the user
// the error object provided is logged in logger
func BadRequestError(err error, message string) error {
	if err == nil {
		err = errors.New("bad request:" + message)
	}
	return &ServiceError{
		Category: CategoryDataError,
		Message:  message,
		Err:      err,
	}
}

// UnAuthorizedError returns an error with category CategoryUnauthorized
// the error message provided is returned to the user
// the error object provided is logged in logger
func UnAuthorizedError(err error, message string) error {
	if err == nil {
		err = errors.New("unauthorized")
	}
	return &ServiceError{
		Category: CategoryUnauthorized,
		Message:  message,
		Err:      err,
	}
}

// NotSupportedError returns an error with category NotSupported.
// details typically carries the supported chain or token list so the
// caller can correct the request.
func NotSupportedError(err error, message string, details map[string]any) error {
	if err == nil {
		err = errors.New("not supported:" + message)
	}
	return &ServiceError{
		Category: CategoryNotSupported,
		Message:  message,
		Details:  details,
		Err:      err,
	}
}

// InsufficientBalanceError returns an error carrying the required and
// available amounts for the rejected transfer.
func InsufficientBalanceError(err error, required, available string) error {
	if err == nil {
		err = errors.New("insufficient balance")
	}
	return &ServiceError{
		Category: CategoryInsufficientBalance,
		Message:  "Insufficient balance",
		Details: map[string]any{
			"required":  required,
			"available": available,
		},
		Err: err,
	}
}

// RateLimitedError returns an error with category RateLimited carrying the
// remaining window time in seconds.
func RateLimitedError(retryAfterSeconds int) error {
	return &ServiceError{
		Category: CategoryRateLimited,
		Message:  "Too many bridge requests, please try again later.",
		Details: map[string]any{
			"retryAfter": retryAfterSeconds,
		},
		Err: errors.New("rate limit exceeded"),
	}
}

// ResourceNotFoundError returns an error with category ResourceNotFound
// the error message provided is returned to the user
// the err object provided is logged in logger
func ResourceNotFoundError(err error, message string) error {
	if err == nil {
		err = errors.New("resource not found:" + message)
	}
	return &ServiceError{
		Category: CategoryResourceNotFound,
		Message:  message,
		Err:      err,
	}
}

// NotCancellableError returns an error for cancellation attempts on records
// that are past the point of cancellation or not owned by the caller.
func NotCancellableError(err error) error {
	if err == nil {
		err = errors.New("transaction not cancellable")
	}
	return &ServiceError{
		Category: CategoryNotCancellable,
		Message:  "Transaction not found or cannot be cancelled",
		Err:      err,
	}
}

// DependencyError returns an error with category DependencyFailure.
// Used when the external chain client or relayer gateway fails; local
// state is never corrupted by these.
func DependencyError(err error, message string) error {
	if err == nil {
		err = errors.New("dependency failure:" + message)
	}
	return &ServiceError{
		Category: CategoryDependencyFailure,
		Message:  message,
		Err:      err,
	}
}

// StatusCode returns the HTTP status code for the error category
func (err ServiceError) StatusCode() int {
	switch err.Category {
	case CategoryDataError, CategoryNotSupported, CategoryInsufficientBalance:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryRateLimited:
		return http.StatusTooManyRequests
	case CategoryResourceNotFound, CategoryNotCancellable:
		return http.StatusNotFound
	case CategoryDependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
