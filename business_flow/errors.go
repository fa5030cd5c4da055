// Package businessflow contains the core business logic and use cases for the operations dashboard
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Auth errors
	ErrEmailNotAllowed  = errors.New("email is not on the operator allow-list")
	ErrInvalidIDToken   = errors.New("google ID token is invalid")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session has expired")
	ErrSessionRevoked   = errors.New("session has been revoked")
	ErrOperatorRequired = errors.New("operator email is required")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileInactive = errors.New("profile is inactive")

	// Group and assignment errors
	ErrGroupNotFound      = errors.New("group not found")
	ErrGroupURLExists     = errors.New("group URL already exists")
	ErrInvalidRole        = errors.New("role must be admin or engagement")
	ErrDuplicateGroupRole = errors.New("profile already assigned to this group")

	// Task errors
	ErrTaskNotFound         = errors.New("task not found")
	ErrTaskAlreadyCompleted = errors.New("task is already completed")
	ErrNoActiveAssignments  = errors.New("no assignments on active profiles")

	// Customer errors
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrInvalidCustomerStatus = errors.New("customer status is not recognized")

	// Cache errors
	ErrCacheNotAvailable = errors.New("cache not available")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 500")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsEmailNotAllowed(err error) bool {
	return errors.Is(err, ErrEmailNotAllowed)
}

func IsInvalidIDToken(err error) bool {
	return errors.Is(err, ErrInvalidIDToken)
}

func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func IsSessionRevoked(err error) bool {
	return errors.Is(err, ErrSessionRevoked)
}

func IsProfileNotFound(err error) bool {
	return errors.Is(err, ErrProfileNotFound)
}

func IsProfileInactive(err error) bool {
	return errors.Is(err, ErrProfileInactive)
}

func IsGroupNotFound(err error) bool {
	return errors.Is(err, ErrGroupNotFound)
}

func IsGroupURLExists(err error) bool {
	return errors.Is(err, ErrGroupURLExists)
}

func IsInvalidRole(err error) bool {
	return errors.Is(err, ErrInvalidRole)
}

func IsDuplicateGroupRole(err error) bool {
	return errors.Is(err, ErrDuplicateGroupRole)
}

func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

func IsTaskAlreadyCompleted(err error) bool {
	return errors.Is(err, ErrTaskAlreadyCompleted)
}

func IsCustomerNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound)
}

func IsInvalidCustomerStatus(err error) bool {
	return errors.Is(err, ErrInvalidCustomerStatus)
}

func IsCacheNotAvailable(err error) bool {
	return errors.Is(err, ErrCacheNotAvailable)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
