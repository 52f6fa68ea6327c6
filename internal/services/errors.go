package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTenantNotIdentified = errors.New("tenant not identified, please log in again")
	ErrStoreUnavailable    = errors.New("store unavailable")

	ErrNotFound             = errors.New("not found")
	ErrStudentNotFound      = fmt.Errorf("student %w", ErrNotFound)
	ErrScreenerNotFound     = fmt.Errorf("screener %w", ErrNotFound)
	ErrAlertNotFound        = fmt.Errorf("alert %w", ErrNotFound)
	ErrAlertNotActive       = fmt.Errorf("alert %w or already processed", ErrNotFound)
	ErrNotificationNotFound = fmt.Errorf("notification %w", ErrNotFound)

	ErrAlreadyCompleted         = errors.New("screener already completed")
	ErrAlreadyCompletedRecently = errors.New("screener already completed recently")
)

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

func newValidationError(field, message string, value interface{}) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Value: value, Rule: "business_logic"}}
}

// RecentlyCompletedError is returned when the same screener was completed inside the reuse window
type RecentlyCompletedError struct {
	ScreenerType   string
	CompletedAt    time.Time
	NextEligibleAt time.Time
}

func (e *RecentlyCompletedError) Error() string {
	return fmt.Sprintf("%s completed at %s, next eligible at %s",
		e.ScreenerType, e.CompletedAt.Format(time.RFC3339), e.NextEligibleAt.Format(time.RFC3339))
}

func (e *RecentlyCompletedError) Unwrap() error {
	return ErrAlreadyCompletedRecently
}

// PermissionError reports a role that may not perform an action
type PermissionError struct {
	UserID   uint
	Resource string
	Action   string
	Reason   string
}

func NewPermissionError(userID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, Resource: resource, Action: action, Reason: reason}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %d cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}
