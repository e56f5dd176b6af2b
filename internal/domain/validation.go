package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrPasswordTooWeak = errors.New("password does not meet requirements")
	ErrInvalidUserName = errors.New("invalid user name")
)

// Validation constants
const (
	MinYear           = 1000
	MaxYear           = 9999
	MaxUserNameLength = 150
	MinPasswordLength = 8
	MaxPasswordLength = 128

	// AmountScale is the number of decimal places an amount may carry.
	AmountScale = 2
)

// maxAmount is the first value that no longer fits NUMERIC(16, 2).
var maxAmount = decimal.New(1, 16-AmountScale)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	upperRegex = regexp.MustCompile(`[A-Z]`)
	lowerRegex = regexp.MustCompile(`[a-z]`)
	digitRegex = regexp.MustCompile(`[0-9]`)
)

// ValidateEntry checks the entry rules in a fixed order and reports only the
// first failure.
func ValidateEntry(e *Entry) error {
	if e == nil || strings.TrimSpace(e.Description) == "" {
		return ErrInvalidDescription
	}

	if e.Month < 1 || e.Month > 12 {
		return ErrInvalidMonth
	}

	if e.Year < MinYear || e.Year > MaxYear {
		return ErrInvalidYear
	}

	if e.OwnerID == "" {
		return ErrMissingOwner
	}

	if !e.Amount.IsPositive() || e.Amount.GreaterThanOrEqual(maxAmount) ||
		!e.Amount.Equal(e.Amount.Truncate(AmountScale)) {
		return ErrInvalidAmount
	}

	if !e.Kind.IsValid() {
		return ErrInvalidKind
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateUserName validates a display name
func ValidateUserName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidUserName)
	}

	if len(name) > MaxUserNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidUserName, MaxUserNameLength)
	}

	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	// At least one uppercase, one lowercase and one digit
	if !upperRegex.MatchString(password) || !lowerRegex.MatchString(password) || !digitRegex.MatchString(password) {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}
