package auth

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Password length limits, in characters.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 20
)

// ErrWeakPassword is returned when a password fails the policy.
var ErrWeakPassword = errors.New("password does not meet requirements")

// ValidatePassword enforces the registration password policy:
// 8-20 characters, at most 72 bytes, with an upper-case letter,
// a lower-case letter and a digit.
func ValidatePassword(password string) error {
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("%w: too long (max %d bytes)", ErrWeakPassword, MaxPasswordBytes)
	}
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrWeakPassword, MaxPasswordLength)
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return fmt.Errorf("%w: needs an upper-case letter", ErrWeakPassword)
	}
	if !lower {
		return fmt.Errorf("%w: needs a lower-case letter", ErrWeakPassword)
	}
	if !digit {
		return fmt.Errorf("%w: needs a digit", ErrWeakPassword)
	}
	return nil
}
