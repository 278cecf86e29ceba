package domain

import (
	"fmt"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	defaultMinPasswordLen = 6
	defaultMaxPasswordLen = 64
)

var emailCheck = validator.New()

// ValidEmail reports whether s satisfies the standard email grammar.
func ValidEmail(s string) bool {
	return emailCheck.Var(s, "required,email") == nil
}

// PasswordPolicy captures the complexity rules applied at signup and on
// password changes. The legacy deployments capped passwords at 15
// characters; the cap is kept as configuration rather than hardcoded.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

// DefaultPasswordPolicy returns the policy applied when no overrides are
// configured.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: defaultMinPasswordLen, MaxLength: defaultMaxPasswordLen}
}

// Check validates a plaintext password against the policy:
// at least one digit, at least two symbols, at least one letter, no
// whitespace, length within [MinLength, MaxLength].
func (p PasswordPolicy) Check(password string) error {
	min := p.MinLength
	if min <= 0 {
		min = defaultMinPasswordLen
	}
	max := p.MaxLength
	if max <= 0 {
		max = defaultMaxPasswordLen
	}

	runes := []rune(password)
	if len(runes) < min {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, min)
	}
	if len(runes) > max {
		return fmt.Errorf("%w: password must be at most %d characters", ErrValidation, max)
	}

	var digits, letters, symbols int
	for _, r := range runes {
		switch {
		case unicode.IsSpace(r):
			return fmt.Errorf("%w: password must not contain whitespace", ErrValidation)
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		case r != '_': // underscore is a word character, not a symbol
			symbols++
		}
	}

	if digits < 1 {
		return fmt.Errorf("%w: password must contain at least one digit", ErrValidation)
	}
	if letters < 1 {
		return fmt.Errorf("%w: password must contain at least one letter", ErrValidation)
	}
	if symbols < 2 {
		return fmt.Errorf("%w: password must contain at least two symbols", ErrValidation)
	}
	return nil
}
