package domain

import (
	"errors"
	"time"
)

const (
	// TierFree is the subscription tier assigned to new accounts.
	TierFree = "free"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrAccountExists = errors.New("account already exists")
var ErrInvalidToken = errors.New("invalid token")
var ErrWrongCredentials = errors.New("wrong credentials")
var ErrAccountNotVerified = errors.New("account not verified")
var ErrForbidden = errors.New("access forbidden")

// ValidationError marks malformed or missing input. Wrap it with the
// offending field's message so handlers can map it to a 400.
var ErrValidation = errors.New("validation failed")

// Account is the persisted identity record: credentials plus profile flags.
type Account struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Username          string    `json:"username,omitempty"`
	Email             string    `json:"email,omitempty"`
	PasswordHash      string    `json:"-"`
	Admin             bool      `json:"admin"`
	SubscriptionTier  string    `json:"subscription"`
	Verified          bool      `json:"verified"`
	VerificationToken string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Redacted returns a copy safe to hand back to callers: the email is
// blanked (and the password hash never serializes).
func (a *Account) Redacted() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Email = ""
	clone.PasswordHash = ""
	clone.VerificationToken = ""
	return &clone
}

// Caller identifies who is making a request, as decoded by the transport.
type Caller struct {
	AccountID string
	Admin     bool
}

// CanModify reports whether the caller may mutate or read the given account.
// Owners and admins only.
func (c Caller) CanModify(accountID string) bool {
	return c.Admin || (c.AccountID != "" && c.AccountID == accountID)
}
