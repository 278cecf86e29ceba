package ports

import (
	"context"

	"github.com/mathvisuals/account-api/internal/core/domain"
)

// CreateAccountInput carries the signup fields. Username is required only
// when the deployment signs users in by username.
type CreateAccountInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// UpdateAccountInput is the caller-supplied patch; nil fields are ignored.
// Password arrives in plaintext and is rehashed by the service.
type UpdateAccountInput struct {
	Name             *string
	Username         *string
	Email            *string
	Password         *string
	Admin            *bool
	SubscriptionTier *string
}

// AccountService owns the account lifecycle: validation, credential
// hashing, verification-token issuance and consumption, and the
// owner-or-admin authorization checks on the CRUD operations.
type AccountService interface {
	Create(ctx context.Context, input CreateAccountInput) (*domain.Account, error)
	Verify(ctx context.Context, token string) (*domain.Account, error)
	SignIn(ctx context.Context, loginKey, password string) (*domain.Account, error)
	Get(ctx context.Context, id string, caller domain.Caller) (*domain.Account, error)
	Update(ctx context.Context, id string, caller domain.Caller, patch UpdateAccountInput) error
	Delete(ctx context.Context, id string, caller domain.Caller) (*domain.Account, error)
}
