package ports

import (
	"context"

	"github.com/mathvisuals/account-api/internal/core/domain"
)

// AccountUpdate is a partial update; nil fields are left untouched.
// Password is the already-hashed credential, never plaintext.
type AccountUpdate struct {
	Name             *string
	Username         *string
	Email            *string
	PasswordHash     *string
	Admin            *bool
	SubscriptionTier *string
}

// AccountRepository defines the persistence contract for accounts.
//
// Create must surface the store's uniqueness violation on the login-key
// field as domain.ErrAccountExists; callers do not pre-check existence.
// VerifyByToken must be a single atomic conditional update: of two
// concurrent calls with the same token exactly one succeeds, the other
// observes the cleared token and gets domain.ErrInvalidToken.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByLoginKey(ctx context.Context, loginKey string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	VerifyByToken(ctx context.Context, token string) (*domain.Account, error)
	UpdateByID(ctx context.Context, id string, update AccountUpdate) error
	DeleteByID(ctx context.Context, id string) (*domain.Account, error)
}
