package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathvisuals/account-api/internal/core/domain"
	"github.com/mathvisuals/account-api/internal/core/ports"
)

// LoginMode selects which field identifies an account at signin.
type LoginMode string

const (
	LoginModeEmail    LoginMode = "email"
	LoginModeUsername LoginMode = "username"
)

const (
	minBcryptCost = 10
	tokenBytes    = 20
)

// Options consolidates the knobs that used to be scattered across the
// deployment variants: login key field, whether signin requires a verified
// address, hashing cost, and the password policy.
type Options struct {
	LoginMode           LoginMode
	RequireVerification bool
	BcryptCost          int
	Password            domain.PasswordPolicy
}

// AccountService implements ports.AccountService.
type AccountService struct {
	repo       ports.AccountRepository
	dispatcher ports.NotificationDispatcher
	opts       Options
	log        zerolog.Logger
}

func NewAccountService(repo ports.AccountRepository, dispatcher ports.NotificationDispatcher, opts Options, log zerolog.Logger) *AccountService {
	if opts.LoginMode == "" {
		opts.LoginMode = LoginModeEmail
	}
	if opts.BcryptCost < minBcryptCost {
		opts.BcryptCost = minBcryptCost
	}
	if opts.Password.MinLength == 0 && opts.Password.MaxLength == 0 {
		opts.Password = domain.DefaultPasswordPolicy()
	}
	return &AccountService{repo: repo, dispatcher: dispatcher, opts: opts, log: log}
}

// Create validates the signup input, hashes the password, persists the new
// unverified account with a fresh verification token, and enqueues the
// verification notice. Uniqueness is enforced by the store, not by a
// read-before-write check.
func (s *AccountService) Create(ctx context.Context, input ports.CreateAccountInput) (*domain.Account, error) {
	if err := s.validateSignup(input); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := generateVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Name:              strings.TrimSpace(input.Name),
		Username:          input.Username,
		Email:             input.Email,
		PasswordHash:      string(hash),
		SubscriptionTier:  domain.TierFree,
		Verified:          false,
		VerificationToken: token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		return nil, err
	}

	s.dispatcher.Enqueue(ports.VerificationNotice{
		Name:  created.Name,
		Email: created.Email,
		Token: token,
	})

	s.log.Info().Str("account_id", created.ID).Msg("account created")
	return created.Redacted(), nil
}

// Verify consumes a verification token. The lookup and the
// verified-flag flip happen in a single conditional update, so a token can
// be spent exactly once.
func (s *AccountService) Verify(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", domain.ErrValidation)
	}

	account, err := s.repo.VerifyByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("account verified")
	return account.Redacted(), nil
}

// SignIn authenticates by login key and password and returns the redacted
// account. Lookup misses and hash mismatches both report wrong credentials
// so callers cannot probe which accounts exist.
func (s *AccountService) SignIn(ctx context.Context, loginKey, password string) (*domain.Account, error) {
	if loginKey == "" || password == "" {
		return nil, fmt.Errorf("%w: missing %s or password", domain.ErrValidation, s.opts.LoginMode)
	}
	if s.opts.LoginMode == LoginModeEmail && !domain.ValidEmail(loginKey) {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}

	account, err := s.repo.FindByLoginKey(ctx, loginKey)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrWrongCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrWrongCredentials
	}

	if s.opts.RequireVerification && !account.Verified {
		return nil, domain.ErrAccountNotVerified
	}

	return account.Redacted(), nil
}

// Get fetches an account by id. Owner or admin only.
func (s *AccountService) Get(ctx context.Context, id string, caller domain.Caller) (*domain.Account, error) {
	if !caller.CanModify(id) {
		return nil, domain.ErrForbidden
	}
	return s.repo.FindByID(ctx, id)
}

// Update applies a partial update. A password in the patch is rehashed
// before it reaches the store.
func (s *AccountService) Update(ctx context.Context, id string, caller domain.Caller, patch ports.UpdateAccountInput) error {
	if !caller.CanModify(id) {
		return domain.ErrForbidden
	}

	update := ports.AccountUpdate{
		Name:             patch.Name,
		Username:         patch.Username,
		Email:            patch.Email,
		Admin:            patch.Admin,
		SubscriptionTier: patch.SubscriptionTier,
	}

	if patch.Email != nil && !domain.ValidEmail(*patch.Email) {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}

	if patch.Password != nil {
		if err := s.opts.Password.Check(*patch.Password); err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), s.opts.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hashed := string(hash)
		update.PasswordHash = &hashed
	}

	if err := s.repo.UpdateByID(ctx, id, update); err != nil {
		return err
	}

	s.log.Info().Str("account_id", id).Msg("account updated")
	return nil
}

// Delete hard-deletes an account and returns the redacted record.
func (s *AccountService) Delete(ctx context.Context, id string, caller domain.Caller) (*domain.Account, error) {
	if !caller.CanModify(id) {
		return nil, domain.ErrForbidden
	}

	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", id).Msg("account deleted")
	return deleted.Redacted(), nil
}

func (s *AccountService) validateSignup(input ports.CreateAccountInput) error {
	if strings.TrimSpace(input.Name) == "" || input.Email == "" || input.Password == "" {
		return fmt.Errorf("%w: missing name, email or password", domain.ErrValidation)
	}
	if s.opts.LoginMode == LoginModeUsername && input.Username == "" {
		return fmt.Errorf("%w: missing username", domain.ErrValidation)
	}
	if !domain.ValidEmail(input.Email) {
		return fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}
	return s.opts.Password.Check(input.Password)
}

// generateVerificationToken returns an opaque hex token with tokenBytes of
// entropy.
func generateVerificationToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
