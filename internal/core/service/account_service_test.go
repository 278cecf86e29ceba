package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathvisuals/account-api/internal/core/domain"
	"github.com/mathvisuals/account-api/internal/core/ports"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

const goodPassword = "abc123!!"

type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	nextID   int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == account.Email {
			return nil, domain.ErrAccountExists
		}
	}
	r.nextID++
	created := cloneAccount(account)
	created.ID = strconv.Itoa(r.nextID)
	r.accounts[created.ID] = cloneAccount(created)
	return created, nil
}

func (r *stubAccountRepo) FindByLoginKey(_ context.Context, loginKey string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == loginKey || a.Username == loginKey {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

// VerifyByToken mirrors the store's conditional update: the token matches
// at most once.
func (r *stubAccountRepo) VerifyByToken(_ context.Context, token string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if !a.Verified && a.VerificationToken == token {
			a.Verified = true
			a.VerificationToken = ""
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrInvalidToken
}

func (r *stubAccountRepo) UpdateByID(_ context.Context, id string, update ports.AccountUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.PasswordHash != nil {
		a.PasswordHash = *update.PasswordHash
	}
	if update.Admin != nil {
		a.Admin = *update.Admin
	}
	return nil
}

func (r *stubAccountRepo) DeleteByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return a, nil
}

type stubDispatcher struct {
	mu      sync.Mutex
	notices []ports.VerificationNotice
}

func (d *stubDispatcher) Enqueue(notice ports.VerificationNotice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, notice)
}

func newTestService(repo ports.AccountRepository, dispatcher ports.NotificationDispatcher, opts Options) *AccountService {
	return NewAccountService(repo, dispatcher, opts, testLogger())
}

func TestAccountService_Create_Success(t *testing.T) {
	repo := newStubAccountRepo()
	dispatcher := &stubDispatcher{}
	svc := newTestService(repo, dispatcher, Options{})

	out, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if out.Email != "" || out.PasswordHash != "" {
		t.Fatalf("expected redacted output, got %+v", out)
	}

	stored := repo.accounts[out.ID]
	if stored == nil {
		t.Fatalf("account not persisted")
	}
	if stored.PasswordHash == goodPassword {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(goodPassword)); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if stored.Verified {
		t.Fatalf("new account must start unverified")
	}
	if len(stored.VerificationToken) < 40 {
		t.Fatalf("expected a hex token with at least 20 bytes of entropy, got %q", stored.VerificationToken)
	}
	if stored.SubscriptionTier != domain.TierFree {
		t.Fatalf("expected default tier %q, got %q", domain.TierFree, stored.SubscriptionTier)
	}

	if len(dispatcher.notices) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(dispatcher.notices))
	}
	notice := dispatcher.notices[0]
	if notice.Email != "ada@x.com" || notice.Token != stored.VerificationToken {
		t.Fatalf("unexpected notice: %+v", notice)
	}
}

func TestAccountService_Create_Validation(t *testing.T) {
	svc := newTestService(newStubAccountRepo(), &stubDispatcher{}, Options{})

	cases := []struct {
		name  string
		input ports.CreateAccountInput
	}{
		{"missing name", ports.CreateAccountInput{Email: "a@x.com", Password: goodPassword}},
		{"missing email", ports.CreateAccountInput{Name: "Ada", Password: goodPassword}},
		{"missing password", ports.CreateAccountInput{Name: "Ada", Email: "a@x.com"}},
		{"bad email", ports.CreateAccountInput{Name: "Ada", Email: "not-an-email", Password: goodPassword}},
		{"short password", ports.CreateAccountInput{Name: "Ada", Email: "a@x.com", Password: "a1!!"}},
		{"no digit", ports.CreateAccountInput{Name: "Ada", Email: "a@x.com", Password: "abcdef!!"}},
		{"one symbol", ports.CreateAccountInput{Name: "Ada", Email: "a@x.com", Password: "abc1234!"}},
		{"whitespace", ports.CreateAccountInput{Name: "Ada", Email: "a@x.com", Password: "abc 123!!"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tc.input); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestAccountService_Create_UsernameMode(t *testing.T) {
	svc := newTestService(newStubAccountRepo(), &stubDispatcher{}, Options{LoginMode: LoginModeUsername})

	_, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error without username, got %v", err)
	}

	if _, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Username: "ada", Email: "ada@x.com", Password: goodPassword,
	}); err != nil {
		t.Fatalf("Create with username failed: %v", err)
	}
}

func TestAccountService_Create_Duplicate(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, &stubDispatcher{}, Options{})

	input := ports.CreateAccountInput{Name: "Ada", Email: "ada@x.com", Password: goodPassword}
	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), input); !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if len(repo.accounts) != 1 {
		t.Fatalf("expected exactly one stored account, got %d", len(repo.accounts))
	}
}

func TestAccountService_Verify_TokenSingleUse(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, &stubDispatcher{}, Options{})

	_, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	var token string
	for _, a := range repo.accounts {
		token = a.VerificationToken
	}

	verified, err := svc.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if !verified.Verified {
		t.Fatalf("expected verified account")
	}
	if verified.Email != "" || verified.PasswordHash != "" {
		t.Fatalf("expected redacted account, got %+v", verified)
	}

	if _, err := svc.Verify(context.Background(), token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("second verify: expected ErrInvalidToken, got %v", err)
	}
}

func TestAccountService_Verify_MissingToken(t *testing.T) {
	svc := newTestService(newStubAccountRepo(), &stubDispatcher{}, Options{})
	if _, err := svc.Verify(context.Background(), ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAccountService_SignIn(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, &stubDispatcher{}, Options{})

	if _, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	account, err := svc.SignIn(context.Background(), "ada@x.com", goodPassword)
	if err != nil {
		t.Fatalf("signin failed: %v", err)
	}
	if account.Email != "" || account.PasswordHash != "" {
		t.Fatalf("expected redacted account, got %+v", account)
	}
	if account.Name != "Ada" {
		t.Fatalf("unexpected account: %+v", account)
	}

	if _, err := svc.SignIn(context.Background(), "ada@x.com", "wrong1!!"); !errors.Is(err, domain.ErrWrongCredentials) {
		t.Fatalf("expected ErrWrongCredentials for bad password, got %v", err)
	}
	if _, err := svc.SignIn(context.Background(), "ghost@x.com", goodPassword); !errors.Is(err, domain.ErrWrongCredentials) {
		t.Fatalf("expected ErrWrongCredentials for unknown account, got %v", err)
	}
}

func TestAccountService_SignIn_RequiresVerification(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, &stubDispatcher{}, Options{RequireVerification: true})

	if _, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.SignIn(context.Background(), "ada@x.com", goodPassword); !errors.Is(err, domain.ErrAccountNotVerified) {
		t.Fatalf("expected ErrAccountNotVerified, got %v", err)
	}

	var token string
	for _, a := range repo.accounts {
		token = a.VerificationToken
	}
	if _, err := svc.Verify(context.Background(), token); err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if _, err := svc.SignIn(context.Background(), "ada@x.com", goodPassword); err != nil {
		t.Fatalf("signin after verification failed: %v", err)
	}
}

func TestAccountService_Update_Authorization(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, &stubDispatcher{}, Options{})

	out, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "Eve"
	patch := ports.UpdateAccountInput{Name: &name}

	err = svc.Update(context.Background(), out.ID, domain.Caller{AccountID: "other"}, patch)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if repo.accounts[out.ID].Name != "Ada" {
		t.Fatalf("record changed despite forbidden update")
	}

	if err := svc.Update(context.Background(), out.ID, domain.Caller{AccountID: out.ID}, patch); err != nil {
		t.Fatalf("owner update failed: %v", err)
	}
	if repo.accounts[out.ID].Name != "Eve" {
		t.Fatalf("owner update not applied")
	}

	name = "Root"
	if err := svc.Update(context.Background(), out.ID, domain.Caller{AccountID: "someone", Admin: true}, patch); err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
}

func TestAccountService_Update_RehashesPassword(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, &stubDispatcher{}, Options{})

	out, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newPassword := "xyz789??"
	patch := ports.UpdateAccountInput{Password: &newPassword}
	if err := svc.Update(context.Background(), out.ID, domain.Caller{AccountID: out.ID}, patch); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stored := repo.accounts[out.ID]
	if stored.PasswordHash == newPassword {
		t.Fatalf("plaintext password persisted")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(newPassword)); err != nil {
		t.Fatalf("stored hash does not match new password: %v", err)
	}

	if _, err := svc.SignIn(context.Background(), "ada@x.com", newPassword); err != nil {
		t.Fatalf("signin with new password failed: %v", err)
	}
}

func TestAccountService_Update_NotFound(t *testing.T) {
	svc := newTestService(newStubAccountRepo(), &stubDispatcher{}, Options{})
	name := "Eve"
	err := svc.Update(context.Background(), "missing", domain.Caller{Admin: true}, ports.UpdateAccountInput{Name: &name})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountService_Delete(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, &stubDispatcher{}, Options{})

	out, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Delete(context.Background(), out.ID, domain.Caller{AccountID: "other"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	deleted, err := svc.Delete(context.Background(), out.ID, domain.Caller{AccountID: out.ID})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if deleted.Email != "" || deleted.PasswordHash != "" {
		t.Fatalf("expected redacted record, got %+v", deleted)
	}
	if len(repo.accounts) != 0 {
		t.Fatalf("account not removed")
	}

	if _, err := svc.Delete(context.Background(), out.ID, domain.Caller{Admin: true}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound on second delete, got %v", err)
	}
}

func TestAccountService_Get_Authorization(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, &stubDispatcher{}, Options{})

	out, err := svc.Create(context.Background(), ports.CreateAccountInput{
		Name: "Ada", Email: "ada@x.com", Password: goodPassword,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Get(context.Background(), out.ID, domain.Caller{AccountID: "other"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), out.ID, domain.Caller{AccountID: out.ID}); err != nil {
		t.Fatalf("owner get failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), out.ID, domain.Caller{Admin: true}); err != nil {
		t.Fatalf("admin get failed: %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing", domain.Caller{Admin: true}); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
