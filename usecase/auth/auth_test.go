package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository/sqlite"
)

type memoryRevocations struct {
	tokens map[string]domain.RevokedToken
	err    error
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{tokens: map[string]domain.RevokedToken{}}
}

func (m *memoryRevocations) Revoke(ctx context.Context, token *domain.RevokedToken) error {
	if m.err != nil {
		return m.err
	}
	m.tokens[token.ID] = *token
	return nil
}

func (m *memoryRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.tokens[tokenID]
	return ok, nil
}

func setup(t *testing.T) (*UseCase, *sqlite.Store, *memoryRevocations) {
	t.Helper()
	store, err := sqlite.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	revocations := newMemoryRevocations()
	return New(store, revocations, nil), store, revocations
}

func seed(t *testing.T, store *sqlite.Store, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{Email: string(role) + "@example.com", Role: role, Enabled: true}
	if err := store.UpsertUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func TestAuthenticateResolvesRole(t *testing.T) {
	uc, store, _ := setup(t)
	user := seed(t, store, domain.RoleAdministrator)

	actor, err := uc.Authenticate(context.Background(), Claims{TokenID: "t1", UserID: user.ID})
	if err != nil {
		t.Fatal(err)
	}
	if actor.UserID != user.ID || actor.Role != domain.RoleAdministrator {
		t.Fatalf("unexpected actor %+v", actor)
	}

	// demotion applies to the next call
	user.Role = domain.RoleStandard
	if err := store.UpsertUser(context.Background(), user); err != nil {
		t.Fatal(err)
	}
	actor, err = uc.Authenticate(context.Background(), Claims{TokenID: "t1", UserID: user.ID})
	if err != nil {
		t.Fatal(err)
	}
	if actor.IsElevated() {
		t.Fatalf("expected demoted actor, got %+v", actor)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	uc, _, _ := setup(t)
	for _, id := range []int64{0, -3, 404} {
		if _, err := uc.Authenticate(context.Background(), Claims{UserID: id}); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("user %d: expected ErrUnauthorized, got %v", id, err)
		}
	}
}

func TestRevokeThenAuthenticate(t *testing.T) {
	uc, store, _ := setup(t)
	user := seed(t, store, domain.RoleStandard)
	claims := Claims{TokenID: "abc", UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}

	if err := uc.Revoke(context.Background(), claims); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Authenticate(context.Background(), claims); !errors.Is(err, domain.ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}

	other := Claims{TokenID: "def", UserID: user.ID}
	if _, err := uc.Authenticate(context.Background(), other); err != nil {
		t.Fatalf("unrelated token must still authenticate: %v", err)
	}
}

func TestRevokeRequiresTokenID(t *testing.T) {
	uc, _, _ := setup(t)
	err := uc.Revoke(context.Background(), Claims{UserID: 1})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAuthenticateRevocationStoreDown(t *testing.T) {
	uc, store, revocations := setup(t)
	user := seed(t, store, domain.RoleStandard)
	revocations.err = domain.StorageError("check token revocation", errors.New("connection refused"))

	_, err := uc.Authenticate(context.Background(), Claims{TokenID: "x", UserID: user.ID})
	if !domain.IsDomainError(err, domain.ErrCodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestAuthenticateDisabledUser(t *testing.T) {
	uc, store, _ := setup(t)
	ctx := context.Background()
	user := &domain.User{Email: "off@example.com", Role: domain.RoleAdministrator, Enabled: false}
	if err := store.UpsertUser(ctx, user); err != nil {
		t.Fatal(err)
	}

	_, err := uc.Authenticate(ctx, Claims{TokenID: "t1", UserID: user.ID})
	if !errors.Is(err, domain.ErrUserDisabled) || !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}

	user.Enabled = true
	if err := store.UpsertUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	actor, err := uc.Authenticate(ctx, Claims{TokenID: "t1", UserID: user.ID})
	if err != nil || actor.Role != domain.RoleAdministrator {
		t.Fatalf("re-enabled user must authenticate: %+v, %v", actor, err)
	}

	// disabling takes effect on the next call
	user.Enabled = false
	if err := store.UpsertUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.Authenticate(ctx, Claims{TokenID: "t1", UserID: user.ID}); !errors.Is(err, domain.ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled after disabling, got %v", err)
	}
}
