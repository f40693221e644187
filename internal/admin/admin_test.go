package admin

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/internal/middleware"
	"github.com/fastygo/caseboard/repository/sqlite"
)

type harness struct {
	store  *sqlite.Store
	tokens *middleware.TokenService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := sqlite.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	tokens, err := middleware.NewTokenService("admin-secret", "caseboard")
	if err != nil {
		t.Fatal(err)
	}
	return &harness{store: store, tokens: tokens}
}

func (h *harness) run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, Deps{
		Directory: h.store,
		Tokens:    h.tokens,
		TokenTTL:  time.Hour,
		Stdout:    &stdout,
		Stderr:    &stderr,
	})
	return code, strings.TrimSpace(stdout.String()), stderr.String()
}

func (h *harness) runID(t *testing.T, args ...string) int64 {
	t.Helper()
	code, out, errOut := h.run(t, args...)
	if code != ExitSuccess {
		t.Fatalf("%v: exit %d: %s", args, code, errOut)
	}
	id, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		t.Fatalf("%v: expected id, got %q", args, out)
	}
	return id
}

func TestUserPoolMemberFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	userID := h.runID(t, "user", "-email", "ann@example.com", "-first", "Ann", "-role", "Administrator")
	poolID := h.runID(t, "pool", "-name", "Conveyancing", "-description", "Property work")

	if code, _, errOut := h.run(t, "member", "add", "-pool", strconv.FormatInt(poolID, 10), "-user", strconv.FormatInt(userID, 10)); code != ExitSuccess {
		t.Fatalf("member add: %d %s", code, errOut)
	}
	members, err := h.store.MembersOf(ctx, poolID)
	if err != nil || len(members) != 1 || members[0] != userID {
		t.Fatalf("expected [%d], got %v (%v)", userID, members, err)
	}
	role, _ := h.store.RoleOf(ctx, userID)
	if role != domain.RoleAdministrator {
		t.Fatalf("expected administrator, got %s", role)
	}

	if code, _, _ := h.run(t, "member", "remove", "-pool", strconv.FormatInt(poolID, 10), "-user", strconv.FormatInt(userID, 10)); code != ExitSuccess {
		t.Fatalf("member remove failed")
	}
	members, _ = h.store.MembersOf(ctx, poolID)
	if len(members) != 0 {
		t.Fatalf("expected no members, got %v", members)
	}
}

func TestTokenCommand(t *testing.T) {
	h := newHarness(t)
	userID := h.runID(t, "user", "-email", "bo@example.com")

	code, out, errOut := h.run(t, "token", "-user", strconv.FormatInt(userID, 10), "-ttl", "10m")
	if code != ExitSuccess {
		t.Fatalf("token: %d %s", code, errOut)
	}
	claims, err := h.tokens.Verify(out)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != userID || time.Until(claims.ExpiresAt) > 10*time.Minute {
		t.Fatalf("unexpected claims %+v", claims)
	}

	code, _, _ = h.run(t, "token", "-user", "999")
	if code != ExitFailure {
		t.Fatalf("expected failure for unknown user, got %d", code)
	}
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	cases := [][]string{
		{},
		{"frobnicate"},
		{"user"},
		{"user", "-email", "x@example.com", "-role", "owner"},
		{"pool"},
		{"member"},
		{"member", "add", "-pool", "1"},
		{"token"},
		{"user", "-bogus"},
	}
	for _, args := range cases {
		if code, _, _ := h.run(t, args...); code != ExitInvalidUsage {
			t.Fatalf("%v: expected usage exit, got %d", args, code)
		}
	}
}

func TestMemberAddUnknownUser(t *testing.T) {
	h := newHarness(t)
	poolID := h.runID(t, "pool", "-name", "Probate")
	code, _, errOut := h.run(t, "member", "add", "-pool", strconv.FormatInt(poolID, 10), "-user", "77")
	if code != ExitFailure || !strings.Contains(errOut, "not found") {
		t.Fatalf("expected not found failure, got %d %q", code, errOut)
	}
}

func TestTokenRefusedForDisabledUser(t *testing.T) {
	h := newHarness(t)
	userID := h.runID(t, "user", "-email", "gone@example.com", "-role", "administrator", "-disabled")

	code, out, errOut := h.run(t, "token", "-user", strconv.FormatInt(userID, 10))
	if code != ExitFailure || out != "" || !strings.Contains(errOut, "disabled") {
		t.Fatalf("expected refusal, got %d %q %q", code, out, errOut)
	}
}

func TestUserUpdateUnknownID(t *testing.T) {
	h := newHarness(t)
	code, _, errOut := h.run(t, "user", "-id", "5", "-email", "ghost@example.com")
	if code != ExitFailure || !strings.Contains(errOut, "not found") {
		t.Fatalf("expected not found failure, got %d %q", code, errOut)
	}

	// later creations allocate fresh ids and never overwrite existing users
	first := h.runID(t, "user", "-email", "one@example.com")
	second := h.runID(t, "user", "-email", "two@example.com")
	if first == second {
		t.Fatalf("expected distinct ids, got %d twice", first)
	}
	u, err := h.store.UserByID(context.Background(), first)
	if err != nil || u.Email != "one@example.com" {
		t.Fatalf("first user overwritten: %+v, %v", u, err)
	}
}
