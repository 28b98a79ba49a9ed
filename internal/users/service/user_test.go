package service

import (
	"context"
	"testing"
	"time"

	"github.com/PaingThuTa/booking-system-intern/internal/users/repository"
	"github.com/PaingThuTa/booking-system-intern/internal/users/validator"
	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/memory"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

const testSecret = "test-secret-with-enough-entropy"

type testEnv struct {
	svc    UserService
	repo   repository.UserRepository
	tokens *auth.TokenIssuer
}

func newTestEnv(t *testing.T, admins ...string) *testEnv {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	store := memory.NewStore()
	repo := repository.NewMemoryUserRepository(store)
	tokens := auth.NewTokenIssuer(testSecret, time.Hour)

	return &testEnv{
		svc: NewUserService(
			repo,
			store,
			validator.NewUserValidator(log),
			auth.NewRoleResolver(admins),
			tokens,
			&config.Config{Log: log},
		),
		repo:   repo,
		tokens: tokens,
	}
}

func signIn(email, name, internID string) *model.SignInRequest {
	return &model.SignInRequest{Email: email, FullName: name, InternID: internID}
}

// ────────────────────────────────────────────────
// Tests for SignIn()
// ────────────────────────────────────────────────

func TestSignIn_CreatesUser(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.svc.SignIn(context.Background(), signIn("  Ada@Example.com ", "  Ada   Lovelace ", "int-001"))
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	u := result.User
	if u.ID == "" || u.Email != "ada@example.com" || u.Name != "Ada Lovelace" || u.InternID != "INT-001" {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.Role != model.RoleIntern {
		t.Errorf("expected INTERN, got %s", u.Role)
	}

	principal, err := env.tokens.Parse(result.Token)
	if err != nil {
		t.Fatalf("issued token should parse: %v", err)
	}
	if principal.UserID != u.ID || principal.Role != model.RoleIntern {
		t.Errorf("token principal mismatch: %+v", principal)
	}
	if !result.ExpiresAt.After(time.Now()) {
		t.Errorf("expected future expiry, got %s", result.ExpiresAt)
	}
}

func TestSignIn_ReturningUser(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.SignIn(context.Background(), signIn("ada@example.com", "Ada", "INT-001"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.svc.SignIn(context.Background(), signIn("ADA@example.com", "Ada Lovelace", "int-001"))
	if err != nil {
		t.Fatalf("returning sign-in: %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("expected same user, got %s and %s", first.User.ID, second.User.ID)
	}
	if second.User.Name != "Ada Lovelace" {
		t.Errorf("expected name to be refreshed, got %q", second.User.Name)
	}
}

func TestSignIn_Conflicts(t *testing.T) {
	tests := []struct {
		name    string
		request *model.SignInRequest
		message string
	}{
		{
			name:    "email linked to another intern id",
			request: signIn("ada@example.com", "Ada", "INT-999"),
			message: msgInternIDMismatch,
		},
		{
			name:    "intern id owned by another email",
			request: signIn("grace@example.com", "Grace", "INT-001"),
			message: msgInternIDTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			if _, err := env.svc.SignIn(context.Background(), signIn("ada@example.com", "Ada", "INT-001")); err != nil {
				t.Fatal(err)
			}

			_, err := env.svc.SignIn(context.Background(), tt.request)
			if !apperrors.HasReason(err, apperrors.ReasonIdentityTaken) {
				t.Fatalf("expected identity conflict, got %v", err)
			}
			if got := apperrors.AsAppError(err).Message; got != tt.message {
				t.Errorf("message = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestSignIn_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		request *model.SignInRequest
	}{
		{"bad email", signIn("not-an-email", "Ada", "INT-001")},
		{"short name", signIn("ada@example.com", "A", "INT-001")},
		{"bad intern id", signIn("ada@example.com", "Ada", "int 001!")},
		{"missing intern id", signIn("ada@example.com", "Ada", "")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.SignIn(context.Background(), tt.request)
			if !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSignIn_RoleRecomputedEachTime(t *testing.T) {
	env := newTestEnv(t, "boss@example.com")

	result, err := env.svc.SignIn(context.Background(), signIn("Boss@Example.com", "The Boss", "ADM-1"))
	if err != nil {
		t.Fatal(err)
	}
	if result.User.Role != model.RoleAdmin {
		t.Fatalf("expected ADMIN, got %s", result.User.Role)
	}

	// a stored role that drifted from the allowlist is corrected on sign-in
	stored, err := env.repo.FindByID(context.Background(), result.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored.Role = model.RoleIntern
	if err := env.repo.Update(context.Background(), stored); err != nil {
		t.Fatal(err)
	}

	again, err := env.svc.SignIn(context.Background(), signIn("boss@example.com", "The Boss", "ADM-1"))
	if err != nil {
		t.Fatal(err)
	}
	if again.User.Role != model.RoleAdmin {
		t.Errorf("expected role to be recomputed as ADMIN, got %s", again.User.Role)
	}
}

// ────────────────────────────────────────────────
// Tests for Me()
// ────────────────────────────────────────────────

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	result, err := env.svc.SignIn(context.Background(), signIn("ada@example.com", "Ada", "INT-001"))
	if err != nil {
		t.Fatal(err)
	}

	me, err := env.svc.Me(context.Background(), &auth.Principal{UserID: result.User.ID, Role: model.RoleIntern})
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Email != "ada@example.com" {
		t.Errorf("unexpected user %+v", me)
	}

	if _, err := env.svc.Me(context.Background(), &auth.Principal{UserID: "gone"}); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND for unknown user, got %v", err)
	}
	if _, err := env.svc.Me(context.Background(), nil); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Errorf("expected UNAUTHORIZED without a principal, got %v", err)
	}
}
