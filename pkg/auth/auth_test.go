package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestRoleResolver(t *testing.T) {
	resolver := NewRoleResolver([]string{" Admin@Example.com ", "", "lead@example.com"})

	tests := []struct {
		email string
		want  model.Role
	}{
		{"admin@example.com", model.RoleAdmin},
		{"ADMIN@EXAMPLE.COM", model.RoleAdmin},
		{"lead@example.com", model.RoleAdmin},
		{"intern@example.com", model.RoleIntern},
		{"", model.RoleIntern},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := resolver.Resolve(tt.email); got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.email, got, tt.want)
			}
		})
	}
}

func TestIssueAndParse(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	user := &model.User{ID: "u1", Email: "a@example.com", InternID: "INT-1", Role: model.RoleIntern}

	token, expiresAt, err := ti.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expected expiry in the future, got %v", expiresAt)
	}

	principal, err := ti.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if principal.UserID != "u1" || principal.Role != model.RoleIntern || principal.InternID != "INT-1" {
		t.Errorf("unexpected principal: %+v", principal)
	}
}

func TestParseRejects(t *testing.T) {
	ti := NewTokenIssuer(testSecret, time.Hour)
	user := &model.User{ID: "u1", Email: "a@example.com", Role: model.RoleAdmin}
	valid, _, _ := ti.Issue(user)

	expired := NewTokenIssuer(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _, _ := expired.Issue(user)

	otherSecret, _, _ := NewTokenIssuer("ffffffffffffffffffffffffffffffff", time.Hour).Issue(user)

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: "ROOT",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    issuerName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    issuerName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"tampered", valid + "x"},
		{"expired", expiredToken},
		{"wrong secret", otherSecret},
		{"unknown role", badRole},
		{"none algorithm", noneAlg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ti.Parse(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Error("expected no principal in empty context")
	}

	p := &Principal{UserID: "u1", Role: model.RoleAdmin}
	ctx := WithPrincipal(context.Background(), p)
	got, ok := PrincipalFromContext(ctx)
	if !ok || got.UserID != "u1" || !got.IsAdmin() {
		t.Errorf("unexpected principal %+v", got)
	}
	if !got.Owns("u1") || got.Owns("u2") {
		t.Error("Owns mismatch")
	}

	var nilPrincipal *Principal
	if nilPrincipal.IsAdmin() {
		t.Error("nil principal must not be admin")
	}
}
