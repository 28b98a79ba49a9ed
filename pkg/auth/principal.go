package auth

import (
	"context"

	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   string
	Role     model.Role
	Email    string
	InternID string
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == model.RoleAdmin
}

// Owns reports whether the principal is userID.
func (p *Principal) Owns(userID string) bool {
	return p != nil && p.UserID == userID
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
