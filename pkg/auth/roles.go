package auth

import (
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
	"github.com/PaingThuTa/booking-system-intern/pkg/sanitizer"
)

// RoleResolver maps an email to a role using a fixed admin allow-list.
type RoleResolver struct {
	admins map[string]struct{}
}

func NewRoleResolver(adminEmails []string) *RoleResolver {
	emails := sanitizer.SanitizeSlice(adminEmails, sanitizer.NormalizeEmail)
	admins := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		admins[email] = struct{}{}
	}
	return &RoleResolver{admins: admins}
}

func (r *RoleResolver) Resolve(email string) model.Role {
	if _, ok := r.admins[sanitizer.NormalizeEmail(email)]; ok {
		return model.RoleAdmin
	}
	return model.RoleIntern
}
