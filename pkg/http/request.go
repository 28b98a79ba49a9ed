package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
)

// DecodeJSON reads the request body into dst. Malformed or oversized bodies
// come back as AppErrors ready for WriteError.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge)
		}
		return apperrors.InvalidInput("Invalid request body")
	}
	return nil
}

// Principal returns the authenticated caller.
func Principal(r *http.Request) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	return p, nil
}

func RequireAdmin(r *http.Request) (*auth.Principal, error) {
	p, err := Principal(r)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}
	return p, nil
}
