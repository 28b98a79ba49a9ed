package middleware

import (
	"net/http"
	"strings"

	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	httputil "github.com/PaingThuTa/booking-system-intern/pkg/http"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
)

type TokenParser interface {
	Parse(token string) (*auth.Principal, error)
}

// AuthPaths lists the paths that get special treatment from Authentication.
type AuthPaths struct {
	// Public paths pass through without a token.
	Public []string
	// QueryToken paths also accept the token from the access_token query
	// parameter on GET requests. Browsers cannot set headers on an
	// EventSource, so only stream endpoints belong here.
	QueryToken []string
}

// Authentication verifies the bearer token and stores the principal in the
// request context.
func Authentication(tokens TokenParser, log *logger.Logger, paths AuthPaths) func(http.Handler) http.Handler {
	open := pathSet(paths.Public)
	queryToken := pathSet(paths.QueryToken)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := open[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if _, ok := queryToken[r.URL.Path]; ok && token == "" && r.Method == http.MethodGet {
				token = r.URL.Query().Get("access_token")
			}
			if token == "" {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
				return
			}

			principal, err := tokens.Parse(token)
			if err != nil {
				log.Warn("Rejected access token",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired access token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

func pathSet(paths []string) map[string]struct{} {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}
