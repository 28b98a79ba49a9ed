package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

type mockUserService struct {
	signInFunc func(ctx context.Context, req *model.SignInRequest) (*model.SignInResult, error)
}

func (m *mockUserService) SignIn(ctx context.Context, req *model.SignInRequest) (*model.SignInResult, error) {
	return m.signInFunc(ctx, req)
}

func (m *mockUserService) Me(ctx context.Context, viewer *auth.Principal) (*model.User, error) {
	return &model.User{ID: viewer.UserID, Email: viewer.Email, Role: viewer.Role}, nil
}

func newRouter(svc *mockUserService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	router := httprouter.New()
	NewUserHandler(svc, log).RegisterRoutes(router)
	return router
}

func TestSignIn(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"success", `{"email":"ada@example.com","full_name":"Ada","intern_id":"INT-1"}`, nil, http.StatusOK},
		{"identity conflict", `{"email":"ada@example.com","full_name":"Ada","intern_id":"INT-2"}`,
			apperrors.ConflictWithReason(apperrors.ReasonIdentityTaken, "This account is linked to a different intern ID."), http.StatusConflict},
		{"validation", `{"email":"nope"}`, apperrors.Validation("Sign-in validation failed", nil), http.StatusUnprocessableEntity},
		{"malformed", `{`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockUserService{
				signInFunc: func(ctx context.Context, req *model.SignInRequest) (*model.SignInResult, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.SignInResult{
						User:      &model.User{ID: "u-1", Email: req.Email, InternID: req.InternID, Role: model.RoleIntern},
						Token:     "signed.jwt.token",
						ExpiresAt: time.Now().Add(time.Hour),
					}, nil
				},
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, SignInPath, strings.NewReader(tt.body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				Data model.SignInResult `json:"data"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Data.Token == "" || body.Data.User.Email != "ada@example.com" {
				t.Errorf("unexpected result: %+v", body.Data)
			}
		})
	}
}

func TestMe(t *testing.T) {
	router := newRouter(&mockUserService{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a principal, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: "u-1", Email: "ada@example.com", Role: model.RoleIntern}))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"email":"ada@example.com"`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}
}
