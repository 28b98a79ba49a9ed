package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

type mockBookingService struct {
	createFunc func(ctx context.Context, viewer *auth.Principal, req *model.BookingCreate) (*model.Booking, error)
	cancelFunc func(ctx context.Context, viewer *auth.Principal, id string) error
	activeFunc func(ctx context.Context, viewer *auth.Principal) (*model.BookingDetails, error)
	listFunc   func(ctx context.Context, viewer *auth.Principal) ([]*model.BookingDetails, error)
}

func (m *mockBookingService) Create(ctx context.Context, viewer *auth.Principal, req *model.BookingCreate) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, viewer, req)
	}
	return &model.Booking{}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, viewer *auth.Principal, id string) error {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, viewer, id)
	}
	return nil
}

func (m *mockBookingService) Get(ctx context.Context, viewer *auth.Principal, id string) (*model.BookingDetails, error) {
	return nil, apperrors.Forbidden("You can only view your own bookings")
}

func (m *mockBookingService) List(ctx context.Context, viewer *auth.Principal) ([]*model.BookingDetails, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, viewer)
	}
	return []*model.BookingDetails{}, nil
}

func (m *mockBookingService) Active(ctx context.Context, viewer *auth.Principal) (*model.BookingDetails, error) {
	if m.activeFunc != nil {
		return m.activeFunc(ctx, viewer)
	}
	return nil, nil
}

var intern = &auth.Principal{UserID: "intern-1", Role: model.RoleIntern}

func newRouter(svc *mockBookingService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	router := httprouter.New()
	NewBookingHandler(svc, log).RegisterRoutes(router)
	return router
}

func serve(router *httprouter.Router, method, target, body string, p *auth.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		principal  *auth.Principal
		serviceErr error
		wantStatus int
		wantReason string
	}{
		{
			name:       "created",
			body:       `{"time_block_id":"tb-1"}`,
			principal:  intern,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "block full",
			body:       `{"time_block_id":"tb-1"}`,
			principal:  intern,
			serviceErr: apperrors.ConflictWithReason(apperrors.ReasonBlockFull, "This time block is fully booked."),
			wantStatus: http.StatusConflict,
			wantReason: apperrors.ReasonBlockFull,
		},
		{
			name:       "already booked",
			body:       `{"time_block_id":"tb-1"}`,
			principal:  intern,
			serviceErr: apperrors.ConflictWithReason(apperrors.ReasonAlreadyBooked, "You already have an active booking."),
			wantStatus: http.StatusConflict,
			wantReason: apperrors.ReasonAlreadyBooked,
		},
		{
			name:       "malformed body",
			body:       `not json`,
			principal:  intern,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unauthenticated",
			body:       `{"time_block_id":"tb-1"}`,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockBookingService{
				createFunc: func(ctx context.Context, viewer *auth.Principal, req *model.BookingCreate) (*model.Booking, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.Booking{ID: "b-1", UserID: viewer.UserID, TimeBlockID: req.TimeBlockID, Status: model.BookingConfirmed}, nil
				},
			})

			w := serve(router, http.MethodPost, "/api/v1/bookings", tt.body, tt.principal)
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantReason != "" {
				var body apperrors.ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Details["reason"] != tt.wantReason {
					t.Errorf("reason = %v, want %s", body.Details["reason"], tt.wantReason)
				}
			}
		})
	}
}

func TestActive_NoBookingIsNull(t *testing.T) {
	router := newRouter(&mockBookingService{})

	w := serve(router, http.MethodGet, "/api/v1/bookings/active", "", intern)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"data":null}` {
		t.Errorf("unexpected body %s", got)
	}
}

func TestCancel_PassesIDAndViewer(t *testing.T) {
	var gotID, gotUser string
	router := newRouter(&mockBookingService{
		cancelFunc: func(ctx context.Context, viewer *auth.Principal, id string) error {
			gotID, gotUser = id, viewer.UserID
			return nil
		},
	})

	w := serve(router, http.MethodDelete, "/api/v1/bookings/id/b-42", "", intern)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if gotID != "b-42" || gotUser != intern.UserID {
		t.Errorf("service got id %q user %q", gotID, gotUser)
	}
}

func TestGetByID_Forbidden(t *testing.T) {
	router := newRouter(&mockBookingService{})

	w := serve(router, http.MethodGet, "/api/v1/bookings/id/b-1", "", intern)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestList(t *testing.T) {
	router := newRouter(&mockBookingService{
		listFunc: func(ctx context.Context, viewer *auth.Principal) ([]*model.BookingDetails, error) {
			return []*model.BookingDetails{
				{Booking: model.Booking{ID: "b-2"}},
				{Booking: model.Booking{ID: "b-1"}},
			}, nil
		},
	})

	w := serve(router, http.MethodGet, "/api/v1/bookings", "", intern)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Data []model.BookingDetails `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 || body.Data[0].ID != "b-2" {
		t.Errorf("unexpected list: %+v", body.Data)
	}
}
