package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func decodeError(t *testing.T, body io.Reader) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

// ────────────────────────────────────────────────
// Recovery
// ────────────────────────────────────────────────

func TestRecovery(t *testing.T) {
	h := Recovery(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	resp := decodeError(t, w.Body)
	if resp.Code != apperrors.CodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", resp.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Errorf("panic value leaked to client: %s", w.Body.String())
	}
}

// ────────────────────────────────────────────────
// RequestLogging
// ────────────────────────────────────────────────

func TestRequestLogging_RequestID(t *testing.T) {
	var seen string
	h := RequestLogging(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if seen == "" || w.Header().Get(RequestIDHeader) != seen {
			t.Errorf("expected generated id echoed, got ctx %q header %q", seen, w.Header().Get(RequestIDHeader))
		}
		if w.Code != http.StatusTeapot {
			t.Errorf("status not passed through: %d", w.Code)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if seen != "req-123" {
			t.Errorf("expected incoming id, got %q", seen)
		}
	})
}

func TestResponseWriter_UnwrapSupportsFlush(t *testing.T) {
	h := RequestLogging(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("Flush through logging wrapper: %v", err)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

// ────────────────────────────────────────────────
// RequestTimeout
// ────────────────────────────────────────────────

func TestRequestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		w.WriteHeader(http.StatusOK)
	})
	h := RequestTimeout(20*time.Millisecond, "/api/v1/events")(slow)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil))
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", w.Code)
	}
	if resp := decodeError(t, w.Body); resp.Code != apperrors.CodeTimeout {
		t.Errorf("expected TIMEOUT, got %s", resp.Code)
	}
}

func TestRequestTimeout_ExemptPath(t *testing.T) {
	h := RequestTimeout(10*time.Millisecond, "/api/v1/events")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Deadline(); ok {
			t.Error("exempt path should not get a deadline")
		}
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequestTimeout_FastHandler(t *testing.T) {
	h := RequestTimeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusCreated || w.Body.String() != "ok" || w.Header().Get("X-Test") != "yes" {
		t.Errorf("unexpected response %d %q %v", w.Code, w.Body.String(), w.Header())
	}
}

// ────────────────────────────────────────────────
// ContentTypeValidation and MaxRequestSize
// ────────────────────────────────────────────────

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"json post", http.MethodPost, "application/json", http.StatusOK},
		{"json with charset", http.MethodPatch, "application/json; charset=utf-8", http.StatusOK},
		{"form post", http.MethodPost, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"missing on post", http.MethodPost, "", http.StatusUnsupportedMediaType},
		{"get ignores header", http.MethodGet, "", http.StatusOK},
		{"delete ignores header", http.MethodDelete, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	var readErr error
	h := MaxRequestSize(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"time_block_id":"x"}`)))

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Errorf("expected MaxBytesError, got %v", readErr)
	}
}

// ────────────────────────────────────────────────
// Authentication
// ────────────────────────────────────────────────

type mockTokenParser struct {
	parseFunc func(token string) (*auth.Principal, error)
}

func (m *mockTokenParser) Parse(token string) (*auth.Principal, error) {
	return m.parseFunc(token)
}

func TestAuthentication(t *testing.T) {
	parser := &mockTokenParser{
		parseFunc: func(token string) (*auth.Principal, error) {
			if token != "good" {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Principal{UserID: "u-1", Role: model.RoleIntern}, nil
		},
	}

	var got *auth.Principal
	h := Authentication(parser, newTestLogger(), AuthPaths{
		Public:     []string{"/api/v1/auth/sign-in"},
		QueryToken: []string{"/api/v1/events"},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		method     string
		target     string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"public path", http.MethodPost, "/api/v1/auth/sign-in", "", http.StatusOK, ""},
		{"missing token", http.MethodGet, "/api/v1/me", "", http.StatusUnauthorized, ""},
		{"bad token", http.MethodGet, "/api/v1/me", "Bearer nope", http.StatusUnauthorized, ""},
		{"wrong scheme", http.MethodGet, "/api/v1/me", "Basic good", http.StatusUnauthorized, ""},
		{"bearer token", http.MethodGet, "/api/v1/me", "Bearer good", http.StatusOK, "u-1"},
		{"lowercase scheme", http.MethodGet, "/api/v1/me", "bearer good", http.StatusOK, "u-1"},
		{"query token on stream", http.MethodGet, "/api/v1/events?access_token=good", "", http.StatusOK, "u-1"},
		{"query token ignored on post", http.MethodPost, "/api/v1/events?access_token=good", "", http.StatusUnauthorized, ""},
		{"query token ignored off stream", http.MethodGet, "/api/v1/me?access_token=good", "", http.StatusUnauthorized, ""},
		{"query token ignored on bookings", http.MethodGet, "/api/v1/bookings?access_token=good", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantUser != "" && (got == nil || got.UserID != tt.wantUser) {
				t.Errorf("expected principal %s, got %+v", tt.wantUser, got)
			}
		})
	}
}

// ────────────────────────────────────────────────
// Idempotency
// ────────────────────────────────────────────────

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	h := Idempotency(store, "", newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"call":%d}`, n)
	}))

	send := func(p *auth.Principal) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{}"))
		req.Header.Set(DefaultIdempotencyHeader, "key-1")
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	alice := &auth.Principal{UserID: "alice"}
	first := send(alice)
	second := send(alice)

	if calls.Load() != 1 {
		t.Fatalf("expected handler to run once, ran %d times", calls.Load())
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("replay mismatch: %d %q vs %q", second.Code, second.Body.String(), first.Body.String())
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Errorf("replayed response should be marked")
	}

	// another user with the same key is a different request
	send(&auth.Principal{UserID: "bob"})
	if calls.Load() != 2 {
		t.Errorf("keys must be scoped per user, handler ran %d times", calls.Load())
	}
}

func TestIdempotency_SkipsFailuresAndReads(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Hour)
	defer store.Stop()

	var calls atomic.Int32
	status := http.StatusConflict
	h := Idempotency(store, "", newTestLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(status)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		req.Header.Set(DefaultIdempotencyHeader, "key-1")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls.Load() != 2 {
		t.Errorf("failed responses must not be cached, handler ran %d times", calls.Load())
	}

	status = http.StatusOK
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
		req.Header.Set(DefaultIdempotencyHeader, "key-2")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls.Load() != 4 {
		t.Errorf("GET requests must bypass the cache, handler ran %d times", calls.Load())
	}
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore(10 * time.Millisecond)
	defer store.Stop()

	ctx := context.Background()
	if err := store.Set(ctx, "k", &CachedResponse{StatusCode: http.StatusOK}); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := store.Get(ctx, "k"); !found {
		t.Fatal("expected fresh entry")
	}

	time.Sleep(20 * time.Millisecond)
	if _, found, _ := store.Get(ctx, "k"); found {
		t.Error("expected entry to expire")
	}

	store.Stop()
	store.Stop()
}
