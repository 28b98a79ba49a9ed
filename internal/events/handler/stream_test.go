package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
	"github.com/PaingThuTa/booking-system-intern/pkg/notify"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStream_RelaysHubEvents(t *testing.T) {
	hub := notify.NewHub()
	defer hub.Close()

	h := NewStreamHandler(hub, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	ctx = auth.WithPrincipal(ctx, &auth.Principal{UserID: "u-1", Role: model.RoleIntern})
	req := httptest.NewRequest(http.MethodGet, StreamPath, nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(w, req, httprouter.Params{})
	}()

	waitFor(t, func() bool { return hub.Subscribers() == 1 })

	evt, err := notify.NewEvent(notify.EventBookingCreated, notify.BookingCreated{BookingID: "b-1", TimeBlockID: "tb-1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := hub.Publish(context.Background(), evt); err != nil {
		t.Fatal(err)
	}

	// give the stream a moment to write before disconnecting
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if hub.Subscribers() != 0 {
		t.Errorf("stream should unsubscribe on disconnect")
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		"id: " + evt.ID + "\n",
		"event: booking-created\n",
		`data: {"bookingId":"b-1","timeBlockId":"tb-1"}` + "\n\n",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q in:\n%s", want, body)
		}
	}
}

func TestStream_KeepAlive(t *testing.T) {
	hub := notify.NewHub()
	defer hub.Close()

	h := NewStreamHandler(hub, newTestLogger())
	h.keepAlive = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	ctx = auth.WithPrincipal(ctx, &auth.Principal{UserID: "u-1", Role: model.RoleIntern})

	w := httptest.NewRecorder()
	h.Stream(w, httptest.NewRequest(http.MethodGet, StreamPath, nil).WithContext(ctx), httprouter.Params{})

	if !strings.Contains(w.Body.String(), ": keep-alive\n\n") {
		t.Errorf("expected keep-alive comments, got %q", w.Body.String())
	}
}

func TestStream_RequiresAuthentication(t *testing.T) {
	hub := notify.NewHub()
	defer hub.Close()

	w := httptest.NewRecorder()
	NewStreamHandler(hub, newTestLogger()).Stream(w, httptest.NewRequest(http.MethodGet, StreamPath, nil), httprouter.Params{})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if hub.Subscribers() != 0 {
		t.Errorf("anonymous request must not subscribe")
	}
}

func TestStream_ClosedHub(t *testing.T) {
	hub := notify.NewHub()
	hub.Close()

	req := httptest.NewRequest(http.MethodGet, StreamPath, nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{UserID: "u-1"}))
	w := httptest.NewRecorder()
	NewStreamHandler(hub, newTestLogger()).Stream(w, req, httprouter.Params{})

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
