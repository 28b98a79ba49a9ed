package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	httputil "github.com/PaingThuTa/booking-system-intern/pkg/http"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/notify"
)

// StreamPath serves Server-Sent Events. Request timeouts do not apply to it.
const StreamPath = "/api/v1/events"

const DefaultKeepAlive = 25 * time.Second

type Subscriber interface {
	Subscribe(buffer int) (<-chan notify.Event, func(), error)
}

type StreamHandler struct {
	hub       Subscriber
	keepAlive time.Duration
	log       *logger.Logger
}

func NewStreamHandler(hub Subscriber, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		hub:       hub,
		keepAlive: DefaultKeepAlive,
		log:       log,
	}
}

func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	viewer, err := httputil.Principal(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stream", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	events, unsubscribe, err := h.hub.Subscribe(notify.DefaultSubscriberBuffer)
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.Unavailable("event stream", err)); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stream", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	defer unsubscribe()

	rc := http.NewResponseController(w)
	// the server write timeout would otherwise cut the stream
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.log.Warn("failed to clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if _, err := fmt.Fprintf(w, "retry: %d\n\n", 3000); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.log.Error("event stream does not support flushing", "error", err)
		return
	}

	h.log.Debug("Event stream opened", "user_id", viewer.UserID)
	defer h.log.Debug("Event stream closed", "user_id", viewer.UserID)

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, evt); err != nil {
				h.log.Debug("Event stream write failed", "user_id", viewer.UserID, "error", err)
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, evt notify.Event) error {
	_, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", evt.ID, evt.Name, evt.Payload)
	return err
}

func (h *StreamHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(StreamPath, h.Stream)
}
