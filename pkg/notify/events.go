package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Channel is the logical channel every event is published on.
const Channel = "bookings"

const (
	EventBookingCreated = "booking-created"
	EventBookingUpdated = "booking-updated"
	EventBlockChanged   = "block-changed"
)

const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionCanceled = "canceled"
)

// Payloads are cache-invalidation hints. Field names follow the browser
// client's camelCase contract.

type BookingCreated struct {
	BookingID   string `json:"bookingId"`
	TimeBlockID string `json:"timeBlockId"`
}

type BookingUpdated struct {
	Action    string `json:"action"`
	BookingID string `json:"bookingId"`
}

type BlockChanged struct {
	Action   string   `json:"action"`
	BlockID  string   `json:"blockId,omitempty"`
	BlockIDs []string `json:"blockIds,omitempty"`
}

// Event is the envelope carried by every broker and by the SSE stream.
type Event struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Channel    string          `json:"channel"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Channel:    Channel,
		Payload:    data,
		OccurredAt: time.Now().UTC(),
	}, nil
}

func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func UnmarshalEvent(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if evt.Name == "" {
		return Event{}, fmt.Errorf("decode event: missing name")
	}
	return evt, nil
}
