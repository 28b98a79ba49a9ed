package model

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCanceled  BookingStatus = "CANCELED"
)

type Booking struct {
	ID          string        `json:"id" bson:"_id,omitempty"`
	UserID      string        `json:"user_id" bson:"user_id"`
	TimeBlockID string        `json:"time_block_id" bson:"time_block_id"`
	Status      BookingStatus `json:"status" bson:"status"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingConfirmed
}

type BookingCreate struct {
	TimeBlockID string `json:"time_block_id" validate:"required,max=64"`
}

// BookingDetails is a booking with its block and owner loaded.
type BookingDetails struct {
	Booking
	TimeBlock *TimeBlock   `json:"time_block,omitempty"`
	User      *UserSummary `json:"user,omitempty"`
}

// BookingStub is the short form of a booking listed under a time block.
type BookingStub struct {
	ID     string        `json:"id"`
	UserID string        `json:"user_id"`
	Status BookingStatus `json:"status"`
	User   *UserSummary  `json:"user,omitempty"`
}

type BookingFilter struct {
	UserID       string
	TimeBlockIDs []string
	Status       BookingStatus
}

type DashboardStats struct {
	TotalConfirmed   int64             `json:"total_confirmed"`
	ScheduledInterns int64             `json:"scheduled_interns"`
	OpenSlots        int64             `json:"open_slots"`
	TodayConfirmed   int64             `json:"today_confirmed"`
	Upcoming         []*BookingDetails `json:"upcoming"`
}
