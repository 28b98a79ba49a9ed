package model

import "time"

type TimeBlockStatus string

const (
	TimeBlockActive   TimeBlockStatus = "ACTIVE"
	TimeBlockInactive TimeBlockStatus = "INACTIVE"
)

const (
	MinDurationMinutes = 5
	MaxDurationMinutes = 240
	MaxCapacity        = 200
	MaxSlotCount       = 24
	DefaultCapacity    = 1
	DefaultSlotCount   = 1
)

type TimeBlock struct {
	ID              string          `json:"id" bson:"_id,omitempty"`
	StartAt         time.Time       `json:"start_at" bson:"start_at"`
	EndAt           time.Time       `json:"end_at" bson:"end_at"`
	DurationMinutes int             `json:"duration_minutes" bson:"duration_minutes"`
	Capacity        int             `json:"capacity" bson:"capacity"`
	Status          TimeBlockStatus `json:"status" bson:"status"`
	LockVersion     int64           `json:"-" bson:"lock_version"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
}

func (b *TimeBlock) IsActive() bool {
	return b.Status == TimeBlockActive
}

// TimeBlockTemplate describes a run of back-to-back blocks.
type TimeBlockTemplate struct {
	StartAt         time.Time       `json:"start_at" validate:"required"`
	EndAt           *time.Time      `json:"end_at,omitempty" validate:"omitempty"`
	DurationMinutes int             `json:"duration_minutes" validate:"required,min=5,max=240"`
	Capacity        *int            `json:"capacity,omitempty" validate:"omitempty,min=1,max=200"`
	SlotCount       *int            `json:"slot_count,omitempty" validate:"omitempty,min=1,max=24"`
	Status          TimeBlockStatus `json:"status,omitempty" validate:"omitempty,block_status"`
}

// TimeBlockUpdate carries only the fields the caller wants to change.
type TimeBlockUpdate struct {
	StartAt         *time.Time       `json:"start_at,omitempty"`
	EndAt           *time.Time       `json:"end_at,omitempty"`
	DurationMinutes *int             `json:"duration_minutes,omitempty" validate:"omitempty,min=5,max=240"`
	Capacity        *int             `json:"capacity,omitempty" validate:"omitempty,min=1,max=200"`
	Status          *TimeBlockStatus `json:"status,omitempty" validate:"omitempty,block_status"`
}

func (u *TimeBlockUpdate) IsEmpty() bool {
	return u.StartAt == nil && u.EndAt == nil && u.DurationMinutes == nil && u.Capacity == nil && u.Status == nil
}

type TimeBlockQuery struct {
	IncludeInactive bool
	Upcoming        bool
}

// TimeBlockView is a block as one viewer sees it.
type TimeBlockView struct {
	TimeBlock
	ConfirmedCount int            `json:"confirmed_count"`
	HasMyBooking   *bool          `json:"has_my_booking,omitempty"`
	Bookings       []*BookingStub `json:"bookings"`
}

func (v *TimeBlockView) IsFull() bool {
	return v.ConfirmedCount >= v.Capacity
}
