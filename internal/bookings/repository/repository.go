package repository

import (
	"context"

	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

const (
	CollectionName = "bookings"
	TableName      = "bookings"

	// OneConfirmedPerUserIndex is the partial unique index backing the
	// one-active-booking rule in both Mongo and Postgres.
	OneConfirmedPerUserIndex = "bookings_one_confirmed_per_user"
)

type BookingRepository interface {
	// Create inserts a booking. It returns ErrDuplicate when the user
	// already holds a confirmed booking.
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindConfirmedByUser(ctx context.Context, userID string) (*model.Booking, error)
	// FindAll returns matching bookings, newest first.
	FindAll(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	// CancelConfirmed moves a CONFIRMED booking to CANCELED. It reports
	// false when the booking was not confirmed, so only one of several
	// concurrent cancels observes the change.
	CancelConfirmed(ctx context.Context, id string) (bool, error)
	DeleteByTimeBlock(ctx context.Context, timeBlockID string) (int64, error)
	CountConfirmedByBlock(ctx context.Context, timeBlockID string) (int64, error)
	CountConfirmedByBlocks(ctx context.Context, timeBlockIDs []string) (map[string]int64, error)
	CountConfirmed(ctx context.Context) (int64, error)
	CountDistinctConfirmedUsers(ctx context.Context) (int64, error)
}
