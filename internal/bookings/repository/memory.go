package repository

import (
	"context"
	"sort"
	"time"

	bookingserrors "github.com/PaingThuTa/booking-system-intern/internal/bookings/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/memory"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"github.com/google/uuid"
)

type memoryBookingRepository struct {
	store *memory.Store
}

func NewMemoryBookingRepository(store *memory.Store) BookingRepository {
	return &memoryBookingRepository{store: store}
}

func (r *memoryBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		if booking.IsConfirmed() && hasConfirmed(t, booking.UserID, "") {
			return bookingserrors.ErrDuplicate
		}

		now := time.Now().UTC()
		booking.ID = uuid.NewString()
		booking.CreatedAt = now
		booking.UpdatedAt = now
		cp := *booking
		t.Bookings[booking.ID] = &cp
		return nil
	})
}

func (r *memoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	var found *model.Booking
	err := r.store.View(ctx, func(t *memory.Tables) error {
		b, ok := t.Bookings[id]
		if !ok {
			return bookingserrors.ErrNotFound
		}
		cp := *b
		found = &cp
		return nil
	})
	return found, err
}

func (r *memoryBookingRepository) FindConfirmedByUser(ctx context.Context, userID string) (*model.Booking, error) {
	var found *model.Booking
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, b := range t.Bookings {
			if b.UserID == userID && b.IsConfirmed() {
				cp := *b
				found = &cp
				return nil
			}
		}
		return bookingserrors.ErrNotFound
	})
	return found, err
}

func (r *memoryBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var blockSet map[string]struct{}
	if filter.TimeBlockIDs != nil {
		blockSet = make(map[string]struct{}, len(filter.TimeBlockIDs))
		for _, id := range filter.TimeBlockIDs {
			blockSet[id] = struct{}{}
		}
	}

	var bookings []*model.Booking
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, b := range t.Bookings {
			if filter.UserID != "" && b.UserID != filter.UserID {
				continue
			}
			if filter.Status != "" && b.Status != filter.Status {
				continue
			}
			if blockSet != nil {
				if _, ok := blockSet[b.TimeBlockID]; !ok {
					continue
				}
			}
			cp := *b
			bookings = append(bookings, &cp)
		}
		return nil
	})

	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].ID > bookings[j].ID
		}
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, err
}

func (r *memoryBookingRepository) CancelConfirmed(ctx context.Context, id string) (bool, error) {
	changed := false
	err := r.store.Update(ctx, func(t *memory.Tables) error {
		b, ok := t.Bookings[id]
		if !ok {
			return bookingserrors.ErrNotFound
		}
		if !b.IsConfirmed() {
			return nil
		}
		b.Status = model.BookingCanceled
		b.UpdatedAt = time.Now().UTC()
		changed = true
		return nil
	})
	return changed, err
}

func (r *memoryBookingRepository) DeleteByTimeBlock(ctx context.Context, timeBlockID string) (int64, error) {
	var deleted int64
	err := r.store.Update(ctx, func(t *memory.Tables) error {
		for id, b := range t.Bookings {
			if b.TimeBlockID == timeBlockID {
				delete(t.Bookings, id)
				deleted++
			}
		}
		return nil
	})
	return deleted, err
}

func (r *memoryBookingRepository) CountConfirmedByBlock(ctx context.Context, timeBlockID string) (int64, error) {
	counts, err := r.CountConfirmedByBlocks(ctx, []string{timeBlockID})
	return counts[timeBlockID], err
}

func (r *memoryBookingRepository) CountConfirmedByBlocks(ctx context.Context, timeBlockIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(timeBlockIDs))
	wanted := make(map[string]struct{}, len(timeBlockIDs))
	for _, id := range timeBlockIDs {
		wanted[id] = struct{}{}
	}

	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, b := range t.Bookings {
			if _, ok := wanted[b.TimeBlockID]; ok && b.IsConfirmed() {
				counts[b.TimeBlockID]++
			}
		}
		return nil
	})
	return counts, err
}

func (r *memoryBookingRepository) CountConfirmed(ctx context.Context) (int64, error) {
	var count int64
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, b := range t.Bookings {
			if b.IsConfirmed() {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r *memoryBookingRepository) CountDistinctConfirmedUsers(ctx context.Context) (int64, error) {
	users := make(map[string]struct{})
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, b := range t.Bookings {
			if b.IsConfirmed() {
				users[b.UserID] = struct{}{}
			}
		}
		return nil
	})
	return int64(len(users)), err
}

func hasConfirmed(t *memory.Tables, userID, exceptID string) bool {
	for _, b := range t.Bookings {
		if b.UserID == userID && b.ID != exceptID && b.IsConfirmed() {
			return true
		}
	}
	return false
}
