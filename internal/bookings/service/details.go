package service

import (
	"context"
	"errors"

	timeblockserrors "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

type BlockReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]*model.TimeBlock, error)
}

type UserDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
}

// DetailsLoader attaches the time block and owner summary to bookings with
// one lookup per collection.
type DetailsLoader struct {
	blocks BlockReader
	users  UserDirectory
}

func NewDetailsLoader(blocks BlockReader, users UserDirectory) *DetailsLoader {
	return &DetailsLoader{blocks: blocks, users: users}
}

// Load keeps the order of bookings. A block or user that no longer exists
// leaves the matching field nil.
func (l *DetailsLoader) Load(ctx context.Context, bookings []*model.Booking) ([]*model.BookingDetails, error) {
	details := make([]*model.BookingDetails, len(bookings))
	if len(bookings) == 0 {
		return details, nil
	}

	blockIDs := make([]string, 0, len(bookings))
	userIDs := make([]string, 0, len(bookings))
	seenBlocks := make(map[string]struct{}, len(bookings))
	seenUsers := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		if _, ok := seenBlocks[b.TimeBlockID]; !ok {
			seenBlocks[b.TimeBlockID] = struct{}{}
			blockIDs = append(blockIDs, b.TimeBlockID)
		}
		if _, ok := seenUsers[b.UserID]; !ok {
			seenUsers[b.UserID] = struct{}{}
			userIDs = append(userIDs, b.UserID)
		}
	}

	blocks, err := l.blocks.FindByIDs(ctx, blockIDs)
	if err != nil {
		return nil, err
	}
	users, err := l.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	blockByID := make(map[string]*model.TimeBlock, len(blocks))
	for _, b := range blocks {
		blockByID[b.ID] = b
	}
	userByID := make(map[string]*model.UserSummary, len(users))
	for _, u := range users {
		userByID[u.ID] = u.Summary()
	}

	for i, b := range bookings {
		details[i] = &model.BookingDetails{
			Booking:   *b,
			TimeBlock: blockByID[b.TimeBlockID],
			User:      userByID[b.UserID],
		}
	}
	return details, nil
}

func isBlockMissing(err error) bool {
	return errors.Is(err, timeblockserrors.ErrNotFound) || errors.Is(err, timeblockserrors.ErrInvalidID)
}
