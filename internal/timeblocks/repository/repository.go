package repository

import (
	"context"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

const (
	CollectionName = "time_blocks"
	TableName      = "time_blocks"
)

// Filter narrows FindAll. Zero values match everything.
type Filter struct {
	Status        model.TimeBlockStatus
	EndsAtOrAfter *time.Time
	StartsFrom    *time.Time
	StartsBefore  *time.Time
}

type TimeBlockRepository interface {
	CreateMany(ctx context.Context, blocks []*model.TimeBlock) error
	FindByID(ctx context.Context, id string) (*model.TimeBlock, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.TimeBlock, error)
	FindAll(ctx context.Context, filter Filter) ([]*model.TimeBlock, error)
	Update(ctx context.Context, block *model.TimeBlock) error
	Delete(ctx context.Context, id string) error
	// LockForAdmission reads the block and holds it against concurrent
	// admissions and updates until the surrounding transaction ends.
	LockForAdmission(ctx context.Context, id string) (*model.TimeBlock, error)
}

func (f Filter) matches(b *model.TimeBlock) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if f.EndsAtOrAfter != nil && b.EndAt.Before(*f.EndsAtOrAfter) {
		return false
	}
	if f.StartsFrom != nil && b.StartAt.Before(*f.StartsFrom) {
		return false
	}
	if f.StartsBefore != nil && !b.StartAt.Before(*f.StartsBefore) {
		return false
	}
	return true
}
