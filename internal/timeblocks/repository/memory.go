package repository

import (
	"context"
	"sort"
	"time"

	timeblockserrors "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/memory"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"github.com/google/uuid"
)

type memoryTimeBlockRepository struct {
	store *memory.Store
}

func NewMemoryTimeBlockRepository(store *memory.Store) TimeBlockRepository {
	return &memoryTimeBlockRepository{store: store}
}

func (r *memoryTimeBlockRepository) CreateMany(ctx context.Context, blocks []*model.TimeBlock) error {
	now := time.Now().UTC()
	return r.store.Update(ctx, func(t *memory.Tables) error {
		for _, b := range blocks {
			b.ID = uuid.NewString()
			b.CreatedAt = now
			b.UpdatedAt = now
			cp := *b
			t.TimeBlocks[b.ID] = &cp
		}
		return nil
	})
}

func (r *memoryTimeBlockRepository) FindByID(ctx context.Context, id string) (*model.TimeBlock, error) {
	var found *model.TimeBlock
	err := r.store.View(ctx, func(t *memory.Tables) error {
		b, ok := t.TimeBlocks[id]
		if !ok {
			return timeblockserrors.ErrNotFound
		}
		cp := *b
		found = &cp
		return nil
	})
	return found, err
}

func (r *memoryTimeBlockRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.TimeBlock, error) {
	var blocks []*model.TimeBlock
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, id := range ids {
			if b, ok := t.TimeBlocks[id]; ok {
				cp := *b
				blocks = append(blocks, &cp)
			}
		}
		return nil
	})
	sortByStart(blocks)
	return blocks, err
}

func (r *memoryTimeBlockRepository) FindAll(ctx context.Context, filter Filter) ([]*model.TimeBlock, error) {
	var blocks []*model.TimeBlock
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, b := range t.TimeBlocks {
			if filter.matches(b) {
				cp := *b
				blocks = append(blocks, &cp)
			}
		}
		return nil
	})
	sortByStart(blocks)
	return blocks, err
}

func (r *memoryTimeBlockRepository) Update(ctx context.Context, block *model.TimeBlock) error {
	block.UpdatedAt = time.Now().UTC()
	return r.store.Update(ctx, func(t *memory.Tables) error {
		existing, ok := t.TimeBlocks[block.ID]
		if !ok {
			return timeblockserrors.ErrNotFound
		}
		cp := *block
		cp.CreatedAt = existing.CreatedAt
		cp.LockVersion = existing.LockVersion
		t.TimeBlocks[block.ID] = &cp
		return nil
	})
}

func (r *memoryTimeBlockRepository) Delete(ctx context.Context, id string) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		if _, ok := t.TimeBlocks[id]; !ok {
			return timeblockserrors.ErrNotFound
		}
		delete(t.TimeBlocks, id)
		return nil
	})
}

// LockForAdmission needs no extra work here: a memory transaction already
// holds the store lock.
func (r *memoryTimeBlockRepository) LockForAdmission(ctx context.Context, id string) (*model.TimeBlock, error) {
	return r.FindByID(ctx, id)
}

func sortByStart(blocks []*model.TimeBlock) {
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].StartAt.Equal(blocks[j].StartAt) {
			return blocks[i].ID < blocks[j].ID
		}
		return blocks[i].StartAt.Before(blocks[j].StartAt)
	})
}
