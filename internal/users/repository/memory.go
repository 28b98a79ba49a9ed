package repository

import (
	"context"
	"time"

	userserrors "github.com/PaingThuTa/booking-system-intern/internal/users/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/memory"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"github.com/google/uuid"
)

type memoryUserRepository struct {
	store *memory.Store
}

func NewMemoryUserRepository(store *memory.Store) UserRepository {
	return &memoryUserRepository{store: store}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	return r.store.Update(ctx, func(t *memory.Tables) error {
		if conflicts(t, user, "") {
			return userserrors.ErrDuplicate
		}
		now := time.Now().UTC()
		user.ID = uuid.NewString()
		user.CreatedAt = now
		user.UpdatedAt = now
		cp := *user
		t.Users[user.ID] = &cp
		return nil
	})
}

func (r *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findFirst(ctx, func(u *model.User) bool { return u.ID == id })
}

func (r *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findFirst(ctx, func(u *model.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) FindByInternID(ctx context.Context, internID string) (*model.User, error) {
	return r.findFirst(ctx, func(u *model.User) bool { return internID != "" && u.InternID == internID })
}

func (r *memoryUserRepository) findFirst(ctx context.Context, match func(u *model.User) bool) (*model.User, error) {
	var found *model.User
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, u := range t.Users {
			if match(u) {
				cp := *u
				found = &cp
				return nil
			}
		}
		return userserrors.ErrNotFound
	})
	return found, err
}

func (r *memoryUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	var users []*model.User
	err := r.store.View(ctx, func(t *memory.Tables) error {
		for _, id := range ids {
			if u, ok := t.Users[id]; ok {
				cp := *u
				users = append(users, &cp)
			}
		}
		return nil
	})
	return users, err
}

func (r *memoryUserRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()
	return r.store.Update(ctx, func(t *memory.Tables) error {
		existing, ok := t.Users[user.ID]
		if !ok {
			return userserrors.ErrNotFound
		}
		if conflicts(t, user, user.ID) {
			return userserrors.ErrDuplicate
		}
		existing.Name = user.Name
		existing.InternID = user.InternID
		existing.Role = user.Role
		existing.UpdatedAt = user.UpdatedAt
		return nil
	})
}

// conflicts mirrors the unique indexes on email and intern_id.
func conflicts(t *memory.Tables, user *model.User, exceptID string) bool {
	for _, u := range t.Users {
		if u.ID == exceptID {
			continue
		}
		if u.Email == user.Email {
			return true
		}
		if user.InternID != "" && u.InternID == user.InternID {
			return true
		}
	}
	return false
}
