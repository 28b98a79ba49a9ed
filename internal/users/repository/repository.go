package repository

import (
	"context"

	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

const (
	CollectionName = "users"
	TableName      = "users"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByInternID(ctx context.Context, internID string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}
