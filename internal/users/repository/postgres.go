package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	userserrors "github.com/PaingThuTa/booking-system-intern/internal/users/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/postgres"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = "id, email, name, COALESCE(intern_id, ''), role, created_at, updated_at"

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) UserRepository {
	return &postgresUserRepository{pool: pool}
}

func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO users (id, email, name, intern_id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7)`,
		user.ID, user.Email, user.Name, user.InternID, string(user.Role), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return userserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", userserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (r *postgresUserRepository) FindByInternID(ctx context.Context, internID string) (*model.User, error) {
	return r.findOne(ctx, "SELECT "+userColumns+" FROM users WHERE intern_id = $1", internID)
}

func (r *postgresUserRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	user, err := scanUser(postgres.Conn(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, userserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *postgresUserRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.User, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, "SELECT "+userColumns+" FROM users WHERE id = ANY($1::uuid[])", valid)
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) Update(ctx context.Context, user *model.User) error {
	if _, err := uuid.Parse(user.ID); err != nil {
		return fmt.Errorf("%w: %s", userserrors.ErrInvalidID, user.ID)
	}

	user.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		"UPDATE users SET name = $2, intern_id = NULLIF($3, ''), role = $4, updated_at = $5 WHERE id = $1",
		user.ID, user.Name, user.InternID, string(user.Role), user.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return userserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return userserrors.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.InternID, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
