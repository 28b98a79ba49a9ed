package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	timeblockserrors "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/postgres"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const timeBlockColumns = "id, start_at, end_at, duration_minutes, capacity, status, lock_version, created_at, updated_at"

type postgresTimeBlockRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTimeBlockRepository(pool *pgxpool.Pool) TimeBlockRepository {
	return &postgresTimeBlockRepository{pool: pool}
}

func (r *postgresTimeBlockRepository) CreateMany(ctx context.Context, blocks []*model.TimeBlock) error {
	conn := postgres.Conn(ctx, r.pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	for _, b := range blocks {
		b.ID = uuid.NewString()
		b.CreatedAt = now
		b.UpdatedAt = now
		_, err := conn.Exec(ctx,
			`INSERT INTO time_blocks (id, start_at, end_at, duration_minutes, capacity, status, lock_version, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8)`,
			b.ID, b.StartAt, b.EndAt, b.DurationMinutes, b.Capacity, string(b.Status), b.CreatedAt, b.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create time block: %w", err)
		}
	}
	return nil
}

func (r *postgresTimeBlockRepository) FindByID(ctx context.Context, id string) (*model.TimeBlock, error) {
	return r.findOne(ctx, "SELECT "+timeBlockColumns+" FROM time_blocks WHERE id = $1", id)
}

func (r *postgresTimeBlockRepository) LockForAdmission(ctx context.Context, id string) (*model.TimeBlock, error) {
	return r.findOne(ctx, "SELECT "+timeBlockColumns+" FROM time_blocks WHERE id = $1 FOR UPDATE", id)
}

func (r *postgresTimeBlockRepository) findOne(ctx context.Context, query, id string) (*model.TimeBlock, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", timeblockserrors.ErrInvalidID, id)
	}

	block, err := scanTimeBlock(postgres.Conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, timeblockserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find time block: %w", err)
	}
	return block, nil
}

func (r *postgresTimeBlockRepository) FindByIDs(ctx context.Context, ids []string) ([]*model.TimeBlock, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	return r.query(ctx, "SELECT "+timeBlockColumns+" FROM time_blocks WHERE id = ANY($1::uuid[]) ORDER BY start_at, id", valid)
}

func (r *postgresTimeBlockRepository) FindAll(ctx context.Context, filter Filter) ([]*model.TimeBlock, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.EndsAtOrAfter != nil {
		add("end_at >= $%d", *filter.EndsAtOrAfter)
	}
	if filter.StartsFrom != nil {
		add("start_at >= $%d", *filter.StartsFrom)
	}
	if filter.StartsBefore != nil {
		add("start_at < $%d", *filter.StartsBefore)
	}

	query := "SELECT " + timeBlockColumns + " FROM time_blocks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_at, id"

	return r.query(ctx, query, args...)
}

func (r *postgresTimeBlockRepository) query(ctx context.Context, query string, args ...any) ([]*model.TimeBlock, error) {
	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find time blocks: %w", err)
	}

	blocks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.TimeBlock, error) {
		return scanTimeBlock(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode time blocks: %w", err)
	}
	return blocks, nil
}

func (r *postgresTimeBlockRepository) Update(ctx context.Context, block *model.TimeBlock) error {
	if _, err := uuid.Parse(block.ID); err != nil {
		return fmt.Errorf("%w: %s", timeblockserrors.ErrInvalidID, block.ID)
	}

	block.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE time_blocks
		 SET start_at = $2, end_at = $3, duration_minutes = $4, capacity = $5, status = $6, updated_at = $7
		 WHERE id = $1`,
		block.ID, block.StartAt, block.EndAt, block.DurationMinutes, block.Capacity, string(block.Status), block.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update time block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timeblockserrors.ErrNotFound
	}
	return nil
}

func (r *postgresTimeBlockRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", timeblockserrors.ErrInvalidID, id)
	}

	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx, "DELETE FROM time_blocks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete time block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timeblockserrors.ErrNotFound
	}
	return nil
}

func scanTimeBlock(row pgx.Row) (*model.TimeBlock, error) {
	var (
		b      model.TimeBlock
		status string
	)
	err := row.Scan(&b.ID, &b.StartAt, &b.EndAt, &b.DurationMinutes, &b.Capacity, &status, &b.LockVersion, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = model.TimeBlockStatus(status)
	return &b, nil
}
