package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bookingserrors "github.com/PaingThuTa/booking-system-intern/internal/bookings/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/postgres"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = "id, user_id, time_block_id, status, created_at, updated_at"

type postgresBookingRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &postgresBookingRepository{pool: pool}
}

func (r *postgresBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	now := time.Now().UTC().Truncate(time.Microsecond)
	booking.ID = uuid.NewString()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	_, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO bookings (id, user_id, time_block_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		booking.ID, booking.UserID, booking.TimeBlockID, string(booking.Status), booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) && postgres.ConstraintName(err) == OneConfirmedPerUserIndex {
			return bookingserrors.ErrDuplicate
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *postgresBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = $1", id)
}

func (r *postgresBookingRepository) FindConfirmedByUser(ctx context.Context, userID string) (*model.Booking, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, bookingserrors.ErrNotFound
	}
	return r.findOne(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE user_id = $1 AND status = 'CONFIRMED'", userID)
}

func (r *postgresBookingRepository) findOne(ctx context.Context, query string, args ...any) (*model.Booking, error) {
	booking, err := scanBooking(postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return booking, nil
}

func (r *postgresBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return nil, nil
		}
		add("user_id = $%d", filter.UserID)
	}
	if filter.TimeBlockIDs != nil {
		add("time_block_id = ANY($%d::uuid[])", validUUIDs(filter.TimeBlockIDs))
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}

	query := "SELECT " + bookingColumns + " FROM bookings"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Booking, error) {
		return scanBooking(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *postgresBookingRepository) CancelConfirmed(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	// a concurrent cancel blocks on the row, then re-checks the status
	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx,
		"UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4",
		id, string(model.BookingCanceled), time.Now().UTC().Truncate(time.Microsecond), string(model.BookingConfirmed),
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *postgresBookingRepository) DeleteByTimeBlock(ctx context.Context, timeBlockID string) (int64, error) {
	if _, err := uuid.Parse(timeBlockID); err != nil {
		return 0, nil
	}

	tag, err := postgres.Conn(ctx, r.pool).Exec(ctx, "DELETE FROM bookings WHERE time_block_id = $1", timeBlockID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresBookingRepository) CountConfirmedByBlock(ctx context.Context, timeBlockID string) (int64, error) {
	if _, err := uuid.Parse(timeBlockID); err != nil {
		return 0, nil
	}
	return r.count(ctx, "SELECT COUNT(*) FROM bookings WHERE time_block_id = $1 AND status = 'CONFIRMED'", timeBlockID)
}

func (r *postgresBookingRepository) CountConfirmed(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COUNT(*) FROM bookings WHERE status = 'CONFIRMED'")
}

func (r *postgresBookingRepository) CountDistinctConfirmedUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, "SELECT COUNT(DISTINCT user_id) FROM bookings WHERE status = 'CONFIRMED'")
}

func (r *postgresBookingRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	if err := postgres.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) CountConfirmedByBlocks(ctx context.Context, timeBlockIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(timeBlockIDs))
	ids := validUUIDs(timeBlockIDs)
	if len(ids) == 0 {
		return counts, nil
	}

	rows, err := postgres.Conn(ctx, r.pool).Query(ctx,
		`SELECT time_block_id, COUNT(*) FROM bookings
		 WHERE time_block_id = ANY($1::uuid[]) AND status = 'CONFIRMED'
		 GROUP BY time_block_id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by block: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id    string
			count int64
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("failed to decode booking counts: %w", err)
		}
		counts[id] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read booking counts: %w", err)
	}
	return counts, nil
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b      model.Booking
		status string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.TimeBlockID, &status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	b.Status = model.BookingStatus(status)
	return &b, nil
}

func validUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}
