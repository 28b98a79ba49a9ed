package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	timeblockserrors "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/errors"
	"github.com/PaingThuTa/booking-system-intern/internal/timeblocks/repository"
	"github.com/PaingThuTa/booking-system-intern/internal/timeblocks/validator"
	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/db"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
	"github.com/PaingThuTa/booking-system-intern/pkg/notify"
)

type TimeBlockService interface {
	CreateBlocks(ctx context.Context, tmpl *model.TimeBlockTemplate) ([]*model.TimeBlock, error)
	GetBlock(ctx context.Context, id string) (*model.TimeBlock, error)
	UpdateBlock(ctx context.Context, id string, update *model.TimeBlockUpdate) (*model.TimeBlock, error)
	DeleteBlock(ctx context.Context, id string) error
	ListBlocks(ctx context.Context, viewer *auth.Principal, query model.TimeBlockQuery) ([]*model.TimeBlockView, error)
}

// BookingStore is the slice of the booking repository this service needs.
type BookingStore interface {
	FindAll(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	DeleteByTimeBlock(ctx context.Context, timeBlockID string) (int64, error)
}

type UserDirectory interface {
	FindByIDs(ctx context.Context, ids []string) ([]*model.User, error)
}

type timeBlockService struct {
	repo      repository.TimeBlockRepository
	bookings  BookingStore
	users     UserDirectory
	tx        db.TransactionManager
	validator *validator.TimeBlockValidator
	notifier  notify.Notifier
	cfg       *config.Config
	now       func() time.Time
}

func NewTimeBlockService(
	repo repository.TimeBlockRepository,
	bookings BookingStore,
	users UserDirectory,
	tx db.TransactionManager,
	validator *validator.TimeBlockValidator,
	notifier notify.Notifier,
	cfg *config.Config,
) TimeBlockService {
	return &timeBlockService{
		repo:      repo,
		bookings:  bookings,
		users:     users,
		tx:        tx,
		validator: validator,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *timeBlockService) CreateBlocks(ctx context.Context, tmpl *model.TimeBlockTemplate) ([]*model.TimeBlock, error) {
	if err := s.validator.ValidateTemplate(tmpl); err != nil {
		s.cfg.Log.Warn("Time block template validation failed",
			"start_at", tmpl.StartAt,
			"duration_minutes", tmpl.DurationMinutes,
			"error", err,
		)
		return nil, validationError("Time block validation failed", err)
	}

	blocks := expandTemplate(tmpl)

	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateMany(ctx, blocks); err != nil {
			return fmt.Errorf("failed to create time blocks: %w", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create time blocks",
			"start_at", tmpl.StartAt,
			"count", len(blocks),
			"error", err,
		)
		return nil, storeError("Failed to create time blocks", err)
	}

	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}

	s.cfg.Log.Info("Time blocks created successfully",
		"count", len(blocks),
		"first_start_at", blocks[0].StartAt,
		"duration_minutes", tmpl.DurationMinutes,
	)
	s.notifier.Notify(ctx, notify.EventBlockChanged, notify.BlockChanged{
		Action:   notify.ActionCreated,
		BlockIDs: ids,
	})

	return blocks, nil
}

// expandTemplate lays slotCount blocks back to back from the template start.
func expandTemplate(tmpl *model.TimeBlockTemplate) []*model.TimeBlock {
	capacity := model.DefaultCapacity
	if tmpl.Capacity != nil {
		capacity = *tmpl.Capacity
	}
	slots := model.DefaultSlotCount
	if tmpl.SlotCount != nil {
		slots = *tmpl.SlotCount
	}
	status := tmpl.Status
	if status == "" {
		status = model.TimeBlockActive
	}

	slot := time.Duration(tmpl.DurationMinutes) * time.Minute
	start := tmpl.StartAt.UTC()

	blocks := make([]*model.TimeBlock, slots)
	for i := range blocks {
		blockStart := start.Add(time.Duration(i) * slot)
		blocks[i] = &model.TimeBlock{
			StartAt:         blockStart,
			EndAt:           blockStart.Add(slot),
			DurationMinutes: tmpl.DurationMinutes,
			Capacity:        capacity,
			Status:          status,
		}
	}
	return blocks
}

func (s *timeBlockService) GetBlock(ctx context.Context, id string) (*model.TimeBlock, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Time block ID cannot be empty")
	}

	block, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isMissing(err) {
			return nil, apperrors.NotFoundWithID("Time block", id)
		}
		s.cfg.Log.Error("Failed to get time block by ID",
			"id", id,
			"error", err,
		)
		return nil, storeError("Failed to retrieve time block", err)
	}

	return block, nil
}

func (s *timeBlockService) UpdateBlock(ctx context.Context, id string, update *model.TimeBlockUpdate) (*model.TimeBlock, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Time block ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Time block update validation failed", "id", id, "error", err)
		return nil, validationError("Time block validation failed", err)
	}

	var updated *model.TimeBlock
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		// the merge rewrites every column, so the read must hold the row
		existing, err := s.repo.LockForAdmission(ctx, id)
		if err != nil {
			if isMissing(err) {
				return apperrors.NotFoundWithID("Time block", id)
			}
			return fmt.Errorf("failed to load time block: %w", err)
		}

		merged := mergeTimeBlockUpdate(existing, update)
		if err := s.validator.ValidateBlock(merged); err != nil {
			return validationError("Time block validation failed", err)
		}

		if err := s.repo.Update(ctx, merged); err != nil {
			if isMissing(err) {
				return apperrors.NotFoundWithID("Time block", id)
			}
			return fmt.Errorf("failed to update time block: %w", err)
		}
		updated = merged
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			s.cfg.Log.Warn("Time block update rejected", "id", id, "error", err)
			return nil, err
		}
		s.cfg.Log.Error("Failed to update time block",
			"id", id,
			"error", err,
		)
		return nil, storeError("Failed to update time block", err)
	}

	s.cfg.Log.Info("Time block updated successfully",
		"id", id,
		"start_at", updated.StartAt,
		"end_at", updated.EndAt,
		"capacity", updated.Capacity,
		"status", updated.Status,
	)
	s.notifier.Notify(ctx, notify.EventBlockChanged, notify.BlockChanged{
		Action:  notify.ActionUpdated,
		BlockID: id,
	})

	return updated, nil
}

// mergeTimeBlockUpdate applies a sparse update. A supplied duration without
// an end moves the end; otherwise the duration follows the merged range.
func mergeTimeBlockUpdate(existing *model.TimeBlock, update *model.TimeBlockUpdate) *model.TimeBlock {
	merged := *existing

	if update.StartAt != nil {
		merged.StartAt = update.StartAt.UTC()
	}
	if update.EndAt != nil {
		merged.EndAt = update.EndAt.UTC()
	}

	if update.DurationMinutes != nil {
		merged.DurationMinutes = *update.DurationMinutes
		if update.EndAt == nil {
			merged.EndAt = merged.StartAt.Add(time.Duration(*update.DurationMinutes) * time.Minute)
		}
	} else {
		merged.DurationMinutes = int(merged.EndAt.Sub(merged.StartAt) / time.Minute)
	}

	if update.Capacity != nil {
		merged.Capacity = *update.Capacity
	}
	if update.Status != nil {
		merged.Status = *update.Status
	}

	return &merged
}

func (s *timeBlockService) DeleteBlock(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Time block ID cannot be empty")
	}

	var removed int64
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			if isMissing(err) {
				return apperrors.NotFoundWithID("Time block", id)
			}
			return fmt.Errorf("failed to load time block: %w", err)
		}

		n, err := s.bookings.DeleteByTimeBlock(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete bookings of time block: %w", err)
		}
		removed = n

		if err := s.repo.Delete(ctx, id); err != nil {
			if isMissing(err) {
				return apperrors.NotFoundWithID("Time block", id)
			}
			return fmt.Errorf("failed to delete time block: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		s.cfg.Log.Error("Failed to delete time block",
			"id", id,
			"error", err,
		)
		return storeError("Failed to delete time block", err)
	}

	s.cfg.Log.Info("Time block deleted successfully",
		"id", id,
		"bookings_removed", removed,
	)
	s.notifier.Notify(ctx, notify.EventBlockChanged, notify.BlockChanged{
		Action:  notify.ActionDeleted,
		BlockID: id,
	})

	return nil
}

func (s *timeBlockService) ListBlocks(ctx context.Context, viewer *auth.Principal, query model.TimeBlockQuery) ([]*model.TimeBlockView, error) {
	if viewer == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	// admins always see every block; includeInactive is accepted but only
	// ever widens the view, and interns never get INACTIVE blocks
	filter := repository.Filter{}
	if !viewer.IsAdmin() {
		filter.Status = model.TimeBlockActive
	}
	if query.Upcoming {
		now := s.now().UTC()
		filter.EndsAtOrAfter = &now
	}

	blocks, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list time blocks", "error", err)
		return nil, storeError("Failed to retrieve time blocks", err)
	}
	if len(blocks) == 0 {
		return []*model.TimeBlockView{}, nil
	}

	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}

	// interns only ever see confirmed seats; admins see the full history
	bookingFilter := model.BookingFilter{TimeBlockIDs: ids}
	if !viewer.IsAdmin() {
		bookingFilter.Status = model.BookingConfirmed
	}
	bookings, err := s.bookings.FindAll(ctx, bookingFilter)
	if err != nil {
		s.cfg.Log.Error("Failed to load bookings for time blocks", "error", err)
		return nil, storeError("Failed to retrieve time blocks", err)
	}

	var owners map[string]*model.UserSummary
	if viewer.IsAdmin() {
		owners, err = s.loadOwners(ctx, bookings)
		if err != nil {
			s.cfg.Log.Error("Failed to load booking owners", "error", err)
			return nil, storeError("Failed to retrieve time blocks", err)
		}
	}

	byBlock := make(map[string][]*model.Booking, len(blocks))
	for _, b := range bookings {
		byBlock[b.TimeBlockID] = append(byBlock[b.TimeBlockID], b)
	}

	views := make([]*model.TimeBlockView, 0, len(blocks))
	for _, block := range blocks {
		view := &model.TimeBlockView{
			TimeBlock: *block,
			Bookings:  []*model.BookingStub{},
		}
		mine := false
		for _, b := range byBlock[block.ID] {
			if b.IsConfirmed() {
				view.ConfirmedCount++
				if b.UserID == viewer.UserID {
					mine = true
				}
			}
			stub := &model.BookingStub{ID: b.ID, UserID: b.UserID, Status: b.Status}
			if owners != nil {
				stub.User = owners[b.UserID]
			}
			view.Bookings = append(view.Bookings, stub)
		}
		if !viewer.IsAdmin() {
			view.HasMyBooking = &mine
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *timeBlockService) loadOwners(ctx context.Context, bookings []*model.Booking) (map[string]*model.UserSummary, error) {
	seen := make(map[string]struct{}, len(bookings))
	var ids []string
	for _, b := range bookings {
		if _, ok := seen[b.UserID]; !ok {
			seen[b.UserID] = struct{}{}
			ids = append(ids, b.UserID)
		}
	}

	owners := make(map[string]*model.UserSummary, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		owners[u.ID] = u.Summary()
	}
	return owners, nil
}

// isMissing treats a malformed ID like an unknown one: IDs are opaque to clients.
func isMissing(err error) bool {
	return errors.Is(err, timeblockserrors.ErrNotFound) || errors.Is(err, timeblockserrors.ErrInvalidID)
}

func validationError(message string, err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, map[string]any{"errors": verrs})
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func storeError(message string, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout("The request took too long to complete")
	}
	return apperrors.Internal(message, err)
}
