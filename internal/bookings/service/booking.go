package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	bookingserrors "github.com/PaingThuTa/booking-system-intern/internal/bookings/errors"
	"github.com/PaingThuTa/booking-system-intern/internal/bookings/repository"
	"github.com/PaingThuTa/booking-system-intern/internal/bookings/validator"
	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/db"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
	"github.com/PaingThuTa/booking-system-intern/pkg/notify"
)

const (
	msgAlreadyBooked = "You already have an active booking. Please cancel it before booking again."
	msgBlockNotFound = "Time block not found."
	msgBlockInactive = "This time block is no longer available."
	msgBlockFull     = "This time block is fully booked."
)

type BookingService interface {
	Create(ctx context.Context, viewer *auth.Principal, req *model.BookingCreate) (*model.Booking, error)
	Cancel(ctx context.Context, viewer *auth.Principal, id string) error
	Get(ctx context.Context, viewer *auth.Principal, id string) (*model.BookingDetails, error)
	List(ctx context.Context, viewer *auth.Principal) ([]*model.BookingDetails, error)
	// Active returns the viewer's confirmed booking, or nil when there is none.
	Active(ctx context.Context, viewer *auth.Principal) (*model.BookingDetails, error)
}

// BlockLocker is the slice of the time block repository admission needs.
type BlockLocker interface {
	LockForAdmission(ctx context.Context, id string) (*model.TimeBlock, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	blocks    BlockLocker
	details   *DetailsLoader
	tx        db.TransactionManager
	validator *validator.BookingValidator
	notifier  notify.Notifier
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	blocks BlockLocker,
	details *DetailsLoader,
	tx db.TransactionManager,
	validator *validator.BookingValidator,
	notifier notify.Notifier,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		blocks:    blocks,
		details:   details,
		tx:        tx,
		validator: validator,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// Create admits the viewer to a time block. The checks and the insert run in
// one transaction with the block locked, so capacity is never oversold and a
// user never holds two confirmed bookings.
func (s *bookingService) Create(ctx context.Context, viewer *auth.Principal, req *model.BookingCreate) (*model.Booking, error) {
	if viewer == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed",
			"user_id", viewer.UserID,
			"error", err,
		)
		return nil, validationError("Booking validation failed", err)
	}

	var booking *model.Booking
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		booking = nil

		if _, err := s.repo.FindConfirmedByUser(ctx, viewer.UserID); err == nil {
			return apperrors.ConflictWithReason(apperrors.ReasonAlreadyBooked, msgAlreadyBooked)
		} else if !errors.Is(err, bookingserrors.ErrNotFound) {
			return fmt.Errorf("failed to check active booking: %w", err)
		}

		block, err := s.blocks.LockForAdmission(ctx, req.TimeBlockID)
		if err != nil {
			if isBlockMissing(err) {
				return apperrors.New(apperrors.CodeNotFound, msgBlockNotFound, http.StatusNotFound).WithDetails(map[string]any{
					"resource": "Time block",
					"id":       req.TimeBlockID,
				})
			}
			return fmt.Errorf("failed to lock time block: %w", err)
		}
		if !block.IsActive() {
			return apperrors.ConflictWithReason(apperrors.ReasonBlockInactive, msgBlockInactive)
		}

		confirmed, err := s.repo.CountConfirmedByBlock(ctx, block.ID)
		if err != nil {
			return fmt.Errorf("failed to count confirmed bookings: %w", err)
		}
		if confirmed >= int64(block.Capacity) {
			return apperrors.ConflictWithReason(apperrors.ReasonBlockFull, msgBlockFull)
		}

		b := &model.Booking{
			UserID:      viewer.UserID,
			TimeBlockID: block.ID,
			Status:      model.BookingConfirmed,
		}
		if err := s.repo.Create(ctx, b); err != nil {
			if errors.Is(err, bookingserrors.ErrDuplicate) {
				return apperrors.ConflictWithReason(apperrors.ReasonAlreadyBooked, msgAlreadyBooked)
			}
			return fmt.Errorf("failed to create booking: %w", err)
		}
		booking = b
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			s.cfg.Log.Warn("Booking rejected",
				"user_id", viewer.UserID,
				"time_block_id", req.TimeBlockID,
				"error", err,
			)
			return nil, err
		}
		s.cfg.Log.Error("Failed to create booking",
			"user_id", viewer.UserID,
			"time_block_id", req.TimeBlockID,
			"error", err,
		)
		return nil, storeError("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"user_id", booking.UserID,
		"time_block_id", booking.TimeBlockID,
	)
	s.notifier.Notify(ctx, notify.EventBookingCreated, notify.BookingCreated{
		BookingID:   booking.ID,
		TimeBlockID: booking.TimeBlockID,
	})

	return booking, nil
}

// Cancel is idempotent: canceling a canceled booking succeeds without
// publishing anything.
func (s *bookingService) Cancel(ctx context.Context, viewer *auth.Principal, id string) error {
	if viewer == nil {
		return apperrors.Unauthorized("Authentication required")
	}
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	changed := false
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		changed = false

		booking, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if isBookingMissing(err) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return fmt.Errorf("failed to load booking: %w", err)
		}

		if !viewer.IsAdmin() && !viewer.Owns(booking.UserID) {
			s.cfg.Log.Warn("Forbidden booking cancellation attempt",
				"booking_id", id,
				"owner_id", booking.UserID,
				"requester_id", viewer.UserID,
			)
			return apperrors.Forbidden("You can only cancel your own bookings")
		}

		if !booking.IsConfirmed() {
			return nil
		}

		changed, err = s.repo.CancelConfirmed(ctx, id)
		if err != nil {
			if isBookingMissing(err) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return fmt.Errorf("failed to cancel booking: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		s.cfg.Log.Error("Failed to cancel booking",
			"id", id,
			"error", err,
		)
		return storeError("Failed to cancel booking", err)
	}

	if !changed {
		s.cfg.Log.Debug("Booking already canceled", "id", id)
		return nil
	}

	s.cfg.Log.Info("Booking canceled successfully",
		"id", id,
		"canceled_by", viewer.UserID,
	)
	s.notifier.Notify(ctx, notify.EventBookingUpdated, notify.BookingUpdated{
		Action:    notify.ActionCanceled,
		BookingID: id,
	})

	return nil
}

func (s *bookingService) Get(ctx context.Context, viewer *auth.Principal, id string) (*model.BookingDetails, error) {
	if viewer == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isBookingMissing(err) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		s.cfg.Log.Error("Failed to get booking by ID",
			"id", id,
			"error", err,
		)
		return nil, storeError("Failed to retrieve booking", err)
	}

	if !viewer.IsAdmin() && !viewer.Owns(booking.UserID) {
		s.cfg.Log.Warn("Forbidden booking read attempt",
			"booking_id", id,
			"requester_id", viewer.UserID,
		)
		return nil, apperrors.Forbidden("You can only view your own bookings")
	}

	details, err := s.details.Load(ctx, []*model.Booking{booking})
	if err != nil {
		s.cfg.Log.Error("Failed to load booking details", "id", id, "error", err)
		return nil, storeError("Failed to retrieve booking", err)
	}
	return details[0], nil
}

func (s *bookingService) List(ctx context.Context, viewer *auth.Principal) ([]*model.BookingDetails, error) {
	if viewer == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	filter := model.BookingFilter{}
	if !viewer.IsAdmin() {
		filter.UserID = viewer.UserID
	}

	bookings, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to list bookings",
			"user_id", viewer.UserID,
			"error", err,
		)
		return nil, storeError("Failed to retrieve bookings", err)
	}

	details, err := s.details.Load(ctx, bookings)
	if err != nil {
		s.cfg.Log.Error("Failed to load booking details", "error", err)
		return nil, storeError("Failed to retrieve bookings", err)
	}
	return details, nil
}

func (s *bookingService) Active(ctx context.Context, viewer *auth.Principal) (*model.BookingDetails, error) {
	if viewer == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	booking, err := s.repo.FindConfirmedByUser(ctx, viewer.UserID)
	if err != nil {
		if isBookingMissing(err) {
			return nil, nil
		}
		s.cfg.Log.Error("Failed to get active booking",
			"user_id", viewer.UserID,
			"error", err,
		)
		return nil, storeError("Failed to retrieve active booking", err)
	}

	details, err := s.details.Load(ctx, []*model.Booking{booking})
	if err != nil {
		s.cfg.Log.Error("Failed to load booking details", "id", booking.ID, "error", err)
		return nil, storeError("Failed to retrieve active booking", err)
	}
	return details[0], nil
}

func isBookingMissing(err error) bool {
	return errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID)
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
