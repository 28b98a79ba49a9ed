package service

import (
	"context"
	"errors"
	"fmt"

	userserrors "github.com/PaingThuTa/booking-system-intern/internal/users/errors"
	"github.com/PaingThuTa/booking-system-intern/internal/users/repository"
	"github.com/PaingThuTa/booking-system-intern/internal/users/validator"
	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/db"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
	"github.com/PaingThuTa/booking-system-intern/pkg/sanitizer"
)

const (
	msgInternIDMismatch = "This account is linked to a different intern ID."
	msgInternIDTaken    = "This intern ID is already linked to another account."
	msgIdentityTaken    = "This email or intern ID is already registered."
)

type UserService interface {
	SignIn(ctx context.Context, req *model.SignInRequest) (*model.SignInResult, error)
	Me(ctx context.Context, viewer *auth.Principal) (*model.User, error)
}

type userService struct {
	repo      repository.UserRepository
	tx        db.TransactionManager
	validator *validator.UserValidator
	roles     *auth.RoleResolver
	tokens    *auth.TokenIssuer
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	tx db.TransactionManager,
	validator *validator.UserValidator,
	roles *auth.RoleResolver,
	tokens *auth.TokenIssuer,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		tx:        tx,
		validator: validator,
		roles:     roles,
		tokens:    tokens,
		cfg:       cfg,
	}
}

// SignIn links an email to an intern ID on first use and checks the link on
// every later sign-in. The role is resolved and stored each time.
func (s *userService) SignIn(ctx context.Context, req *model.SignInRequest) (*model.SignInResult, error) {
	s.sanitize(req)

	if err := s.validator.ValidateSignIn(req); err != nil {
		s.cfg.Log.Warn("Sign-in validation failed",
			"email", req.Email,
			"error", err,
		)
		return nil, validationError("Sign-in validation failed", err)
	}

	role := s.roles.Resolve(req.Email)

	var user *model.User
	err := s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		user = nil

		existing, err := s.findOptional(ctx, s.repo.FindByEmail, req.Email)
		if err != nil {
			return fmt.Errorf("failed to look up user by email: %w", err)
		}
		owner, err := s.findOptional(ctx, s.repo.FindByInternID, req.InternID)
		if err != nil {
			return fmt.Errorf("failed to look up user by intern ID: %w", err)
		}

		if existing == nil {
			if owner != nil {
				return apperrors.ConflictWithReason(apperrors.ReasonIdentityTaken, msgInternIDTaken)
			}
			created := &model.User{
				Email:    req.Email,
				Name:     req.FullName,
				InternID: req.InternID,
				Role:     role,
			}
			if err := s.repo.Create(ctx, created); err != nil {
				if errors.Is(err, userserrors.ErrDuplicate) {
					return apperrors.ConflictWithReason(apperrors.ReasonIdentityTaken, msgIdentityTaken)
				}
				return fmt.Errorf("failed to create user: %w", err)
			}
			user = created
			return nil
		}

		if existing.InternID != "" && existing.InternID != req.InternID {
			return apperrors.ConflictWithReason(apperrors.ReasonIdentityTaken, msgInternIDMismatch)
		}
		if owner != nil && owner.ID != existing.ID {
			return apperrors.ConflictWithReason(apperrors.ReasonIdentityTaken, msgInternIDTaken)
		}

		existing.Name = req.FullName
		if existing.InternID == "" {
			existing.InternID = req.InternID
		}
		existing.Role = role
		if err := s.repo.Update(ctx, existing); err != nil {
			if errors.Is(err, userserrors.ErrDuplicate) {
				return apperrors.ConflictWithReason(apperrors.ReasonIdentityTaken, msgIdentityTaken)
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		user = existing
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			s.cfg.Log.Warn("Sign-in rejected",
				"email", req.Email,
				"intern_id", req.InternID,
				"error", err,
			)
			return nil, err
		}
		s.cfg.Log.Error("Failed to sign in",
			"email", req.Email,
			"error", err,
		)
		return nil, storeError("Failed to sign in", err)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.cfg.Log.Error("Failed to issue access token", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to sign in", err)
	}

	s.cfg.Log.Info("User signed in successfully",
		"user_id", user.ID,
		"role", user.Role,
	)

	return &model.SignInResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *userService) Me(ctx context.Context, viewer *auth.Principal) (*model.User, error) {
	if viewer == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	user, err := s.repo.FindByID(ctx, viewer.UserID)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) || errors.Is(err, userserrors.ErrInvalidID) {
			return nil, apperrors.NotFoundWithID("User", viewer.UserID)
		}
		s.cfg.Log.Error("Failed to get user by ID",
			"id", viewer.UserID,
			"error", err,
		)
		return nil, storeError("Failed to retrieve user", err)
	}
	return user, nil
}

func (s *userService) findOptional(
	ctx context.Context,
	find func(ctx context.Context, key string) (*model.User, error),
	key string,
) (*model.User, error) {
	user, err := find(ctx, key)
	if errors.Is(err, userserrors.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (s *userService) sanitize(req *model.SignInRequest) {
	req.Email = sanitizer.NormalizeEmail(req.Email)
	req.FullName = sanitizer.NormalizeName(req.FullName)
	req.InternID = sanitizer.NormalizeInternID(req.InternID)
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
