package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"

	"github.com/go-playground/validator/v10"
)

const (
	msgEndBeforeStart   = "End time must come after the start time."
	msgDurationMismatch = "Duration must match the gap between start and end times."
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type TimeBlockValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTimeBlockValidator(log *logger.Logger) *TimeBlockValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation("block_status", validateBlockStatus); err != nil {
		log.Fatal("Failed to register 'block_status' validator",
			"error", err,
		)
	}

	return &TimeBlockValidator{
		validate: v,
		logger:   log,
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateBlockStatus(fl validator.FieldLevel) bool {
	switch model.TimeBlockStatus(fl.Field().String()) {
	case model.TimeBlockActive, model.TimeBlockInactive:
		return true
	default:
		return false
	}
}

// ValidateTemplate checks a batch-creation request. When end_at is given it
// must close exactly one slot after start_at.
func (v *TimeBlockValidator) ValidateTemplate(tmpl *model.TimeBlockTemplate) error {
	if err := v.validateStruct(tmpl); err != nil {
		return err
	}

	if tmpl.EndAt != nil {
		if !tmpl.EndAt.After(tmpl.StartAt) {
			return single("end_at", msgEndBeforeStart)
		}
		if tmpl.EndAt.Sub(tmpl.StartAt) != minutes(tmpl.DurationMinutes) {
			return single("duration_minutes", msgDurationMismatch)
		}
	}

	return nil
}

// ValidateUpdate checks the fields of a sparse update against each other.
// Rules involving stored values are checked by ValidateBlock after merging.
func (v *TimeBlockValidator) ValidateUpdate(update *model.TimeBlockUpdate) error {
	if update.IsEmpty() {
		return single("body", "at least one field must be provided")
	}
	if err := v.validateStruct(update); err != nil {
		return err
	}

	if update.StartAt != nil && update.EndAt != nil {
		if !update.EndAt.After(*update.StartAt) {
			return single("end_at", msgEndBeforeStart)
		}
		if update.DurationMinutes != nil && update.EndAt.Sub(*update.StartAt) != minutes(*update.DurationMinutes) {
			return single("duration_minutes", msgDurationMismatch)
		}
	}

	return nil
}

// ValidateBlock checks the range invariants of a complete block.
func (v *TimeBlockValidator) ValidateBlock(block *model.TimeBlock) error {
	if !block.EndAt.After(block.StartAt) {
		return single("end_at", msgEndBeforeStart)
	}

	span := block.EndAt.Sub(block.StartAt)
	if span%time.Minute != 0 {
		return single("end_at", "The time range must be a whole number of minutes.")
	}
	if block.DurationMinutes < model.MinDurationMinutes || block.DurationMinutes > model.MaxDurationMinutes {
		return single("duration_minutes", fmt.Sprintf("duration_minutes must be between %d and %d",
			model.MinDurationMinutes, model.MaxDurationMinutes))
	}
	if span != minutes(block.DurationMinutes) {
		return single("duration_minutes", msgDurationMismatch)
	}
	if block.Capacity < 1 || block.Capacity > model.MaxCapacity {
		return single("capacity", fmt.Sprintf("capacity must be between 1 and %d", model.MaxCapacity))
	}

	return nil
}

func (v *TimeBlockValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *TimeBlockValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "block_status":
			message = fmt.Sprintf("%s must be one of: %s, %s", err.Field(), model.TimeBlockActive, model.TimeBlockInactive)
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}

func single(field, message string) ValidationErrors {
	return ValidationErrors{ValidationError{Field: field, Message: message}}
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
