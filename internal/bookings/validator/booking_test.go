package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

func TestValidateCreate(t *testing.T) {
	log := logger.New(logger.Config{
		Level:   "info",
		Format:  logger.JSON,
		Service: "test",
	})
	v := NewBookingValidator(log)

	tests := []struct {
		name    string
		req     *model.BookingCreate
		wantErr string
	}{
		{name: "valid", req: &model.BookingCreate{TimeBlockID: "65f1c0a2b3d4e5f601234567"}},
		{name: "empty", req: &model.BookingCreate{}, wantErr: "time_block_id is required"},
		{name: "whitespace only", req: &model.BookingCreate{TimeBlockID: "   "}, wantErr: "time_block_id is required"},
		{name: "too long", req: &model.BookingCreate{TimeBlockID: strings.Repeat("a", 65)}, wantErr: "at most 64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCreate(tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if !strings.Contains(verrs.Error(), tt.wantErr) {
				t.Errorf("expected %q in %q", tt.wantErr, verrs.Error())
			}
		})
	}
}
