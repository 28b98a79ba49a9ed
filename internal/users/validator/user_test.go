package validator

import (
	"errors"
	"testing"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

func TestValidateSignIn(t *testing.T) {
	log := logger.New(logger.Config{
		Level:   "info",
		Format:  logger.JSON,
		Service: "test",
	})
	v := NewUserValidator(log)

	valid := func() *model.SignInRequest {
		return &model.SignInRequest{Email: "ada@example.com", FullName: "Ada Lovelace", InternID: "INT-2024-01"}
	}

	tests := []struct {
		name      string
		mutate    func(r *model.SignInRequest)
		wantField string
	}{
		{name: "valid", mutate: func(r *model.SignInRequest) {}},
		{name: "missing email", mutate: func(r *model.SignInRequest) { r.Email = "" }, wantField: "email"},
		{name: "bad email", mutate: func(r *model.SignInRequest) { r.Email = "not-an-email" }, wantField: "email"},
		{name: "short name", mutate: func(r *model.SignInRequest) { r.FullName = "A" }, wantField: "full_name"},
		{name: "missing intern id", mutate: func(r *model.SignInRequest) { r.InternID = "" }, wantField: "intern_id"},
		{name: "intern id with spaces", mutate: func(r *model.SignInRequest) { r.InternID = "INT 1" }, wantField: "intern_id"},
		{name: "lower-case intern id", mutate: func(r *model.SignInRequest) { r.InternID = "int-1" }, wantField: "intern_id"},
		{name: "underscore intern id", mutate: func(r *model.SignInRequest) { r.InternID = "A_1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			err := v.ValidateSignIn(req)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			found := false
			for _, ve := range verrs {
				if ve.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s, got %v", tt.wantField, verrs)
			}
		})
	}
}
