package validator

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

func newTestValidator() *TimeBlockValidator {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewTimeBlockValidator(log)
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func TestValidateTemplate(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	inactive := model.TimeBlockInactive

	tests := []struct {
		name      string
		tmpl      *model.TimeBlockTemplate
		wantField string
	}{
		{
			name: "minimal",
			tmpl: &model.TimeBlockTemplate{StartAt: start, DurationMinutes: 20},
		},
		{
			name: "full",
			tmpl: &model.TimeBlockTemplate{
				StartAt:         start,
				EndAt:           timePtr(start.Add(30 * time.Minute)),
				DurationMinutes: 30,
				Capacity:        intPtr(3),
				SlotCount:       intPtr(4),
				Status:          inactive,
			},
		},
		{
			name:      "missing start",
			tmpl:      &model.TimeBlockTemplate{DurationMinutes: 20},
			wantField: "start_at",
		},
		{
			name:      "duration too short",
			tmpl:      &model.TimeBlockTemplate{StartAt: start, DurationMinutes: 4},
			wantField: "duration_minutes",
		},
		{
			name:      "duration too long",
			tmpl:      &model.TimeBlockTemplate{StartAt: start, DurationMinutes: 241},
			wantField: "duration_minutes",
		},
		{
			name:      "capacity zero",
			tmpl:      &model.TimeBlockTemplate{StartAt: start, DurationMinutes: 20, Capacity: intPtr(0)},
			wantField: "capacity",
		},
		{
			name:      "capacity above max",
			tmpl:      &model.TimeBlockTemplate{StartAt: start, DurationMinutes: 20, Capacity: intPtr(201)},
			wantField: "capacity",
		},
		{
			name:      "too many slots",
			tmpl:      &model.TimeBlockTemplate{StartAt: start, DurationMinutes: 20, SlotCount: intPtr(25)},
			wantField: "slot_count",
		},
		{
			name:      "unknown status",
			tmpl:      &model.TimeBlockTemplate{StartAt: start, DurationMinutes: 20, Status: "PAUSED"},
			wantField: "status",
		},
		{
			name:      "end before start",
			tmpl:      &model.TimeBlockTemplate{StartAt: start, EndAt: timePtr(start), DurationMinutes: 20},
			wantField: "end_at",
		},
		{
			name:      "end disagrees with duration",
			tmpl:      &model.TimeBlockTemplate{StartAt: start, EndAt: timePtr(start.Add(25 * time.Minute)), DurationMinutes: 20},
			wantField: "duration_minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateTemplate(tt.tmpl)
			assertField(t, err, tt.wantField)
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	bad := model.TimeBlockStatus("bogus")

	tests := []struct {
		name      string
		update    *model.TimeBlockUpdate
		wantField string
	}{
		{
			name:   "capacity only",
			update: &model.TimeBlockUpdate{Capacity: intPtr(5)},
		},
		{
			name:      "empty",
			update:    &model.TimeBlockUpdate{},
			wantField: "body",
		},
		{
			name:      "bad status",
			update:    &model.TimeBlockUpdate{Status: &bad},
			wantField: "status",
		},
		{
			name:      "end not after start",
			update:    &model.TimeBlockUpdate{StartAt: timePtr(start), EndAt: timePtr(start.Add(-time.Minute))},
			wantField: "end_at",
		},
		{
			name: "inconsistent triple",
			update: &model.TimeBlockUpdate{
				StartAt:         timePtr(start),
				EndAt:           timePtr(start.Add(30 * time.Minute)),
				DurationMinutes: intPtr(20),
			},
			wantField: "duration_minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, v.ValidateUpdate(tt.update), tt.wantField)
		})
	}
}

func TestValidateBlock(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	block := func(end time.Time, duration, capacity int) *model.TimeBlock {
		return &model.TimeBlock{StartAt: start, EndAt: end, DurationMinutes: duration, Capacity: capacity}
	}

	tests := []struct {
		name      string
		block     *model.TimeBlock
		wantField string
	}{
		{"valid", block(start.Add(20*time.Minute), 20, 1), ""},
		{"end equals start", block(start, 0, 1), "end_at"},
		{"partial minute", block(start.Add(20*time.Minute+30*time.Second), 20, 1), "end_at"},
		{"duration out of range", block(start.Add(300*time.Minute), 300, 1), "duration_minutes"},
		{"duration mismatch", block(start.Add(20*time.Minute), 25, 1), "duration_minutes"},
		{"capacity zero", block(start.Add(20*time.Minute), 20, 0), "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertField(t, v.ValidateBlock(tt.block), tt.wantField)
		})
	}
}

func TestMessagesMatchClient(t *testing.T) {
	v := newTestValidator()
	start := time.Now()
	err := v.ValidateBlock(&model.TimeBlock{StartAt: start, EndAt: start, Capacity: 1})
	if err == nil || !strings.Contains(err.Error(), msgEndBeforeStart) {
		t.Errorf("expected %q, got %v", msgEndBeforeStart, err)
	}
}

func assertField(t *testing.T, err error, wantField string) {
	t.Helper()
	if wantField == "" {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		return
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors for %s, got %v", wantField, err)
	}
	for _, ve := range verrs {
		if ve.Field == wantField {
			return
		}
	}
	t.Errorf("expected error on %s, got %v", wantField, verrs)
}
