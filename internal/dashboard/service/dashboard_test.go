package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	bookingsrepository "github.com/PaingThuTa/booking-system-intern/internal/bookings/repository"
	bookingsservice "github.com/PaingThuTa/booking-system-intern/internal/bookings/service"
	timeblocksrepository "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/repository"
	usersrepository "github.com/PaingThuTa/booking-system-intern/internal/users/repository"
	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	"github.com/PaingThuTa/booking-system-intern/pkg/db/memory"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

var admin = &auth.Principal{UserID: "admin", Role: model.RoleAdmin}

type testEnv struct {
	svc      *dashboardService
	blocks   timeblocksrepository.TimeBlockRepository
	bookings bookingsrepository.BookingRepository
	users    usersrepository.UserRepository
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	store := memory.NewStore()
	env := &testEnv{
		blocks:   timeblocksrepository.NewMemoryTimeBlockRepository(store),
		bookings: bookingsrepository.NewMemoryBookingRepository(store),
		users:    usersrepository.NewMemoryUserRepository(store),
		now:      time.Date(2030, time.January, 15, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewDashboardService(
		env.blocks,
		env.bookings,
		bookingsservice.NewDetailsLoader(env.blocks, env.users),
		&config.Config{Log: log, Location: time.UTC},
	).(*dashboardService)
	env.svc.now = func() time.Time { return env.now }
	return env
}

func (e *testEnv) block(t *testing.T, start time.Time, capacity int, status model.TimeBlockStatus) *model.TimeBlock {
	t.Helper()
	b := &model.TimeBlock{
		StartAt:         start,
		EndAt:           start.Add(30 * time.Minute),
		DurationMinutes: 30,
		Capacity:        capacity,
		Status:          status,
	}
	if err := e.blocks.CreateMany(context.Background(), []*model.TimeBlock{b}); err != nil {
		t.Fatalf("create block: %v", err)
	}
	return b
}

func (e *testEnv) user(t *testing.T, n int) *model.User {
	t.Helper()
	u := &model.User{
		Email:    fmt.Sprintf("intern%d@example.com", n),
		Name:     fmt.Sprintf("Intern %d", n),
		InternID: fmt.Sprintf("INT-%d", n),
		Role:     model.RoleIntern,
	}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (e *testEnv) book(t *testing.T, userID, blockID string) *model.Booking {
	t.Helper()
	b := &model.Booking{UserID: userID, TimeBlockID: blockID, Status: model.BookingConfirmed}
	if err := e.bookings.Create(context.Background(), b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	return b
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	now := env.now

	endedToday := env.block(t, now.Add(-2*time.Hour), 1, model.TimeBlockActive)
	laterToday := env.block(t, now.Add(time.Hour), 2, model.TimeBlockActive)
	tomorrow := env.block(t, now.Add(24*time.Hour), 1, model.TimeBlockActive)
	env.block(t, now.Add(48*time.Hour), 3, model.TimeBlockInactive)
	env.block(t, now.Add(72*time.Hour), 1, model.TimeBlockActive)

	a, b, c := env.user(t, 1), env.user(t, 2), env.user(t, 3)
	env.book(t, a.ID, endedToday.ID)
	bBooking := env.book(t, b.ID, laterToday.ID)
	dropped := env.book(t, c.ID, laterToday.ID)
	if _, err := env.bookings.CancelConfirmed(context.Background(), dropped.ID); err != nil {
		t.Fatal(err)
	}
	cBooking := env.book(t, c.ID, tomorrow.ID)

	stats, err := env.svc.Stats(context.Background(), admin)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalConfirmed != 3 {
		t.Errorf("TotalConfirmed = %d, want 3", stats.TotalConfirmed)
	}
	if stats.ScheduledInterns != 3 {
		t.Errorf("ScheduledInterns = %d, want 3", stats.ScheduledInterns)
	}
	// laterToday has a seat left and the empty block three days out is open
	if stats.OpenSlots != 2 {
		t.Errorf("OpenSlots = %d, want 2", stats.OpenSlots)
	}
	if stats.TodayConfirmed != 2 {
		t.Errorf("TodayConfirmed = %d, want 2", stats.TodayConfirmed)
	}

	if len(stats.Upcoming) != 2 {
		t.Fatalf("expected 2 upcoming sessions, got %d", len(stats.Upcoming))
	}
	if stats.Upcoming[0].ID != bBooking.ID || stats.Upcoming[1].ID != cBooking.ID {
		t.Errorf("upcoming not ordered by block start")
	}
	if stats.Upcoming[0].TimeBlock == nil || stats.Upcoming[0].User == nil {
		t.Errorf("upcoming sessions should carry block and user")
	}
}

func TestStats_TodayFollowsDisplayZone(t *testing.T) {
	env := newTestEnv(t)
	// 23:30 UTC on the 15th is already the 16th in UTC+8
	env.svc.cfg.Location = time.FixedZone("UTC+8", 8*60*60)

	nextLocalDay := env.block(t, env.now.Add(11*time.Hour+30*time.Minute), 1, model.TimeBlockActive)
	env.book(t, env.user(t, 1).ID, nextLocalDay.ID)

	stats, err := env.svc.Stats(context.Background(), admin)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TodayConfirmed != 0 {
		t.Errorf("TodayConfirmed = %d, want 0", stats.TodayConfirmed)
	}

	env.now = env.now.Add(12 * time.Hour)
	stats, err = env.svc.Stats(context.Background(), admin)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TodayConfirmed != 1 {
		t.Errorf("TodayConfirmed = %d, want 1", stats.TodayConfirmed)
	}
}

func TestStats_UpcomingIsCapped(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < UpcomingLimit+3; i++ {
		block := env.block(t, env.now.Add(time.Duration(i+1)*time.Hour), 1, model.TimeBlockActive)
		env.book(t, env.user(t, i).ID, block.ID)
	}

	stats, err := env.svc.Stats(context.Background(), admin)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.Upcoming) != UpcomingLimit {
		t.Errorf("expected %d upcoming, got %d", UpcomingLimit, len(stats.Upcoming))
	}
}

func TestStats_Empty(t *testing.T) {
	env := newTestEnv(t)

	stats, err := env.svc.Stats(context.Background(), admin)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalConfirmed != 0 || stats.OpenSlots != 0 || stats.Upcoming == nil {
		t.Errorf("unexpected empty stats: %+v", stats)
	}
}

func TestStats_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	for _, viewer := range []*auth.Principal{nil, {UserID: "u", Role: model.RoleIntern}} {
		if _, err := env.svc.Stats(context.Background(), viewer); !apperrors.HasCode(err, apperrors.CodeForbidden) {
			t.Errorf("expected FORBIDDEN for %+v, got %v", viewer, err)
		}
	}
}

type failingBlocks struct{}

func (failingBlocks) FindAll(ctx context.Context, filter timeblocksrepository.Filter) ([]*model.TimeBlock, error) {
	return nil, errors.New("connection refused")
}

func TestStats_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.svc.blocks = failingBlocks{}

	_, err := env.svc.Stats(context.Background(), admin)
	if !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("expected INTERNAL_ERROR, got %v", err)
	}
}
