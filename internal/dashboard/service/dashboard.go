package service

import (
	"context"
	"sort"
	"sync"
	"time"

	bookingsservice "github.com/PaingThuTa/booking-system-intern/internal/bookings/service"
	timeblocksrepository "github.com/PaingThuTa/booking-system-intern/internal/timeblocks/repository"
	"github.com/PaingThuTa/booking-system-intern/pkg/auth"
	"github.com/PaingThuTa/booking-system-intern/pkg/config"
	apperrors "github.com/PaingThuTa/booking-system-intern/pkg/errors"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

// UpcomingLimit is how many upcoming sessions the dashboard lists.
const UpcomingLimit = 8

type DashboardService interface {
	Stats(ctx context.Context, viewer *auth.Principal) (*model.DashboardStats, error)
}

type BlockFinder interface {
	FindAll(ctx context.Context, filter timeblocksrepository.Filter) ([]*model.TimeBlock, error)
}

type BookingCounter interface {
	FindAll(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
	CountConfirmed(ctx context.Context) (int64, error)
	CountDistinctConfirmedUsers(ctx context.Context) (int64, error)
	CountConfirmedByBlocks(ctx context.Context, timeBlockIDs []string) (map[string]int64, error)
}

type dashboardService struct {
	blocks   BlockFinder
	bookings BookingCounter
	details  *bookingsservice.DetailsLoader
	cfg      *config.Config
	now      func() time.Time
}

func NewDashboardService(
	blocks BlockFinder,
	bookings BookingCounter,
	details *bookingsservice.DetailsLoader,
	cfg *config.Config,
) DashboardService {
	return &dashboardService{
		blocks:   blocks,
		bookings: bookings,
		details:  details,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Stats reads each aggregate concurrently from committed state.
func (s *dashboardService) Stats(ctx context.Context, viewer *auth.Principal) (*model.DashboardStats, error) {
	if !viewer.IsAdmin() {
		return nil, apperrors.Forbidden("Admin access required")
	}

	now := s.now()
	stats := &model.DashboardStats{}

	tasks := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{"total_confirmed", func(ctx context.Context) (err error) {
			stats.TotalConfirmed, err = s.bookings.CountConfirmed(ctx)
			return err
		}},
		{"scheduled_interns", func(ctx context.Context) (err error) {
			stats.ScheduledInterns, err = s.bookings.CountDistinctConfirmedUsers(ctx)
			return err
		}},
		{"open_slots", func(ctx context.Context) (err error) {
			stats.OpenSlots, err = s.openSlots(ctx, now)
			return err
		}},
		{"today_confirmed", func(ctx context.Context) (err error) {
			stats.TodayConfirmed, err = s.todayConfirmed(ctx, now)
			return err
		}},
		{"upcoming", func(ctx context.Context) (err error) {
			stats.Upcoming, err = s.upcoming(ctx, now)
			return err
		}},
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func() {
			defer wg.Done()
			errs[i] = task.run(ctx)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			s.cfg.Log.Error("Failed to compute dashboard statistic",
				"statistic", tasks[i].name,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to compute dashboard statistics", err)
		}
	}

	return stats, nil
}

// openSlots counts active blocks that have not ended and still have a seat.
func (s *dashboardService) openSlots(ctx context.Context, now time.Time) (int64, error) {
	blocks, err := s.blocks.FindAll(ctx, timeblocksrepository.Filter{
		Status:        model.TimeBlockActive,
		EndsAtOrAfter: &now,
	})
	if err != nil || len(blocks) == 0 {
		return 0, err
	}

	counts, err := s.bookings.CountConfirmedByBlocks(ctx, blockIDs(blocks))
	if err != nil {
		return 0, err
	}

	var open int64
	for _, b := range blocks {
		if counts[b.ID] < int64(b.Capacity) {
			open++
		}
	}
	return open, nil
}

// todayConfirmed counts confirmed bookings on blocks starting today in the
// display time zone.
func (s *dashboardService) todayConfirmed(ctx context.Context, now time.Time) (int64, error) {
	loc := s.cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	blocks, err := s.blocks.FindAll(ctx, timeblocksrepository.Filter{
		StartsFrom:   &start,
		StartsBefore: &end,
	})
	if err != nil || len(blocks) == 0 {
		return 0, err
	}

	counts, err := s.bookings.CountConfirmedByBlocks(ctx, blockIDs(blocks))
	if err != nil {
		return 0, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (s *dashboardService) upcoming(ctx context.Context, now time.Time) ([]*model.BookingDetails, error) {
	blocks, err := s.blocks.FindAll(ctx, timeblocksrepository.Filter{StartsFrom: &now})
	if err != nil || len(blocks) == 0 {
		return []*model.BookingDetails{}, err
	}

	bookings, err := s.bookings.FindAll(ctx, model.BookingFilter{
		TimeBlockIDs: blockIDs(blocks),
		Status:       model.BookingConfirmed,
	})
	if err != nil {
		return nil, err
	}

	startByBlock := make(map[string]time.Time, len(blocks))
	for _, b := range blocks {
		startByBlock[b.ID] = b.StartAt
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		si, sj := startByBlock[bookings[i].TimeBlockID], startByBlock[bookings[j].TimeBlockID]
		if si.Equal(sj) {
			return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
		}
		return si.Before(sj)
	})
	if len(bookings) > UpcomingLimit {
		bookings = bookings[:UpcomingLimit]
	}

	return s.details.Load(ctx, bookings)
}

func blockIDs(blocks []*model.TimeBlock) []string {
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
	}
	return ids
}
