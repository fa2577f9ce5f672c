package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/queueup/waitlist/internal/model"
)

// Analytics periods accepted by Detailed.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// DayStats summarizes one calendar day of waitlist activity for the admin
// dashboard.  Accepted counts entries that reached the counter (completed
// or currently called); AvgWaitTime is the mean minutes between joining
// and being called, over entries that were called at all.
type DayStats struct {
	Date        string  `json:"date"`
	Total       int     `json:"total"`
	Accepted    int     `json:"accepted"`
	Cancelled   int     `json:"cancelled"`
	AvgWaitTime float64 `json:"avgWaitTime"`
}

// Summary holds the all-time dashboard counters.  A customer is one
// distinct phone number, however many times they joined.
type Summary struct {
	TotalCustomers int `json:"totalCustomers"`
	TotalVisits    int `json:"totalVisits"`
}

// AnalyticsService derives per-day statistics and all-time counters from
// historical entries.  It shares the entry store with the lifecycle engine
// and holds no state of its own.
type AnalyticsService struct {
	store EntryStore
	now   func() time.Time
}

// NewAnalyticsService returns an AnalyticsService bound to the given store.
func NewAnalyticsService(store EntryStore) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// windowStart computes the beginning of the reporting window.  The day
// period starts at local midnight; week and month reach back a fixed span
// from now.  Unknown periods fall back to day.
func (s *AnalyticsService) windowStart(period string) time.Time {
	now := s.now()
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
}

// Detailed aggregates entries created within the period into per-day
// statistics, grouped by the UTC date of creation and sorted most recent
// day first.
func (s *AnalyticsService) Detailed(ctx context.Context, period string) ([]DayStats, error) {
	entries, err := s.store.ListCreatedSince(ctx, s.windowStart(period))
	if err != nil {
		return nil, err
	}

	type bucket struct {
		stats     DayStats
		waitTimes []float64
	}
	byDay := make(map[string]*bucket)
	for _, e := range entries {
		day := e.CreatedAt.UTC().Format("2006-01-02")
		b, ok := byDay[day]
		if !ok {
			b = &bucket{stats: DayStats{Date: day}}
			byDay[day] = b
		}
		b.stats.Total++
		switch e.Status {
		case model.StatusCompleted, model.StatusCalled:
			b.stats.Accepted++
		case model.StatusCancelled:
			b.stats.Cancelled++
		}
		if e.CalledAt != nil {
			b.waitTimes = append(b.waitTimes, e.CalledAt.Sub(e.CreatedAt).Minutes())
		}
	}

	out := make([]DayStats, 0, len(byDay))
	for _, b := range byDay {
		if len(b.waitTimes) > 0 {
			sum := 0.0
			for _, w := range b.waitTimes {
				sum += w
			}
			avg := sum / float64(len(b.waitTimes))
			b.stats.AvgWaitTime = math.Round(avg*10) / 10
		}
		out = append(out, b.stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// Stats returns the all-time visit and customer counters.
func (s *AnalyticsService) Stats(ctx context.Context) (*Summary, error) {
	visits, err := s.store.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.store.CountDistinctPhones(ctx)
	if err != nil {
		return nil, err
	}
	return &Summary{TotalCustomers: customers, TotalVisits: visits}, nil
}
