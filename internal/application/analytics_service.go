package application

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront-insights-core/internal/domain"
	"storefront-insights-core/internal/ports"
)

// Revenue series frequencies.
const (
	FreqWeekly  = "W"
	FreqMonthly = "M"
)

// AnalyticsService aggregates an owner's synced commerce data.
type AnalyticsService struct {
	analyticsRepo ports.AnalyticsRepository
	logger        zerolog.Logger
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(analyticsRepo ports.AnalyticsRepository, logger zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo, logger: logger}
}

// KPIs computes order volume, total revenue, average order value and the
// per-customer spending breakdown over the owner's synced orders.
func (s *AnalyticsService) KPIs(ctx context.Context, ownerID uuid.UUID) (*domain.KPIReport, error) {
	revenues, err := s.analyticsRepo.OrderRevenues(ctx, ownerID, time.Time{}, time.Time{})
	if err != nil {
		return nil, domain.E(domain.KindPersistenceError, "failed to load order revenues", err)
	}

	report := &domain.KPIReport{OrderVolume: int64(len(revenues))}
	byCustomer := make(map[string]*domain.CustomerSpend)
	for _, r := range revenues {
		report.TotalRevenue += r.Revenue
		spend, ok := byCustomer[r.CustomerID]
		if !ok {
			spend = &domain.CustomerSpend{CustomerID: r.CustomerID}
			byCustomer[r.CustomerID] = spend
		}
		spend.TotalSpent += r.Revenue
		spend.OrderCount++
	}
	if report.OrderVolume > 0 {
		report.AvgOrderValue = report.TotalRevenue / float64(report.OrderVolume)
	}

	report.CustomerSpending = make([]domain.CustomerSpend, 0, len(byCustomer))
	for _, spend := range byCustomer {
		report.CustomerSpending = append(report.CustomerSpending, *spend)
	}
	sort.Slice(report.CustomerSpending, func(i, j int) bool {
		return report.CustomerSpending[i].CustomerID < report.CustomerSpending[j].CustomerID
	})
	return report, nil
}

// RevenueSeries buckets the owner's revenue by week or month within the
// optional [start, end] window, then applies offset/limit pagination over
// the chronologically ordered buckets. A limit of zero means no limit.
func (s *AnalyticsService) RevenueSeries(ctx context.Context, ownerID uuid.UUID, freq string, start, end time.Time, offset, limit int) ([]domain.RevenuePoint, error) {
	if freq != FreqWeekly && freq != FreqMonthly {
		return nil, domain.E(domain.KindInvalidRequest, "freq must be W or M")
	}
	if offset < 0 || limit < 0 {
		return nil, domain.E(domain.KindInvalidRequest, "offset and limit must be non-negative")
	}

	revenues, err := s.analyticsRepo.OrderRevenues(ctx, ownerID, start, end)
	if err != nil {
		return nil, domain.E(domain.KindPersistenceError, "failed to load order revenues", err)
	}

	points := bucketRevenue(revenues, freq)
	if offset >= len(points) {
		return []domain.RevenuePoint{}, nil
	}
	points = points[offset:]
	if limit > 0 && limit < len(points) {
		points = points[:limit]
	}
	return points, nil
}

// RevenueAll returns the full weekly and monthly series side by side.
func (s *AnalyticsService) RevenueAll(ctx context.Context, ownerID uuid.UUID) (weekly, monthly []domain.RevenuePoint, err error) {
	revenues, err := s.analyticsRepo.OrderRevenues(ctx, ownerID, time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, domain.E(domain.KindPersistenceError, "failed to load order revenues", err)
	}
	return bucketRevenue(revenues, FreqWeekly), bucketRevenue(revenues, FreqMonthly), nil
}

// bucketRevenue groups order revenues into week- or month-ending buckets,
// sorted chronologically. Week buckets end on Sunday, month buckets on the
// last day of the month.
func bucketRevenue(revenues []domain.OrderRevenue, freq string) []domain.RevenuePoint {
	buckets := make(map[time.Time]float64)
	for _, r := range revenues {
		var key time.Time
		switch freq {
		case FreqWeekly:
			key = weekEnd(r.PlacedAt)
		case FreqMonthly:
			key = monthEnd(r.PlacedAt)
		}
		buckets[key] += r.Revenue
	}

	points := make([]domain.RevenuePoint, 0, len(buckets))
	for date, revenue := range buckets {
		points = append(points, domain.RevenuePoint{Date: date, Revenue: revenue})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

func weekEnd(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	daysUntilSunday := (7 - int(day.Weekday())) % 7
	return day.AddDate(0, 0, daysUntilSunday)
}

func monthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
