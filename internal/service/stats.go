package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/repo"
)

type TodayStats struct {
	OrdersToday   int64
	RevenueToday  decimal.Decimal
	LowStockCount int64
	DeliveryRate  int
}

type StatsService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
	// Location sets the calendar day boundary, time.Local when nil.
	Location *time.Location
}

func (s *StatsService) dayBounds() (time.Time, time.Time) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

func (s *StatsService) Today(ctx context.Context) (TodayStats, error) {
	from, to := s.dayBounds()

	totals, err := s.Repo.OrderTotalsBetween(ctx, from, to)
	if err != nil {
		return TodayStats{}, err
	}
	low, err := s.Repo.CountLowStock(ctx, models.LowStockThreshold)
	if err != nil {
		return TodayStats{}, err
	}

	return TodayStats{
		OrdersToday:   totals.Orders,
		RevenueToday:  totals.Revenue,
		LowStockCount: low,
		DeliveryRate:  DeliveryRate(totals.Delivered, totals.Orders),
	}, nil
}

// DeliveryRate is the rounded percentage of delivered orders, 0 when there are none.
func DeliveryRate(delivered, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(delivered * 100).Div(decimal.NewFromInt(total)).Round(0).IntPart())
}
