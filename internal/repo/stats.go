package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/school_bakery/internal/models"
)

type OrderTotals struct {
	Orders    int64
	Delivered int64
	Revenue   decimal.Decimal
}

// OrderTotalsBetween aggregates orders created in [from, to).
func (r *GormRepo) OrderTotalsBetween(ctx context.Context, from, to time.Time) (OrderTotals, error) {
	var row struct {
		Orders    int64
		Delivered int64
		Revenue   decimal.NullDecimal
	}
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select(
			"COUNT(*) AS orders, "+
				"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS delivered, "+
				"SUM(total) AS revenue",
			models.StatusDelivered,
		).
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Scan(&row).Error
	if err != nil {
		return OrderTotals{}, err
	}

	totals := OrderTotals{Orders: row.Orders, Delivered: row.Delivered, Revenue: decimal.Zero}
	if row.Revenue.Valid {
		totals.Revenue = row.Revenue.Decimal
	}
	return totals, nil
}
