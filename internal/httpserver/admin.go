package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/school_bakery/internal/service"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/pkg/logging"
)

type AdminHTTP struct {
	Stats   *service.StatsService
	Catalog *service.CatalogService
}

func (h *AdminHTTP) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.stats")

	st, err := h.Stats.Today(ctx)
	if err != nil {
		return fail(l, "stats_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewStatsResponse(st.OrdersToday, st.RevenueToday, st.LowStockCount, st.DeliveryRate))
}

func (h *AdminHTTP) GetLowStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.low_stock")

	items, err := h.Catalog.LowStock(ctx)
	if err != nil {
		return fail(l, "low_stock_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewProductList(items))
}
