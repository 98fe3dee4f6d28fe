package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/school_bakery/internal/service"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/pkg/logging"
	authmw "github.com/Skotchmaster/school_bakery/pkg/middleware/auth"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	id, ok := authmw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	orders, err := h.Svc.ListOrders(ctx, id, c.QueryParam("status"))
	if err != nil {
		return fail(l, "get_orders_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderList(orders))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	requester, ok := authmw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}
	orderID, err := parseID(c)
	if err != nil {
		return badBody(l, "get_order_error", err, "id is not a uuid")
	}

	order, err := h.Svc.GetOrder(ctx, orderID, requester)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	requester, ok := authmw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "place_order_error", err, "Invalid order data")
	}

	order, err := h.Svc.PlaceOrder(ctx, requester.UserID, req)
	if err != nil {
		// a missing product is a problem with the order body, not the URL
		return fail(l, "place_order_error", err, errorMapping{service.ErrProductNotFound, http.StatusBadRequest, "Product not found"})
	}

	l.Info("place_order_success", "order_id", order.ID, "total", transport.Money(order.Total))
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.set_status")

	requester, ok := authmw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}
	orderID, err := parseID(c)
	if err != nil {
		return badBody(l, "set_status_error", err, "id is not a uuid")
	}

	var req transport.SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "set_status_error", err, "Invalid status")
	}

	order, err := h.Svc.SetStatus(ctx, orderID, req.Status, requester)
	if err != nil {
		return fail(l, "set_status_error", err,
			errorMapping{service.ErrForbidden, http.StatusForbidden, "Not authorized to change this order status"})
	}

	l.Info("set_status_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}
