package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/school_bakery/internal/service"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/pkg/logging"
	authmw "github.com/Skotchmaster/school_bakery/pkg/middleware/auth"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "register_error", err, "Invalid input data")
	}

	token, user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.AuthResponse{Token: token, User: transport.NewUserResponse(user)})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "login_error", err, "Invalid input data")
	}

	token, user, err := h.Svc.Login(ctx, req)
	if err != nil {
		return fail(l, "login_error", err)
	}

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.AuthResponse{Token: token, User: transport.NewUserResponse(user)})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	id, ok := authmw.IdentityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Access token required")
	}

	user, err := h.Svc.Me(ctx, id.UserID)
	if err != nil {
		return fail(l, "me_error", err, errorMapping{service.ErrNotFound, http.StatusNotFound, "User not found"})
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}
