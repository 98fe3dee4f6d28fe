package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/school_bakery/internal/service"
	pkgdb "github.com/Skotchmaster/school_bakery/pkg/db"
	authmw "github.com/Skotchmaster/school_bakery/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/school_bakery/pkg/middleware/logging"
)

type Deps struct {
	Auth    *AuthHTTP
	Catalog *CatalogHTTP
	Orders  *OrderHTTP
	Admin   *AdminHTTP

	Authn authmw.Authenticator
	DB    *gorm.DB
}

// New builds the echo instance with the common middleware chain and error
// rendering. Routes are added by Register.
func New(logger *slog.Logger, corsOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.BodyLimit("1M"))
	if len(corsOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: corsOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	} else {
		e.Use(echomw.CORS())
	}
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.DB == nil {
			return c.NoContent(http.StatusOK)
		}
		if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
		}
		return c.NoContent(http.StatusOK)
	})

	requireAuth := authmw.RequireAuth(d.Authn)
	manageProducts := authmw.Require(service.Allow(service.ActionManageProducts))
	viewStats := authmw.Require(service.Allow(service.ActionViewStats))

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.GET("/me", d.Auth.Me, requireAuth)

	products := api.Group("/products")
	products.GET("", d.Catalog.GetProducts)
	products.GET("/search", d.Catalog.SearchProducts)
	products.GET("/:id", d.Catalog.GetProduct)
	products.POST("", d.Catalog.CreateProduct, requireAuth, manageProducts)
	products.PUT("/:id", d.Catalog.UpdateProduct, requireAuth, manageProducts)
	products.DELETE("/:id", d.Catalog.DeleteProduct, requireAuth, manageProducts)
	products.PUT("/:id/stock", d.Catalog.SetStock, requireAuth, manageProducts)

	orders := api.Group("/orders", requireAuth)
	orders.GET("", d.Orders.GetOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.POST("", d.Orders.PlaceOrder)
	orders.PUT("/:id/status", d.Orders.SetStatus)

	admin := api.Group("/admin", requireAuth, viewStats)
	admin.GET("/stats", d.Admin.GetStats)
	admin.GET("/low-stock", d.Admin.GetLowStock)
}
