package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/school_bakery/internal/service"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/internal/util"
	"github.com/Skotchmaster/school_bakery/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func parseID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	q := transport.ProductQuery{
		Search:     c.QueryParam("search"),
		Flavor:     c.QueryParam("flavor"),
		PriceRange: c.QueryParam("priceRange"),
	}
	items, err := h.Svc.List(ctx, q)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewProductList(items))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	items, err := h.Svc.Search(ctx, c.QueryParam("q"), util.PageSize(c.QueryParam("limit")))
	if err != nil {
		return fail(l, "search_products_error", err, errorMapping{service.ErrValidation, http.StatusBadRequest, "query error"})
	}
	return c.JSON(http.StatusOK, transport.NewProductList(items))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := parseID(c)
	if err != nil {
		return badBody(l, "get_product_error", err, "id is not a uuid")
	}

	product, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewProductResponse(product))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "product_create_error", err, "Invalid product data")
	}

	created, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", created.ID)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(created))
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := parseID(c)
	if err != nil {
		return badBody(l, "product_update_error", err, "id is not a uuid")
	}

	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "product_update_error", err, "Invalid product data")
	}

	prod, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return fail(l, "product_update_error", err)
	}

	l.Info("update_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, transport.NewProductResponse(prod))
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := parseID(c)
	if err != nil {
		return badBody(l, "product_delete_error", err, "id is not a uuid")
	}

	ok, err := h.Svc.SoftDelete(ctx, id)
	if err != nil {
		return fail(l, "product_delete_error", err)
	}
	if !ok {
		l.Warn("product_delete_error", "status", 404, "reason", "product not found", "product_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	l.Info("delete_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product deleted successfully"})
}

func (h *CatalogHTTP) SetStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.set_stock")

	id, err := parseID(c)
	if err != nil {
		return badBody(l, "set_stock_error", err, "id is not a uuid")
	}

	var req transport.SetStockRequest
	if err := c.Bind(&req); err != nil {
		return badBody(l, "set_stock_error", err, "Invalid stock value")
	}
	if req.Stock == nil {
		l.Warn("set_stock_error", "status", 400, "reason", "stock missing")
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid stock value")
	}

	prod, err := h.Svc.SetStock(ctx, id, *req.Stock)
	if err != nil {
		return fail(l, "set_stock_error", err, errorMapping{service.ErrValidation, http.StatusBadRequest, "Invalid stock value"})
	}

	l.Info("set_stock_success", "product_id", prod.ID, "stock", prod.Stock)
	return c.JSON(http.StatusOK, transport.NewProductResponse(prod))
}
