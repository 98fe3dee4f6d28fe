package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/school_bakery/internal/events"
	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/repo"
	"github.com/Skotchmaster/school_bakery/internal/search"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/internal/util"
	"github.com/Skotchmaster/school_bakery/internal/validation"
	"github.com/Skotchmaster/school_bakery/pkg/logging"
)

var maxRating = decimal.NewFromInt(5)

type CatalogService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	// Index is optional; without it search runs against the database.
	Index search.Index
}

func (s *CatalogService) List(ctx context.Context, q transport.ProductQuery) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx, repo.ProductFilter{Search: q.Search, Flavor: q.Flavor})
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

// Search returns at most limit active products, util.DefaultPageSize when
// limit is not positive.
func (s *CatalogService) Search(ctx context.Context, query string, limit int) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}

	if limit <= 0 || limit > util.MaxPageSize {
		limit = util.DefaultPageSize
	}

	if s.Index != nil {
		ids, err := s.Index.Search(ctx, query, limit)
		if err == nil {
			return s.Repo.GetActiveProductsByIDs(ctx, ids)
		}
		logging.FromContext(ctx).Warn("search_index_failed", "reason", "falling back to database", "error", err)
	}
	return s.Repo.SearchProducts(ctx, query, limit)
}

func checkMoney(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	if price.Exponent() < -2 && !price.Equal(price.Round(2)) {
		return fmt.Errorf("%w: price has more than 2 decimal places", ErrValidation)
	}
	return nil
}

func imageURL(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil
	}
	return &v
}

func checkRating(r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(maxRating) {
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrValidation)
	}
	return nil
}

func (s *CatalogService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := checkMoney(req.Price); err != nil {
		return nil, err
	}
	if err := checkRating(req.Rating); err != nil {
		return nil, err
	}

	prod := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.Round(2),
		Stock:       req.Stock,
		ImageURL:    imageURL(req.ImageURL),
		Rating:      req.Rating.Round(1),
		ReviewCount: req.ReviewCount,
		IsActive:    true,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.afterChange(ctx, events.ProductCreated, prod)
	return prod, nil
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (*models.Product, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if req.ImageURL != nil {
		img := strings.TrimSpace(*req.ImageURL)
		req.ImageURL = &img
	}
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if req.Price != nil {
		if err := checkMoney(*req.Price); err != nil {
			return nil, err
		}
		p := req.Price.Round(2)
		req.Price = &p
	}
	if req.Rating != nil {
		if err := checkRating(*req.Rating); err != nil {
			return nil, err
		}
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock must be >= 0", ErrValidation)
	}
	if req.ReviewCount != nil && *req.ReviewCount < 0 {
		return nil, fmt.Errorf("%w: reviewCount must be >= 0", ErrValidation)
	}

	prod, err := s.Repo.UpdateProduct(ctx, id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}

	s.afterChange(ctx, events.ProductUpdated, prod)
	return prod, nil
}

// SoftDelete hides the product from the catalog. Orders keep referencing it.
func (s *CatalogService) SoftDelete(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := s.Repo.SoftDeleteProduct(ctx, id)
	if err != nil || !ok {
		return ok, err
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, events.ProductEvent{Type: events.ProductDeleted, ProductID: id.String(), At: time.Now().UTC()})
	return true, nil
}

func (s *CatalogService) SetStock(ctx context.Context, id uuid.UUID, stock int) (*models.Product, error) {
	if stock < 0 {
		return nil, fmt.Errorf("%w: Invalid stock value", ErrValidation)
	}
	prod, err := s.Repo.SetStock(ctx, id, stock)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}

	s.afterChange(ctx, events.ProductStockSet, prod)
	return prod, nil
}

func (s *CatalogService) LowStock(ctx context.Context) ([]models.Product, error) {
	return s.Repo.LowStockProducts(ctx, models.LowStockThreshold)
}

func (s *CatalogService) afterChange(ctx context.Context, kind string, p *models.Product) {
	if s.Index != nil {
		var err error
		if p.IsActive {
			err = s.Index.IndexProduct(ctx, p)
		} else {
			err = s.Index.DeleteProduct(ctx, p.ID)
		}
		if err != nil {
			logging.FromContext(ctx).Warn("search_index_failed", "product_id", p.ID, "error", err)
		}
	}
	s.publish(ctx, events.ProductEvent{
		Type:      kind,
		ProductID: p.ID.String(),
		Name:      p.Name,
		Price:     transport.Money(p.Price),
		Stock:     p.Stock,
		At:        time.Now().UTC(),
	})
}

func (s *CatalogService) publish(ctx context.Context, ev events.ProductEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicProducts, ev.ProductID, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", events.TopicProducts, "error", err)
	}
}
