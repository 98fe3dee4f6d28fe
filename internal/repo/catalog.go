package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/transport"
)

type ProductFilter struct {
	Search string
	Flavor string
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)

	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(s))
	}
	if fl := strings.TrimSpace(f.Flavor); fl != "" && !strings.EqualFold(fl, "all") {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(fl))
	}

	items := make([]models.Product, 0)
	if err := q.Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SearchProducts is the database fallback for full text search.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	p := likePattern(strings.TrimSpace(query))
	items := make([]models.Product, 0)
	err := r.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, p, p).
		Order("name ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetActiveProductsByIDs keeps the order of ids and drops inactive or unknown ones.
func (r *GormRepo) GetActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var found []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ? AND is_active = ?", ids, true).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetActiveProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

func (r *GormRepo) CreateProducts(ctx context.Context, prods []models.Product) error {
	if len(prods) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&prods).Error
}

// UpdateProduct writes only the supplied fields. Columns the request leaves
// out, stock in particular, are never rewritten from a stale copy.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.UpdateProductRequest) (*models.Product, error) {
	changes := map[string]any{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Price != nil {
		changes["price"] = *req.Price
	}
	if req.Stock != nil {
		changes["stock"] = *req.Stock
	}
	if req.ImageURL != nil {
		// an empty string clears the image
		if *req.ImageURL == "" {
			changes["image_url"] = nil
		} else {
			changes["image_url"] = *req.ImageURL
		}
	}
	if req.Rating != nil {
		changes["rating"] = *req.Rating
	}
	if req.ReviewCount != nil {
		changes["review_count"] = *req.ReviewCount
	}
	if req.IsActive != nil {
		changes["is_active"] = *req.IsActive
	}

	if len(changes) > 0 {
		res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetProduct(ctx, id)
}

// SoftDeleteProduct reports false when no active product has this id.
func (r *GormRepo) SoftDeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) SetStock(ctx context.Context, id uuid.UUID, stock int) (*models.Product, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("stock", stock)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetProduct(ctx, id)
}

// DecrementStock only succeeds when enough stock is left, so concurrent
// orders cannot drive it negative. It reports false when nothing was updated.
func (r *GormRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_active = ? AND stock >= ?", id, true, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) LowStockProducts(ctx context.Context, threshold int) ([]models.Product, error) {
	items := make([]models.Product, 0)
	err := r.DB.WithContext(ctx).
		Where("is_active = ? AND stock < ?", true, threshold).
		Order("stock ASC").Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("is_active = ? AND stock < ?", true, threshold).
		Count(&n).Error
	return n, err
}
