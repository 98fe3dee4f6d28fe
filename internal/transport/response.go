package transport

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/validation"
)

type ErrorResponse struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	FullName  string      `json:"fullName"`
	Classroom *string     `json:"classroom"`
	Contact   *string     `json:"contact"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    *string   `json:"imageUrl"`
	Rating      string    `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type OrderItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"productId"`
	Product   *ProductResponse `json:"product,omitempty"`
	Quantity  int              `json:"quantity"`
	UnitPrice string           `json:"unitPrice"`
	Subtotal  string           `json:"subtotal"`
}

type OrderResponse struct {
	ID               uuid.UUID            `json:"id"`
	UserID           uuid.UUID            `json:"userId"`
	User             *UserResponse        `json:"user,omitempty"`
	DeliveryLocation string               `json:"deliveryLocation"`
	DeliveryTime     string               `json:"deliveryTime"`
	PaymentMethod    models.PaymentMethod `json:"paymentMethod"`
	Notes            *string              `json:"notes"`
	Subtotal         string               `json:"subtotal"`
	Total            string               `json:"total"`
	Status           models.OrderStatus   `json:"status"`
	Items            []OrderItemResponse  `json:"orderItems"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// StatsResponse is the one place money goes out as a JSON number; the
// dashboard formats it client side.
type StatsResponse struct {
	OrdersToday   int64   `json:"ordersToday"`
	RevenueToday  float64 `json:"revenueToday"`
	LowStockCount int64   `json:"lowStockCount"`
	DeliveryRate  int     `json:"deliveryRate"`
}

func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func NewStatsResponse(ordersToday int64, revenue decimal.Decimal, lowStock int64, deliveryRate int) StatsResponse {
	return StatsResponse{
		OrdersToday:   ordersToday,
		RevenueToday:  revenue.Round(2).InexactFloat64(),
		LowStockCount: lowStock,
		DeliveryRate:  deliveryRate,
	}
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		Classroom: u.Classroom,
		Contact:   u.Contact,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       Money(p.Price),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Rating:      p.Rating.StringFixed(1),
		ReviewCount: p.ReviewCount,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewProductList(items []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for i := range items {
		out = append(out, NewProductResponse(&items[i]))
	}
	return out
}

func NewOrderResponse(o *models.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		DeliveryLocation: o.DeliveryLocation,
		DeliveryTime:     o.DeliveryTime,
		PaymentMethod:    o.PaymentMethod,
		Notes:            o.Notes,
		Subtotal:         Money(o.Subtotal),
		Total:            Money(o.Total),
		Status:           o.Status,
		Items:            make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	// associations are only set when preloaded
	if o.User.ID != uuid.Nil {
		u := NewUserResponse(&o.User)
		resp.User = &u
	}
	for i := range o.Items {
		it := &o.Items[i]
		item := OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: Money(it.UnitPrice),
			Subtotal:  Money(it.Subtotal),
		}
		if it.Product.ID != uuid.Nil {
			p := NewProductResponse(&it.Product)
			item.Product = &p
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func NewOrderList(orders []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, NewOrderResponse(&orders[i]))
	}
	return out
}
