package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RegisterRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	FullName  string  `json:"fullName" validate:"required,max=120"`
	Classroom *string `json:"classroom,omitempty" validate:"omitempty,max=50"`
	Contact   *string `json:"contact,omitempty" validate:"omitempty,max=120"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProductQuery struct {
	Search string `query:"search"`
	Flavor string `query:"flavor"`
	// accepted for client compatibility, never applied
	PriceRange string `query:"priceRange"`
}

// Price and Rating are checked by the catalog service, the validator has no
// rules for decimal values. ImageURL may be relative; an empty string means
// no image.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=2000"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	ImageURL    *string         `json:"imageUrl,omitempty" validate:"omitnil,max=500"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"reviewCount" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	ImageURL    *string          `json:"imageUrl,omitempty" validate:"omitnil,max=500"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	ReviewCount *int             `json:"reviewCount,omitempty"`
	IsActive    *bool            `json:"isActive,omitempty"`
}

type SetStockRequest struct {
	Stock *int `json:"stock" validate:"required"`
}

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

type PlaceOrderRequest struct {
	DeliveryLocation string             `json:"deliveryLocation" validate:"required,max=200"`
	DeliveryTime     string             `json:"deliveryTime" validate:"required,max=50"`
	PaymentMethod    string             `json:"paymentMethod" validate:"required,oneof=pix cash"`
	Notes            *string            `json:"notes,omitempty" validate:"omitempty,max=500"`
	Items            []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type SetStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
