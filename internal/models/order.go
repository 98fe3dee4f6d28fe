package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// fulfilment order of the non-cancel states
var statusRank = map[OrderStatus]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusDelivered: 4,
}

func (s OrderStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
// Fulfilment only moves forward, though stages may be skipped. Any
// non-terminal order may be cancelled.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() || from == to {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "pix"
	PaymentCash PaymentMethod = "cash"
)

type Order struct {
	ID               uuid.UUID       `gorm:"type:varchar(36);primaryKey"`
	UserID           uuid.UUID       `gorm:"type:varchar(36);not null;index"`
	User             User            `gorm:"foreignKey:UserID"`
	DeliveryLocation string          `gorm:"not null"`
	DeliveryTime     string          `gorm:"not null"`
	PaymentMethod    PaymentMethod   `gorm:"type:varchar(8);not null"`
	Notes            *string         `gorm:"type:text"`
	Subtotal         decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Total            decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Status           OrderStatus     `gorm:"type:varchar(16);not null;index"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time       `gorm:"index"`
	UpdatedAt        time.Time
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:varchar(36);primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:varchar(36);not null;index"`
	// Position is the line's index in the placed order.
	Position  int             `gorm:"not null;default:0"`
	ProductID uuid.UUID       `gorm:"type:varchar(36);not null;index"`
	Product   Product         `gorm:"foreignKey:ProductID"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(10,2);not null"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
