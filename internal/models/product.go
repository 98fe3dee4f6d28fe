package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LowStockThreshold is the stock level below which a product shows up in admin alerts.
const LowStockThreshold = 5

type Product struct {
	ID          uuid.UUID       `gorm:"type:varchar(36);primaryKey"`
	Name        string          `gorm:"not null;index"`
	Description string          `gorm:"type:text;not null"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Stock       int             `gorm:"not null"`
	ImageURL    *string
	Rating      decimal.Decimal `gorm:"type:numeric(2,1);not null"`
	ReviewCount int             `gorm:"not null"`
	IsActive    bool            `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
