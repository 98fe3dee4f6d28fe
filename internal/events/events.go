package events

import "time"

const (
	UserRegistered     = "user_registered"
	ProductCreated     = "product_created"
	ProductUpdated     = "product_updated"
	ProductDeleted     = "product_deleted"
	ProductStockSet    = "product_stock_set"
	OrderPlaced        = "order_placed"
	OrderStatusChanged = "order_status_changed"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"userID"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

type ProductEvent struct {
	Type      string    `json:"type"`
	ProductID string    `json:"productID"`
	Name      string    `json:"name,omitempty"`
	Price     string    `json:"price,omitempty"`
	Stock     int       `json:"stock"`
	At        time.Time `json:"at"`
}

type OrderLine struct {
	ProductID string `json:"productID"`
	Quantity  int    `json:"quantity"`
}

type OrderEvent struct {
	Type       string      `json:"type"`
	OrderID    string      `json:"orderID"`
	UserID     string      `json:"userID"`
	Status     string      `json:"status"`
	PrevStatus string      `json:"prevStatus,omitempty"`
	Total      string      `json:"total"`
	Items      []OrderLine `json:"items,omitempty"`
	At         time.Time   `json:"at"`
}
