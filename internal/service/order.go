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
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/internal/validation"
	"github.com/Skotchmaster/school_bakery/pkg/logging"
	"github.com/Skotchmaster/school_bakery/pkg/tokens"
)

// deliveryFee is added to every order total. Delivery is free for now.
var deliveryFee = decimal.Zero

type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

// PlaceOrder validates every line against current stock, snapshots prices and
// persists the order, its items and the stock decrements in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req transport.PlaceOrderRequest) (*models.Order, error) {
	req.DeliveryLocation = strings.TrimSpace(req.DeliveryLocation)
	req.DeliveryTime = strings.TrimSpace(req.DeliveryTime)
	if err := validation.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	order := &models.Order{
		UserID:           userID,
		DeliveryLocation: req.DeliveryLocation,
		DeliveryTime:     req.DeliveryTime,
		PaymentMethod:    models.PaymentMethod(req.PaymentMethod),
		Notes:            req.Notes,
		Status:           models.StatusPending,
	}

	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, line := range req.Items {
			prod, err := tx.GetActiveProduct(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
				}
				return err
			}
			if line.Quantity > prod.Stock {
				return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, prod.Name, prod.Stock)
			}

			lineTotal := prod.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, models.OrderItem{
				ProductID: prod.ID,
				Quantity:  line.Quantity,
				UnitPrice: prod.Price,
				Subtotal:  lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		order.Subtotal = subtotal
		order.Total = subtotal.Add(deliveryFee)
		order.Items = items

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		// the read above is advisory, the conditional decrement is what holds under concurrency
		for _, it := range items {
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, it.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	placed, err := s.Repo.GetOrderDetails(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	lines := make([]events.OrderLine, 0, len(placed.Items))
	for _, it := range placed.Items {
		lines = append(lines, events.OrderLine{ProductID: it.ProductID.String(), Quantity: it.Quantity})
	}
	s.publish(ctx, events.OrderEvent{
		Type:    events.OrderPlaced,
		OrderID: placed.ID.String(),
		UserID:  placed.UserID.String(),
		Status:  string(placed.Status),
		Total:   transport.Money(placed.Total),
		Items:   lines,
		At:      time.Now().UTC(),
	})
	return placed, nil
}

func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, newStatus string, requester tokens.Identity) (*models.Order, error) {
	to := models.OrderStatus(strings.TrimSpace(newStatus))
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, err
	}

	if err := Authorize(requester, ActionSetOrderStatus, StatusChange{Order: order, To: to}); err != nil {
		return nil, err
	}

	from := order.Status
	if !models.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	ok, err := s.Repo.UpdateOrderStatus(ctx, orderID, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
	}

	updated, err := s.Repo.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.OrderEvent{
		Type:       events.OrderStatusChanged,
		OrderID:    updated.ID.String(),
		UserID:     updated.UserID.String(),
		Status:     string(to),
		PrevStatus: string(from),
		Total:      transport.Money(updated.Total),
		At:         time.Now().UTC(),
	})
	return updated, nil
}

// ListOrders returns every order for admins and only the requester's own otherwise.
func (s *OrderService) ListOrders(ctx context.Context, requester tokens.Identity, status string) ([]models.Order, error) {
	f := repo.OrderFilter{Status: status}
	if err := Authorize(requester, ActionListAllOrders, nil); err != nil {
		uid := requester.UserID
		f.UserID = &uid
	}
	return s.Repo.ListOrders(ctx, f)
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, requester tokens.Identity) (*models.Order, error) {
	order, err := s.Repo.GetOrderDetails(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, err
	}
	if err := Authorize(requester, ActionViewOrder, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, ev events.OrderEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicOrders, ev.OrderID, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "topic", events.TopicOrders, "order_id", ev.OrderID, "error", err)
	}
}
