package service

import (
	"fmt"

	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/pkg/tokens"
)

type Action string

const (
	ActionManageProducts Action = "products:manage"
	ActionViewStats      Action = "stats:view"
	ActionListAllOrders  Action = "orders:list_all"
	ActionViewOrder      Action = "orders:view"
	ActionSetOrderStatus Action = "orders:set_status"
)

// StatusChange is the resource checked for ActionSetOrderStatus.
type StatusChange struct {
	Order *models.Order
	To    models.OrderStatus
}

func isAdmin(id tokens.Identity) bool {
	return models.Role(id.Role) == models.RoleAdmin
}

// Authorize is the single capability check for every role or ownership rule.
func Authorize(id tokens.Identity, action Action, resource any) error {
	if isAdmin(id) {
		return nil
	}

	switch action {
	case ActionManageProducts, ActionViewStats, ActionListAllOrders:
		return fmt.Errorf("%w: %s requires admin", ErrForbidden, action)

	case ActionViewOrder:
		order, ok := resource.(*models.Order)
		if ok && order.UserID == id.UserID {
			return nil
		}
		return fmt.Errorf("%w: not the order owner", ErrForbidden)

	case ActionSetOrderStatus:
		change, ok := resource.(StatusChange)
		if !ok || change.Order == nil {
			return fmt.Errorf("%w: %s", ErrForbidden, action)
		}
		if change.Order.UserID != id.UserID ||
			change.To != models.StatusCancelled ||
			change.Order.Status != models.StatusPending {
			return fmt.Errorf("%w: Not authorized to change this order status", ErrForbidden)
		}
		return nil
	}

	return fmt.Errorf("%w: unknown action %s", ErrForbidden, action)
}

// Allow adapts Authorize for resource-less checks in middleware.
func Allow(action Action) func(tokens.Identity) error {
	return func(id tokens.Identity) error {
		return Authorize(id, action, nil)
	}
}
