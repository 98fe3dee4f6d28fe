package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/pkg/tokens"
)

func TestAuthorize(t *testing.T) {
	t.Parallel()

	admin := tokens.Identity{UserID: uuid.New(), Role: "admin"}
	owner := tokens.Identity{UserID: uuid.New(), Role: "student"}
	other := tokens.Identity{UserID: uuid.New(), Role: "student"}

	pending := &models.Order{ID: uuid.New(), UserID: owner.UserID, Status: models.StatusPending}
	confirmed := &models.Order{ID: uuid.New(), UserID: owner.UserID, Status: models.StatusConfirmed}

	tests := []struct {
		name     string
		id       tokens.Identity
		action   Action
		resource any
		allowed  bool
	}{
		{"admin manages products", admin, ActionManageProducts, nil, true},
		{"student manages products", owner, ActionManageProducts, nil, false},
		{"student views stats", owner, ActionViewStats, nil, false},
		{"admin lists all orders", admin, ActionListAllOrders, nil, true},
		{"student lists all orders", owner, ActionListAllOrders, nil, false},
		{"owner views order", owner, ActionViewOrder, pending, true},
		{"stranger views order", other, ActionViewOrder, pending, false},
		{"owner cancels pending", owner, ActionSetOrderStatus, StatusChange{Order: pending, To: models.StatusCancelled}, true},
		{"owner cancels confirmed", owner, ActionSetOrderStatus, StatusChange{Order: confirmed, To: models.StatusCancelled}, false},
		{"owner confirms", owner, ActionSetOrderStatus, StatusChange{Order: pending, To: models.StatusConfirmed}, false},
		{"stranger cancels", other, ActionSetOrderStatus, StatusChange{Order: pending, To: models.StatusCancelled}, false},
		{"admin any status", admin, ActionSetOrderStatus, StatusChange{Order: confirmed, To: models.StatusReady}, true},
		{"unknown action", owner, Action("orders:delete"), nil, false},
	}
	for _, tt := range tests {
		err := Authorize(tt.id, tt.action, tt.resource)
		if tt.allowed {
			assert.NoError(t, err, tt.name)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, tt.name)
		}
	}

	assert.NoError(t, Allow(ActionViewStats)(admin))
	assert.ErrorIs(t, Allow(ActionViewStats)(owner), ErrForbidden)
}
