package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/school_bakery/internal/events"
	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/pkg/tokens"
)

func orderReq(lines ...transport.OrderItemRequest) transport.PlaceOrderRequest {
	return transport.PlaceOrderRequest{
		DeliveryLocation: "Sala 7A",
		DeliveryTime:     "09:30 - 10:00",
		PaymentMethod:    "pix",
		Items:            lines,
	}
}

func line(id uuid.UUID, qty int) transport.OrderItemRequest {
	return transport.OrderItemRequest{ProductID: id, Quantity: qty}
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.Repo.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.Repo.DB.Model(&models.Order{}).Count(&n).Error)
	var items int64
	require.NoError(t, f.Repo.DB.Model(&models.OrderItem{}).Count(&items).Error)
	return n + items
}

func TestOrderService_PlaceOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)
	queijo := f.product(t, "Pão de Queijo", "150.00", 10)
	frances := f.product(t, "Pão Francês", "0.75", 200)

	order, err := f.Orders.PlaceOrder(ctx, ana.UserID, orderReq(line(queijo.ID, 2), line(frances.ID, 3)))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "302.25", transport.Money(order.Total))
	assert.True(t, order.Total.Equal(order.Subtotal))
	require.Len(t, order.Items, 2)

	sum := decimal.Zero
	for _, it := range order.Items {
		assert.True(t, it.Subtotal.Equal(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))))
		sum = sum.Add(it.Subtotal)
	}
	assert.True(t, order.Total.Equal(sum))
	assert.Equal(t, "ana", order.User.Username)

	assert.Equal(t, 8, f.stock(t, queijo.ID))
	assert.Equal(t, 197, f.stock(t, frances.ID))

	evs := f.Events.Events(events.TopicOrders)
	require.Len(t, evs, 1)
	ev := evs[0].Event.(events.OrderEvent)
	assert.Equal(t, events.OrderPlaced, ev.Type)
	assert.Equal(t, "302.25", ev.Total)
	assert.Len(t, ev.Items, 2)
}

func TestOrderService_PriceSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)
	p := f.product(t, "Croissant Simples", "4.50", 35)

	order, err := f.Orders.PlaceOrder(ctx, ana.UserID, orderReq(line(p.ID, 1)))
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("9.99")
	_, err = f.Catalog.Update(ctx, p.ID, transport.UpdateProductRequest{Price: &newPrice})
	require.NoError(t, err)

	again, err := f.Orders.GetOrder(ctx, order.ID, ana)
	require.NoError(t, err)
	require.Len(t, again.Items, 1)
	assert.Equal(t, "4.50", transport.Money(again.Items[0].UnitPrice))
	assert.Equal(t, "4.50", transport.Money(again.Total))
	assert.Equal(t, "9.99", transport.Money(again.Items[0].Product.Price))
}

func TestOrderService_PlaceOrder_Failures(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)
	plenty := f.product(t, "Pão de Forma Integral", "8.50", 50)
	scarce := f.product(t, "Pão de Centeio", "3.00", 1)
	retired := f.product(t, "Pão de Batata", "2.25", 55)
	_, err := f.Catalog.SoftDelete(ctx, retired.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  transport.PlaceOrderRequest
		want error
	}{
		{name: "quantity over stock", req: orderReq(line(plenty.ID, 1), line(scarce.ID, 2)), want: ErrInsufficientStock},
		{name: "same product twice over stock", req: orderReq(line(scarce.ID, 1), line(scarce.ID, 1)), want: ErrInsufficientStock},
		{name: "unknown product", req: orderReq(line(plenty.ID, 1), line(uuid.New(), 1)), want: ErrProductNotFound},
		{name: "inactive product", req: orderReq(line(retired.ID, 1)), want: ErrProductNotFound},
		{name: "no items", req: orderReq(), want: ErrValidation},
		{name: "zero quantity", req: orderReq(line(plenty.ID, 0)), want: ErrValidation},
		{name: "bad payment", req: func() transport.PlaceOrderRequest {
			r := orderReq(line(plenty.ID, 1))
			r.PaymentMethod = "card"
			return r
		}(), want: ErrValidation},
		{name: "missing location", req: func() transport.PlaceOrderRequest {
			r := orderReq(line(plenty.ID, 1))
			r.DeliveryLocation = " "
			return r
		}(), want: ErrValidation},
	}
	for _, tt := range tests {
		_, err := f.Orders.PlaceOrder(ctx, ana.UserID, tt.req)
		require.ErrorIs(t, err, tt.want, tt.name)
	}

	// nothing was written by any failed attempt
	assert.Zero(t, f.orderCount(t))
	assert.Equal(t, 50, f.stock(t, plenty.ID))
	assert.Equal(t, 1, f.stock(t, scarce.ID))
	assert.Empty(t, f.Events.Events(events.TopicOrders))
}

func TestOrderService_ConcurrentOrdersDoNotOversell(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)
	bia := f.user(t, "bia", models.RoleStudent)
	last := f.product(t, "Pão de Queijo", "2.00", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, who := range []tokens.Identity{ana, bia} {
		wg.Add(1)
		go func(i int, who tokens.Identity) {
			defer wg.Done()
			_, errs[i] = f.Orders.PlaceOrder(ctx, who.UserID, orderReq(line(last.ID, 1)))
		}(i, who)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, f.stock(t, last.ID))
}

func TestOrderService_ItemsKeepPlacementOrder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)

	var lines []transport.OrderItemRequest
	var want []uuid.UUID
	for _, name := range []string{"Sonho", "Biscoito", "Rosca", "Pão de Mel", "Croissant", "Esfiha"} {
		p := f.product(t, name, "1.00", 10)
		lines = append(lines, line(p.ID, 1))
		want = append(want, p.ID)
	}

	placed, err := f.Orders.PlaceOrder(ctx, ana.UserID, orderReq(lines...))
	require.NoError(t, err)

	got, err := f.Orders.GetOrder(ctx, placed.ID, ana)
	require.NoError(t, err)
	require.Len(t, got.Items, len(want))
	for i, it := range got.Items {
		assert.Equal(t, want[i], it.ProductID, "line %d", i)
		assert.Equal(t, i, it.Position)
	}
}

func TestOrderService_StockTakenAfterReadRollsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana", models.RoleStudent)
	cake := f.product(t, "Bolo de Chocolate", "6.00", 5)

	db := f.Repo.DB
	var raced bool
	// another checkout leaves 1 unit right after the order reads the product
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:sale_after_read", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "products" {
			return
		}
		raced = true
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET stock = ? WHERE id = ?", 1, cake.ID).Error)
	}))

	var rowsBeforeDecrement int64
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:count_before_decrement", func(tx *gorm.DB) {
		if tx.Statement.Table != "products" {
			return
		}
		var orders, items int64
		s := tx.Session(&gorm.Session{NewDB: true})
		require.NoError(t, s.Model(&models.Order{}).Count(&orders).Error)
		require.NoError(t, s.Model(&models.OrderItem{}).Count(&items).Error)
		rowsBeforeDecrement = orders + items
	}))

	_, err := f.Orders.PlaceOrder(ctx, ana.UserID, orderReq(line(cake.ID, 2)))
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.True(t, raced)

	// header and line were written inside the transaction, then undone
	assert.EqualValues(t, 2, rowsBeforeDecrement)
	assert.Zero(t, f.orderCount(t))
	assert.Equal(t, 5, f.stock(t, cake.ID))
	assert.Empty(t, f.Events.Events(events.TopicOrders))
}

func TestOrderService_SetStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "diretora", models.RoleAdmin)
	ana := f.user(t, "ana", models.RoleStudent)
	bia := f.user(t, "bia", models.RoleStudent)
	p := f.product(t, "Pão de Leite", "1.50", 90)

	place := func() *models.Order {
		o, err := f.Orders.PlaceOrder(ctx, ana.UserID, orderReq(line(p.ID, 1)))
		require.NoError(t, err)
		return o
	}

	t.Run("owner cancels only while pending", func(t *testing.T) {
		o := place()
		_, err := f.Orders.SetStatus(ctx, o.ID, "confirmed", admin)
		require.NoError(t, err)

		_, err = f.Orders.SetStatus(ctx, o.ID, "cancelled", ana)
		require.ErrorIs(t, err, ErrForbidden)

		o2 := place()
		got, err := f.Orders.SetStatus(ctx, o2.ID, "cancelled", ana)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
	})

	t.Run("other students are forbidden", func(t *testing.T) {
		o := place()
		_, err := f.Orders.SetStatus(ctx, o.ID, "cancelled", bia)
		require.ErrorIs(t, err, ErrForbidden)
		_, err = f.Orders.SetStatus(ctx, o.ID, "confirmed", ana)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("check order", func(t *testing.T) {
		o := place()
		_, err := f.Orders.SetStatus(ctx, uuid.New(), "shipped", admin)
		require.ErrorIs(t, err, ErrInvalidStatus, "status is checked before existence")
		_, err = f.Orders.SetStatus(ctx, uuid.New(), "confirmed", bia)
		require.ErrorIs(t, err, ErrOrderNotFound, "existence is checked before ownership")
		_, err = f.Orders.SetStatus(ctx, o.ID, "shipped", ana)
		require.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("admin moves forward and may skip stages", func(t *testing.T) {
		o := place()
		got, err := f.Orders.SetStatus(ctx, o.ID, "ready", admin)
		require.NoError(t, err)
		assert.Equal(t, models.StatusReady, got.Status)

		_, err = f.Orders.SetStatus(ctx, o.ID, "preparing", admin)
		require.ErrorIs(t, err, ErrInvalidTransition)

		got, err = f.Orders.SetStatus(ctx, o.ID, "delivered", admin)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDelivered, got.Status)

		_, err = f.Orders.SetStatus(ctx, o.ID, "cancelled", admin)
		require.ErrorIs(t, err, ErrInvalidTransition, "delivered is terminal")
	})

	t.Run("admin cancels a non-terminal order", func(t *testing.T) {
		o := place()
		_, err := f.Orders.SetStatus(ctx, o.ID, "preparing", admin)
		require.NoError(t, err)
		got, err := f.Orders.SetStatus(ctx, o.ID, "cancelled", admin)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)

		evs := f.Events.Events(events.TopicOrders)
		last := evs[len(evs)-1].Event.(events.OrderEvent)
		assert.Equal(t, events.OrderStatusChanged, last.Type)
		assert.Equal(t, "preparing", last.PrevStatus)
		assert.Equal(t, "cancelled", last.Status)
	})
}

func TestOrderService_ListAndGet(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	admin := f.user(t, "diretora", models.RoleAdmin)
	ana := f.user(t, "ana", models.RoleStudent)
	bia := f.user(t, "bia", models.RoleStudent)
	p := f.product(t, "Rosquinha Doce", "1.00", 100)

	anaOrder, err := f.Orders.PlaceOrder(ctx, ana.UserID, orderReq(line(p.ID, 1)))
	require.NoError(t, err)
	_, err = f.Orders.PlaceOrder(ctx, bia.UserID, orderReq(line(p.ID, 2)))
	require.NoError(t, err)
	_, err = f.Orders.SetStatus(ctx, anaOrder.ID, "confirmed", admin)
	require.NoError(t, err)

	all, err := f.Orders.ListOrders(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.Orders.ListOrders(ctx, ana, "all")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, anaOrder.ID, mine[0].ID)

	pending, err := f.Orders.ListOrders(ctx, admin, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bia.UserID, pending[0].UserID)

	_, err = f.Orders.GetOrder(ctx, anaOrder.ID, bia)
	require.ErrorIs(t, err, ErrForbidden)
	_, err = f.Orders.GetOrder(ctx, anaOrder.ID, admin)
	require.NoError(t, err)
	_, err = f.Orders.GetOrder(ctx, uuid.New(), admin)
	require.ErrorIs(t, err, ErrOrderNotFound)
}
