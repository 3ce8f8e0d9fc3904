package aggregates

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepos "github.com/yungbote/pawclinic-backend/internal/data/repos/catalog"
	orderrepos "github.com/yungbote/pawclinic-backend/internal/data/repos/orders"
	repotest "github.com/yungbote/pawclinic-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
)

func newOrderAggregateForTest(t *testing.T, db *gorm.DB) domainagg.OrderAggregate {
	t.Helper()
	log := repotest.Logger(t)
	return NewOrderAggregate(OrderAggregateDeps{
		Base:     BaseDeps{DB: db, Log: log},
		Orders:   orderrepos.NewOrderRepo(db, log),
		Products: catalogrepos.NewProductRepo(db, log),
	})
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p types.Product
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.Stock
}

func TestOrderAggregatePlaceOrderDebitsStockAndSnapshots(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	food := repotest.SeedProduct(t, ctx, db, "dog-food", 2500, 10)
	toy := repotest.SeedProduct(t, ctx, db, "chew-toy", 799, 3)

	agg := newOrderAggregateForTest(t, db)
	order, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{
		UserID: u.ID,
		Lines: []domainagg.OrderLineInput{
			{ProductID: food.ID, Quantity: 1},
			{ProductID: toy.ID, Quantity: 2},
			{ProductID: food.ID, Quantity: 1},
		},
		ShippingName: " Ana ",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if order.Status != types.OrderPending {
		t.Fatalf("status: want pending got %q", order.Status)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items merged by product: want 2 got %d", len(order.Items))
	}
	if want := int64(2*2500 + 2*799); order.TotalCents != want {
		t.Fatalf("total: want %d got %d", want, order.TotalCents)
	}
	if order.ShippingName != "Ana" {
		t.Fatalf("shipping name not trimmed: %q", order.ShippingName)
	}
	if got := stockOf(t, db, food.ID); got != 8 {
		t.Fatalf("food stock: want 8 got %d", got)
	}
	if got := stockOf(t, db, toy.ID); got != 1 {
		t.Fatalf("toy stock: want 1 got %d", got)
	}
}

func TestOrderAggregatePlaceOrderInsufficientStockRollsBack(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	plenty := repotest.SeedProduct(t, ctx, db, "aaa-plenty", 100, 50)
	scarce := repotest.SeedProduct(t, ctx, db, "zzz-scarce", 100, 1)

	agg := newOrderAggregateForTest(t, db)
	_, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{
		UserID: u.ID,
		Lines: []domainagg.OrderLineInput{
			{ProductID: plenty.ID, Quantity: 5},
			{ProductID: scarce.ID, Quantity: 2},
		},
	})
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if domainagg.ReasonOf(err) != domainagg.ReasonInsufficientStock {
		t.Fatalf("want insufficient_stock reason, got %q", domainagg.ReasonOf(err))
	}
	if got := stockOf(t, db, plenty.ID); got != 50 {
		t.Fatalf("debit was not rolled back: stock=%d", got)
	}
	var n int64
	db.Model(&types.Order{}).Count(&n)
	if n != 0 {
		t.Fatalf("no order should be written, got %d", n)
	}
}

func TestOrderAggregatePlaceOrderValidation(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	agg := newOrderAggregateForTest(t, db)

	cases := []struct {
		name string
		in   domainagg.PlaceOrderInput
		code domainagg.ErrorCode
	}{
		{"no user", domainagg.PlaceOrderInput{Lines: []domainagg.OrderLineInput{{ProductID: uuid.New(), Quantity: 1}}}, domainagg.CodeValidation},
		{"no lines", domainagg.PlaceOrderInput{UserID: u.ID}, domainagg.CodeValidation},
		{"zero qty", domainagg.PlaceOrderInput{UserID: u.ID, Lines: []domainagg.OrderLineInput{{ProductID: uuid.New(), Quantity: 0}}}, domainagg.CodeValidation},
		{"unknown product", domainagg.PlaceOrderInput{UserID: u.ID, Lines: []domainagg.OrderLineInput{{ProductID: uuid.New(), Quantity: 1}}}, domainagg.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := agg.PlaceOrder(ctx, tc.in)
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("want %s, got %v", tc.code, err)
			}
		})
	}
}

func TestOrderAggregateInactiveProductIsNotFound(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	p := repotest.SeedProduct(t, ctx, db, "retired", 100, 5)
	if err := db.Model(&types.Product{}).Where("id = ?", p.ID).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := newOrderAggregateForTest(t, db).PlaceOrder(ctx, domainagg.PlaceOrderInput{
		UserID: u.ID,
		Lines:  []domainagg.OrderLineInput{{ProductID: p.ID, Quantity: 1}},
	})
	if domainagg.ReasonOf(err) != domainagg.ReasonProductNotFound {
		t.Fatalf("want product_not_found, got %v", err)
	}
	if got := stockOf(t, db, p.ID); got != 5 {
		t.Fatalf("stock changed: %d", got)
	}
}

func TestOrderAggregateCancelRestoresStockOnce(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	p := repotest.SeedProduct(t, ctx, db, "leash", 1500, 4)
	agg := newOrderAggregateForTest(t, db)

	order, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{
		UserID: u.ID,
		Lines:  []domainagg.OrderLineInput{{ProductID: p.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if got := stockOf(t, db, p.ID); got != 1 {
		t.Fatalf("after checkout: want 1 got %d", got)
	}

	res, err := agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderCancelled})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !res.Changed || res.FromStatus != types.OrderPending || res.Order.Status != types.OrderCancelled {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := stockOf(t, db, p.ID); got != 4 {
		t.Fatalf("after cancel: want 4 got %d", got)
	}

	res, err = agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderCancelled})
	if err != nil {
		t.Fatalf("repeat cancel: %v", err)
	}
	if res.Changed {
		t.Fatalf("repeat cancel must be a no-op")
	}
	if got := stockOf(t, db, p.ID); got != 4 {
		t.Fatalf("repeat cancel credited again: %d", got)
	}

	if _, err := agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderPaid}); err != nil {
		t.Fatalf("reinstate: %v", err)
	}
	if got := stockOf(t, db, p.ID); got != 1 {
		t.Fatalf("after reinstate: want 1 got %d", got)
	}

	if _, err := agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderShipped}); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if got := stockOf(t, db, p.ID); got != 1 {
		t.Fatalf("non-cancel transitions must not touch stock: %d", got)
	}
}

func TestOrderAggregateCancelRestoresStockOfDeletedProduct(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	p := repotest.SeedProduct(t, ctx, db, "discontinued-harness", 2200, 5)
	agg := newOrderAggregateForTest(t, db)

	order, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{
		UserID: u.ID,
		Lines:  []domainagg.OrderLineInput{{ProductID: p.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if err := db.Delete(&types.Product{}, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	deletedStock := func() int {
		t.Helper()
		var got types.Product
		if err := db.Unscoped().Where("id = ?", p.ID).First(&got).Error; err != nil {
			t.Fatalf("load deleted product: %v", err)
		}
		if !got.DeletedAt.Valid {
			t.Fatalf("product should stay soft-deleted")
		}
		return got.Stock
	}

	res, err := agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderCancelled})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !res.Changed {
		t.Fatalf("cancel should change the order")
	}
	if got := deletedStock(); got != 5 {
		t.Fatalf("after cancel: want 5 got %d", got)
	}

	if _, err := agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderPending}); err != nil {
		t.Fatalf("reinstate: %v", err)
	}
	if got := deletedStock(); got != 3 {
		t.Fatalf("after reinstate: want 3 got %d", got)
	}
}

func TestOrderAggregateReinstateWithoutStockFails(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	p := repotest.SeedProduct(t, ctx, db, "crate", 9000, 2)
	agg := newOrderAggregateForTest(t, db)

	order, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{UserID: u.ID, Lines: []domainagg.OrderLineInput{{ProductID: p.ID, Quantity: 2}}})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if _, err := agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderCancelled}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{UserID: u.ID, Lines: []domainagg.OrderLineInput{{ProductID: p.ID, Quantity: 1}}}); err != nil {
		t.Fatalf("second checkout: %v", err)
	}

	_, err = agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderPending})
	if domainagg.ReasonOf(err) != domainagg.ReasonInsufficientStock {
		t.Fatalf("want insufficient_stock, got %v", err)
	}
	var reloaded types.Order
	if err := db.Where("id = ?", order.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != types.OrderCancelled {
		t.Fatalf("status must roll back to cancelled, got %q", reloaded.Status)
	}
	if got := stockOf(t, db, p.ID); got != 1 {
		t.Fatalf("stock: want 1 got %d", got)
	}
}

func TestOrderAggregateOwnerAndAllowedFrom(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	owner := repotest.SeedUser(t, ctx, db, "owner@example.com")
	other := repotest.SeedUser(t, ctx, db, "other@example.com")
	p := repotest.SeedProduct(t, ctx, db, "bowl", 500, 5)
	agg := newOrderAggregateForTest(t, db)

	order, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{UserID: owner.ID, Lines: []domainagg.OrderLineInput{{ProductID: p.ID, Quantity: 1}}})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	_, err = agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{
		OrderID: order.ID, OwnerID: repotest.PtrUUID(other.ID), To: types.OrderCancelled,
	})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("foreign owner: want not_found, got %v", err)
	}

	if _, err := agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderShipped}); err != nil {
		t.Fatalf("ship: %v", err)
	}
	_, err = agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{
		OrderID:     order.ID,
		OwnerID:     repotest.PtrUUID(owner.ID),
		AllowedFrom: []types.OrderStatus{types.OrderPending, types.OrderPaid},
		To:          types.OrderCancelled,
	})
	if domainagg.ReasonOf(err) != domainagg.ReasonInvalidTransition {
		t.Fatalf("want invalid_transition, got %v", err)
	}
	if got := stockOf(t, db, p.ID); got != 4 {
		t.Fatalf("stock: want 4 got %d", got)
	}

	_, err = agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: uuid.New(), To: types.OrderPaid})
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing order: want not_found, got %v", err)
	}
	_, err = agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: "lost"})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("bad status: want validation, got %v", err)
	}
}

func TestOrderAggregateConcurrentCancelsApplyOnce(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	p := repotest.SeedProduct(t, ctx, db, "brush", 300, 10)
	agg := newOrderAggregateForTest(t, db)

	order, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{UserID: u.ID, Lines: []domainagg.OrderLineInput{{ProductID: p.ID, Quantity: 4}}})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	const workers = 6
	var wg sync.WaitGroup
	changed := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := agg.TransitionStatus(ctx, domainagg.OrderTransitionInput{OrderID: order.ID, To: types.OrderCancelled})
			if err != nil {
				t.Errorf("cancel: %v", err)
				return
			}
			changed <- res.Changed
		}()
	}
	wg.Wait()
	close(changed)

	applied := 0
	for c := range changed {
		if c {
			applied++
		}
	}
	if applied != 1 {
		t.Fatalf("want exactly one applied cancel, got %d", applied)
	}
	if got := stockOf(t, db, p.ID); got != 10 {
		t.Fatalf("stock: want 10 got %d", got)
	}
}

func TestOrderAggregateEmitsHooks(t *testing.T) {
	db := repotest.DB(t)
	ctx := context.Background()
	u := repotest.SeedUser(t, ctx, db, "buyer@example.com")
	p := repotest.SeedProduct(t, ctx, db, "collar", 300, 0)
	hooks := &spyHooks{}
	log := repotest.Logger(t)
	agg := NewOrderAggregate(OrderAggregateDeps{
		Base:     BaseDeps{DB: db, Log: log, Hooks: hooks},
		Orders:   orderrepos.NewOrderRepo(db, log),
		Products: catalogrepos.NewProductRepo(db, log),
	})

	_, err := agg.PlaceOrder(ctx, domainagg.PlaceOrderInput{UserID: u.ID, Lines: []domainagg.OrderLineInput{{ProductID: p.ID, Quantity: 1}}})
	if err == nil {
		t.Fatalf("expected insufficient stock")
	}
	if len(hooks.finished) != 1 {
		t.Fatalf("want 1 finished write, got %+v", hooks.finished)
	}
	if got := hooks.finished[0]; got.Op != "Shop.Order.PlaceOrder" || got.Outcome != string(domainagg.CodeConflict) {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if len(hooks.retries) != 0 {
		t.Fatalf("insufficient stock must not be retried: %v", hooks.retries)
	}
}
