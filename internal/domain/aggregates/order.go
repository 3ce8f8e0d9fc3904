package aggregates

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/pawclinic-backend/internal/domain/orders"
)

var OrderAggregateContract = Contract{
	Name:    "Shop.OrderAggregate",
	Locks:   []string{"shop_order", "product"},
	Writes:  []string{"shop_order", "order_item"},
	Derived: []string{"product.stock"},
}

const (
	ReasonInsufficientStock = "insufficient_stock"
	ReasonProductNotFound   = "product_not_found"
	ReasonInvalidTransition = "invalid_transition"
)

// OrderAggregate owns checkout and order status transitions.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeConflict, CodeRetryable, CodeInternal.
type OrderAggregate interface {
	Aggregate

	// PlaceOrder debits stock for every line and persists the order in one transaction.
	PlaceOrder(ctx context.Context, in PlaceOrderInput) (*orders.Order, error)

	// TransitionStatus moves an order to a new status, restoring or re-debiting stock when the
	// order enters or leaves cancelled. Same status transitions are no-ops.
	TransitionStatus(ctx context.Context, in OrderTransitionInput) (OrderTransitionResult, error)
}

type OrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type PlaceOrderInput struct {
	UserID          uuid.UUID
	Lines           []OrderLineInput
	ShippingName    string
	ShippingAddress datatypes.JSON
	Notes           string
}

type OrderTransitionInput struct {
	OrderID uuid.UUID
	// OwnerID restricts the transition to orders owned by this user when set.
	OwnerID *uuid.UUID
	// AllowedFrom restricts the source statuses when non-empty.
	AllowedFrom []orders.Status
	To          orders.Status
}

type OrderTransitionResult struct {
	Order      *orders.Order
	FromStatus orders.Status
	Changed    bool
}
