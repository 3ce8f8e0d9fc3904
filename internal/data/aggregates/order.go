package aggregates

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/domain/orders"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
)

type OrderAggregateDeps struct {
	Base BaseDeps

	Orders   repos.OrderRepo
	Products repos.ProductRepo
}

type orderAggregate struct {
	deps OrderAggregateDeps
}

func NewOrderAggregate(deps OrderAggregateDeps) domainagg.OrderAggregate {
	deps.Base = deps.Base.withDefaults()
	return &orderAggregate{deps: deps}
}

func (a *orderAggregate) Contract() domainagg.Contract {
	return domainagg.OrderAggregateContract
}

const orderTable = "shop_order"

func (a *orderAggregate) PlaceOrder(ctx context.Context, in domainagg.PlaceOrderInput) (*orders.Order, error) {
	const op = "Shop.Order.PlaceOrder"
	if in.UserID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "user_id is required", nil)
	}
	lines, err := mergeOrderLines(in.Lines)
	if err != nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, err.Error(), nil)
	}

	var out *orders.Order
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		ids := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		products, err := a.deps.Products.GetByIDs(dbc, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]int, len(products))
		for i, p := range products {
			byID[p.ID] = i
		}

		order := &orders.Order{
			ID:              uuid.New(),
			UserID:          in.UserID,
			Status:          orders.StatusPending,
			ShippingName:    strings.TrimSpace(in.ShippingName),
			ShippingAddress: in.ShippingAddress,
			Notes:           strings.TrimSpace(in.Notes),
		}
		for _, l := range lines {
			idx, ok := byID[l.ProductID]
			if !ok || !products[idx].Active {
				return domainagg.NewReasonError(domainagg.CodeNotFound, op, domainagg.ReasonProductNotFound,
					fmt.Sprintf("product %s not found", l.ProductID))
			}
			p := products[idx]
			debited, err := a.deps.Products.DebitStock(dbc, p.ID, l.Quantity)
			if err != nil {
				return err
			}
			if !debited {
				return domainagg.NewReasonError(domainagg.CodeConflict, op, domainagg.ReasonInsufficientStock,
					fmt.Sprintf("insufficient stock for %s", p.Name))
			}
			item := orders.OrderItem{
				ProductID:      p.ID,
				ProductName:    p.Name,
				UnitPriceCents: p.PriceCents,
				Quantity:       l.Quantity,
			}
			order.Items = append(order.Items, item)
			order.TotalCents += item.LineTotalCents()
		}
		if err := a.deps.Orders.Create(dbc, order); err != nil {
			return err
		}
		out = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *orderAggregate) TransitionStatus(ctx context.Context, in domainagg.OrderTransitionInput) (domainagg.OrderTransitionResult, error) {
	const op = "Shop.Order.TransitionStatus"
	if in.OrderID == uuid.Nil {
		return domainagg.OrderTransitionResult{}, domainagg.NewError(domainagg.CodeValidation, op, "order_id is required", nil)
	}
	if !in.To.Valid() {
		return domainagg.OrderTransitionResult{}, domainagg.NewError(domainagg.CodeValidation, op,
			fmt.Sprintf("invalid status %q", in.To), nil)
	}

	var res domainagg.OrderTransitionResult
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		res = domainagg.OrderTransitionResult{}
		order, err := a.deps.Orders.LockByID(dbc, in.OrderID)
		if err != nil {
			return err
		}
		if in.OwnerID != nil && order.UserID != *in.OwnerID {
			return domainagg.NewError(domainagg.CodeNotFound, op, "order not found", nil)
		}
		res.FromStatus = order.Status
		if order.Status == in.To {
			res.Order = order
			return nil
		}
		if !mayLeave(order.Status, in.AllowedFrom) {
			return domainagg.NewReasonError(domainagg.CodeConflict, op, domainagg.ReasonInvalidTransition,
				fmt.Sprintf("order cannot move from %s to %s", order.Status, in.To))
		}

		if err := advanceStatus(dbc, orderTable, order.ID, order.Status, in.To, nil); err != nil {
			return err
		}

		switch {
		case order.Status.HoldsStock() && !in.To.HoldsStock():
			for _, it := range order.Items {
				if err := a.deps.Products.CreditStock(dbc, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		case !order.Status.HoldsStock() && in.To.HoldsStock():
			for _, it := range order.Items {
				debited, err := a.deps.Products.DebitStock(dbc, it.ProductID, it.Quantity)
				if err != nil {
					return err
				}
				if !debited {
					return domainagg.NewReasonError(domainagg.CodeConflict, op, domainagg.ReasonInsufficientStock,
						fmt.Sprintf("insufficient stock for %s", it.ProductName))
				}
			}
		}

		order.Status = in.To
		res.Order = order
		res.Changed = true
		return nil
	})
	if err != nil {
		return domainagg.OrderTransitionResult{}, err
	}
	return res, nil
}

// mergeOrderLines folds duplicate products together and sorts by product id so concurrent
// checkouts debit rows in the same order.
func mergeOrderLines(in []domainagg.OrderLineInput) ([]domainagg.OrderLineInput, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("at least one item is required")
	}
	qty := make(map[uuid.UUID]int, len(in))
	for _, l := range in {
		if l.ProductID == uuid.Nil {
			return nil, fmt.Errorf("product_id is required")
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be at least 1")
		}
		qty[l.ProductID] += l.Quantity
	}
	out := make([]domainagg.OrderLineInput, 0, len(qty))
	for id, q := range qty {
		out = append(out, domainagg.OrderLineInput{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID.String() < out[j].ProductID.String() })
	return out, nil
}
