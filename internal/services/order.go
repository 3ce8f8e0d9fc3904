package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pawclinic-backend/internal/data/repos"
	types "github.com/yungbote/pawclinic-backend/internal/domain"
	domainagg "github.com/yungbote/pawclinic-backend/internal/domain/aggregates"
	"github.com/yungbote/pawclinic-backend/internal/observability"
	"github.com/yungbote/pawclinic-backend/internal/platform/apierr"
	"github.com/yungbote/pawclinic-backend/internal/platform/dbctx"
	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

type CheckoutLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type CheckoutInput struct {
	Lines           []CheckoutLine
	ShippingName    string
	ShippingAddress json.RawMessage
	Notes           string
}

// customerCancellable lists the statuses a customer may cancel from.
var customerCancellable = []types.OrderStatus{types.OrderPending, types.OrderPaid}

type OrderService interface {
	Checkout(ctx context.Context, in CheckoutInput) (*types.Order, error)
	ListMyOrders(ctx context.Context, page Page) (PageResult[*types.Order], error)
	GetMyOrder(ctx context.Context, id uuid.UUID) (*types.Order, error)
	CancelMyOrder(ctx context.Context, id uuid.UUID) (*types.Order, error)

	ListOrders(ctx context.Context, status types.OrderStatus, page Page) (PageResult[*types.Order], error)
	GetOrder(ctx context.Context, id uuid.UUID) (*types.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status types.OrderStatus) (*types.Order, error)
}

type orderService struct {
	db        *gorm.DB
	log       *logger.Logger
	orderRepo repos.OrderRepo
	orders    domainagg.OrderAggregate
	notifier  Notifier
	metrics   *observability.Metrics
}

func NewOrderService(
	db *gorm.DB,
	log *logger.Logger,
	orderRepo repos.OrderRepo,
	orders domainagg.OrderAggregate,
	notifier Notifier,
	metrics *observability.Metrics,
) OrderService {
	return &orderService{
		db:        db,
		log:       log.With("service", "OrderService"),
		orderRepo: orderRepo,
		orders:    orders,
		notifier:  notifier,
		metrics:   metrics,
	}
}

func (svc *orderService) Checkout(ctx context.Context, in CheckoutInput) (*types.Order, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, apierr.BadRequest("empty_cart", fmt.Errorf("at least one item is required"))
	}
	address, err := jsonColumn(in.ShippingAddress)
	if err != nil {
		return nil, apierr.BadRequest("invalid_shipping_address", err)
	}
	lines := make([]domainagg.OrderLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, domainagg.OrderLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}

	order, err := svc.orders.PlaceOrder(ctx, domainagg.PlaceOrderInput{
		UserID:          rd.UserID,
		Lines:           lines,
		ShippingName:    strings.TrimSpace(in.ShippingName),
		ShippingAddress: address,
		Notes:           in.Notes,
	})
	if err != nil {
		return nil, apierr.FromAggregate(err, "checkout_conflict")
	}

	units := 0
	for _, it := range order.Items {
		units += it.Quantity
	}
	svc.metrics.ObserveOrderPlaced(units)
	svc.log.Info("order placed", "order_id", order.ID, "user_id", rd.UserID, "total_cents", order.TotalCents, "units", units)
	if svc.notifier != nil {
		svc.notifier.OrderPlaced(ctx, order)
	}
	return order, nil
}

func (svc *orderService) ListMyOrders(ctx context.Context, page Page) (PageResult[*types.Order], error) {
	rd, err := caller(ctx)
	if err != nil {
		return PageResult[*types.Order]{}, err
	}
	limit, offset := page.limitOffset()
	uid := rd.UserID
	rows, total, err := svc.orderRepo.List(dbctx.Context{Ctx: ctx}, repos.OrderListFilter{UserID: &uid, Limit: limit, Offset: offset})
	if err != nil {
		return PageResult[*types.Order]{}, apierr.Internal("list_orders_failed", err)
	}
	return newPageResult(rows, total, page), nil
}

func (svc *orderService) GetMyOrder(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	o, err := svc.orderRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, apierr.Internal("get_order_failed", err)
	}
	if o == nil || o.UserID != rd.UserID {
		return nil, apierr.NotFound("order_not_found")
	}
	return o, nil
}

func (svc *orderService) CancelMyOrder(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	rd, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	owner := rd.UserID
	return svc.transition(ctx, domainagg.OrderTransitionInput{
		OrderID:     id,
		OwnerID:     &owner,
		AllowedFrom: customerCancellable,
		To:          types.OrderCancelled,
	}, "order_not_cancellable")
}

func (svc *orderService) ListOrders(ctx context.Context, status types.OrderStatus, page Page) (PageResult[*types.Order], error) {
	if _, err := requireAdmin(ctx); err != nil {
		return PageResult[*types.Order]{}, err
	}
	status = types.OrderStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if status != "" && !status.Valid() {
		return PageResult[*types.Order]{}, apierr.BadRequest("invalid_status", fmt.Errorf("unknown order status %q", status))
	}
	limit, offset := page.limitOffset()
	rows, total, err := svc.orderRepo.List(dbctx.Context{Ctx: ctx}, repos.OrderListFilter{Status: status, Limit: limit, Offset: offset})
	if err != nil {
		return PageResult[*types.Order]{}, apierr.Internal("list_orders_failed", err)
	}
	return newPageResult(rows, total, page), nil
}

func (svc *orderService) GetOrder(ctx context.Context, id uuid.UUID) (*types.Order, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	o, err := svc.orderRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, apierr.Internal("get_order_failed", err)
	}
	if o == nil {
		return nil, apierr.NotFound("order_not_found")
	}
	return o, nil
}

// UpdateOrderStatus applies any status change. Stock moves only when the order enters or
// leaves cancelled.
func (svc *orderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status types.OrderStatus) (*types.Order, error) {
	rd, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	status = types.OrderStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, apierr.BadRequest("invalid_status", fmt.Errorf("unknown order status %q", status))
	}
	o, err := svc.transition(ctx, domainagg.OrderTransitionInput{OrderID: id, To: status}, "order_conflict")
	if err != nil {
		return nil, err
	}
	svc.log.Info("order status updated", "order_id", id, "status", status, "by", rd.UserID)
	return o, nil
}

func (svc *orderService) transition(ctx context.Context, in domainagg.OrderTransitionInput, conflictCode string) (*types.Order, error) {
	res, err := svc.orders.TransitionStatus(ctx, in)
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeNotFound) {
			return nil, apierr.NotFound("order_not_found")
		}
		if domainagg.ReasonOf(err) == domainagg.ReasonInvalidTransition {
			return nil, apierr.Conflict(conflictCode, err)
		}
		return nil, apierr.FromAggregate(err, conflictCode)
	}
	if res.Changed && svc.notifier != nil {
		svc.notifier.OrderStatusChanged(ctx, res.Order, res.FromStatus)
	}
	return res.Order, nil
}
