package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/pawclinic-backend/internal/domain"
	"github.com/yungbote/pawclinic-backend/internal/http/response"
	"github.com/yungbote/pawclinic-backend/internal/services"
)

type OrderHandler struct {
	orders services.OrderService
}

func NewOrderHandler(orders services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// POST /api/orders
// body: { "items": [{ "product_id": "...", "quantity": 2 }], "shipping_name": "...", "shipping_address": {...} }
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req struct {
		Items []struct {
			ProductID uuid.UUID `json:"product_id"`
			Quantity  int       `json:"quantity"`
		} `json:"items"`
		ShippingName    string          `json:"shipping_name"`
		ShippingAddress json.RawMessage `json:"shipping_address"`
		Notes           string          `json:"notes"`
	}
	if !bindJSON(c, &req) {
		return
	}
	in := services.CheckoutInput{
		ShippingName:    req.ShippingName,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	}
	for _, it := range req.Items {
		in.Lines = append(in.Lines, services.CheckoutLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	order, err := h.orders.Checkout(c.Request.Context(), in)
	if err != nil {
		response.RespondServiceError(c, "checkout_failed", err)
		return
	}
	response.RespondCreated(c, gin.H{"order": order})
}

// GET /api/orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	page, err := h.orders.ListMyOrders(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		response.RespondServiceError(c, "list_orders_failed", err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/orders/:id
func (h *OrderHandler) GetMine(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_order_id")
	if !ok {
		return
	}
	order, err := h.orders.GetMyOrder(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_order_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

// POST /api/orders/:id/cancel
func (h *OrderHandler) CancelMine(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_order_id")
	if !ok {
		return
	}
	order, err := h.orders.CancelMyOrder(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "cancel_order_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

// GET /api/admin/orders?status=paid
func (h *OrderHandler) List(c *gin.Context) {
	page, err := h.orders.ListOrders(c.Request.Context(), types.OrderStatus(c.Query("status")), pageFromQuery(c))
	if err != nil {
		response.RespondServiceError(c, "list_orders_failed", err)
		return
	}
	response.RespondOK(c, page)
}

// GET /api/admin/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_order_id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		response.RespondServiceError(c, "get_order_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}

// PUT /api/admin/orders/:id
// body: { "status": "shipped" }
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id", "invalid_order_id")
	if !ok {
		return
	}
	var req struct {
		Status types.OrderStatus `json:"status"`
	}
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.RespondServiceError(c, "update_order_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"order": order})
}
