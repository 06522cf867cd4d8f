package handler

import (
	"encoding/json"
	"net/http"

	"storefront/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type addToCartReq struct {
	Username  string `json:"username"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type setCartQuantityReq struct {
	Username string `json:"username"`
	Quantity int    `json:"quantity"`
}

// checkoutReq accepts the legacy body shape. Items and TotalAmount are read
// only to be ignored: the order is built from the stored cart and live prices.
type checkoutReq struct {
	Username    string          `json:"username"`
	Items       json.RawMessage `json:"items,omitempty"`
	TotalAmount json.RawMessage `json:"total_amount,omitempty"`
}

type checkoutResp struct {
	OrderID int64        `json:"order_id"`
	Message string       `json:"message"`
	Order   models.Order `json:"order"`
}

type cartResp struct {
	Username string                `json:"username"`
	Items    []models.CartItemView `json:"items"`
	Total    decimal.Decimal       `json:"total"`
}

// AddToCart handles POST /api/carts. Adding a product already in the cart
// merges the quantities.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addToCartReq
	if !decode(w, r, &req) {
		return
	}
	line, err := h.svc.AddToCart(r.Context(), req.Username, req.ProductID, req.Quantity)
	if err != nil {
		h.fail(w, r, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Item added to cart successfully!", "item": line})
}

// ListCart handles GET /api/carts?username=
func (h *Handler) ListCart(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	items, total, err := h.svc.GetCart(r.Context(), username)
	if err != nil {
		h.fail(w, r, err, "cart")
		return
	}
	if items == nil {
		items = []models.CartItemView{}
	}
	writeJSON(w, http.StatusOK, cartResp{Username: username, Items: items, Total: total})
}

// SetCartQuantity handles PUT /api/carts/{product_id}
func (h *Handler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	var req setCartQuantityReq
	if !decode(w, r, &req) {
		return
	}
	line, err := h.svc.SetCartQuantity(r.Context(), req.Username, productID, req.Quantity)
	if err != nil {
		h.fail(w, r, err, "cart item")
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// RemoveFromCart handles DELETE /api/carts/{product_id}?username=
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "product_id")
	if !ok {
		return
	}
	if err := h.svc.RemoveFromCart(r.Context(), r.URL.Query().Get("username"), productID); err != nil {
		h.fail(w, r, err, "cart item")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item removed from cart"})
}

// Checkout handles POST /api/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if !decode(w, r, &req) {
		return
	}
	if len(req.Items) > 0 || len(req.TotalAmount) > 0 {
		h.log.Debug("ignoring client-supplied checkout items and total",
			zap.String("username", req.Username),
			zap.String("request_id", requestID(r.Context())))
	}
	order, err := h.svc.Checkout(r.Context(), req.Username)
	if err != nil {
		h.fail(w, r, err, "cart")
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResp{
		OrderID: order.ID,
		Message: "Order placed successfully!",
		Order:   order,
	})
}

// GetOrder handles GET /api/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /api/orders?username=
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOrders(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.fail(w, r, err, "order")
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// RecentOrders handles GET /api/orders/recent?limit=
func (h *Handler) RecentOrders(w http.ResponseWriter, r *http.Request) {
	lines, err := h.svc.RecentOrders(r.Context(), queryLimit(r))
	if err != nil {
		h.fail(w, r, err, "order")
		return
	}
	if lines == nil {
		lines = []models.RecentOrderLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}
