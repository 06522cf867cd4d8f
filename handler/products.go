package handler

import (
	"net/http"

	"storefront/models"

	"github.com/shopspring/decimal"
)

type createProductReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type updateStockReq struct {
	NewStock *int `json:"new_stock"`
}

// ListProducts handles GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// CreateProduct handles POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductReq
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), models.Product{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		h.fail(w, r, err, "product")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetProduct handles GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProduct handles PUT /api/products/{id}. Omitted fields keep their value.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch models.ProductPatch
	if !decode(w, r, &patch) {
		return
	}
	p, err := h.svc.UpdateProduct(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

// UpdateStock handles PUT /api/products/{id}/stock
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req updateStockReq
	if !decode(w, r, &req) {
		return
	}
	if req.NewStock == nil {
		writeErr(w, http.StatusBadRequest, "invalid_request", "new_stock is required", nil)
		return
	}
	if err := h.svc.UpdateStock(r.Context(), id, *req.NewStock); err != nil {
		h.fail(w, r, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "stock updated"})
}

// LowStock handles GET /api/products/low-stock?limit=
func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.LowStock(r.Context(), queryLimit(r))
	if err != nil {
		h.fail(w, r, err, "product")
		return
	}
	writeJSON(w, http.StatusOK, products)
}
