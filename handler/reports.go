package handler

import (
	"net/http"

	"storefront/models"
)

// SalesTotal handles GET /api/sales/total
func (h *Handler) SalesTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.SalesTotal(r.Context())
	if err != nil {
		h.fail(w, r, err, "sales")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"totalSales": total})
}

// SalesData handles GET /api/sales/data
func (h *Handler) SalesData(w http.ResponseWriter, r *http.Request) {
	days, err := h.svc.SalesData(r.Context())
	if err != nil {
		h.fail(w, r, err, "sales")
		return
	}
	if days == nil {
		days = []models.DailySales{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"salesData": days})
}

// CountOrders handles GET /api/sales/total-orders
func (h *Handler) CountOrders(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.CountOrders(r.Context())
	if err != nil {
		h.fail(w, r, err, "sales")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"totalOrders": n})
}

// SalesReport handles GET /api/sales/report
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.SalesReport(r.Context())
	if err != nil {
		h.fail(w, r, err, "sales")
		return
	}
	if rows == nil {
		rows = []models.ProductSales{}
	}
	writeJSON(w, http.StatusOK, rows)
}
