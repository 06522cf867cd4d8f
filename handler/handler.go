package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"storefront/service"
	"storefront/store"

	"github.com/gorilla/mux"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// Handler is the HTTP layer that talks to service.Service
type Handler struct {
	svc service.ServiceInterface
	log *zap.Logger
}

// NewHandler returns a Handler instance
func NewHandler(s service.ServiceInterface, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: s, log: log}
}

// Routes builds the full HTTP handler: the /api router wrapped in the
// recovery, request id, access log and CORS middleware.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	var next http.Handler = r
	next = AddCORSHeaders(next)
	next = h.logRequests(next)
	next = withRequestID(next)
	next = h.recoverPanics(next)
	return next
}

// RegisterRoutes registers all routes on the provided router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Products
	api.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", h.CreateProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/low-stock", h.LowStock).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", h.GetProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", h.UpdateProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id:[0-9]+}", h.DeleteProduct).Methods(http.MethodDelete)
	api.HandleFunc("/products/{id:[0-9]+}/stock", h.UpdateStock).Methods(http.MethodPut)

	// Cart
	api.HandleFunc("/carts", h.AddToCart).Methods(http.MethodPost)
	api.HandleFunc("/carts", h.ListCart).Methods(http.MethodGet)
	api.HandleFunc("/carts/{product_id:[0-9]+}", h.SetCartQuantity).Methods(http.MethodPut)
	api.HandleFunc("/carts/{product_id:[0-9]+}", h.RemoveFromCart).Methods(http.MethodDelete)

	// Checkout and orders
	api.HandleFunc("/checkout", h.Checkout).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.ListOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/recent", h.RecentOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}", h.GetOrder).Methods(http.MethodGet)

	// Users
	api.HandleFunc("/users/create", h.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/login", h.LoginUser).Methods(http.MethodPost)
	api.HandleFunc("/users/total", h.CountUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/recent-logins", h.RecentLogins).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}", h.UpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/{id:[0-9]+}", h.DeleteUser).Methods(http.MethodDelete)

	// Admins
	api.HandleFunc("/admin/create", h.CreateAdmin).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", h.LoginAdmin).Methods(http.MethodPost)
	api.HandleFunc("/admin/{id:[0-9]+}", h.GetAdmin).Methods(http.MethodGet)
	api.HandleFunc("/admin/{id:[0-9]+}", h.UpdateAdmin).Methods(http.MethodPut)
	api.HandleFunc("/admin/{id:[0-9]+}", h.DeleteAdmin).Methods(http.MethodDelete)
	api.HandleFunc("/admins/total", h.CountAdmins).Methods(http.MethodGet)

	// Reporting
	api.HandleFunc("/sales/total", h.SalesTotal).Methods(http.MethodGet)
	api.HandleFunc("/sales/data", h.SalesData).Methods(http.MethodGet)
	api.HandleFunc("/sales/total-orders", h.CountOrders).Methods(http.MethodGet)
	api.HandleFunc("/sales/report", h.SalesReport).Methods(http.MethodGet)
	api.HandleFunc("/sales-report", h.SalesReport).Methods(http.MethodGet)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSON(w, status, map[string]apiError{"error": {Code: code, Message: msg, Details: details}})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json", "invalid json", nil)
		return false
	}
	return true
}

// pathID parses a numeric mux path variable.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeErr(w, http.StatusBadRequest, "invalid_id", "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

// queryLimit reads ?limit=; a missing or malformed value means "use the default".
func queryLimit(r *http.Request) int {
	return cast.ToInt(r.URL.Query().Get("limit"))
}

// fail maps a service or store error onto a status code and the error envelope.
// what names the addressed record in not-found messages.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, what string) {
	var ce *service.CheckoutError
	switch {
	case errors.As(err, &ce):
		h.failCheckout(w, r, ce)
	case errors.Is(err, service.ErrValidation), errors.Is(err, store.ErrOutOfRange):
		writeErr(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not_found", what+" not found", nil)
	case errors.Is(err, store.ErrDuplicate):
		writeErr(w, http.StatusConflict, "already_exists", what+" already exists", map[string]string{"reason": err.Error()})
	case errors.Is(err, store.ErrConflict):
		writeErr(w, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(r.Context())),
			zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

type stockDetails struct {
	ProductID int64 `json:"product_id"`
	Available int   `json:"available"`
	Requested int   `json:"requested"`
}

func (h *Handler) failCheckout(w http.ResponseWriter, r *http.Request, ce *service.CheckoutError) {
	switch ce.Kind {
	case service.KindEmptyCart:
		writeErr(w, http.StatusUnprocessableEntity, "empty_cart", ce.Error(), nil)
	case service.KindInvalidCartLine:
		writeErr(w, http.StatusUnprocessableEntity, "invalid_cart_line", ce.Error(), map[string]int64{"product_id": ce.ProductID})
	case service.KindProductNotFound:
		writeErr(w, http.StatusNotFound, "product_not_found", ce.Error(), map[string]int64{"product_id": ce.ProductID})
	case service.KindInsufficientStock, service.KindStockConflict:
		writeErr(w, http.StatusConflict, "insufficient_stock", ce.Error(),
			stockDetails{ProductID: ce.ProductID, Available: ce.Available, Requested: ce.Requested})
	default:
		h.log.Error("checkout persistence failure",
			zap.String("request_id", requestID(r.Context())),
			zap.Error(ce))
		writeErr(w, http.StatusInternalServerError, "persistence_failure", "checkout could not be completed, nothing was charged", nil)
	}
}
