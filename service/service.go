package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/models"
	"storefront/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultLowStockThreshold = 5
	defaultRecentLimit       = 5
	maxListLimit             = 100
	salesHistoryDays         = 30
)

// Config tunes the reporting defaults. Zero values fall back to the defaults.
type Config struct {
	LowStockThreshold int
	RecentLimit       int
}

type Service struct {
	store store.Store
	log   *zap.Logger
	cfg   Config
	now   func() time.Time
}

var _ ServiceInterface = (*Service)(nil)

func NewService(s store.Store, log *zap.Logger, cfg Config) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = defaultLowStockThreshold
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	return &Service{store: s, log: log, cfg: cfg, now: time.Now}
}

// limit clamps a caller-supplied list size.
func (s *Service) limit(n int) int {
	if n <= 0 {
		return s.cfg.RecentLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func validateProduct(p models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name is required")
	}
	if p.Price.IsNegative() {
		return invalid("price must be >= 0")
	}
	if p.Quantity < 0 || p.Quantity > store.MaxQuantity {
		return invalid("quantity must be between 0 and %d", store.MaxQuantity)
	}
	return nil
}

func (s *Service) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if err := validateProduct(p); err != nil {
		return models.Product{}, err
	}
	return s.store.CreateProduct(ctx, p)
}

func (s *Service) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.ListProducts(ctx)
}

// UpdateProduct applies a partial update. The merged product must still be valid.
func (s *Service) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	merged := patch.Apply(models.Product{Name: "-", Price: decimal.Zero})
	if err := validateProduct(merged); err != nil {
		return models.Product{}, err
	}
	return s.store.UpdateProduct(ctx, id, patch)
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}

func (s *Service) UpdateStock(ctx context.Context, productID int64, newStock int) error {
	if newStock < 0 {
		return invalid("stock cannot be negative")
	}
	if newStock > store.MaxQuantity {
		return invalid("stock must be at most %d", store.MaxQuantity)
	}
	return s.store.SetStock(ctx, productID, newStock)
}

func (s *Service) LowStock(ctx context.Context, limit int) ([]models.Product, error) {
	return s.store.LowStock(ctx, s.cfg.LowStockThreshold, s.limit(limit))
}

// AddToCart merges qty units of productID into the user's cart and returns the
// resulting line. Stock is not reserved here; Checkout validates it.
func (s *Service) AddToCart(ctx context.Context, username string, productID int64, qty int) (models.CartLine, error) {
	if username == "" {
		return models.CartLine{}, invalid("username is required")
	}
	if qty <= 0 || qty > store.MaxQuantity {
		return models.CartLine{}, invalid("quantity must be between 1 and %d", store.MaxQuantity)
	}
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return models.CartLine{}, err
	}
	line, err := s.store.UpsertCartLine(ctx, username, productID, qty)
	if errors.Is(err, store.ErrOutOfRange) {
		return models.CartLine{}, invalid("cart quantity for product %d would exceed %d", productID, store.MaxQuantity)
	}
	return line, err
}

func (s *Service) SetCartQuantity(ctx context.Context, username string, productID int64, qty int) (models.CartLine, error) {
	if username == "" {
		return models.CartLine{}, invalid("username is required")
	}
	if qty < 1 || qty > store.MaxQuantity {
		return models.CartLine{}, invalid("quantity must be between 1 and %d", store.MaxQuantity)
	}
	return s.store.SetCartQuantity(ctx, username, productID, qty)
}

func (s *Service) RemoveFromCart(ctx context.Context, username string, productID int64) error {
	if username == "" {
		return invalid("username is required")
	}
	return s.store.RemoveCartLine(ctx, username, productID)
}

// GetCart returns the cart joined with live prices plus its current total.
func (s *Service) GetCart(ctx context.Context, username string) ([]models.CartItemView, decimal.Decimal, error) {
	if username == "" {
		return nil, decimal.Zero, invalid("username is required")
	}
	items, err := s.store.ListCartView(ctx, username)
	if err != nil {
		return nil, decimal.Zero, err
	}
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}
	return items, total, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	return s.store.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, username string) ([]models.Order, error) {
	if username == "" {
		return nil, invalid("username is required")
	}
	return s.store.ListOrders(ctx, username)
}

func (s *Service) RecentOrders(ctx context.Context, limit int) ([]models.RecentOrderLine, error) {
	return s.store.RecentOrders(ctx, s.limit(limit))
}

// IsNotFound reports whether err means the addressed record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
