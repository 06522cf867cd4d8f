package store

import (
	"context"
	"time"

	"storefront/models"

	"github.com/shopspring/decimal"
)

type ProductStore interface {
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	SetStock(ctx context.Context, id int64, quantity int) error
	LowStock(ctx context.Context, threshold, limit int) ([]models.Product, error)
}

type CartStore interface {
	// UpsertCartLine adds qty to the (username, productID) line, creating it if needed,
	// and returns the merged line.
	UpsertCartLine(ctx context.Context, username string, productID int64, qty int) (models.CartLine, error)
	SetCartQuantity(ctx context.Context, username string, productID int64, qty int) (models.CartLine, error)
	RemoveCartLine(ctx context.Context, username string, productID int64) error
	ListCartView(ctx context.Context, username string) ([]models.CartItemView, error)
}

type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	ListOrders(ctx context.Context, username string) ([]models.Order, error)
	RecentOrders(ctx context.Context, limit int) ([]models.RecentOrderLine, error)
}

type AccountStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	FindUserByLogin(ctx context.Context, email, password string) (models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.AccountPatch) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	CountUsers(ctx context.Context) (int64, error)
	RecentLogins(ctx context.Context, limit int) ([]models.User, error)

	CreateAdmin(ctx context.Context, a models.Admin) (models.Admin, error)
	GetAdmin(ctx context.Context, id int64) (models.Admin, error)
	FindAdminByLogin(ctx context.Context, email, password string) (models.Admin, error)
	UpdateAdmin(ctx context.Context, id int64, patch models.AccountPatch) (models.Admin, error)
	DeleteAdmin(ctx context.Context, id int64) error
	CountAdmins(ctx context.Context) (int64, error)
}

type ReportStore interface {
	SalesTotal(ctx context.Context) (decimal.Decimal, error)
	SalesByDay(ctx context.Context, days int) ([]models.DailySales, error)
	CountOrders(ctx context.Context) (int64, error)
	SalesByProduct(ctx context.Context) ([]models.ProductSales, error)
}

// Store is the full persistence surface of the shop.
type Store interface {
	ProductStore
	CartStore
	OrderStore
	AccountStore
	ReportStore

	// WithTx runs fn as one all-or-nothing unit. Nothing fn writes is visible to
	// other readers unless fn returns nil and the commit succeeds.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}

// Tx is the checkout view of the store inside a WithTx unit.
type Tx interface {
	// ListCart returns the user's lines ordered by product id and locks them
	// against concurrent checkouts of the same cart.
	ListCart(ctx context.Context, username string) ([]models.CartLine, error)
	// GetProduct returns the product and locks its row until the unit ends.
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	// DecrementIfAvailable subtracts amount from the stock only when at least
	// amount units are on hand. It reports false, without writing, otherwise.
	// A non-positive amount fails with ErrOutOfRange.
	DecrementIfAvailable(ctx context.Context, id int64, amount int) (bool, error)
	// AppendOrder writes o and its items, filling in o.ID and o.CreatedAt.
	AppendOrder(ctx context.Context, o *models.Order) error
	// ClearCart removes the user's lines for productIDs. Other lines stay.
	ClearCart(ctx context.Context, username string, productIDs []int64) error
}
