package service

import (
	"context"

	"storefront/models"

	"github.com/shopspring/decimal"
)

type ServiceInterface interface {
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	UpdateStock(ctx context.Context, productID int64, newStock int) error
	LowStock(ctx context.Context, limit int) ([]models.Product, error)

	AddToCart(ctx context.Context, username string, productID int64, qty int) (models.CartLine, error)
	SetCartQuantity(ctx context.Context, username string, productID int64, qty int) (models.CartLine, error)
	RemoveFromCart(ctx context.Context, username string, productID int64) error
	GetCart(ctx context.Context, username string) ([]models.CartItemView, decimal.Decimal, error)

	Checkout(ctx context.Context, username string) (models.Order, error)
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	ListOrders(ctx context.Context, username string) ([]models.Order, error)
	RecentOrders(ctx context.Context, limit int) ([]models.RecentOrderLine, error)

	CreateUser(ctx context.Context, username, email, password string) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.AccountPatch) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	LoginUser(ctx context.Context, email, password string) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	RecentLogins(ctx context.Context, limit int) ([]models.User, error)

	CreateAdmin(ctx context.Context, username, email, password string) (models.Admin, error)
	GetAdmin(ctx context.Context, id int64) (models.Admin, error)
	UpdateAdmin(ctx context.Context, id int64, patch models.AccountPatch) (models.Admin, error)
	DeleteAdmin(ctx context.Context, id int64) error
	LoginAdmin(ctx context.Context, email, password string) (models.Admin, error)
	CountAdmins(ctx context.Context) (int64, error)

	SalesTotal(ctx context.Context) (decimal.Decimal, error)
	SalesData(ctx context.Context) ([]models.DailySales, error)
	CountOrders(ctx context.Context) (int64, error)
	SalesReport(ctx context.Context) ([]models.ProductSales, error)
}
