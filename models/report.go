package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DailySales struct {
	Date  string          `json:"date"`
	Sales decimal.Decimal `json:"sales"`
}

type ProductSales struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"total_sales"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// RecentOrderLine flattens an order line for the dashboard feed.
type RecentOrderLine struct {
	OrderID     int64           `json:"order_id"`
	CreatedAt   time.Time       `json:"created_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Username    string          `json:"username"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
}
