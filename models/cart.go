package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one (username, product) entry of a cart. The pair is unique; adding
// the same product again merges into the existing line.
type CartLine struct {
	Username  string    `json:"username"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItemView is a cart line joined with the live product it points at.
type CartItemView struct {
	ProductID    int64           `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	CreatedAt    time.Time       `json:"created_at"`
}
