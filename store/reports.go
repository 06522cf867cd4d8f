package store

import (
	"context"

	"storefront/models"

	"github.com/shopspring/decimal"
)

// SalesTotal sums every order total; zero when there are no orders.
func (s *PostgresStore) SalesTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := s.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders`).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SalesByDay returns per-day revenue for the most recent days that had sales.
func (s *PostgresStore) SalesByDay(ctx context.Context, days int) ([]models.DailySales, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS day, SUM(total_amount) AS sales
		FROM orders
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at) DESC
		LIMIT $1
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DailySales{}
	for rows.Next() {
		var d models.DailySales
		if err := rows.Scan(&d.Date, &d.Sales); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountOrders(ctx context.Context) (int64, error) {
	return count(ctx, s.DB, `SELECT COUNT(*) FROM orders`)
}

// SalesByProduct aggregates units and revenue per product from the order line
// snapshots, best sellers first.
func (s *PostgresStore) SalesByProduct(ctx context.Context) ([]models.ProductSales, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT product_id, MAX(product_name), SUM(quantity), SUM(quantity * unit_price)
		FROM order_items
		GROUP BY product_id
		ORDER BY SUM(quantity) DESC, product_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ProductSales{}
	for rows.Next() {
		var ps models.ProductSales
		if err := rows.Scan(&ps.ProductID, &ps.ProductName, &ps.Quantity, &ps.Revenue); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}
