package store

import (
	"context"
	"fmt"

	"storefront/models"
)

// getProduct reads one product. With forUpdate the row stays locked until the
// surrounding transaction ends.
func getProduct(ctx context.Context, q queryer, id int64, forUpdate bool) (models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	p, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return models.Product{}, classify(err)
	}
	return p, nil
}

// decrementIfAvailable is the conditional decrement: the WHERE clause is
// re-evaluated against the latest committed row, so two writers can never both
// take the last unit.
func decrementIfAvailable(ctx context.Context, q queryer, id int64, amount int) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("%w: decrement of %d units", ErrOutOfRange, amount)
	}
	res, err := q.ExecContext(ctx,
		`UPDATE products SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1`,
		amount, id,
	)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SetStock sets the absolute stock for a product (admin operation).
func (s *PostgresStore) SetStock(ctx context.Context, id int64, quantity int) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE products SET quantity = $1 WHERE id = $2`, quantity, id)
	return affectedOne(res, err)
}

// LowStock lists products with fewer than threshold units, scarcest first.
func (s *PostgresStore) LowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE quantity < $1 ORDER BY quantity ASC, id ASC LIMIT $2`,
		threshold, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}
