package store

import (
	"context"

	"storefront/models"

	"github.com/lib/pq"
)

// UpsertCartLine merges qty into the (username, productID) line. The product must
// exist; a missing one surfaces as ErrNotFound through the foreign key.
func (s *PostgresStore) UpsertCartLine(ctx context.Context, username string, productID int64, qty int) (models.CartLine, error) {
	line := models.CartLine{Username: username, ProductID: productID}
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO cart_items (username, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (username, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING quantity, created_at
	`, username, productID, qty).Scan(&line.Quantity, &line.CreatedAt)
	if err != nil {
		return models.CartLine{}, classify(err)
	}
	return line, nil
}

// SetCartQuantity overwrites the quantity of an existing line.
func (s *PostgresStore) SetCartQuantity(ctx context.Context, username string, productID int64, qty int) (models.CartLine, error) {
	line := models.CartLine{Username: username, ProductID: productID}
	err := s.DB.QueryRowContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE username = $1 AND product_id = $2 RETURNING quantity, created_at`,
		username, productID, qty,
	).Scan(&line.Quantity, &line.CreatedAt)
	if err != nil {
		return models.CartLine{}, classify(err)
	}
	return line, nil
}

func (s *PostgresStore) RemoveCartLine(ctx context.Context, username string, productID int64) error {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM cart_items WHERE username = $1 AND product_id = $2`,
		username, productID,
	)
	return affectedOne(res, err)
}

// ListCartView returns the cart joined with live product data.
func (s *PostgresStore) ListCartView(ctx context.Context, username string) ([]models.CartItemView, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT ci.product_id, p.name, p.image_url, p.price, ci.quantity, ci.created_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.username = $1
		ORDER BY ci.product_id
	`, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CartItemView{}
	for rows.Next() {
		var v models.CartItemView
		if err := rows.Scan(&v.ProductID, &v.ProductName, &v.ProductImage, &v.Price, &v.Quantity, &v.CreatedAt); err != nil {
			return nil, err
		}
		v.LineTotal = models.LineTotal(v.Price, v.Quantity)
		out = append(out, v)
	}
	return out, rows.Err()
}

func listCart(ctx context.Context, q queryer, username string) ([]models.CartLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, quantity, created_at
		FROM cart_items
		WHERE username = $1
		ORDER BY product_id
		FOR UPDATE
	`, username)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := []models.CartLine{}
	for rows.Next() {
		c := models.CartLine{Username: username}
		if err := rows.Scan(&c.ProductID, &c.Quantity, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// clearCart deletes only the listed lines, so a line added after the cart was
// read survives the checkout.
func clearCart(ctx context.Context, q queryer, username string, productIDs []int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE username = $1 AND product_id = ANY($2)`,
		username, pq.Array(productIDs),
	)
	return classify(err)
}
