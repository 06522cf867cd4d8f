package store

import (
	"context"
	"database/sql"

	"storefront/models"

	"github.com/lib/pq"
)

// pgTx implements Tx on top of a live *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) ListCart(ctx context.Context, username string) ([]models.CartLine, error) {
	return listCart(ctx, t.tx, username)
}

func (t *pgTx) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	return getProduct(ctx, t.tx, id, true)
}

func (t *pgTx) DecrementIfAvailable(ctx context.Context, id int64, amount int) (bool, error) {
	return decrementIfAvailable(ctx, t.tx, id, amount)
}

func (t *pgTx) ClearCart(ctx context.Context, username string, productIDs []int64) error {
	return clearCart(ctx, t.tx, username, productIDs)
}

// AppendOrder inserts the order header and one order_items row per line.
// Orders are never updated afterwards.
func (t *pgTx) AppendOrder(ctx context.Context, o *models.Order) error {
	if err := t.tx.QueryRowContext(ctx,
		`INSERT INTO orders (username, total_amount) VALUES ($1, $2) RETURNING id, created_at`,
		o.Username, o.TotalAmount,
	).Scan(&o.ID, &o.CreatedAt); err != nil {
		return classify(err)
	}

	stmt, err := t.tx.PrepareContext(ctx,
		`INSERT INTO order_items (order_id, line_no, product_id, product_name, quantity, unit_price) VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, it := range o.Items {
		if _, err := stmt.ExecContext(ctx, o.ID, i+1, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice); err != nil {
			return classify(err)
		}
	}
	return nil
}

const orderItemsQuery = `
	SELECT order_id, product_id, product_name, quantity, unit_price
	FROM order_items
	WHERE order_id = ANY($1)
	ORDER BY order_id, line_no
`

// attachItems loads the lines of every order in orders in one round trip.
func (s *PostgresStore) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		orders[i].Items = []models.OrderItem{}
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := s.DB.QueryContext(ctx, orderItemsQuery, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID int64
		var it models.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		it.LineTotal = models.LineTotal(it.UnitPrice, it.Quantity)
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (s *PostgresStore) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	var o models.Order
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, username, total_amount, created_at FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Username, &o.TotalAmount, &o.CreatedAt)
	if err != nil {
		return models.Order{}, classify(err)
	}
	orders := []models.Order{o}
	if err := s.attachItems(ctx, orders); err != nil {
		return models.Order{}, err
	}
	return orders[0], nil
}

// ListOrders returns a user's orders, newest first.
func (s *PostgresStore) ListOrders(ctx context.Context, username string) ([]models.Order, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, username, total_amount, created_at FROM orders WHERE username = $1 ORDER BY created_at DESC, id DESC`,
		username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Username, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RecentOrders flattens the lines of the limit most recent orders.
func (s *PostgresStore) RecentOrders(ctx context.Context, limit int) ([]models.RecentOrderLine, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT o.id, o.created_at, o.total_amount, o.username, oi.product_name, oi.quantity
		FROM (SELECT * FROM orders ORDER BY created_at DESC, id DESC LIMIT $1) o
		JOIN order_items oi ON oi.order_id = o.id
		ORDER BY o.created_at DESC, o.id DESC, oi.line_no
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.RecentOrderLine{}
	for rows.Next() {
		var l models.RecentOrderLine
		if err := rows.Scan(&l.OrderID, &l.CreatedAt, &l.TotalAmount, &l.Username, &l.ProductName, &l.Quantity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
