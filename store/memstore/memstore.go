// Package memstore is an in-memory store.Store. A single RWMutex serializes
// writers, which gives WithTx the same all-or-nothing visibility a database
// transaction has. It backs the test suites and the `-store memory` mode.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/models"
	"storefront/store"

	"github.com/shopspring/decimal"
)

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	products map[int64]models.Product
	carts    map[string]map[int64]models.CartLine
	orders   []models.Order // append-only; orders[i].ID == i+1
	users    map[int64]models.User
	admins   map[int64]models.Admin

	nextProduct int64
	nextUser    int64
	nextAdmin   int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:      time.Now,
		products: make(map[int64]models.Product),
		carts:    make(map[string]map[int64]models.CartLine),
		users:    make(map[int64]models.User),
		admins:   make(map[int64]models.Admin),
	}
}

// SetClock replaces the time source used for created_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Close() error { return nil }

// Snapshot is a deep copy of the checkout-relevant state.
type Snapshot struct {
	Products map[int64]models.Product
	Carts    map[string][]models.CartLine
	Orders   []models.Order
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Products: make(map[int64]models.Product, len(s.products)),
		Carts:    make(map[string][]models.CartLine, len(s.carts)),
		Orders:   make([]models.Order, 0, len(s.orders)),
	}
	for id, p := range s.products {
		snap.Products[id] = p
	}
	for user := range s.carts {
		snap.Carts[user] = s.cartLines(user)
	}
	for _, o := range s.orders {
		snap.Orders = append(snap.Orders, copyOrder(o))
	}
	return snap
}

func copyOrder(o models.Order) models.Order {
	items := make([]models.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

// ---- transactions ----

type tx struct {
	s    *Store
	undo []func()
}

// WithTx holds the write lock for the whole unit and replays the undo log in
// reverse when fn fails or panics.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{s: s}
	defer func() {
		if p := recover(); p != nil {
			t.rollback()
			panic(p)
		}
	}()
	if err := fn(t); err != nil {
		t.rollback()
		return err
	}
	return nil
}

func (t *tx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *tx) ListCart(ctx context.Context, username string) ([]models.CartLine, error) {
	return t.s.cartLines(username), ctx.Err()
}

func (t *tx) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	p, ok := t.s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (t *tx) DecrementIfAvailable(ctx context.Context, id int64, amount int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if amount <= 0 {
		return false, fmt.Errorf("%w: decrement of %d units", store.ErrOutOfRange, amount)
	}
	p, ok := t.s.products[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if p.Quantity < amount {
		return false, nil
	}
	prev := p.Quantity
	p.Quantity -= amount
	t.s.products[id] = p
	t.undo = append(t.undo, func() {
		p := t.s.products[id]
		p.Quantity = prev
		t.s.products[id] = p
	})
	return true, nil
}

func (t *tx) AppendOrder(ctx context.Context, o *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o.ID = int64(len(t.s.orders) + 1)
	o.CreatedAt = t.s.now()
	n := len(t.s.orders)
	t.s.orders = append(t.s.orders, copyOrder(*o))
	t.undo = append(t.undo, func() { t.s.orders = t.s.orders[:n] })
	return nil
}

func (t *tx) ClearCart(ctx context.Context, username string, productIDs []int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lines, ok := t.s.carts[username]
	if !ok {
		return nil
	}
	var removed []models.CartLine
	for _, id := range productIDs {
		if l, ok := lines[id]; ok {
			removed = append(removed, l)
			delete(lines, id)
		}
	}
	if len(lines) == 0 {
		delete(t.s.carts, username)
	}
	t.undo = append(t.undo, func() {
		if len(removed) == 0 {
			return
		}
		lines, ok := t.s.carts[username]
		if !ok {
			lines = make(map[int64]models.CartLine)
			t.s.carts[username] = lines
		}
		for _, l := range removed {
			lines[l.ProductID] = l
		}
	})
	return nil
}

// ---- products ----

func (s *Store) CreateProduct(_ context.Context, p models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProduct++
	p.ID = s.nextProduct
	p.CreatedAt = s.now()
	s.products[p.ID] = p
	return p, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, store.ErrNotFound
	}
	p = patch.Apply(p)
	if p.Quantity < 0 {
		return models.Product{}, fmt.Errorf("%w: products_quantity_check", store.ErrConflict)
	}
	s.products[id] = p
	return p, nil
}

// DeleteProduct also drops the product from every cart, like the
// ON DELETE CASCADE on cart_items.
func (s *Store) DeleteProduct(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.products, id)
	for user, lines := range s.carts {
		delete(lines, id)
		if len(lines) == 0 {
			delete(s.carts, user)
		}
	}
	return nil
}

func (s *Store) SetStock(_ context.Context, id int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Quantity = quantity
	s.products[id] = p
	return nil
}

func (s *Store) LowStock(_ context.Context, threshold, limit int) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Product{}
	for _, p := range s.products {
		if p.Quantity < threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].ID < out[j].ID
	})
	return head(out, limit), nil
}

func head[T any](xs []T, limit int) []T {
	if limit >= 0 && len(xs) > limit {
		return xs[:limit]
	}
	return xs
}

// ---- carts ----

// cartLines returns a user's lines ordered by product id. Callers hold s.mu.
func (s *Store) cartLines(username string) []models.CartLine {
	lines := s.carts[username]
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (s *Store) UpsertCartLine(_ context.Context, username string, productID int64, qty int) (models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return models.CartLine{}, fmt.Errorf("%w: cart_items_product_id_fkey", store.ErrNotFound)
	}
	line, ok := s.carts[username][productID]
	if !ok {
		line = models.CartLine{Username: username, ProductID: productID, CreatedAt: s.now()}
	}
	// same bound as the INTEGER column
	if qty > store.MaxQuantity-line.Quantity {
		return models.CartLine{}, fmt.Errorf("%w: cart_items.quantity", store.ErrOutOfRange)
	}
	line.Quantity += qty

	lines, ok := s.carts[username]
	if !ok {
		lines = make(map[int64]models.CartLine)
		s.carts[username] = lines
	}
	lines[productID] = line
	return line, nil
}

func (s *Store) SetCartQuantity(_ context.Context, username string, productID int64, qty int) (models.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.carts[username][productID]
	if !ok {
		return models.CartLine{}, store.ErrNotFound
	}
	if qty > store.MaxQuantity {
		return models.CartLine{}, fmt.Errorf("%w: cart_items.quantity", store.ErrOutOfRange)
	}
	line.Quantity = qty
	s.carts[username][productID] = line
	return line, nil
}

func (s *Store) RemoveCartLine(_ context.Context, username string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[username]
	if _, ok := lines[productID]; !ok {
		return store.ErrNotFound
	}
	delete(lines, productID)
	if len(lines) == 0 {
		delete(s.carts, username)
	}
	return nil
}

func (s *Store) ListCartView(_ context.Context, username string) ([]models.CartItemView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.CartItemView{}
	for _, l := range s.cartLines(username) {
		p, ok := s.products[l.ProductID]
		if !ok {
			continue
		}
		out = append(out, models.CartItemView{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductImage: p.ImageURL,
			Price:        p.Price,
			Quantity:     l.Quantity,
			LineTotal:    models.LineTotal(p.Price, l.Quantity),
			CreatedAt:    l.CreatedAt,
		})
	}
	return out, nil
}

// ---- orders ----

func (s *Store) GetOrder(_ context.Context, id int64) (models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 1 || id > int64(len(s.orders)) {
		return models.Order{}, store.ErrNotFound
	}
	return copyOrder(s.orders[id-1]), nil
}

// newestOrders returns every order, newest first. Callers hold s.mu.
func (s *Store) newestOrders() []models.Order {
	out := make([]models.Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		out = append(out, s.orders[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Store) ListOrders(_ context.Context, username string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Order{}
	for _, o := range s.newestOrders() {
		if o.Username == username {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (s *Store) RecentOrders(_ context.Context, limit int) ([]models.RecentOrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.RecentOrderLine{}
	for _, o := range head(s.newestOrders(), limit) {
		for _, it := range o.Items {
			out = append(out, models.RecentOrderLine{
				OrderID:     o.ID,
				CreatedAt:   o.CreatedAt,
				TotalAmount: o.TotalAmount,
				Username:    o.Username,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
			})
		}
	}
	return out, nil
}

// ---- reports ----

func (s *Store) SalesTotal(_ context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, o := range s.orders {
		total = total.Add(o.TotalAmount)
	}
	return total, nil
}

func (s *Store) SalesByDay(_ context.Context, days int) ([]models.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byDay := map[string]decimal.Decimal{}
	for _, o := range s.orders {
		day := o.CreatedAt.UTC().Format("2006-01-02")
		byDay[day] = byDay[day].Add(o.TotalAmount)
	}
	out := make([]models.DailySales, 0, len(byDay))
	for day, sales := range byDay {
		out = append(out, models.DailySales{Date: day, Sales: sales})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return head(out, days), nil
}

func (s *Store) CountOrders(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.orders)), nil
}

func (s *Store) SalesByProduct(_ context.Context) ([]models.ProductSales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byProduct := map[int64]*models.ProductSales{}
	for _, o := range s.orders {
		for _, it := range o.Items {
			ps, ok := byProduct[it.ProductID]
			if !ok {
				ps = &models.ProductSales{ProductID: it.ProductID, Revenue: decimal.Zero}
				byProduct[it.ProductID] = ps
			}
			if it.ProductName > ps.ProductName {
				ps.ProductName = it.ProductName
			}
			ps.Quantity += it.Quantity
			ps.Revenue = ps.Revenue.Add(it.LineTotal)
		}
	}
	out := make([]models.ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}
