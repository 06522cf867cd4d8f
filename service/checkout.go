package service

import (
	"context"
	"errors"

	"storefront/models"
	"storefront/store"

	"go.uber.org/zap"
)

// Checkout turns the user's server-side cart into an order. The cart and the
// stock are re-read inside one store transaction; the order, the stock
// decrements, and the cart deletion commit together or not at all.
func (s *Service) Checkout(ctx context.Context, username string) (models.Order, error) {
	if username == "" {
		return models.Order{}, invalid("username is required")
	}

	var order models.Order
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		lines, err := tx.ListCart(ctx, username)
		if err != nil {
			return storeFailure(err, 0, 0)
		}
		if len(lines) == 0 {
			return &CheckoutError{Kind: KindEmptyCart}
		}

		items, err := priceLines(ctx, tx, lines)
		if err != nil {
			return err
		}

		for _, it := range items {
			ok, err := tx.DecrementIfAvailable(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return storeFailure(err, it.ProductID, it.Quantity)
			}
			if !ok {
				ce := &CheckoutError{Kind: KindStockConflict, ProductID: it.ProductID, Requested: it.Quantity}
				if p, err := tx.GetProduct(ctx, it.ProductID); err == nil {
					ce.Available = p.Quantity
				}
				return ce
			}
		}

		order = models.Order{
			Username:    username,
			TotalAmount: models.Total(items),
			Items:       items,
		}
		if err := tx.AppendOrder(ctx, &order); err != nil {
			return storeFailure(err, 0, 0)
		}
		ordered := make([]int64, len(items))
		for i, it := range items {
			ordered[i] = it.ProductID
		}
		if err := tx.ClearCart(ctx, username, ordered); err != nil {
			return storeFailure(err, 0, 0)
		}
		return nil
	})
	if err != nil {
		ce := storeFailure(err, 0, 0)
		s.logCheckoutFailure(username, ce)
		return models.Order{}, ce
	}

	s.log.Info("checkout completed",
		zap.Int64("order_id", order.ID),
		zap.String("username", username),
		zap.Stringer("total", order.TotalAmount),
		zap.Int("lines", len(order.Items)))
	return order, nil
}

// priceLines validates every line against current stock and snapshots the
// current unit price. It stops at the first failing line.
func priceLines(ctx context.Context, tx store.Tx, lines []models.CartLine) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, &CheckoutError{Kind: KindInvalidCartLine, ProductID: l.ProductID, Requested: l.Quantity}
		}
		p, err := tx.GetProduct(ctx, l.ProductID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &CheckoutError{Kind: KindProductNotFound, ProductID: l.ProductID, Requested: l.Quantity}
		}
		if err != nil {
			return nil, storeFailure(err, l.ProductID, l.Quantity)
		}
		if p.Quantity < l.Quantity {
			return nil, &CheckoutError{
				Kind:      KindInsufficientStock,
				ProductID: p.ID,
				Available: p.Quantity,
				Requested: l.Quantity,
			}
		}
		items = append(items, models.NewOrderItem(p, l.Quantity))
	}
	return items, nil
}

func (s *Service) logCheckoutFailure(username string, ce *CheckoutError) {
	fields := []zap.Field{
		zap.String("username", username),
		zap.Stringer("kind", ce.Kind),
		zap.Int64("product_id", ce.ProductID),
	}
	if ce.Kind == KindPersistence {
		s.log.Error("checkout failed", append(fields, zap.Error(ce.Err))...)
		return
	}
	s.log.Warn("checkout rejected", fields...)
}
