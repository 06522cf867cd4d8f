package service

import (
	"errors"
	"fmt"

	"storefront/store"
)

// ErrValidation marks bad caller input. Wrapped errors carry the reason.
var ErrValidation = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPersistence       = errors.New("checkout could not be persisted")
	ErrInvalidCartLine   = errors.New("cart line has an invalid quantity")
)

type CheckoutErrorKind int

const (
	KindEmptyCart CheckoutErrorKind = iota + 1
	KindProductNotFound
	KindInsufficientStock
	// KindStockConflict is a stock shortfall detected at decrement time, after
	// validation passed. Callers treat it exactly like KindInsufficientStock.
	KindStockConflict
	KindPersistence
	// KindInvalidCartLine is a stored line whose quantity is not positive.
	KindInvalidCartLine
)

func (k CheckoutErrorKind) String() string {
	switch k {
	case KindEmptyCart:
		return "empty_cart"
	case KindProductNotFound:
		return "product_not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindStockConflict:
		return "stock_conflict"
	case KindPersistence:
		return "persistence_failure"
	case KindInvalidCartLine:
		return "invalid_cart_line"
	}
	return "unknown"
}

// CheckoutError is the single failure type of Checkout. Whatever the kind,
// nothing the checkout attempted has been committed.
type CheckoutError struct {
	Kind      CheckoutErrorKind
	ProductID int64
	Available int
	Requested int
	Err       error
}

func (e *CheckoutError) Error() string {
	switch e.Kind {
	case KindEmptyCart:
		return "cart is empty"
	case KindProductNotFound:
		return fmt.Sprintf("product %d not found", e.ProductID)
	case KindInsufficientStock, KindStockConflict:
		return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
			e.ProductID, e.Available, e.Requested)
	case KindInvalidCartLine:
		return fmt.Sprintf("cart line for product %d has invalid quantity %d", e.ProductID, e.Requested)
	}
	if e.Err != nil {
		return "checkout could not be persisted: " + e.Err.Error()
	}
	return "checkout could not be persisted"
}

func (e *CheckoutError) Unwrap() error { return e.Err }

func (e *CheckoutError) Is(target error) bool {
	switch target {
	case ErrEmptyCart:
		return e.Kind == KindEmptyCart
	case ErrProductNotFound:
		return e.Kind == KindProductNotFound
	case ErrInsufficientStock:
		return e.Kind == KindInsufficientStock || e.Kind == KindStockConflict
	case ErrPersistence:
		return e.Kind == KindPersistence
	case ErrInvalidCartLine:
		return e.Kind == KindInvalidCartLine
	}
	return false
}

// storeFailure classifies a store error raised while working on productID.
func storeFailure(err error, productID int64, requested int) *CheckoutError {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, store.ErrConflict) {
		return &CheckoutError{Kind: KindStockConflict, ProductID: productID, Requested: requested, Err: err}
	}
	return &CheckoutError{Kind: KindPersistence, ProductID: productID, Err: err}
}
