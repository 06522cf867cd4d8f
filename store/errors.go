package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/lib/pq"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	// ErrConflict means the database refused a write because of a concurrent
	// one: serialization failure, deadlock, or a stock check constraint.
	ErrConflict = errors.New("concurrent update conflict")
	// ErrOutOfRange means a value does not fit its column, such as a cart
	// quantity above the INTEGER range.
	ErrOutOfRange = errors.New("value out of range")
)

// MaxQuantity is the largest quantity an INTEGER column holds.
const MaxQuantity = math.MaxInt32

// classify maps driver errors onto the package sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case "foreign_key_violation":
			return fmt.Errorf("%w: %s", ErrNotFound, pqErr.Constraint)
		case "serialization_failure", "deadlock_detected", "check_violation":
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Message)
		case "numeric_value_out_of_range":
			return fmt.Errorf("%w: %s", ErrOutOfRange, pqErr.Message)
		}
	}
	return err
}
