package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"storefront/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

func newMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &PostgresStore{DB: db}, mock
}

func TestUpsertCartLine_MergesQuantity(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	// second add of the same product: the row comes back with the summed quantity
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (username, product_id)`)).
		WithArgs("alice", int64(10), 3).
		WillReturnRows(sqlmock.NewRows([]string{"quantity", "created_at"}).AddRow(5, now))

	line, err := s.UpsertCartLine(context.Background(), "alice", 10, 3)
	if err != nil {
		t.Fatalf("UpsertCartLine failed: %v", err)
	}
	if line.Quantity != 5 || line.ProductID != 10 || line.Username != "alice" {
		t.Fatalf("unexpected line: %+v", line)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertCartLine_UnknownProduct(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO cart_items`)).
		WithArgs("alice", int64(99), 1).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "cart_items_product_id_fkey"})

	if _, err := s.UpsertCartLine(context.Background(), "alice", 99, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveCartLine_NoRowsAndSuccess(t *testing.T) {
	s, mock := newMock(t)
	q := regexp.QuoteMeta(`DELETE FROM cart_items WHERE username = $1 AND product_id = $2`)

	// no rows affected -> ErrNotFound
	mock.ExpectExec(q).WithArgs("u1", int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := s.RemoveCartLine(context.Background(), "u1", 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mock.ExpectExec(q).WithArgs("u1", int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := s.RemoveCartLine(context.Background(), "u1", 5); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListCartView_ComputesLineTotals(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"product_id", "name", "image_url", "price", "quantity", "created_at"}).
		AddRow(int64(11), "Mug", "mug.png", "4.50", 2, now).
		AddRow(int64(12), "Pen", "", "1.25", 4, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM cart_items ci`)).WithArgs("u1").WillReturnRows(rows)

	got, err := s.ListCartView(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListCartView failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if !got[0].LineTotal.Equal(decimal.RequireFromString("9.00")) || !got[1].LineTotal.Equal(decimal.RequireFromString("5.00")) {
		t.Fatalf("unexpected line totals: %s, %s", got[0].LineTotal, got[1].LineTotal)
	}
}

func TestDecrementIfAvailable(t *testing.T) {
	s, mock := newMock(t)
	q := regexp.QuoteMeta(`UPDATE products SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1`)

	mock.ExpectBegin()
	mock.ExpectExec(q).WithArgs(3, int64(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs(3, int64(42)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var first, second bool
	err := s.WithTx(context.Background(), func(tx Tx) error {
		var err error
		if first, err = tx.DecrementIfAvailable(context.Background(), 42, 3); err != nil {
			return err
		}
		second, err = tx.DecrementIfAvailable(context.Background(), 42, 3)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
	if !first || second {
		t.Fatalf("expected first decrement to apply and second to be refused, got %v %v", first, second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDecrementIfAvailable_CheckViolationIsConflict(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET quantity`)).
		WithArgs(1, int64(7)).
		WillReturnError(&pq.Error{Code: "23514", Message: "products_quantity_check"})
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx Tx) error {
		_, err := tx.DecrementIfAvailable(context.Background(), 7, 1)
		return err
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items WHERE username = $1 AND product_id = ANY($2)`)).
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx Tx) error {
		if err := tx.ClearCart(context.Background(), "alice", []int64{3, 8}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic to propagate")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	}()
	_ = s.WithTx(context.Background(), func(tx Tx) error { panic("boom") })
}

func TestListCart_LocksRows(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`ORDER BY product_id\s+FOR UPDATE`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "created_at"}).
			AddRow(int64(3), 1, now).
			AddRow(int64(8), 2, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1 FOR UPDATE`)).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "image_url", "price", "quantity", "created_at"}).
			AddRow(int64(3), "Lamp", "", "", "20.00", 4, now))
	mock.ExpectCommit()

	var lines []models.CartLine
	var p models.Product
	err := s.WithTx(context.Background(), func(tx Tx) error {
		var err error
		if lines, err = tx.ListCart(context.Background(), "alice"); err != nil {
			return err
		}
		p, err = tx.GetProduct(context.Background(), lines[0].ProductID)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
	if len(lines) != 2 || lines[1].Quantity != 2 || lines[0].Username != "alice" {
		t.Fatalf("unexpected cart lines: %+v", lines)
	}
	if p.Name != "Lamp" || p.Quantity != 4 {
		t.Fatalf("unexpected product: %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAppendOrder_WritesHeaderAndLines(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO orders (username, total_amount) VALUES ($1, $2) RETURNING id, created_at`)).
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))
	prep := mock.ExpectPrepare(regexp.QuoteMeta(`INSERT INTO order_items`))
	prep.ExpectExec().
		WithArgs(int64(7), 1, int64(42), "Widget", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs(int64(7), 2, int64(43), "Gadget", 1, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	items := []models.OrderItem{
		models.NewOrderItem(models.Product{ID: 42, Name: "Widget", Price: decimal.RequireFromString("9.99")}, 3),
		models.NewOrderItem(models.Product{ID: 43, Name: "Gadget", Price: decimal.RequireFromString("1.00")}, 1),
	}
	order := &models.Order{Username: "alice", Items: items, TotalAmount: models.Total(items)}

	err := s.WithTx(context.Background(), func(tx Tx) error {
		return tx.AppendOrder(context.Background(), order)
	})
	if err != nil {
		t.Fatalf("AppendOrder failed: %v", err)
	}
	if order.ID != 7 || !order.CreatedAt.Equal(now) {
		t.Fatalf("order id/created_at not populated: %+v", order)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetOrder_AttachesItems(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "total_amount", "created_at"}).
			AddRow(int64(7), "alice", "29.97", now))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE order_id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"order_id", "product_id", "product_name", "quantity", "unit_price"}).
			AddRow(int64(7), int64(42), "Widget", 3, "9.99"))

	o, err := s.GetOrder(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if len(o.Items) != 1 || o.Items[0].ProductName != "Widget" {
		t.Fatalf("unexpected items: %+v", o.Items)
	}
	if !o.Items[0].LineTotal.Equal(decimal.RequireFromString("29.97")) {
		t.Fatalf("unexpected line total %s", o.Items[0].LineTotal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE id = $1`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	if _, err := s.GetOrder(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WithArgs("bob", "bob@example.com", "pw").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := s.CreateUser(context.Background(), models.User{Username: "bob", Email: "bob@example.com", Password: "pw"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	other := errors.New("network down")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"unique", &pq.Error{Code: "23505"}, ErrDuplicate},
		{"foreign key", &pq.Error{Code: "23503"}, ErrNotFound},
		{"serialization", &pq.Error{Code: "40001"}, ErrConflict},
		{"deadlock", &pq.Error{Code: "40P01"}, ErrConflict},
		{"check", &pq.Error{Code: "23514"}, ErrConflict},
		{"out of range", &pq.Error{Code: "22003"}, ErrOutOfRange},
		{"passthrough", other, other},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.in); !errors.Is(got, tc.want) {
				t.Fatalf("classify(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
	if classify(nil) != nil {
		t.Fatalf("classify(nil) should be nil")
	}
}

func TestDecrementIfAvailable_RefusesNonPositiveAmount(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithTx(context.Background(), func(tx Tx) error {
		ok, err := tx.DecrementIfAvailable(context.Background(), 42, -3)
		if ok {
			t.Fatalf("negative decrement must not apply")
		}
		return err
	})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertCartLine_QuantityOverflow(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO cart_items`)).
		WithArgs("alice", int64(10), 1).
		WillReturnError(&pq.Error{Code: "22003", Message: "integer out of range"})

	if _, err := s.UpsertCartLine(context.Background(), "alice", 10, 1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestClearCart_SkipsEmptyProductList(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(tx Tx) error {
		return tx.ClearCart(context.Background(), "alice", nil)
	})
	if err != nil {
		t.Fatalf("ClearCart failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
