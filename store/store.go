package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/models"

	_ "github.com/lib/pq"
)

// queryer is the subset of *sql.DB and *sql.Tx the row helpers need.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore is a Store backed by Postgres. All cross-row invariants are
// enforced by the database, so any number of server instances can share it.
type PostgresStore struct {
	DB *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// PoolOptions sizes the connection pool.
type PoolOptions struct {
	MaxOpen int
	MaxIdle int
}

func NewPostgresStore(dsn string, opts PoolOptions) (*PostgresStore, error) {
	DB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if opts.MaxOpen > 0 {
		DB.SetMaxOpenConns(opts.MaxOpen)
	}
	if opts.MaxIdle > 0 {
		DB.SetMaxIdleConns(opts.MaxIdle)
	}
	DB.SetConnMaxLifetime(30 * time.Minute)
	if err := DB.Ping(); err != nil {
		_ = DB.Close()
		return nil, err
	}
	return &PostgresStore{DB: DB}, nil
}

func (s *PostgresStore) Close() error { return s.DB.Close() }

// Migrate runs the schema script. Every statement in it must be idempotent.
func (s *PostgresStore) Migrate(ctx context.Context, schema string) error {
	_, err := s.DB.ExecContext(ctx, schema)
	return err
}

// WithTx runs fn inside a database transaction and commits only when fn
// returns nil. Any error or panic rolls the whole unit back.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	sqlTx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	if err = fn(&pgTx{tx: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

const productColumns = `id, name, description, image_url, price, quantity, created_at`

func scanProduct(row interface{ Scan(...any) error }) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Price, &p.Quantity, &p.CreatedAt)
	return p, err
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()
	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product and returns it with its id and creation time.
func (s *PostgresStore) CreateProduct(ctx context.Context, p models.Product) (models.Product, error) {
	row := s.DB.QueryRowContext(ctx,
		`INSERT INTO products (name, description, image_url, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns,
		p.Name, p.Description, p.ImageURL, p.Price, p.Quantity,
	)
	created, err := scanProduct(row)
	if err != nil {
		return models.Product{}, classify(err)
	}
	return created, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	return getProduct(ctx, s.DB, id, false)
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

// UpdateProduct applies a partial update; nil patch fields keep the stored value.
func (s *PostgresStore) UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error) {
	row := s.DB.QueryRowContext(ctx, `
		UPDATE products SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			image_url = COALESCE($4, image_url),
			price = COALESCE($5, price),
			quantity = COALESCE($6, quantity)
		WHERE id = $1
		RETURNING `+productColumns,
		id, orNil(patch.Name), orNil(patch.Description), orNil(patch.ImageURL), orNil(patch.Price), orNil(patch.Quantity),
	)
	p, err := scanProduct(row)
	if err != nil {
		return models.Product{}, classify(err)
	}
	return p, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return affectedOne(res, err)
}

// orNil turns a nil pointer into a SQL NULL.
func orNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// affectedOne converts a zero-row Exec result into ErrNotFound.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func count(ctx context.Context, q queryer, query string) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
