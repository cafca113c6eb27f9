package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/oklog/ulid/v2"

	"github.com/reacts/reacts/internal/model"
)

// ErrSaleNotFound is returned when no row matches the given id.
var ErrSaleNotFound = errors.New("sale not found")

const saleColumns = `id, product, status, method, amount, created_at`

// ListSales returns every sale, newest first.
func (r *Repository) ListSales(ctx context.Context) ([]*model.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]*model.Sale, 0)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales: %w", err)
	}

	return sales, nil
}

// CreateSale inserts a sale and returns the stored row.
func (r *Repository) CreateSale(ctx context.Context, in model.SaleInput) (*model.Sale, error) {
	n := in.Normalize()
	now := time.Now().UTC()
	query := `
		INSERT INTO sales (id, product, status, method, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + saleColumns

	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
	sale, err := scanSale(r.pool.QueryRow(ctx, query, id, n.Product, n.Status, n.Method, n.Amount, now))
	if err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	return sale, nil
}

// UpdateSale overwrites the editable fields of a sale.
func (r *Repository) UpdateSale(ctx context.Context, id string, in model.SaleInput) (*model.Sale, error) {
	n := in.Normalize()
	query := `
		UPDATE sales
		SET product = $2, status = $3, method = $4, amount = $5
		WHERE id = $1
		RETURNING ` + saleColumns

	sale, err := scanSale(r.pool.QueryRow(ctx, query, id, n.Product, n.Status, n.Method, n.Amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to update sale: %w", err)
	}

	return sale, nil
}

// DeleteSale removes a sale.
func (r *Repository) DeleteSale(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrSaleNotFound
	}

	return nil
}

// DeleteSales removes every listed sale in one statement and returns the
// ids that existed.
func (r *Repository) DeleteSales(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `DELETE FROM sales WHERE id = ANY($1::text[]) RETURNING id`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to delete sales: %w", err)
	}
	defer rows.Close()

	deleted := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted id: %w", err)
		}
		deleted = append(deleted, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deleted sales: %w", err)
	}

	return deleted, nil
}

func scanSale(row pgx.Row) (*model.Sale, error) {
	var s model.Sale
	err := row.Scan(
		&s.ID,
		&s.Product,
		&s.Status,
		&s.Method,
		&s.Amount,
		&s.CreatedAt,
	)
	return &s, err
}
