package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/model"
)

// SalesTable serves the sales collection straight from Postgres. Access
// tokens are ignored; the session middleware has already authenticated
// the caller.
type SalesTable struct {
	repo *Repository
}

// NewSalesTable adapts the repository to baas.SalesTable.
func NewSalesTable(repo *Repository) *SalesTable {
	return &SalesTable{repo: repo}
}

func (t *SalesTable) List(ctx context.Context, _ string) ([]*model.Sale, error) {
	return t.repo.ListSales(ctx)
}

func (t *SalesTable) Insert(ctx context.Context, _ string, in model.SaleInput) (*model.Sale, error) {
	return t.repo.CreateSale(ctx, in)
}

func (t *SalesTable) Update(ctx context.Context, _ string, id string, in model.SaleInput) (*model.Sale, error) {
	sale, err := t.repo.UpdateSale(ctx, id, in)
	return sale, notFound(err)
}

func (t *SalesTable) Delete(ctx context.Context, _ string, id string) error {
	return notFound(t.repo.DeleteSale(ctx, id))
}

// DeleteMany implements baas.BulkDeleter.
func (t *SalesTable) DeleteMany(ctx context.Context, _ string, ids []string) ([]string, error) {
	return t.repo.DeleteSales(ctx, ids)
}

func notFound(err error) error {
	if errors.Is(err, ErrSaleNotFound) {
		return fmt.Errorf("%w: %w", baas.NewError(http.StatusNotFound, "Sale not found"), err)
	}
	return err
}
