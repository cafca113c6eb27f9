//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/model"
	"github.com/reacts/reacts/internal/testutil"
)

var (
	_ baas.SalesTable  = (*SalesTable)(nil)
	_ baas.BulkDeleter = (*SalesTable)(nil)
)

func TestIntegrationSales_CRUD(t *testing.T) {
	ctx, repo := newSalesTestEnv(t)

	first, err := repo.CreateSale(ctx, testutil.NewTestSaleInput("Laptop", "$1,200.00"))
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}
	second, err := repo.CreateSale(ctx, testutil.NewTestSaleInput("Mouse", "$25.00"))
	if err != nil {
		t.Fatalf("CreateSale failed: %v", err)
	}

	sales, err := repo.ListSales(ctx)
	if err != nil {
		t.Fatalf("ListSales failed: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("ListSales returned %d rows, want 2", len(sales))
	}
	if sales[0].ID != second.ID {
		t.Errorf("newest sale should be first: got %s, want %s", sales[0].ID, second.ID)
	}

	updated, err := repo.UpdateSale(ctx, first.ID, model.SaleInput{Product: "Laptop Pro", Status: "paid", Method: "card", Amount: "$1,500.00"})
	if err != nil {
		t.Fatalf("UpdateSale failed: %v", err)
	}
	if updated.Product != "Laptop Pro" || !updated.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("UpdateSale = %+v", updated)
	}

	if err := repo.DeleteSale(ctx, first.ID); err != nil {
		t.Fatalf("DeleteSale failed: %v", err)
	}
	if err := repo.DeleteSale(ctx, first.ID); !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("second DeleteSale error = %v, want ErrSaleNotFound", err)
	}
}

func TestIntegrationSales_DeleteSales(t *testing.T) {
	ctx, repo := newSalesTestEnv(t)

	var ids []string
	for _, product := range []string{"A", "B", "C"} {
		s, err := repo.CreateSale(ctx, testutil.NewTestSaleInput(product, "$1"))
		if err != nil {
			t.Fatalf("CreateSale failed: %v", err)
		}
		ids = append(ids, s.ID)
	}

	deleted, err := repo.DeleteSales(ctx, []string{ids[0], ids[2], "missing"})
	if err != nil {
		t.Fatalf("DeleteSales failed: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("DeleteSales removed %v, want 2 ids", deleted)
	}

	remaining, _ := repo.ListSales(ctx)
	if len(remaining) != 1 || remaining[0].ID != ids[1] {
		t.Errorf("remaining = %+v, want only %s", remaining, ids[1])
	}
}

func TestIntegrationSalesTable_NotFoundMapsToBackendError(t *testing.T) {
	ctx, repo := newSalesTestEnv(t)
	table := NewSalesTable(repo)

	err := table.Delete(ctx, "", "missing")
	if !errors.Is(err, baas.ErrNotFound) || !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("Delete error = %v, want both ErrNotFound and ErrSaleNotFound", err)
	}
}

func newSalesTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSalesSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset sales schema: %v", err)
	}

	return ctx, repo
}
