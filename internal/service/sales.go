package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/metrics"
	"github.com/reacts/reacts/internal/model"
)

// SalesService wraps the sales table. Every call goes to the table; no
// rows are kept between requests.
type SalesService struct {
	table   baas.SalesTable
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewSalesService creates a new SalesService.
func NewSalesService(table baas.SalesTable, recorder metrics.Recorder, logger *slog.Logger) *SalesService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SalesService{
		table:   table,
		metrics: recorder,
		logger:  logger,
	}
}

// List returns every sale, newest first.
func (s *SalesService) List(ctx context.Context, accessToken string) ([]*model.Sale, error) {
	start := time.Now()
	sales, err := s.table.List(ctx, accessToken)
	observe(s.metrics, "list_sales", start, err)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

// Select returns the sales whose ids are listed, or every sale when ids
// is empty. Order follows List.
func (s *SalesService) Select(ctx context.Context, accessToken string, ids []string) ([]*model.Sale, error) {
	sales, err := s.List(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return sales, nil
	}
	return model.SelectByID(sales, ids), nil
}

// Summary totals the amounts of the selected sales.
func (s *SalesService) Summary(ctx context.Context, accessToken string, ids []string) (model.SaleSummary, error) {
	sales, err := s.List(ctx, accessToken)
	if err != nil {
		return model.SaleSummary{}, err
	}
	return model.Summarize(sales, ids), nil
}

// Create inserts a sale after checking the required fields.
func (s *SalesService) Create(ctx context.Context, accessToken string, in model.SaleInput) (*model.Sale, error) {
	if missing := in.MissingFields(); len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	start := time.Now()
	sale, err := s.table.Insert(ctx, accessToken, in.Normalize())
	observe(s.metrics, "insert_sale", start, err)
	if err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	s.metrics.IncSalesCreated(1)
	return sale, nil
}

// Update overwrites the editable fields of a sale.
func (s *SalesService) Update(ctx context.Context, accessToken, id string, in model.SaleInput) (*model.Sale, error) {
	if missing := in.MissingFields(); len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	start := time.Now()
	sale, err := s.table.Update(ctx, accessToken, id, in.Normalize())
	observe(s.metrics, "update_sale", start, err)
	if err != nil {
		return nil, fmt.Errorf("update sale: %w", err)
	}

	s.metrics.IncSalesUpdated()
	return sale, nil
}

// Delete removes one sale.
func (s *SalesService) Delete(ctx context.Context, accessToken, id string) error {
	start := time.Now()
	err := s.table.Delete(ctx, accessToken, id)
	observe(s.metrics, "delete_sale", start, err)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}

	s.metrics.IncSalesDeleted(1)
	return nil
}

// DeleteMany removes the selected sales. Tables that support bulk deletes
// do it in one call; otherwise ids are deleted one at a time and failures
// are counted, not returned.
func (s *SalesService) DeleteMany(ctx context.Context, accessToken string, ids []string) BatchResult {
	ids = NormalizeIDs(ids)

	if bulk, ok := s.table.(baas.BulkDeleter); ok {
		start := time.Now()
		deleted, err := bulk.DeleteMany(ctx, accessToken, ids)
		observe(s.metrics, "delete_sales", start, err)
		if err != nil {
			s.logger.Error("bulk delete failed", "count", len(ids), "error", err)
			return BatchResult{Failed: len(ids)}
		}
		s.metrics.IncSalesDeleted(len(deleted))
		missing := len(ids) - len(deleted)
		return BatchResult{Succeeded: len(deleted), Failed: missing, Missing: missing}
	}

	var res BatchResult
	for _, id := range ids {
		if err := s.Delete(ctx, accessToken, id); err != nil {
			s.logger.Warn("delete sale failed", "sale_id", id, "error", err)
			res.Failed++
			if errors.Is(err, baas.ErrNotFound) {
				res.Missing++
			}
			continue
		}
		res.Succeeded++
	}
	return res
}

// Import inserts parsed rows one at a time. Rows with missing fields and
// rows the table rejects count as failed.
func (s *SalesService) Import(ctx context.Context, accessToken string, rows []model.SaleInput) BatchResult {
	var res BatchResult
	for i, row := range rows {
		if _, err := s.Create(ctx, accessToken, row); err != nil {
			s.logger.Warn("import row failed", "row", i+1, "error", err)
			res.Failed++
			continue
		}
		res.Succeeded++
	}
	s.metrics.IncSalesImportFailed(res.Failed)
	return res
}

// NormalizeIDs trims a selection and drops blanks and repeats, keeping order.
func NormalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
