package memory

import (
	"context"
	"net/http"
	"sort"

	"github.com/reacts/reacts/internal/baas"
	"github.com/reacts/reacts/internal/model"
)

var errSaleNotFound = baas.NewError(http.StatusNotFound, "Sale not found")

// List returns copies of every sale, newest first.
func (b *Backend) List(_ context.Context, accessToken string) ([]*model.Sale, error) {
	if _, err := b.userFromToken(accessToken); err != nil {
		return nil, err
	}

	b.mu.RLock()
	out := make([]*model.Sale, 0, len(b.sales))
	for _, s := range b.sales {
		cp := *s
		out = append(out, &cp)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (b *Backend) Insert(_ context.Context, accessToken string, in model.SaleInput) (*model.Sale, error) {
	if _, err := b.userFromToken(accessToken); err != nil {
		return nil, err
	}

	n := in.Normalize()
	now := b.now().UTC()
	s := &model.Sale{
		ID:        newULID(now),
		Product:   n.Product,
		Status:    n.Status,
		Method:    n.Method,
		Amount:    n.Amount,
		CreatedAt: now,
	}

	b.mu.Lock()
	b.sales[s.ID] = s
	b.mu.Unlock()

	cp := *s
	return &cp, nil
}

func (b *Backend) Update(_ context.Context, accessToken, id string, in model.SaleInput) (*model.Sale, error) {
	if _, err := b.userFromToken(accessToken); err != nil {
		return nil, err
	}

	n := in.Normalize()

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sales[id]
	if !ok {
		return nil, errSaleNotFound
	}
	s.Product, s.Status, s.Method, s.Amount = n.Product, n.Status, n.Method, n.Amount

	cp := *s
	return &cp, nil
}

func (b *Backend) Delete(_ context.Context, accessToken, id string) error {
	if _, err := b.userFromToken(accessToken); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.sales[id]; !ok {
		return errSaleNotFound
	}
	delete(b.sales, id)
	return nil
}
