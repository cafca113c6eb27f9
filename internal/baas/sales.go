package baas

import (
	"context"
	"fmt"

	"github.com/reacts/reacts/internal/model"
)

const salesPath = "/rest/v1/sales"

// List returns every sale, newest first.
func (c *Client) List(ctx context.Context, accessToken string) ([]*model.Sale, error) {
	var out []*model.Sale
	res, err := c.request(ctx, accessToken).
		SetQueryParam("select", "*").
		SetQueryParam("order", "created_at.desc").
		SetResult(&out).
		Get(salesPath)
	if err := check("list sales", res, err); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Insert(ctx context.Context, accessToken string, in model.SaleInput) (*model.Sale, error) {
	var out []*model.Sale
	res, err := c.request(ctx, accessToken).
		SetHeader("Prefer", "return=representation").
		SetBody([]model.SaleInput{in.Normalize()}).
		SetResult(&out).
		Post(salesPath)
	if err := check("insert sale", res, err); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("baas: insert sale: empty representation")
	}
	return out[0], nil
}

func (c *Client) Update(ctx context.Context, accessToken, id string, in model.SaleInput) (*model.Sale, error) {
	var out []*model.Sale
	res, err := c.request(ctx, accessToken).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetBody(in.Normalize()).
		SetResult(&out).
		Patch(salesPath)
	if err := check("update sale", res, err); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out[0], nil
}

func (c *Client) Delete(ctx context.Context, accessToken, id string) error {
	var out []*model.Sale
	res, err := c.request(ctx, accessToken).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+id).
		SetResult(&out).
		Delete(salesPath)
	if err := check("delete sale", res, err); err != nil {
		return err
	}
	if len(out) == 0 {
		return ErrNotFound
	}
	return nil
}
