// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/reacts/reacts/internal/model"
)

// SaleRequest is the body of a create or update call.
type SaleRequest struct {
	Product string `json:"product"`
	Status  string `json:"status"`
	Method  string `json:"method"`
	Amount  string `json:"amount"`
}

// ToInput converts the request to a model input.
func (r SaleRequest) ToInput() model.SaleInput {
	return model.SaleInput{
		Product: r.Product,
		Status:  r.Status,
		Method:  r.Method,
		Amount:  r.Amount,
	}
}

// SelectionRequest carries a row selection (bulk delete, summary).
type SelectionRequest struct {
	IDs []string `json:"ids"`
}

// SaleResponse represents a sale in API responses.
type SaleResponse struct {
	ID        string    `json:"id"`
	Product   string    `json:"product"`
	Status    string    `json:"status"`
	Method    string    `json:"method"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSaleResponse converts a model.Sale.
func ToSaleResponse(s *model.Sale) SaleResponse {
	return SaleResponse{
		ID:        s.ID,
		Product:   s.Product,
		Status:    s.Status,
		Method:    s.Method,
		Amount:    s.Amount,
		CreatedAt: s.CreatedAt,
	}
}

// SaleListResponse is the sales table payload.
type SaleListResponse struct {
	Data []SaleResponse `json:"data"`
}

// ToSaleListResponse converts a list of sales, never returning a null data array.
func ToSaleListResponse(sales []*model.Sale) SaleListResponse {
	data := make([]SaleResponse, 0, len(sales))
	for _, s := range sales {
		data = append(data, ToSaleResponse(s))
	}
	return SaleListResponse{Data: data}
}

// MutationResponse is returned by every mutation; the client re-fetches afterwards.
type MutationResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Sale    *SaleResponse `json:"sale,omitempty"`
}

// BatchResponse reports a bulk delete or import.
type BatchResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
}

// AccountResponse is returned by the settings dialog endpoints.
type AccountResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Profile *model.Profile `json:"profile,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}
