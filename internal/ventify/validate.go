package ventify

import (
	"strings"

	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
)

// Validate applies the checks the proxy runs before forwarding a sale request.
func (r SaleRequest) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" ||
		strings.TrimSpace(r.CustomerEmail) == "" ||
		strings.TrimSpace(r.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Información del cliente incompleta")
	}
	if len(r.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Debe incluir al menos un producto")
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.ProductID) == "" ||
			strings.TrimSpace(item.ProductName) == "" ||
			item.Quantity == 0 ||
			item.Price == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "Datos de productos incompletos o inválidos").
				WithDetails(map[string]any{"item": i})
		}
		if item.Quantity < 0 || *item.Price < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "Cantidad o precio inválidos").
				WithDetails(map[string]any{"item": i})
		}
	}
	return nil
}

// PriceOf returns a pointer to v for building SaleItem values.
func PriceOf(v float64) *float64 {
	return &v
}
