package checkout

import (
	"fmt"

	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// LineInput describes the data required to verify a line item before it is submitted.
type LineInput struct {
	ProductID   string
	ProductName string
	Quantity    int
	Stock       int
	UnitPrice   decimal.Decimal
}

// LineViolationDetail exposes the data returned to callers when a validation fails.
type LineViolationDetail struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName,omitempty"`
	Reason       string `json:"reason"`
	RequestedQty int    `json:"requestedQty"`
	AvailableQty int    `json:"availableQty"`
}

// ValidateLines ensures every line has a positive quantity within stock and a
// non-negative price.
func ValidateLines(items []LineInput) error {
	var violations []LineViolationDetail
	for _, item := range items {
		reason := ""
		switch {
		case item.Quantity < 1:
			reason = "quantity must be at least 1"
		case item.Quantity > item.Stock:
			reason = "quantity exceeds stock"
		case item.UnitPrice.IsNegative():
			reason = "price must not be negative"
		}
		if reason == "" {
			continue
		}
		violations = append(violations, LineViolationDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Reason:       reason,
			RequestedQty: item.Quantity,
			AvailableQty: item.Stock,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeOutOfStock, fmt.Sprintf("%d cart line(s) cannot be ordered", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
