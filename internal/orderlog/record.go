package orderlog

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arcay3dlabs/storefront/pkg/types"
)

// LocalOrderRecord is the backup copy of a completed checkout.
type LocalOrderRecord struct {
	ID              string                `json:"id"`
	RequestNumber   *string               `json:"requestNumber"`
	CustomerName    string                `json:"customerName"`
	CustomerEmail   string                `json:"customerEmail"`
	CustomerPhone   string                `json:"customerPhone"`
	Items           []RecordItem          `json:"items"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	Subtotal        float64               `json:"subtotal"`
	Shipping        float64               `json:"shipping"`
	Tax             float64               `json:"tax"`
	Total           float64               `json:"total"`
	PaymentMethod   string                `json:"paymentMethod"`
	Notes           string                `json:"notes"`
	CreatedAt       time.Time             `json:"createdAt"`
}

type RecordItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
}

// Encode serializes the list as a JSON array. A nil list encodes as [].
func Encode(records []LocalOrderRecord) (string, error) {
	if records == nil {
		records = []LocalOrderRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode order log: %w", err)
	}
	return string(payload), nil
}

// Decode parses a serialized list. Blank input is an empty list.
func Decode(raw string) ([]LocalOrderRecord, error) {
	if strings.TrimSpace(raw) == "" {
		return []LocalOrderRecord{}, nil
	}
	var records []LocalOrderRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("decode order log: %w", err)
	}
	if records == nil {
		records = []LocalOrderRecord{}
	}
	return records, nil
}
