package ventify

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RemoteProduct is the product representation published by the platform.
// Optional fields vary between store configurations.
type RemoteProduct struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Category      string      `json:"category"`
	Price         float64     `json:"price"`
	Stock         int         `json:"stock"`
	InStock       bool        `json:"inStock"`
	IsFeatured    bool        `json:"isFeatured"`
	SKU           string      `json:"sku"`
	ImageURL      string      `json:"imageUrl"`
	GalleryImages []string    `json:"galleryImages,omitempty"`
	Attributes    []Attribute `json:"attributes,omitempty"`
	Supplier      string      `json:"supplier,omitempty"`
	CreatedAt     string      `json:"createdAt,omitempty"`
	UpdatedAt     string      `json:"updatedAt,omitempty"`
}

// Attribute is a free-form name/value pair attached to a remote product.
type Attribute struct {
	Name  string     `json:"name"`
	Value FlexString `json:"value"`
}

// FlexString accepts either a JSON string or a JSON number.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Float parses the leading number in the value ("12.5 cm" yields 12.5).
func (f FlexString) Float() (float64, bool) {
	s := strings.TrimSpace(string(f))
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' || (end == 0 && c == '-') {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s[:end], ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ListParams filters a product listing. Nil fields are not sent.
type ListParams struct {
	Category string
	Active   *bool
	Limit    *int
}

// SaleRequest is the order payload registered with the platform.
type SaleRequest struct {
	CustomerName           string          `json:"customerName"`
	CustomerEmail          string          `json:"customerEmail"`
	CustomerPhone          string          `json:"customerPhone"`
	Items                  []SaleItem      `json:"items"`
	ShippingAddress        ShippingAddress `json:"shippingAddress"`
	Subtotal               float64         `json:"subtotal"`
	Shipping               float64         `json:"shipping"`
	Tax                    float64         `json:"tax"`
	Total                  float64         `json:"total"`
	PreferredPaymentMethod string          `json:"preferredPaymentMethod"`
	Notes                  string          `json:"notes"`
}

// SaleItem is one order line. Price is a pointer so a missing price can be
// told apart from a free item.
type SaleItem struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	SKU         string   `json:"sku"`
	Quantity    int      `json:"quantity"`
	Price       *float64 `json:"price"`
}

type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// SaleRequestResult carries the identifiers the platform assigns.
type SaleRequestResult struct {
	RequestID     string `json:"requestId"`
	RequestNumber string `json:"requestNumber"`
}

// QuoteRequest is a custom printing quote forwarded to the platform.
type QuoteRequest struct {
	CustomerName string `json:"customerName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Material     string `json:"material,omitempty"`
	Quantity     int    `json:"quantity,omitempty"`
	Finish       string `json:"finish,omitempty"`
	Description  string `json:"description,omitempty"`
	FileName     string `json:"fileName,omitempty"`
	FileURL      string `json:"fileUrl,omitempty"`
}

type QuoteResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
