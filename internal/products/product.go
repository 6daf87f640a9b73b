package products

import (
	"time"

	"github.com/arcay3dlabs/storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// PlaceholderImage is served when a product has no images at all.
const PlaceholderImage = "/placeholder-product.jpg"

// Product is the storefront's internal product shape.
type Product struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	SKU         string                `json:"sku,omitempty"`
	Price       decimal.Decimal       `json:"price"`
	Category    enums.ProductCategory `json:"category"`
	Material    enums.Material        `json:"material"`
	Dimensions  Dimensions            `json:"dimensions"`
	Weight      float64               `json:"weight"`
	Images      []string              `json:"images"`
	Stock       int                   `json:"stock"`
	Featured    bool                  `json:"featured"`
	// Estimated is set when any dimension or the weight is a default.
	Estimated bool      `json:"estimated"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

// PrimaryImage returns the first image, which Adapt guarantees exists.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return PlaceholderImage
	}
	return p.Images[0]
}
