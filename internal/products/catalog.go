package products

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

const (
	DefaultFeaturedLimit = 4
	maxRelated           = 4
)

// Fetcher is what the catalog needs from Service.
type Fetcher interface {
	FetchProducts(ctx context.Context, filter Filter) ([]Product, error)
	FetchProduct(ctx context.Context, id string) (Product, error)
}

// Query filters the storefront listing.
type Query struct {
	Category string
	Featured *bool
	Limit    *int
}

// Listing is a page of products and whether it came from the built-in catalog.
type Listing struct {
	Products      []Product `json:"products"`
	UsingFallback bool      `json:"usingFallback"`
}

// Detail is a single product plus related products from the same category.
type Detail struct {
	Product       Product   `json:"product"`
	Related       []Product `json:"related"`
	UsingFallback bool      `json:"usingFallback"`
}

// Catalog serves storefront reads, substituting the fallback catalog when the
// platform is unavailable.
type Catalog struct {
	source Fetcher
	logg   *logger.Logger
}

func NewCatalog(source Fetcher, logg *logger.Logger) (*Catalog, error) {
	if source == nil {
		return nil, fmt.Errorf("product source required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Catalog{source: source, logg: logg}, nil
}

func (c *Catalog) List(ctx context.Context, q Query) (Listing, error) {
	if q.Limit != nil && *q.Limit <= 0 {
		return Listing{}, pkgerrors.New(pkgerrors.CodeValidation, "limit must be positive").
			WithDetails(map[string]any{"limit": *q.Limit})
	}

	filter := Filter{Category: q.Category, ActiveOnly: true}
	// the remote side cannot filter on featured, so the limit is applied after
	if q.Featured == nil {
		filter.Limit = q.Limit
	}

	remote, err := c.source.FetchProducts(ctx, filter)
	if err != nil {
		if !IsRemoteUnavailable(err) {
			return Listing{}, err
		}
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "catalog.fallback")
		return Listing{Products: applyQuery(FallbackProducts(), q, true), UsingFallback: true}, nil
	}
	return Listing{Products: applyQuery(remote, q, false)}, nil
}

// Featured lists up to limit featured products. A nil limit uses DefaultFeaturedLimit.
func (c *Catalog) Featured(ctx context.Context, limit *int) (Listing, error) {
	n := DefaultFeaturedLimit
	if limit != nil {
		n = *limit
	}
	featured := true
	return c.List(ctx, Query{Featured: &featured, Limit: &n})
}

// Detail returns one product and its related products.
func (c *Catalog) Detail(ctx context.Context, id string) (Detail, error) {
	product, fallback, err := c.lookup(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	var pool []Product
	if fallback {
		pool = FallbackProducts()
	} else {
		pool, err = c.source.FetchProducts(ctx, Filter{Category: product.Category.String(), ActiveOnly: true})
		if err != nil {
			c.logg.Warn(c.logg.WithField(ctx, "product_id", product.ID), "catalog.related_unavailable")
			pool = nil
		}
	}
	return Detail{Product: product, Related: related(product, pool), UsingFallback: fallback}, nil
}

// Lookup resolves a product for the cart, from the platform or the fallback catalog.
func (c *Catalog) Lookup(ctx context.Context, id string) (Product, error) {
	product, _, err := c.lookup(ctx, id)
	return product, err
}

func (c *Catalog) lookup(ctx context.Context, id string) (Product, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := c.source.FetchProduct(ctx, id)
	if err == nil {
		return product, false, nil
	}
	if IsNotFound(err) {
		return Product{}, false, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
	}
	if !IsRemoteUnavailable(err) {
		return Product{}, false, err
	}
	if fb, ok := FallbackProduct(id); ok {
		c.logg.Warn(c.logg.WithField(ctx, "product_id", id), "catalog.fallback")
		return fb, true, nil
	}
	return Product{}, false, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
}

func applyQuery(in []Product, q Query, filterCategory bool) []Product {
	category := NormalizeCategory(q.Category)
	out := make([]Product, 0, len(in))
	for _, p := range in {
		if filterCategory && strings.TrimSpace(q.Category) != "" && p.Category != category {
			continue
		}
		if q.Featured != nil && p.Featured != *q.Featured {
			continue
		}
		out = append(out, p)
	}
	if q.Limit != nil && len(out) > *q.Limit {
		out = out[:*q.Limit]
	}
	return out
}

func related(product Product, pool []Product) []Product {
	out := make([]Product, 0, maxRelated)
	for _, p := range pool {
		if p.ID == product.ID || p.Category != product.Category {
			continue
		}
		out = append(out, p)
		if len(out) == maxRelated {
			break
		}
	}
	return out
}
