package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arcay3dlabs/storefront/api/responses"
	"github.com/arcay3dlabs/storefront/api/validators"
	"github.com/arcay3dlabs/storefront/internal/products"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

// CatalogReader serves the storefront listing and detail views.
type CatalogReader interface {
	List(ctx context.Context, q products.Query) (products.Listing, error)
	Featured(ctx context.Context, limit *int) (products.Listing, error)
	Detail(ctx context.Context, id string) (products.Detail, error)
}

// StoreProducts lists adapted products with optional category, featured and
// limit filters.
func StoreProducts(catalog CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		featured, err := validators.ParseOptionalBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseOptionalPositiveInt(r, "limit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := catalog.List(r.Context(), products.Query{
			Category: strings.TrimSpace(r.URL.Query().Get("category")),
			Featured: featured,
			Limit:    limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func StoreFeaturedProducts(catalog CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseOptionalPositiveInt(r, "limit")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := catalog.Featured(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func StoreProductDetail(catalog CatalogReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := catalog.Detail(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}
