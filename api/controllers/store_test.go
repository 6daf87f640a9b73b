package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/arcay3dlabs/storefront/internal/products"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
)

type stubCatalogReader struct {
	query    products.Query
	featured *int
	listing  products.Listing
	detail   products.Detail
	err      error
}

func (s *stubCatalogReader) List(_ context.Context, q products.Query) (products.Listing, error) {
	s.query = q
	return s.listing, s.err
}

func (s *stubCatalogReader) Featured(_ context.Context, limit *int) (products.Listing, error) {
	s.featured = limit
	return s.listing, s.err
}

func (s *stubCatalogReader) Detail(_ context.Context, id string) (products.Detail, error) {
	if s.err != nil {
		return products.Detail{}, s.err
	}
	d := s.detail
	d.Product.ID = id
	return d, nil
}

func TestStoreProductsParsesFilters(t *testing.T) {
	stub := &stubCatalogReader{listing: products.Listing{Products: products.FallbackProducts()[:2], UsingFallback: true}}
	rec := httptest.NewRecorder()
	StoreProducts(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/store/products?category=Mec%C3%A1nico&featured=true&limit=2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if stub.query.Category != "Mecánico" || stub.query.Featured == nil || !*stub.query.Featured || *stub.query.Limit != 2 {
		t.Fatalf("unexpected query %+v", stub.query)
	}

	var listing products.Listing
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if !listing.UsingFallback || len(listing.Products) != 2 {
		t.Fatalf("unexpected listing %+v", listing)
	}
}

func TestStoreProductsBadQuery(t *testing.T) {
	for _, q := range []string{"limit=-1", "limit=abc", "featured=maybe"} {
		rec := httptest.NewRecorder()
		StoreProducts(&stubCatalogReader{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/store/products?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", q, rec.Code)
		}
	}
}

func TestStoreFeaturedDefaultsLimit(t *testing.T) {
	stub := &stubCatalogReader{}
	rec := httptest.NewRecorder()
	StoreFeaturedProducts(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/store/products/featured", nil))

	if rec.Code != http.StatusOK || stub.featured != nil {
		t.Fatalf("expected nil limit passed through, got %d %v", rec.Code, stub.featured)
	}
}

func TestStoreProductDetail(t *testing.T) {
	r := chi.NewRouter()
	stub := &stubCatalogReader{}
	r.Get("/api/store/products/{id}", StoreProductDetail(stub, testLogger()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/store/products/p9", nil))
	var detail products.Detail
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Product.ID != "p9" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	stub.err = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/store/products/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
