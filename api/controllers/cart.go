package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/arcay3dlabs/storefront/api/middleware"
	"github.com/arcay3dlabs/storefront/api/responses"
	"github.com/arcay3dlabs/storefront/api/validators"
	"github.com/arcay3dlabs/storefront/internal/cart"
	"github.com/arcay3dlabs/storefront/internal/products"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

// CartStore hands out the cart owned by a browsing session.
type CartStore interface {
	Get(sessionID string) *cart.Cart
	Peek(sessionID string) (*cart.Cart, bool)
}

// ProductLookup resolves the product snapshot added to a cart.
type ProductLookup interface {
	Lookup(ctx context.Context, id string) (products.Product, error)
}

type cartItemView struct {
	Product  products.Product `json:"product"`
	Quantity int              `json:"quantity"`
	Subtotal decimal.Decimal  `json:"subtotal"`
}

type cartView struct {
	Items      []cartItemView  `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func viewOf(c *cart.Cart) cartView {
	view := cartView{Items: []cartItemView{}, TotalPrice: decimal.Zero}
	if c == nil {
		return view
	}
	for _, line := range c.Lines() {
		subtotal := line.Subtotal()
		view.Items = append(view.Items, cartItemView{Product: line.Product, Quantity: line.Quantity, Subtotal: subtotal})
		view.TotalItems += line.Quantity
		view.TotalPrice = view.TotalPrice.Add(subtotal)
	}
	return view
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func sessionCart(r *http.Request, carts CartStore, create bool) (*cart.Cart, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session context missing")
	}
	if create {
		return carts.Get(sessionID), nil
	}
	c, _ := carts.Peek(sessionID)
	return c, nil
}

func CartGet(carts CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := sessionCart(r, carts, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(c))
	}
}

// CartAddItem adds a product to the session cart. The product snapshot comes
// from the catalog, never from the request.
func CartAddItem(carts CartStore, lookup ProductLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := lookup.Lookup(r.Context(), strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := sessionCart(r, carts, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := c.AddItem(product, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewOf(c))
	}
}

// CartUpdateItem sets a line's quantity; zero or less removes the line.
func CartUpdateItem(carts CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := sessionCart(r, carts, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if c != nil {
			c.UpdateQuantity(chi.URLParam(r, "productId"), *payload.Quantity)
		}
		responses.WriteSuccess(w, viewOf(c))
	}
}

func CartRemoveItem(carts CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := sessionCart(r, carts, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if c != nil {
			c.RemoveItem(chi.URLParam(r, "productId"))
		}
		responses.WriteSuccess(w, viewOf(c))
	}
}

func CartClear(carts CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := sessionCart(r, carts, false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if c != nil {
			c.Clear()
		}
		responses.WriteSuccess(w, viewOf(c))
	}
}
