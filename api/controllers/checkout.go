package controllers

import (
	"context"
	"net/http"

	"github.com/arcay3dlabs/storefront/api/responses"
	"github.com/arcay3dlabs/storefront/api/validators"
	"github.com/arcay3dlabs/storefront/internal/cart"
	"github.com/arcay3dlabs/storefront/internal/checkout"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

// CheckoutService reconciles a session cart into a handed-off order.
type CheckoutService interface {
	Checkout(ctx context.Context, c *cart.Cart, form checkout.Form) (*checkout.Confirmation, error)
}

// Checkout submits the session cart with the posted checkout form. Field
// validation happens in the service so every message follows one policy.
func Checkout(svc CheckoutService, carts CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form checkout.Form
		if err := validators.DecodeJSON(r, &form); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		c, err := sessionCart(r, carts, true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		conf, err := svc.Checkout(r.Context(), c, form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, conf)
	}
}
