package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/arcay3dlabs/storefront/internal/cart"
	"github.com/arcay3dlabs/storefront/internal/checkout"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
)

type stubCheckout struct {
	cart *cart.Cart
	form checkout.Form
	err  error
}

func (s *stubCheckout) Checkout(_ context.Context, c *cart.Cart, form checkout.Form) (*checkout.Confirmation, error) {
	s.cart = c
	s.form = form
	if s.err != nil {
		return nil, s.err
	}
	return &checkout.Confirmation{OrderID: "r1", HandoffURL: "https://api.whatsapp.com/send?phone=1&text=x"}, nil
}

func TestCheckoutUsesSessionCart(t *testing.T) {
	carts := cart.NewRegistry(time.Hour)
	svc := &stubCheckout{}
	handler := Checkout(svc, carts, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"fullName":"Ana","email":"ana@example.com","extra":"ignored"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withSession(req, "s1"))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.cart != carts.Get("s1") {
		t.Fatal("expected the session's cart")
	}
	if svc.form.FullName != "Ana" || svc.form.Email != "ana@example.com" {
		t.Fatalf("unexpected form %+v", svc.form)
	}
}

func TestCheckoutErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty"), status: http.StatusUnprocessableEntity},
		{err: pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{"email": "Email inválido"}), status: http.StatusBadRequest},
		{err: cart.ErrCheckoutInProgress, status: http.StatusConflict},
		{err: pkgerrors.New(pkgerrors.CodeInternal, "error processing order"), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		handler := Checkout(&stubCheckout{err: tc.err}, cart.NewRegistry(time.Hour), testLogger())
		req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withSession(req, "s1"))

		if rec.Code != tc.status {
			t.Fatalf("expected %d for %v, got %d", tc.status, tc.err, rec.Code)
		}
	}
}

func TestCheckoutRejectsMalformedBody(t *testing.T) {
	svc := &stubCheckout{}
	handler := Checkout(svc, cart.NewRegistry(time.Hour), testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"fullName":`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withSession(req, "s1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.cart != nil {
		t.Fatal("service must not run on a malformed body")
	}
}
