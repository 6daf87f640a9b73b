package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/arcay3dlabs/storefront/api/responses"
	"github.com/arcay3dlabs/storefront/api/validators"
	"github.com/arcay3dlabs/storefront/internal/ventify"
	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

const catalogCacheControl = "public, s-maxage=300, stale-while-revalidate=600"

// CatalogSource is the read half of the platform client.
type CatalogSource interface {
	ListProducts(ctx context.Context, params ventify.ListParams) ([]ventify.RemoteProduct, json.RawMessage, error)
	GetProduct(ctx context.Context, id string) (*ventify.RemoteProduct, json.RawMessage, error)
}

// SaleRequester is the write half used by the sale-request proxy.
type SaleRequester interface {
	WriteConfigured() bool
	CreateSaleRequest(ctx context.Context, req ventify.SaleRequest) (*ventify.SaleRequestResult, error)
}

// proxyMessages are the public texts for each failure class of one route.
type proxyMessages struct {
	unconfigured string
	timeout      string
	fallback     string
}

var (
	listMessages = proxyMessages{
		unconfigured: "Servicio no configurado",
		timeout:      "Timeout al obtener productos",
		fallback:     "Error al obtener productos",
	}
	productMessages = proxyMessages{
		unconfigured: "Servicio no configurado",
		timeout:      "Timeout al obtener producto",
		fallback:     "Error al obtener producto",
	}
	saleMessages = proxyMessages{
		unconfigured: "Servicio temporalmente no disponible. Por favor contacta a soporte.",
		timeout:      "La solicitud tardó demasiado. Por favor intenta nuevamente.",
		fallback:     "Error al procesar la solicitud",
	}
)

// ProxyListProducts forwards the catalog listing, passing the platform's
// data array through untouched.
func ProxyListProducts(src CatalogSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		params := ventify.ListParams{Category: strings.TrimSpace(q.Get("category"))}

		active, err := validators.ParseOptionalBool(r, "active")
		if err != nil {
			responses.WriteFailure(w, http.StatusBadRequest, "Parámetro active inválido")
			return
		}
		params.Active = active

		limit, err := validators.ParseOptionalPositiveInt(r, "limit")
		if err != nil {
			responses.WriteFailure(w, http.StatusBadRequest, "Parámetro limit inválido")
			return
		}
		params.Limit = limit

		_, raw, err := src.ListProducts(r.Context(), params)
		if err != nil {
			writeProxyFailure(r.Context(), logg, w, err, listMessages)
			return
		}

		w.Header().Set("Cache-Control", catalogCacheControl)
		responses.WriteRaw(w, http.StatusOK, raw)
	}
}

// ProxyGetProduct forwards one product lookup.
func ProxyGetProduct(src CatalogSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "productId"))

		_, raw, err := src.GetProduct(r.Context(), id)
		if err != nil {
			if f := ventify.FailureFrom(err); f != nil && f.StatusHint == http.StatusBadRequest && id == "" {
				responses.WriteFailure(w, http.StatusBadRequest, "Product ID requerido")
				return
			}
			writeProxyFailure(r.Context(), logg, w, err, productMessages)
			return
		}

		w.Header().Set("Cache-Control", catalogCacheControl)
		responses.WriteRaw(w, http.StatusOK, raw)
	}
}

// ProxySaleRequest validates and forwards a sale request. Credentials are
// checked before the body is read.
func ProxySaleRequest(sales SaleRequester, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !sales.WriteConfigured() {
			logg.Warn(ctx, "proxy.sale_request.unconfigured")
			responses.WriteFailure(w, http.StatusServiceUnavailable, saleMessages.unconfigured)
			return
		}

		var req ventify.SaleRequest
		if err := validators.DecodeJSON(r, &req); err != nil {
			responses.WriteFailure(w, http.StatusBadRequest, "Cuerpo de la solicitud inválido")
			return
		}
		if err := req.Validate(); err != nil {
			responses.WriteFailure(w, http.StatusBadRequest, pkgerrors.As(err).Message())
			return
		}

		ctx = logg.WithFields(ctx, map[string]any{"items": len(req.Items), "total": req.Total})
		result, err := sales.CreateSaleRequest(ctx, req)
		if err != nil {
			writeProxyFailure(ctx, logg, w, err, saleMessages)
			return
		}

		logg.Info(logg.WithField(ctx, "request_number", result.RequestNumber), "proxy.sale_request.created")
		responses.WriteSuccess(w, result)
	}
}

// writeProxyFailure maps a platform failure onto the proxy status policy:
// 503 unconfigured, 504 timeout, the upstream status otherwise and 500 for
// anything unclassified.
func writeProxyFailure(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error, msgs proxyMessages) {
	f := ventify.FailureFrom(err)
	if f == nil {
		logg.Error(ctx, "proxy.unexpected_error", err)
		responses.WriteFailure(w, http.StatusInternalServerError, msgs.fallback)
		return
	}

	status := f.HTTPStatus()
	message := msgs.fallback
	switch {
	case f.Unconfigured:
		message = msgs.unconfigured
	case f.Timeout:
		message = msgs.timeout
	case f.StatusHint > 0 && strings.TrimSpace(f.Message) != "":
		message = f.Message
	}

	logCtx := logg.WithFields(ctx, map[string]any{"op": f.Op, "status": status})
	if status >= http.StatusInternalServerError {
		logg.Error(logCtx, "proxy.upstream_failed", err)
	} else {
		logg.Warn(logCtx, "proxy.upstream_rejected")
	}
	responses.WriteFailure(w, status, message)
}
