package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcay3dlabs/storefront/api/controllers"
	"github.com/arcay3dlabs/storefront/api/middleware"
	"github.com/arcay3dlabs/storefront/internal/cart"
	"github.com/arcay3dlabs/storefront/pkg/config"
	"github.com/arcay3dlabs/storefront/pkg/logger"
)

// Deps is everything the router wires into handlers. Optional dependencies
// are left nil.
type Deps struct {
	Ventify  VentifyClient
	Catalog  StoreCatalog
	Carts    *cart.Registry
	Checkout controllers.CheckoutService
	Quotes   controllers.QuoteSubmitter
	Sessions sessions.Store

	// RateLimiter backs the submission limits. Nil disables them.
	RateLimiter middleware.RateLimitStore
	Gatherer    prometheus.Gatherer

	ReadyChecks        []controllers.ReadyCheck
	MaxAttachmentBytes int64
}

// StoreCatalog serves the adapted storefront views and the cart lookups.
type StoreCatalog interface {
	controllers.CatalogReader
	controllers.ProductLookup
}

// VentifyClient is the platform surface the proxy routes forward to.
type VentifyClient interface {
	controllers.CatalogSource
	controllers.SaleRequester
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(cfg.App.AllowedOrigins),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.SecurityHeaders,
	)

	r.Route("/health", func(r chi.Router) {
		r.Use(middleware.Logging(logg))
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.ReadyChecks...))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	submitLimit := func(name string) func(http.Handler) http.Handler {
		policy := middleware.NewRateLimitPolicy(name, cfg.RateLimit.Window, cfg.RateLimit.IPLimit, cfg.RateLimit.EmailLimit)
		return middleware.RateLimit(policy, deps.RateLimiter, logg)
	}

	r.Route("/api/ventify", func(r chi.Router) {
		r.Use(middleware.Logging(logg))
		r.Get("/products", controllers.ProxyListProducts(deps.Ventify, logg))
		r.Get("/products/{productId}", controllers.ProxyGetProduct(deps.Ventify, logg))
		r.With(submitLimit("sale_request")).Post("/sale-request", controllers.ProxySaleRequest(deps.Ventify, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Session(deps.Sessions, cfg.Session.CookieName, logg))
		r.Use(middleware.Logging(logg))

		r.Route("/store/products", func(r chi.Router) {
			r.Get("/", controllers.StoreProducts(deps.Catalog, logg))
			r.Get("/featured", controllers.StoreFeaturedProducts(deps.Catalog, logg))
			r.Get("/{id}", controllers.StoreProductDetail(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(deps.Carts, deps.Catalog, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(deps.Carts, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(deps.Carts, logg))
		})

		r.With(submitLimit("checkout")).Post("/checkout", controllers.Checkout(deps.Checkout, deps.Carts, logg))
		r.With(submitLimit("quotes")).Post("/quotes", controllers.QuoteCreate(deps.Quotes, deps.MaxAttachmentBytes, logg))
	})

	return r
}
