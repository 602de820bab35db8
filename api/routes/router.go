package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/printdesk/printdesk-backend/api/controllers"
	"github.com/printdesk/printdesk-backend/api/middleware"
	cartsvc "github.com/printdesk/printdesk-backend/internal/cart"
	catalogsvc "github.com/printdesk/printdesk-backend/internal/catalog"
	estimatesvc "github.com/printdesk/printdesk-backend/internal/estimates"
	invoicesvc "github.com/printdesk/printdesk-backend/internal/invoices"
	offersvc "github.com/printdesk/printdesk-backend/internal/offers"
	ordersvc "github.com/printdesk/printdesk-backend/internal/orders"
	"github.com/printdesk/printdesk-backend/pkg/config"
	"github.com/printdesk/printdesk-backend/pkg/enums"
	"github.com/printdesk/printdesk-backend/pkg/logger"
	"github.com/printdesk/printdesk-backend/pkg/metrics"
	pkgredis "github.com/printdesk/printdesk-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type quoteLimiter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// limiterStore avoids handing a typed-nil redis client to the middleware.
func limiterStore(client *pkgredis.Client) quoteLimiter {
	if client == nil {
		return nil
	}
	return client
}

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          pinger
	Redis       *pkgredis.Client
	Registry    *prometheus.Registry
	HTTPMetrics *metrics.HTTPMetrics

	Catalog   catalogsvc.Service
	Cart      cartsvc.Service
	Orders    ordersvc.Service
	Estimates estimatesvc.Service
	Invoices  invoicesvc.Service
	Offers    offersvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(),
	)

	var cache pinger
	if deps.Redis != nil {
		cache = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, cache, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	var idemStore pkgredis.IdempotencyStore
	if deps.Redis != nil {
		idemStore = deps.Redis
	}

	quotePolicy := middleware.NewRateLimitPolicy(
		"quote",
		cfg.RateLimit.QuoteWindow,
		cfg.RateLimit.QuoteIPLimit,
		cfg.RateLimit.QuoteUserLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.With(middleware.RateLimit(quotePolicy, limiterStore(deps.Redis), logg)).
			Post("/quotes", controllers.Quote(deps.Offers, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Put("/", controllers.CartUpsert(deps.Cart, logg))
			r.Post("/offer", controllers.CartApplyOffer(deps.Cart, logg))
			r.Delete("/offer", controllers.CartRemoveOffer(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.Checkout(deps.Orders, logg))
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Route("/{orderID}", func(r chi.Router) {
				r.Get("/", controllers.OrderGet(deps.Orders, logg))
				r.Post("/retotal", controllers.OrderRetotal(deps.Orders, logg))
				r.Post("/lock", controllers.OrderLock(deps.Orders, logg))
				r.Post("/unlock", controllers.OrderUnlock(deps.Orders, logg))
				r.Post("/status", controllers.OrderSetStatus(deps.Orders, logg))
				r.Patch("/items/{itemID}", controllers.OrderUpdateItemQuantity(deps.Orders, logg))
				r.Delete("/items/{itemID}", controllers.OrderRemoveItem(deps.Orders, logg))
				r.Post("/invoice", controllers.InvoiceIssue(deps.Invoices, logg))
			})
		})

		r.Route("/estimates", func(r chi.Router) {
			r.Post("/", controllers.EstimateCreate(deps.Estimates, logg))
			r.Get("/", controllers.EstimateList(deps.Estimates, logg))
			r.Route("/{estimateID}", func(r chi.Router) {
				r.Get("/", controllers.EstimateGet(deps.Estimates, logg))
				r.Post("/retotal", controllers.EstimateRetotal(deps.Estimates, logg))
				r.Post("/send", controllers.EstimateSend(deps.Estimates, logg))
				r.Post("/accept", controllers.EstimateAccept(deps.Estimates, logg))
				r.Post("/decline", controllers.EstimateDecline(deps.Estimates, logg))
				r.Post("/convert", controllers.EstimateConvert(deps.Estimates, logg))
			})
		})

		r.Route("/invoices/{invoiceID}", func(r chi.Router) {
			r.Get("/", controllers.InvoiceGet(deps.Invoices, logg))
			r.Post("/payments", controllers.InvoiceRecordPayment(deps.Invoices, logg))
			r.Post("/void", controllers.InvoiceVoid(deps.Invoices, logg))
		})

		r.Get("/customers/{customerID}/statement", controllers.CustomerStatement(deps.Invoices, logg))

		r.Post("/offers/validate", controllers.ValidateOffer(deps.Offers, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Get("/{productID}", controllers.ProductGet(deps.Catalog, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Route("/offers", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateOffer(deps.Offers, logg))
				r.Get("/", controllers.AdminListOffers(deps.Offers, logg))
				r.Get("/{offerID}", controllers.AdminGetOffer(deps.Offers, logg))
				r.Patch("/{offerID}", controllers.AdminSetOfferStatus(deps.Offers, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
				r.Patch("/{productID}", controllers.AdminUpdateProduct(deps.Catalog, logg))
				r.Post("/{productID}/rolls", controllers.AdminAddRoll(deps.Catalog, logg))
				r.Put("/{productID}/group-price", controllers.AdminSetGroupPrice(deps.Catalog, logg))
			})
		})
	})

	return r
}
