package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/centrelabs/backoffice/api/controllers"
	"github.com/centrelabs/backoffice/api/middleware"
	"github.com/centrelabs/backoffice/internal/carts"
	"github.com/centrelabs/backoffice/internal/customers"
	"github.com/centrelabs/backoffice/internal/notifications"
	"github.com/centrelabs/backoffice/internal/orders"
	"github.com/centrelabs/backoffice/internal/products"
	"github.com/centrelabs/backoffice/internal/promotions"
	"github.com/centrelabs/backoffice/internal/rates"
	"github.com/centrelabs/backoffice/internal/staff"
	"github.com/centrelabs/backoffice/internal/warehouses"
	"github.com/centrelabs/backoffice/pkg/config"
	"github.com/centrelabs/backoffice/pkg/db"
	"github.com/centrelabs/backoffice/pkg/logger"
	"github.com/centrelabs/backoffice/pkg/metrics"
	"github.com/centrelabs/backoffice/pkg/redis"
)

// Deps carries everything the router wires into handlers. cmd/api builds one
// after constructing the services.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Orders        orders.Service
	Products      products.Service
	Promotions    promotions.Service
	Carts         carts.Service
	Customers     customers.Service
	Rates         rates.Service
	Selector      *warehouses.Selector
	Notifications notifications.Service
	Staff         staff.Service
}

// NewRouter assembles the chi router with the shared middleware stack and
// every route the service exposes.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if d.HTTPMetrics != nil {
		r.Use(d.HTTPMetrics.Middleware)
	}

	r.Get("/healthz", controllers.HealthLive(cfg))
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	} else {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.Login(d.Staff, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.ListOrders(d.Orders, logg))
				r.Post("/", controllers.CreateOrder(d.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(d.Orders, logg))
				r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(d.Orders, logg))
				r.Post("/{orderId}/adjustments", controllers.AdjustOrder(d.Orders, logg))
				r.Post("/{orderId}/transactions", controllers.RecordOrderTransaction(d.Orders, logg))
			})

			r.Post("/promotions/calculate-discount", controllers.CalculateDiscount(d.Promotions, d.Customers, d.Products, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(d.Carts, logg))
				r.Post("/items", controllers.CartAddItem(d.Carts, logg))
				r.Patch("/items", controllers.CartSetItemQuantity(d.Carts, logg))
			})

			r.Post("/checkout/shipping-rates", controllers.CheckoutShippingRates(d.Customers, d.Products, d.Selector, d.Rates, logg))

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(d.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireCatalogAccess(logg))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminListProducts(d.Products, logg))
					r.Post("/", controllers.AdminCreateProduct(d.Products, logg))
					r.Get("/{productId}", controllers.AdminGetProduct(d.Products, logg))
					r.Patch("/{productId}", controllers.AdminUpdateProduct(d.Products, logg))
					r.Post("/{productId}/variants", controllers.AdminCreateVariant(d.Products, logg))
				})
				r.Route("/variants/{variantId}", func(r chi.Router) {
					r.Put("/segment-prices", controllers.AdminSetSegmentPrices(d.Products, logg))
					r.Put("/bulk-prices", controllers.AdminSetBulkPrices(d.Products, logg))
				})
				r.Route("/promotions", func(r chi.Router) {
					r.Get("/", controllers.AdminListPromotions(d.Promotions, logg))
					r.Post("/", controllers.AdminCreatePromotion(d.Promotions, logg))
					r.Get("/{promotionId}", controllers.AdminGetPromotion(d.Promotions, logg))
					r.Put("/{promotionId}", controllers.AdminUpdatePromotion(d.Promotions, logg))
				})
			})
		})
	})

	return r
}
