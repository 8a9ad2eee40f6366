package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oculent/storefront-backend/api/controllers"
	"github.com/oculent/storefront-backend/api/middleware"
	"github.com/oculent/storefront-backend/internal/cart"
	"github.com/oculent/storefront-backend/internal/catalog"
	"github.com/oculent/storefront-backend/internal/orders"
	"github.com/oculent/storefront-backend/pkg/config"
	"github.com/oculent/storefront-backend/pkg/kv"
	"github.com/oculent/storefront-backend/pkg/logger"
	"github.com/oculent/storefront-backend/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	storeP kv.Pinger,
	cat *catalog.Catalog,
	cartService cart.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, storeP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(cat, logg))
			r.Get("/{productID}", controllers.GetProduct(cat, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(cartService, logg))
			r.Delete("/", controllers.ClearCart(cartService, logg))
			r.Post("/items", controllers.AddCartItem(cartService, logg))
			r.Patch("/items/{index}", controllers.UpdateCartItem(cartService, logg))
			r.Delete("/items/{index}", controllers.RemoveCartItem(cartService, logg))
		})

		r.Post("/checkout", controllers.Checkout(ordersService, logg))
		r.Get("/orders", controllers.ListOrders(ordersService, logg))
	})

	return r
}
