package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/checkout"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	claimorders "github.com/corray333/backend-labs/checkout/internal/transport/http/claim_orders"
	createorder "github.com/corray333/backend-labs/checkout/internal/transport/http/create_order"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/docs"
	getorder "github.com/corray333/backend-labs/checkout/internal/transport/http/get_order"
	"github.com/corray333/backend-labs/checkout/internal/transport/http/response"
	trackorder "github.com/corray333/backend-labs/checkout/internal/transport/http/track_order"
	"github.com/corray333/backend-labs/checkout/pkg/http/middleware/metrics"
	"github.com/corray333/backend-labs/checkout/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/checkout/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type checkoutService interface {
	Checkout(ctx context.Context, sub checkout.Submission) (order.Summary, error)
}

type orderService interface {
	TrackOrder(ctx context.Context, email, orderNumber string) (*order.Order, error)
	GetOrder(ctx context.Context, rawID string) (*order.Order, error)
}

type customerService interface {
	ClaimGuestOrders(ctx context.Context, customerID uuid.UUID, email string) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// internalRealm names the basic auth realm guarding /api/internal.
const internalRealm = "checkout-internal"

// defaultMaxBodyBytes caps request bodies when server.http.max_body_bytes is unset.
const defaultMaxBodyBytes = 1 << 20

type HTTPTransport struct {
	server        *http.Server
	router        *chi.Mux
	checkout      checkoutService
	orders        orderService
	customers     customerService
	db            pinger
	numberPrefix  string
	internalCreds map[string]string
}

// option is a function that configures the HTTPTransport.
type option func(*HTTPTransport)

// WithHealthCheck makes /healthz report the reachability of the database.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHealthCheck(db pinger) option {
	return func(h *HTTPTransport) {
		h.db = db
	}
}

// WithRouteMetrics records request counts and latencies.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRouteMetrics(m *metrics.ServerMetrics) option {
	return func(h *HTTPTransport) {
		h.router.Use(m.Middleware)
	}
}

// WithInternalAuth enables basic auth credentials for /api/internal routes.
// Without it every internal request is rejected.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithInternalAuth(user, password string) option {
	return func(h *HTTPTransport) {
		if user == "" || password == "" {
			return
		}
		h.internalCreds = map[string]string{user: password}
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHTTPTransport(
	checkout checkoutService,
	orders orderService,
	customers customerService,
	numberPrefix string,
	opts ...option,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	h := &HTTPTransport{
		server:        server,
		router:        router,
		checkout:      checkout,
		orders:        orders,
		customers:     customers,
		numberPrefix:  numberPrefix,
		internalCreds: map[string]string{},
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler returns the router. Used by tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Post("/checkout", h.createOrder)
		r.Get("/orders/track", h.trackOrder)
		r.Post("/orders/track", h.trackOrder)
		r.Get("/orders/{id}", h.getOrder)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BasicAuth(internalRealm, h.internalCreds))
			r.Post("/internal/customers/{id}/claim-orders", h.claimOrders)
		})
	})

	h.router.Get("/healthz", h.healthz)
	h.router.Handle("/metrics", metrics.Handler())
	h.router.Get("/swagger/doc.json", docs.Handler)
	h.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.checkout)
}

func (h *HTTPTransport) trackOrder(w http.ResponseWriter, r *http.Request) {
	trackorder.TrackOrder(w, r, h.orders, h.numberPrefix)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orders, h.numberPrefix)
}

func (h *HTTPTransport) claimOrders(w http.ResponseWriter, r *http.Request) {
	claimorders.ClaimOrders(w, r, h.customers)
}

func (h *HTTPTransport) healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			slog.Warn("Health check failed", "error", err)
			response.Error(w, http.StatusServiceUnavailable, "database unavailable")

			return
		}
	}

	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewRequestLogger(slog.Default()))
	router.Use(trace.NewTraceMiddleware)
	router.Use(middleware.RequestSize(maxBodyBytes()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func maxBodyBytes() int64 {
	if n := viper.GetInt64("server.http.max_body_bytes"); n > 0 {
		return n
	}

	return defaultMaxBodyBytes
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler:      router,
		ReadTimeout:  viper.GetDuration("server.http.read_timeout"),
		WriteTimeout: viper.GetDuration("server.http.write_timeout"),
	}
}
