package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/corray333/backend-labs/checkout/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/checkout-svc")
	viper.AddConfigPath(".")
	SetDefaults()
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

// SetDefaults registers the fallback value of every setting the service reads.
func SetDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")

	viper.SetDefault("server.http.port", 8080)
	viper.SetDefault("server.http.read_timeout", 10*time.Second)
	viper.SetDefault("server.http.write_timeout", 15*time.Second)
	viper.SetDefault("server.http.max_body_bytes", 1<<20)
	viper.SetDefault("server.http.cors.allowed_origins", []string{"*"})
	viper.SetDefault("server.http.cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	viper.SetDefault("server.http.cors.allowed_headers", []string{"Accept", "Content-Type", "Idempotency-Key", "X-Request-Id"})
	viper.SetDefault("server.grpc.port", 9090)
	viper.SetDefault("server.grpc.keepalive.max_connection_idle", 15)
	viper.SetDefault("server.grpc.keepalive.time", 300)
	viper.SetDefault("server.grpc.keepalive.timeout", 20)
	viper.SetDefault("server.grpc.keepalive.min_time", 60)
	viper.SetDefault("server.grpc.health_interval", 10*time.Second)

	viper.SetDefault("postgres.sslmode", "disable")
	viper.SetDefault("postgres.max_conns", 10)
	viper.SetDefault("postgres.migrations_path", "./migrations")

	viper.SetDefault("checkout.currency", "EUR")
	viper.SetDefault("checkout.order_number_prefix", "AE")
	viper.SetDefault("checkout.reserved_shipping_options", map[string]string{
		"standard": "Standard Shipping",
		"express":  "Express Shipping",
	})
	viper.SetDefault("checkout.default_shipping_method", "Standard Shipping")
	viper.SetDefault("checkout.reject_unresolved_items", false)
	viper.SetDefault("checkout.store_timeout", 5*time.Second)
	viper.SetDefault("checkout.notification_timeout", 30*time.Second)

	viper.SetDefault("mail.provider", "")
	viper.SetDefault("mail.store_name", "Atelier")

	viper.SetDefault("events.broker", "rabbitmq")
	viper.SetDefault("events.order_placed.routing_key", "order.placed")
	viper.SetDefault("events.order_placed.max_retries", 10)
	viper.SetDefault("rabbitmq.outbox.poll_interval_seconds", 10)
	viper.SetDefault("rabbitmq.outbox.batch_size", 100)

	viper.SetDefault("kafka.allow_auto_topic_creation", true)

	viper.SetDefault("jaeger.endpoint", "http://jaeger:14268/api/traces")
	viper.SetDefault("jaeger.service_name", "checkout-svc")
}

func SetupLogger() {
	handler := logger.NewHandler(&logger.HandlerOptions{
		Level:  logger.ParseLevel(viper.GetString("logger.level")),
		Format: viper.GetString("logger.format"),
		Output: os.Stdout,
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}

// Checkout holds the store settings the checkout pipeline depends on.
type Checkout struct {
	Currency                currency.Currency
	OrderNumberPrefix       string
	ReservedShippingOptions map[string]string
	DefaultShippingMethod   string
	RejectUnresolvedItems   bool
	StoreTimeout            time.Duration
	NotificationTimeout     time.Duration
	StoreName               string
	OrderPlacedRoutingKey   string
	OrderPlacedMaxRetries   int
}

// MustLoadCheckout reads the checkout.* settings.
func MustLoadCheckout() Checkout {
	cur, err := currency.ParseCurrency(viper.GetString("checkout.currency"))
	if err != nil {
		panic("invalid checkout.currency: " + err.Error())
	}

	return Checkout{
		Currency:                cur,
		OrderNumberPrefix:       viper.GetString("checkout.order_number_prefix"),
		ReservedShippingOptions: viper.GetStringMapString("checkout.reserved_shipping_options"),
		DefaultShippingMethod:   viper.GetString("checkout.default_shipping_method"),
		RejectUnresolvedItems:   viper.GetBool("checkout.reject_unresolved_items"),
		StoreTimeout:            viper.GetDuration("checkout.store_timeout"),
		NotificationTimeout:     viper.GetDuration("checkout.notification_timeout"),
		StoreName:               viper.GetString("mail.store_name"),
		OrderPlacedRoutingKey:   viper.GetString("events.order_placed.routing_key"),
		OrderPlacedMaxRetries:   viper.GetInt("events.order_placed.max_retries"),
	}
}

// DefaultCheckout returns the built-in checkout settings. Used where viper is not initialized.
func DefaultCheckout() Checkout {
	return Checkout{
		Currency:          currency.CurrencyEUR,
		OrderNumberPrefix: "AE",
		ReservedShippingOptions: map[string]string{
			"standard": "Standard Shipping",
			"express":  "Express Shipping",
		},
		DefaultShippingMethod: "Standard Shipping",
		StoreTimeout:          5 * time.Second,
		NotificationTimeout:   30 * time.Second,
		StoreName:             "Atelier",
		OrderPlacedRoutingKey: "order.placed",
		OrderPlacedMaxRetries: 10,
	}
}
