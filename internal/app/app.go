package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/config"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ieventpublisher"
	"github.com/corray333/backend-labs/checkout/internal/dal/kafka"
	"github.com/corray333/backend-labs/checkout/internal/dal/mailer/ses"
	"github.com/corray333/backend-labs/checkout/internal/dal/postgres"
	"github.com/corray333/backend-labs/checkout/internal/dal/rabbitmq"
	catalogrepo "github.com/corray333/backend-labs/checkout/internal/dal/repositories/catalog/postgres"
	customerrepo "github.com/corray333/backend-labs/checkout/internal/dal/repositories/customer/postgres"
	kafkapublisher "github.com/corray333/backend-labs/checkout/internal/dal/repositories/events/kafka"
	rabbitmqpublisher "github.com/corray333/backend-labs/checkout/internal/dal/repositories/events/rabbitmq"
	shippingoptionrepo "github.com/corray333/backend-labs/checkout/internal/dal/repositories/shippingoption/postgres"
	"github.com/corray333/backend-labs/checkout/internal/dal/uow"
	"github.com/corray333/backend-labs/checkout/internal/otel"
	"github.com/corray333/backend-labs/checkout/internal/service/services/checkoutsvc"
	"github.com/corray333/backend-labs/checkout/internal/service/services/customersvc"
	"github.com/corray333/backend-labs/checkout/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/checkout/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/checkout/internal/service/services/pricesvc"
	grpctransport "github.com/corray333/backend-labs/checkout/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/checkout/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/checkout/internal/worker/outbox"
	"github.com/corray333/backend-labs/checkout/pkg/http/middleware/metrics"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	checkoutSvc    *checkoutsvc.CheckoutService
	notifySvc      *notifysvc.NotificationService
	httpTransport  *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	outboxWorker   *outboxworker.Worker
	broker         io.Closer
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	cfg := config.MustLoadCheckout()

	catalogRepository := catalogrepo.NewPostgresCatalogRepository(postgresClient.Pool())
	customerRepository := customerrepo.NewPostgresCustomerRepository(postgresClient.Pool())
	shippingOptionRepository := shippingoptionrepo.NewPostgresShippingOptionRepository(postgresClient.Pool())

	priceSvc := pricesvc.MustNewPriceService(
		pricesvc.WithCatalogRepository(catalogRepository),
		pricesvc.WithConfig(cfg),
	)

	customerSvc := customersvc.MustNewCustomerService(
		customersvc.WithCustomerRepository(customerRepository),
		customersvc.WithOrderRepository(uow.NewUnitOfWork(postgresClient).OrderRepository()),
	)

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithShippingOptionRepository(shippingOptionRepository),
		ordersvc.WithConfig(cfg),
	)

	var sender notifysvc.Sender
	if viper.GetString("mail.provider") == "ses" {
		sender = ses.MustNewSender()
	} else {
		slog.Warn("No mail provider configured, order confirmations will not be sent")
	}
	notifySvc := notifysvc.MustNewNotificationService(
		notifysvc.WithSender(sender),
		notifysvc.WithConfig(cfg),
	)

	checkoutSvc := checkoutsvc.MustNewCheckoutService(
		checkoutsvc.WithPriceAuthority(priceSvc),
		checkoutsvc.WithCustomerLinker(customerSvc),
		checkoutsvc.WithOrderWriter(orderSvc),
		checkoutsvc.WithNotifier(notifySvc),
		checkoutsvc.WithConfig(cfg),
	)

	publisher, broker := mustNewPublisher()
	outboxWorker := outboxworker.NewWorker(uow.NewUnitOfWork(postgresClient).OutboxRepository(), publisher)

	httpTransport := httptransport.NewHTTPTransport(
		checkoutSvc,
		orderSvc,
		customerSvc,
		cfg.OrderNumberPrefix,
		httptransport.WithHealthCheck(postgresClient),
		httptransport.WithRouteMetrics(metrics.NewServerMetrics("http", nil)),
		httptransport.WithInternalAuth(os.Getenv("CHECKOUT_INTERNAL_USER"), os.Getenv("CHECKOUT_INTERNAL_PASSWORD")),
	)
	httpTransport.RegisterRoutes()

	grpcTransport := grpctransport.NewGRPCTransport(postgresClient)

	return &App{
		checkoutSvc:    checkoutSvc,
		notifySvc:      notifySvc,
		httpTransport:  httpTransport,
		grpcTransport:  grpcTransport,
		outboxWorker:   outboxWorker,
		broker:         broker,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// mustNewPublisher picks the broker named by events.broker.
func mustNewPublisher() (ieventpublisher.IEventPublisher, io.Closer) {
	switch broker := viper.GetString("events.broker"); broker {
	case "kafka":
		publisher := kafkapublisher.NewPublisher(kafka.MustNewClient())

		return publisher, publisher
	case "rabbitmq":
		client := rabbitmq.MustNewClient()

		return rabbitmqpublisher.NewPublisher(client), client
	default:
		panic("unknown events.broker: " + broker)
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.httpTransport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		if err := a.grpcTransport.Run(ctx); err != nil {
			slog.Error("gRPC server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops intake first, then waits for in-flight confirmations
// before closing the broker, PostgreSQL and OpenTelemetry.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.httpTransport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	if err := a.notifySvc.Wait(ctx); err != nil {
		slog.Error("Pending order confirmations were abandoned", "error", err)
	} else {
		slog.Info("Order confirmations flushed")
	}

	if err := a.broker.Close(); err != nil {
		slog.Error("Message broker close error", "error", err)
	} else {
		slog.Info("Message broker connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
