package notifysvc

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/corray333/backend-labs/checkout/internal/config"
	"github.com/corray333/backend-labs/checkout/internal/metrics"
	"github.com/corray333/backend-labs/checkout/internal/service/models/address"
	"github.com/corray333/backend-labs/checkout/internal/service/models/mail"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"go.opentelemetry.io/otel"
)

//go:embed templates
var templates embed.FS

// ErrNotConfigured is reported when no email provider is set up.
var ErrNotConfigured = errors.New("email provider is not configured")

// Sender delivers a rendered email.
type Sender interface {
	Send(ctx context.Context, msg mail.Message) error
}

// NotificationService sends order confirmation emails.
type NotificationService struct {
	sender Sender
	cfg    config.Checkout
	html   *htmltemplate.Template
	text   *texttemplate.Template
	wg     sync.WaitGroup
}

// option is a function that configures the NotificationService.
type option func(*NotificationService)

// MustNewNotificationService creates a new NotificationService.
func MustNewNotificationService(opts ...option) *NotificationService {
	s := &NotificationService{
		cfg:  config.DefaultCheckout(),
		html: htmltemplate.Must(htmltemplate.ParseFS(templates, "templates/order_confirmation.html")),
		text: texttemplate.Must(texttemplate.ParseFS(templates, "templates/order_confirmation.txt")),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithSender sets the email provider. Without one, confirmations are only logged.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSender(sender Sender) option {
	return func(s *NotificationService) {
		s.sender = sender
	}
}

// WithConfig sets the store settings for the NotificationService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithConfig(cfg config.Checkout) option {
	return func(s *NotificationService) {
		s.cfg = cfg
	}
}

type lineData struct {
	Title    string
	Subtitle string
	Quantity int
	Total    string
}

type confirmationData struct {
	StoreName      string
	OrderNumber    string
	Items          []lineData
	Subtotal       string
	Shipping       string
	ShippingMethod string
	Total          string
	Address        address.Address
	Country        string
	Note           string
}

// Render builds the confirmation email for a placed order.
func (s *NotificationService) Render(o *order.Order) (mail.Message, error) {
	number := order.FormatDisplayNumber(s.cfg.OrderNumberPrefix, o.DisplayID)

	data := confirmationData{
		StoreName:      s.cfg.StoreName,
		OrderNumber:    number,
		Items:          make([]lineData, len(o.OrderItems)),
		Subtotal:       o.CurrencyCode.Format(o.Subtotal),
		Shipping:       "Complimentary",
		ShippingMethod: o.ShippingMethod,
		Total:          o.CurrencyCode.Format(o.Total),
		Address:        o.ShippingAddress,
		Country:        strings.ToUpper(o.ShippingAddress.CountryCode),
	}
	if o.ShippingTotal > 0 {
		data.Shipping = o.CurrencyCode.Format(o.ShippingTotal)
	}
	if note, ok := o.Metadata[order.MetadataNoteKey].(string); ok {
		data.Note = note
	}
	for i, item := range o.OrderItems {
		data.Items[i] = lineData{
			Title:    item.Title,
			Subtitle: item.Subtitle,
			Quantity: item.Quantity,
			Total:    o.CurrencyCode.Format(item.Total),
		}
	}

	var html, text bytes.Buffer
	if err := s.html.Execute(&html, data); err != nil {
		return mail.Message{}, fmt.Errorf("failed to render confirmation html: %w", err)
	}
	if err := s.text.Execute(&text, data); err != nil {
		return mail.Message{}, fmt.Errorf("failed to render confirmation text: %w", err)
	}

	subject := "Order confirmation " + number
	if s.cfg.StoreName != "" {
		subject = s.cfg.StoreName + ": " + subject
	}

	return mail.Message{
		To:      o.Email,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

// Send renders and sends the confirmation synchronously.
func (s *NotificationService) Send(ctx context.Context, o *order.Order) error {
	ctx, span := otel.Tracer("service").Start(ctx, "NotificationService.Send")
	defer span.End()

	if s.sender == nil {
		return ErrNotConfigured
	}

	msg, err := s.Render(o)
	if err != nil {
		return err
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

// Dispatch sends the confirmation in the background and returns immediately.
// The send is detached from any request and bounded by the notification timeout.
// Failures are logged.
func (s *NotificationService) Dispatch(o order.Order) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				metrics.Notifications.WithLabelValues("failed").Inc()
				slog.Error("Order confirmation panicked", "order_id", o.ID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotificationTimeout)
		defer cancel()

		err := s.Send(ctx, &o)
		switch {
		case errors.Is(err, ErrNotConfigured):
			metrics.Notifications.WithLabelValues("skipped").Inc()
			slog.Info("Email provider not configured, skipping order confirmation", "order_id", o.ID)
		case err != nil:
			metrics.Notifications.WithLabelValues("failed").Inc()
			slog.Error("Failed to send order confirmation", "order_id", o.ID, "error", err)
		default:
			metrics.Notifications.WithLabelValues("sent").Inc()
			slog.Info("Order confirmation sent", "order_id", o.ID)
		}
	}()
}

// Wait blocks until in-flight confirmations finish or ctx is done.
func (s *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
