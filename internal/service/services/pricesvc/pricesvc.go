package pricesvc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corray333/backend-labs/checkout/internal/config"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/checkout/internal/metrics"
	"github.com/corray333/backend-labs/checkout/internal/service/models/checkout"
	"github.com/corray333/backend-labs/checkout/internal/service/models/currency"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// PricedLine is a cart line after price verification.
type PricedLine struct {
	// ProductID is nil when the line did not resolve to a catalog product.
	ProductID *uuid.UUID
	UnitPrice int64
}

// PriceService is the single place where catalog prices are read and converted to minor units.
type PriceService struct {
	catalogRepo    icatalogrepo.ICatalogRepository
	currency       currency.Currency
	rejectUnpriced bool
}

// option is a function that configures the PriceService.
type option func(*PriceService)

// MustNewPriceService creates a new PriceService.
func MustNewPriceService(opts ...option) *PriceService {
	s := &PriceService{
		currency: currency.CurrencyEUR,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.catalogRepo == nil {
		panic("price service requires a catalog repository")
	}

	return s
}

// WithCatalogRepository sets the catalog repository for the PriceService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCatalogRepository(repo icatalogrepo.ICatalogRepository) option {
	return func(s *PriceService) {
		s.catalogRepo = repo
	}
}

// WithConfig applies the store currency and the unresolved item policy.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithConfig(cfg config.Checkout) option {
	return func(s *PriceService) {
		s.currency = cfg.Currency
		s.rejectUnpriced = cfg.RejectUnresolvedItems
	}
}

// CatalogID reports whether a client product identifier has the shape of a catalog id.
func CatalogID(raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

// AuthoritativePrices returns the primary variant price in minor units for every
// recognized product among ids. Unrecognized ids are absent from the result.
func (s *PriceService) AuthoritativePrices(
	ctx context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]int64, error) {
	prices := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	variants, err := s.catalogRepo.PrimaryVariantPrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog prices: %w", err)
	}

	for _, v := range variants {
		prices[v.ProductID] = s.currency.ToMinor(v.Amount)
	}

	return prices, nil
}

// PriceLines verifies the unit price of every cart line. Lines whose product the
// catalog knows always take the catalog price. The rest keep the client price, or
// fail with checkout.ErrUnrecognizedItem when the service is configured to reject them.
func (s *PriceService) PriceLines(ctx context.Context, lines []checkout.CartLine) ([]PricedLine, error) {
	ctx, span := otel.Tracer("service").Start(ctx, "PriceService.PriceLines")
	defer span.End()

	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		id, ok := CatalogID(line.ProductID)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	prices, err := s.AuthoritativePrices(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	priced := make([]PricedLine, len(lines))
	fallbacks := 0
	for i, line := range lines {
		id, ok := CatalogID(line.ProductID)
		if ok {
			if price, found := prices[id]; found {
				productID := id
				priced[i] = PricedLine{ProductID: &productID, UnitPrice: price}
				continue
			}
		}

		if s.rejectUnpriced {
			slog.Warn("Rejecting unrecognized cart line", "product_id", line.ProductID, "handle", line.Handle)
			return nil, fmt.Errorf("%w: %q", checkout.ErrUnrecognizedItem, line.ProductID)
		}

		slog.Warn("Cart line not found in catalog, using client price",
			"product_id", line.ProductID,
			"handle", line.Handle,
			"client_price", line.Price,
		)
		metrics.PriceFallbacks.Inc()
		fallbacks++
		priced[i] = PricedLine{UnitPrice: line.Price}
	}

	span.SetAttributes(
		attribute.Int("lines", len(lines)),
		attribute.Int("fallbacks", fallbacks),
	)

	return priced, nil
}
