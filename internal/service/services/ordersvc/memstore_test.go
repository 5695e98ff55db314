package ordersvc

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/checkout/internal/dal/interfaces/ishippingoptionrepo"
	"github.com/corray333/backend-labs/checkout/internal/service/models/order"
	"github.com/corray333/backend-labs/checkout/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/checkout/internal/service/models/outbox"
	"github.com/corray333/backend-labs/checkout/internal/service/models/shippingoption"
	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the orders database. Writes made inside a
// transaction only become visible on Commit.
type memStore struct {
	mu            sync.Mutex
	orders        []order.Order
	items         []orderitem.OrderItem
	outbox        []outbox.OutboxMessage
	nextDisplayID int64

	failItems  error
	failOutbox error

	commits   int
	rollbacks int
	queries   int
}

func (m *memStore) newUOW() unitOfWork {
	return &memUOW{store: m}
}

type memUOW struct {
	store  *memStore
	inTx   bool
	closed bool

	orders []order.Order
	items  []orderitem.OrderItem
	outbox []outbox.OutboxMessage
}

func (u *memUOW) Begin(context.Context) error {
	u.inTx = true
	return nil
}

func (u *memUOW) Commit(context.Context) error {
	if !u.inTx || u.closed {
		return nil
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	u.store.orders = append(u.store.orders, u.orders...)
	u.store.items = append(u.store.items, u.items...)
	u.store.outbox = append(u.store.outbox, u.outbox...)
	u.store.commits++
	u.closed = true

	return nil
}

func (u *memUOW) Rollback(context.Context) error {
	if !u.inTx || u.closed {
		return nil
	}

	u.store.mu.Lock()
	u.store.rollbacks++
	u.store.mu.Unlock()

	u.orders, u.items, u.outbox = nil, nil, nil
	u.closed = true

	return nil
}

func (u *memUOW) OrderRepository() iorderrepo.IOrderRepository {
	return memOrderRepo{u}
}

func (u *memUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return memOrderItemRepo{u}
}

func (u *memUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return memOutboxRepo{u}
}

type memOrderRepo struct{ u *memUOW }

func (r memOrderRepo) Insert(_ context.Context, o order.Order) (order.Order, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.IdempotencyKey != "" {
		for _, existing := range s.orders {
			if existing.IdempotencyKey == o.IdempotencyKey {
				return order.Order{}, iorderrepo.ErrIdempotencyConflict
			}
		}
	}

	s.nextDisplayID++
	o.ID = uuid.New()
	o.DisplayID = s.nextDisplayID
	o.CreatedAt = time.Now().UTC()
	o.OrderItems = []orderitem.OrderItem{}

	if r.u.inTx {
		r.u.orders = append(r.u.orders, o)
	} else {
		s.orders = append(s.orders, o)
	}

	return o, nil
}

func (r memOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries++

	var out []order.Order
	for _, o := range s.orders {
		if len(filter.Ids) > 0 && !slices.Contains(filter.Ids, o.ID) {
			continue
		}
		if len(filter.DisplayIds) > 0 && !slices.Contains(filter.DisplayIds, o.DisplayID) {
			continue
		}
		if len(filter.Emails) > 0 && !slices.Contains(filter.Emails, o.Email) {
			continue
		}
		if len(filter.IdempotencyKeys) > 0 && !slices.Contains(filter.IdempotencyKeys, o.IdempotencyKey) {
			continue
		}
		out = append(out, o)
	}

	return out, nil
}

func (r memOrderRepo) AttachCustomer(context.Context, uuid.UUID, string) (int64, error) {
	return 0, nil
}

type memOrderItemRepo struct{ u *memUOW }

func (r memOrderItemRepo) BulkInsert(_ context.Context, items []orderitem.OrderItem) ([]orderitem.OrderItem, error) {
	if err := r.u.store.failItems; err != nil {
		return nil, err
	}

	out := make([]orderitem.OrderItem, len(items))
	for i, item := range items {
		item.ID = uuid.New()
		item.CreatedAt = time.Now().UTC()
		out[i] = item
	}
	r.u.items = append(r.u.items, out...)

	return out, nil
}

func (r memOrderItemRepo) Query(_ context.Context, filter *orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	s := r.u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []orderitem.OrderItem
	for _, item := range s.items {
		if len(filter.OrderIds) > 0 && !slices.Contains(filter.OrderIds, item.OrderID) {
			continue
		}
		out = append(out, item)
	}

	return out, nil
}

type memOutboxRepo struct{ u *memUOW }

func (r memOutboxRepo) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	if err := r.u.store.failOutbox; err != nil {
		return err
	}
	r.u.outbox = append(r.u.outbox, msg)

	return nil
}

func (r memOutboxRepo) GetPendingMessages(context.Context, int) ([]outbox.OutboxMessage, error) {
	return nil, nil
}

func (r memOutboxRepo) Delete(context.Context, int64) error {
	return nil
}

func (r memOutboxRepo) UpdateRetry(context.Context, int64, int, string, time.Time) error {
	return nil
}

type fakeShippingOptions map[uuid.UUID]string

func (f fakeShippingOptions) GetByID(_ context.Context, id uuid.UUID) (*shippingoption.ShippingOption, error) {
	name, ok := f[id]
	if !ok {
		return nil, ishippingoptionrepo.ErrNotFound
	}

	return &shippingoption.ShippingOption{ID: id, Name: name}, nil
}
