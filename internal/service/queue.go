package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"

	"github.com/sirupsen/logrus"
)

// BusyThreshold is the pending count from which the tablet shows a busy warning.
// The warning never changes the gate.
const BusyThreshold = 10

var ErrOrderNotFound = errors.New("order not found")

type QueueView struct {
	VenueID    string         `json:"venueId"`
	VenueName  string         `json:"venueName,omitempty"`
	Loading    bool           `json:"loading"`
	OrdersOpen bool           `json:"ordersOpen"`
	Busy       bool           `json:"busy"`
	Pending    []domain.Order `json:"pending"`
	Ready      []domain.Order `json:"ready"`
}

// StaffQueue is the tablet view of a venue: every order, newest first, split
// into pending and ready.
type StaffQueue struct {
	venueID   string
	store     docstore.Store
	gate      *VenueGate
	publisher EventPublisher
	log       logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	started     bool
	closed      bool
	orders      []domain.Order
	ordersReady bool
	venue       domain.Venue
	venueReady  bool
	subs        []func()

	changes notifier
}

func NewStaffQueue(venueID string, store docstore.Store, gate *VenueGate, publisher EventPublisher, log logrus.FieldLogger) *StaffQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &StaffQueue{
		venueID:   venueID,
		store:     store,
		gate:      gate,
		publisher: publisher,
		log:       log.WithField("venue", venueID),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func NewStaffRegistry(store docstore.Store, gate *VenueGate, publisher EventPublisher, log logrus.FieldLogger, idle time.Duration) *Registry[*StaffQueue] {
	return NewRegistry(func(venueID string) *StaffQueue {
		return NewStaffQueue(venueID, store, gate, publisher, log)
	}, idle, log)
}

func (q *StaffQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrSessionClosed
	}
	if q.started {
		return nil
	}

	ordersSub, err := q.store.WatchQuery(ctx, docstore.Collection(domain.OrdersCollection(q.venueID)).Sort("timestamp", docstore.Desc))
	if err != nil {
		return fmt.Errorf("watch orders: %w", err)
	}
	venueSub, err := q.store.WatchDocument(ctx, domain.VenuesCollection, q.venueID)
	if err != nil {
		ordersSub.Cancel()
		return fmt.Errorf("watch venue: %w", err)
	}
	q.subs = []func(){ordersSub.Cancel, venueSub.Cancel}

	q.wg.Add(2)
	go func() {
		defer q.wg.Done()
		follow(q.ctx, ordersSub, q.log.WithField("resource", "orders"), q.applyOrders)
	}()
	go func() {
		defer q.wg.Done()
		follow(q.ctx, venueSub, q.log.WithField("resource", "venue"), q.applyVenue)
	}()

	q.started = true
	return nil
}

func (q *StaffQueue) applyOrders(snap docstore.QuerySnapshot) {
	orders := make([]domain.Order, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var order domain.Order
		if err := doc.DataTo(&order); err != nil {
			q.log.WithError(err).WithField("order", doc.ID).Warn("skipping malformed order")
			continue
		}
		order.ID = doc.ID
		orders = append(orders, order)
	}

	q.mu.Lock()
	q.orders = orders
	q.ordersReady = true
	q.mu.Unlock()
	q.changes.broadcast()
}

func (q *StaffQueue) applyVenue(snap docstore.DocumentSnapshot) {
	var venue domain.Venue
	if snap.Exists {
		if err := snap.Document.DataTo(&venue); err != nil {
			q.log.WithError(err).Error("malformed venue document")
			return
		}
		venue.ID = snap.ID
	}

	q.mu.Lock()
	q.venue = venue
	q.venueReady = true
	q.mu.Unlock()
	q.changes.broadcast()
}

func (q *StaffQueue) View() QueueView {
	q.mu.Lock()
	defer q.mu.Unlock()

	view := QueueView{
		VenueID:    q.venueID,
		VenueName:  q.venue.Name,
		Loading:    !q.ordersReady || !q.venueReady,
		OrdersOpen: q.venue.AcceptsOrders(),
		Pending:    []domain.Order{},
		Ready:      []domain.Order{},
	}
	for _, order := range q.orders {
		switch order.Status {
		case domain.StatusPending:
			view.Pending = append(view.Pending, order)
		case domain.StatusReady:
			view.Ready = append(view.Ready, order)
		}
	}
	view.Busy = len(view.Pending) >= BusyThreshold
	return view
}

func (q *StaffQueue) readOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	doc, err := q.store.Get(ctx, domain.OrdersCollection(q.venueID), orderID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read order: %w", err)
	}
	var order domain.Order
	if err := doc.DataTo(&order); err != nil {
		return nil, err
	}
	order.ID = doc.ID
	return &order, nil
}

// MarkReady moves a pending order to ready.
func (q *StaffQueue) MarkReady(ctx context.Context, orderID string) error {
	order, err := q.readOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.TransitionTo(domain.StatusReady); err != nil {
		return err
	}

	err = q.store.Update(ctx, domain.OrdersCollection(q.venueID), orderID, map[string]any{"status": domain.StatusReady})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrOrderNotFound
	}
	if err != nil {
		q.log.WithError(err).WithField("order", orderID).Error("failed to mark order ready")
		return fmt.Errorf("update order: %w", err)
	}

	q.log.WithFields(logrus.Fields{"order": orderID, "number": order.Number}).Info("order ready")
	q.publish(ctx, domain.EventOrderReady, order)
	return nil
}

// Remove deletes an order after hand-off, whatever its status.
func (q *StaffQueue) Remove(ctx context.Context, orderID string) error {
	order, err := q.readOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if err := q.store.Delete(ctx, domain.OrdersCollection(q.venueID), orderID); err != nil {
		q.log.WithError(err).WithField("order", orderID).Error("failed to remove order")
		return fmt.Errorf("delete order: %w", err)
	}

	q.log.WithFields(logrus.Fields{"order": orderID, "number": order.Number}).Info("order collected")
	q.publish(ctx, domain.EventOrderCollected, order)
	return nil
}

func (q *StaffQueue) ToggleOrders(ctx context.Context) (bool, error) {
	return q.gate.Toggle(ctx, q.venueID)
}

func (q *StaffQueue) publish(ctx context.Context, eventType string, order *domain.Order) {
	if q.publisher == nil {
		return
	}
	err := q.publisher.PublishOrderEvent(ctx, domain.OrderEvent{
		Type:      eventType,
		VenueID:   q.venueID,
		OrderID:   order.ID,
		Number:    order.Number,
		Total:     order.Total,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		q.log.WithError(err).WithField("order", order.ID).Warn("failed to publish order event")
	}
}

func (q *StaffQueue) Changes() (<-chan struct{}, func()) {
	return q.changes.subscribe()
}

func (q *StaffQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, cancel := range q.subs {
		cancel()
	}
	q.subs = nil
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	q.changes.broadcast()
}
