package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotReady        = errors.New("venue is still loading")
	ErrVenueNotFound   = errors.New("venue not found")
	ErrOrdersClosed    = errors.New("orders are closed")
	ErrActiveOrder     = errors.New("an order is already in progress")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrUnknownItem     = errors.New("item is not on the menu")
	ErrItemUnavailable = errors.New("item is unavailable")
	ErrWrongScreen     = errors.New("action not available on this screen")
	ErrTipPercent      = errors.New("tip percentage must be 0-100")
	ErrSessionClosed   = errors.New("session closed")
)

// OrderNumberKey and OrderIDKey name the session storage entries of the in-flight order.
func OrderNumberKey(venueID string) string { return "currentOrderNumber_" + venueID }

func OrderIDKey(venueID string) string { return "currentOrderId_" + venueID }

type Screen string

const (
	ScreenLoading      Screen = "loading"
	ScreenNotFound     Screen = "not_found"
	ScreenClosed       Screen = "closed"
	ScreenMenu         Screen = "menu"
	ScreenTip          Screen = "tip"
	ScreenOrderWaiting Screen = "order_waiting"
	ScreenOrderPending Screen = "order_pending"
	ScreenOrderReady   Screen = "order_ready"
)

type phase int

const (
	phaseMenu phase = iota
	phaseTip
)

type MenuLine struct {
	domain.MenuItem
	Quantity  int  `json:"quantity"`
	Orderable bool `json:"orderable"`
}

type TipView struct {
	Presets  []int   `json:"presets"`
	Percent  *int    `json:"percent,omitempty"`
	Custom   string  `json:"custom"`
	Subtotal float64 `json:"subtotal"`
	Amount   float64 `json:"amount"`
	Total    float64 `json:"total"`
}

// CustomerView is everything the ordering screen renders.
type CustomerView struct {
	Screen          Screen        `json:"screen"`
	VenueID         string        `json:"venueId"`
	VenueName       string        `json:"venueName,omitempty"`
	Menu            []MenuLine    `json:"menu,omitempty"`
	OrderingEnabled bool          `json:"orderingEnabled"`
	ItemCount       int           `json:"itemCount"`
	Subtotal        float64       `json:"subtotal"`
	Tip             *TipView      `json:"tip,omitempty"`
	OrderNumber     string        `json:"orderNumber,omitempty"`
	Order           *domain.Order `json:"order,omitempty"`
}

type tipState struct {
	percent    int
	hasPercent bool
	custom     string
	amount     float64
}

// CustomerSession drives one device's ordering flow for one venue: the cart, the
// tip screen and the single in-flight order.
type CustomerSession struct {
	venueID   string
	store     docstore.Store
	storage   SessionStorage
	publisher EventPublisher
	now       func() time.Time
	log       logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	started     bool
	closed      bool
	menu        []domain.MenuItem
	menuLoaded  bool
	venue       domain.Venue
	venueLoaded bool
	venueExists bool
	cart        Cart
	phase       phase
	tip         tipState
	orderID     string
	orderNumber string
	order       *domain.Order
	subs        []func()
	orderSub    *docstore.Subscription[docstore.DocumentSnapshot]

	changes notifier
}

func NewCustomerSession(venueID string, store docstore.Store, storage SessionStorage, publisher EventPublisher, log logrus.FieldLogger) *CustomerSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &CustomerSession{
		venueID:   venueID,
		store:     store,
		storage:   storage,
		publisher: publisher,
		now:       time.Now,
		log:       log.WithField("venue", venueID),
		ctx:       ctx,
		cancel:    cancel,
		cart:      Cart{},
	}
}

// Start restores the in-flight order from session storage and opens the menu,
// venue and order subscriptions.
func (s *CustomerSession) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if s.started {
		return nil
	}

	number, hasNumber, err := s.storage.Get(ctx, OrderNumberKey(s.venueID))
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	id, hasID, err := s.storage.Get(ctx, OrderIDKey(s.venueID))
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	switch {
	case hasNumber && hasID && number != "" && id != "":
		s.orderID, s.orderNumber = id, number
		s.log.WithField("order", id).Info("resuming order from session")
	case hasNumber || hasID:
		s.log.Warn("incomplete session keys, clearing")
		s.clearStoredOrder(ctx)
	}

	menuQuery := docstore.Collection(domain.MenuCollection(s.venueID)).
		Sort("category", docstore.Asc).
		Sort("name", docstore.Asc)
	menuSub, err := s.store.WatchQuery(ctx, menuQuery)
	if err != nil {
		return fmt.Errorf("watch menu: %w", err)
	}
	venueSub, err := s.store.WatchDocument(ctx, domain.VenuesCollection, s.venueID)
	if err != nil {
		menuSub.Cancel()
		return fmt.Errorf("watch venue: %w", err)
	}
	s.subs = append(s.subs, menuSub.Cancel, venueSub.Cancel)

	s.goFollowQuery(menuSub, s.applyMenu)
	s.goFollowDoc(venueSub, s.log.WithField("resource", "venue"), s.applyVenue)

	if s.orderID != "" {
		if err := s.watchOrder(ctx, s.orderID); err != nil {
			return err
		}
	}

	s.started = true
	return nil
}

func (s *CustomerSession) goFollowQuery(sub *docstore.Subscription[docstore.QuerySnapshot], apply func(docstore.QuerySnapshot)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		follow(s.ctx, sub, s.log.WithField("resource", "menu"), apply)
	}()
}

func (s *CustomerSession) goFollowDoc(sub *docstore.Subscription[docstore.DocumentSnapshot], log logrus.FieldLogger, apply func(docstore.DocumentSnapshot)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		follow(s.ctx, sub, log, apply)
	}()
}

// watchOrder replaces the order subscription. Callers hold s.mu.
func (s *CustomerSession) watchOrder(ctx context.Context, orderID string) error {
	if s.orderSub != nil {
		s.orderSub.Cancel()
		s.orderSub = nil
	}
	sub, err := s.store.WatchDocument(ctx, domain.OrdersCollection(s.venueID), orderID)
	if err != nil {
		return fmt.Errorf("watch order: %w", err)
	}
	s.orderSub = sub
	s.goFollowDoc(sub, s.log.WithField("order", orderID), s.applyOrder)
	return nil
}

func (s *CustomerSession) applyMenu(snap docstore.QuerySnapshot) {
	items := make([]domain.MenuItem, 0, len(snap.Docs))
	for _, doc := range snap.Docs {
		var item domain.MenuItem
		if err := doc.DataTo(&item); err != nil {
			s.log.WithError(err).WithField("item", doc.ID).Warn("skipping malformed menu item")
			continue
		}
		item.ID = doc.ID
		items = append(items, item)
	}

	s.mu.Lock()
	s.menu = items
	s.menuLoaded = true
	s.mu.Unlock()
	s.changes.broadcast()
}

func (s *CustomerSession) applyVenue(snap docstore.DocumentSnapshot) {
	var venue domain.Venue
	if snap.Exists {
		if err := snap.Document.DataTo(&venue); err != nil {
			s.log.WithError(err).Error("malformed venue document")
			return
		}
		venue.ID = snap.ID
	}

	s.mu.Lock()
	s.venue = venue
	s.venueExists = snap.Exists
	s.venueLoaded = true
	s.mu.Unlock()
	s.changes.broadcast()
}

func (s *CustomerSession) applyOrder(snap docstore.DocumentSnapshot) {
	s.mu.Lock()
	if s.closed || snap.ID != s.orderID {
		s.mu.Unlock()
		return
	}

	if !snap.Exists {
		log := s.log.WithField("order", snap.ID)
		if s.orderSub != nil {
			s.orderSub.Cancel()
			s.orderSub = nil
		}
		s.orderID, s.orderNumber, s.order = "", "", nil
		s.cart = Cart{}
		s.tip = tipState{}
		s.phase = phaseMenu
		s.clearStoredOrder(s.ctx)
		s.mu.Unlock()

		log.Info("order removed, back to the menu")
		s.changes.broadcast()
		return
	}

	var order domain.Order
	if err := snap.Document.DataTo(&order); err != nil {
		s.mu.Unlock()
		s.log.WithError(err).WithField("order", snap.ID).Error("malformed order document")
		return
	}
	order.ID = snap.ID
	if s.order != nil && !order.Status.Supersedes(s.order.Status) {
		s.mu.Unlock()
		s.log.WithFields(logrus.Fields{"order": snap.ID, "status": order.Status}).Warn("ignoring status regression")
		return
	}
	s.order = &order
	s.mu.Unlock()
	s.changes.broadcast()
}

// clearStoredOrder removes both session keys. Callers hold s.mu.
func (s *CustomerSession) clearStoredOrder(ctx context.Context) {
	for _, key := range []string{OrderNumberKey(s.venueID), OrderIDKey(s.venueID)} {
		if err := s.storage.Remove(ctx, key); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("failed to clear session key")
		}
	}
}

// ordering reports whether new orders may be built. Callers hold s.mu.
func (s *CustomerSession) ordering() error {
	switch {
	case s.closed:
		return ErrSessionClosed
	case s.orderID != "":
		return ErrActiveOrder
	case !s.menuLoaded || !s.venueLoaded:
		return ErrNotReady
	case !s.venueExists:
		return ErrVenueNotFound
	case !s.venue.AcceptsOrders():
		return ErrOrdersClosed
	}
	return nil
}

func (s *CustomerSession) menuItem(id string) (domain.MenuItem, bool) {
	for _, item := range s.menu {
		if item.ID == id {
			return item, true
		}
	}
	return domain.MenuItem{}, false
}

// SetQuantity stores the clamped quantity for one menu item and returns it.
func (s *CustomerSession) SetQuantity(itemID, raw string) (int, error) {
	s.mu.Lock()
	if err := s.ordering(); err != nil {
		s.mu.Unlock()
		return 0, err
	}
	if s.phase != phaseMenu {
		s.mu.Unlock()
		return 0, ErrWrongScreen
	}
	item, ok := s.menuItem(itemID)
	if !ok {
		s.mu.Unlock()
		return 0, ErrUnknownItem
	}

	qty := ClampQuantity(raw)
	if qty > 0 && !item.Available {
		s.mu.Unlock()
		return 0, ErrItemUnavailable
	}
	if qty == 0 {
		delete(s.cart, itemID)
	} else {
		s.cart[itemID] = qty
	}
	s.mu.Unlock()

	s.changes.broadcast()
	return qty, nil
}

// checkCart validates the cart against the live menu. Callers hold s.mu.
func (s *CustomerSession) checkCart() ([]domain.LineItem, error) {
	lines := s.cart.Lines(s.menu)
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, line := range lines {
		if item, _ := s.menuItem(line.MenuItemID); !item.Available {
			return nil, fmt.Errorf("%s: %w", item.Name, ErrItemUnavailable)
		}
	}
	return lines, nil
}

// Checkout moves a non-empty cart to the tip screen.
func (s *CustomerSession) Checkout() error {
	s.mu.Lock()
	if err := s.ordering(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.phase != phaseMenu {
		s.mu.Unlock()
		return ErrWrongScreen
	}
	if _, err := s.checkCart(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.phase = phaseTip
	s.tip = tipState{}
	s.mu.Unlock()

	s.changes.broadcast()
	return nil
}

func (s *CustomerSession) SelectTipPercent(percent int) error {
	if percent < 0 || percent > 100 {
		return ErrTipPercent
	}

	s.mu.Lock()
	if s.phase != phaseTip || s.orderID != "" {
		s.mu.Unlock()
		return ErrWrongScreen
	}
	s.tip = tipState{
		percent:    percent,
		hasPercent: true,
		amount:     PercentTip(s.cart.Subtotal(s.menu), percent),
	}
	s.mu.Unlock()

	s.changes.broadcast()
	return nil
}

// SetCustomTip overrides any selected percentage with the parsed amount.
func (s *CustomerSession) SetCustomTip(raw string) error {
	s.mu.Lock()
	if s.phase != phaseTip || s.orderID != "" {
		s.mu.Unlock()
		return ErrWrongScreen
	}
	s.tip = tipState{custom: raw, amount: ParseCustomTip(raw)}
	s.mu.Unlock()

	s.changes.broadcast()
	return nil
}

// CancelTip returns to the menu and resets the tip. The cart is kept.
func (s *CustomerSession) CancelTip() error {
	s.mu.Lock()
	if s.phase != phaseTip {
		s.mu.Unlock()
		return ErrWrongScreen
	}
	s.phase = phaseMenu
	s.tip = tipState{}
	s.mu.Unlock()

	s.changes.broadcast()
	return nil
}

// tipAmount is the tip for the current subtotal. Callers hold s.mu.
func (s *CustomerSession) tipAmount() float64 {
	if s.tip.hasPercent {
		return PercentTip(s.cart.Subtotal(s.menu), s.tip.percent)
	}
	return s.tip.amount
}

// Confirm creates the order document. On failure nothing changes and the caller
// may try again.
func (s *CustomerSession) Confirm(ctx context.Context) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ordering(); err != nil {
		return nil, err
	}
	if s.phase != phaseTip {
		return nil, ErrWrongScreen
	}
	lines, err := s.checkCart()
	if err != nil {
		return nil, err
	}

	order, err := domain.NewOrder(lines, s.tipAmount(), s.now())
	if err != nil {
		return nil, err
	}

	id, err := s.store.Create(ctx, domain.OrdersCollection(s.venueID), order)
	if err != nil {
		s.log.WithError(err).Error("failed to create order")
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.ID = id
	log := s.log.WithFields(logrus.Fields{"order": id, "number": order.Number})

	if err := s.storage.Set(ctx, OrderNumberKey(s.venueID), order.Number); err != nil {
		log.WithError(err).Warn("failed to store order number")
	}
	if err := s.storage.Set(ctx, OrderIDKey(s.venueID), id); err != nil {
		log.WithError(err).Warn("failed to store order id")
	}

	s.orderID, s.orderNumber = id, order.Number
	s.order = nil
	s.phase = phaseMenu
	if err := s.watchOrder(ctx, id); err != nil {
		log.WithError(err).Error("failed to watch new order")
	}
	log.WithField("total", order.Total).Info("order created")

	if s.publisher != nil {
		if err := s.publisher.PublishOrderEvent(ctx, domain.OrderEvent{
			Type:      domain.EventOrderCreated,
			VenueID:   s.venueID,
			OrderID:   id,
			Number:    order.Number,
			Total:     order.Total,
			Timestamp: order.Timestamp,
		}); err != nil {
			log.WithError(err).Warn("failed to publish order event")
		}
	}

	s.changes.broadcast()
	return order, nil
}

// View renders the current state. An in-flight order takes precedence over
// every other screen.
func (s *CustomerSession) View() CustomerView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := CustomerView{VenueID: s.venueID, VenueName: s.venue.Name}

	if s.orderID != "" {
		view.OrderNumber = s.orderNumber
		if s.order == nil {
			view.Screen = ScreenOrderWaiting
			return view
		}
		order := *s.order
		view.Order = &order
		view.Screen = ScreenOrderPending
		if order.Status == domain.StatusReady {
			view.Screen = ScreenOrderReady
		}
		return view
	}

	switch {
	case !s.menuLoaded || !s.venueLoaded:
		view.Screen = ScreenLoading
		return view
	case !s.venueExists:
		view.Screen = ScreenNotFound
		return view
	}

	view.OrderingEnabled = s.venue.AcceptsOrders()
	view.Menu = make([]MenuLine, 0, len(s.menu))
	for _, item := range s.menu {
		view.Menu = append(view.Menu, MenuLine{
			MenuItem:  item,
			Quantity:  s.cart[item.ID],
			Orderable: view.OrderingEnabled && item.Available,
		})
	}
	subtotal := s.cart.Subtotal(s.menu)
	view.ItemCount = s.cart.ItemCount(s.menu)
	view.Subtotal = subtotal.InexactFloat64()

	switch {
	case !view.OrderingEnabled:
		view.Screen = ScreenClosed
	case s.phase == phaseTip:
		view.Screen = ScreenTip
		tip := &TipView{
			Presets:  TipPercentages,
			Custom:   s.tip.custom,
			Subtotal: view.Subtotal,
			Amount:   s.tipAmount(),
		}
		if s.tip.hasPercent {
			p := s.tip.percent
			tip.Percent = &p
		}
		tip.Total = subtotal.Add(domain.Money(tip.Amount)).InexactFloat64()
		view.Tip = tip
	default:
		view.Screen = ScreenMenu
	}
	return view
}

// Changes signals after every state change until the returned cancel is called.
func (s *CustomerSession) Changes() (<-chan struct{}, func()) {
	return s.changes.subscribe()
}

// Close cancels every subscription and waits for the followers to stop.
func (s *CustomerSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, cancel := range s.subs {
		cancel()
	}
	s.subs = nil
	if s.orderSub != nil {
		s.orderSub.Cancel()
		s.orderSub = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.changes.broadcast()
}

// NewCustomerRegistry keys customer sessions by CustomerKey.
func NewCustomerRegistry(store docstore.Store, storage func(deviceID string) SessionStorage, publisher EventPublisher, log logrus.FieldLogger, idle time.Duration) *Registry[*CustomerSession] {
	return NewRegistry(func(key string) *CustomerSession {
		deviceID, venueID, _ := strings.Cut(key, "/")
		return NewCustomerSession(venueID, store, storage(deviceID), publisher, log.WithField("device", deviceID))
	}, idle, log)
}
