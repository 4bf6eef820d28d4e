package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending OrderStatus = "pending"
	StatusReady   OrderStatus = "ready"
)

const (
	MinLineQuantity = 1
	MaxLineQuantity = 20
)

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrEmptyOrder              = errors.New("order must contain at least one item")
	ErrNegativeTip             = errors.New("tip must not be negative")
)

// LineItem is a snapshot of a menu item taken when the order is placed.
type LineItem struct {
	MenuItemID string   `json:"id"`
	Name       string   `json:"name"`
	Price      float64  `json:"price"`
	Category   Category `json:"category,omitempty"`
	Quantity   int      `json:"quantity"`
}

type Order struct {
	ID        string      `json:"id,omitempty"`
	Number    string      `json:"number"`
	Items     []LineItem  `json:"items"`
	Subtotal  float64     `json:"subtotal"`
	Tip       float64     `json:"tip"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewOrder builds a pending order from line items and a tip, computing all amounts in cents.
func NewOrder(items []LineItem, tip float64, now time.Time) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if tip < 0 {
		return nil, ErrNegativeTip
	}
	for _, item := range items {
		if item.Quantity < MinLineQuantity || item.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%s: %w", item.Name, ErrQuantityOutOfRange)
		}
	}

	subtotal := Subtotal(items)
	tipAmount := Money(tip)

	return &Order{
		Number:    OrderNumber(now),
		Items:     items,
		Subtotal:  subtotal.InexactFloat64(),
		Tip:       tipAmount.InexactFloat64(),
		Total:     subtotal.Add(tipAmount).InexactFloat64(),
		Status:    StatusPending,
		Timestamp: now.UTC(),
	}, nil
}

// Subtotal sums round2(price) x quantity over every line.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(Money(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum.Round(2)
}

// BalancesTotal reports whether total == round2(subtotal) + round2(tip).
func (o Order) BalancesTotal() bool {
	return Money(o.Total).Equal(Money(o.Subtotal).Add(Money(o.Tip)))
}

// OrderNumber is the low six digits of the creation instant in Unix milliseconds.
// It is a display label only: two orders created 1000 seconds apart, or in two venues
// within the same millisecond, share a number. Orders are always looked up by document id.
func OrderNumber(t time.Time) string {
	return fmt.Sprintf("%06d", t.UnixMilli()%1_000_000)
}

func (o *Order) CanTransitionTo(next OrderStatus) bool {
	validTransitions := map[OrderStatus][]OrderStatus{
		StatusPending: {StatusReady},
		StatusReady:   {},
	}

	for _, s := range validTransitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (o *Order) TransitionTo(next OrderStatus) error {
	if !o.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}
	o.Status = next
	return nil
}

// Supersedes reports whether an observed status may replace the current one.
// A ready order never goes back to pending.
func (s OrderStatus) Supersedes(current OrderStatus) bool {
	if current == StatusReady {
		return s == StatusReady
	}
	return true
}
