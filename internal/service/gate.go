package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"

	"github.com/sirupsen/logrus"
)

// VenueGate flips the orders-open flag of a venue. Concurrent toggles are
// last-write-wins.
type VenueGate struct {
	store docstore.Store
	now   func() time.Time
	log   logrus.FieldLogger
}

func NewVenueGate(store docstore.Store, log logrus.FieldLogger) *VenueGate {
	return &VenueGate{store: store, now: time.Now, log: log}
}

func (g *VenueGate) SetOrdersOpen(ctx context.Context, venueID string, open bool) error {
	err := g.store.Update(ctx, domain.VenuesCollection, venueID, map[string]any{
		"ordersOpen":      open,
		"ordersUpdatedAt": g.now().UTC(),
	})
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrVenueNotFound
	}
	if err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	g.log.WithFields(logrus.Fields{"venue": venueID, "ordersOpen": open}).Info("orders gate changed")
	return nil
}

// Toggle inverts the flag as currently stored and returns the new value.
func (g *VenueGate) Toggle(ctx context.Context, venueID string) (bool, error) {
	doc, err := g.store.Get(ctx, domain.VenuesCollection, venueID)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, ErrVenueNotFound
	}
	if err != nil {
		return false, fmt.Errorf("read venue: %w", err)
	}
	var venue domain.Venue
	if err := doc.DataTo(&venue); err != nil {
		return false, err
	}

	open := !venue.AcceptsOrders()
	if err := g.SetOrdersOpen(ctx, venueID, open); err != nil {
		return false, err
	}
	return open, nil
}
