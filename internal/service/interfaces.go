package service

import (
	"context"
	"time"

	"quickbar/internal/domain"
)

// SessionStorage is device-scoped key/value storage remembering the in-flight order.
type SessionStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev domain.OrderEvent) error
}

type StatsStore interface {
	Record(ctx context.Context, ev domain.OrderEvent) error
	Revenue(ctx context.Context) (float64, error)
}

// StatsReader serves the per-venue counters kept by the stats worker.
type StatsReader interface {
	Daily(ctx context.Context, venueID string, day time.Time) (domain.VenueStats, error)
	VenueRevenue(ctx context.Context, venueID string) (float64, error)
}

type QRGenerator interface {
	Generate(venueID string) ([]byte, error)
}

// RoleLookup reads the role record of an identity. A missing record is not an error.
type RoleLookup interface {
	LookupRole(ctx context.Context, uid string) (domain.UserRole, bool, error)
}

type MenuServiceInterface interface {
	List(ctx context.Context, venueID string) ([]domain.MenuItem, error)
	Add(ctx context.Context, venueID string, input MenuItemInput) (*domain.MenuItem, error)
	Edit(ctx context.Context, venueID, itemID string, input MenuItemInput) error
	ToggleAvailability(ctx context.Context, venueID, itemID string) (bool, error)
	Delete(ctx context.Context, venueID, itemID string) error
}

type VenueServiceInterface interface {
	List(ctx context.Context) ([]domain.Venue, error)
	Get(ctx context.Context, id string) (*domain.Venue, error)
	Create(ctx context.Context, input VenueInput) (*domain.Venue, error)
	Update(ctx context.Context, id string, input VenueInput) error
	Delete(ctx context.Context, id string) error
	StartInfo(ctx context.Context, id string) StartInfo
	Dashboard(ctx context.Context) (*Dashboard, error)
}

var (
	_ MenuServiceInterface  = (*MenuService)(nil)
	_ VenueServiceInterface = (*VenueService)(nil)
	_ RoleLookup            = (*RetryingLookup)(nil)
	_ RoleLookup            = (*StoreRoleLookup)(nil)
)
