package service_test

import (
	"context"
	"testing"
	"time"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"
	"quickbar/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const demoVenue = "demo"

func newTestLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func boolPtr(b bool) *bool { return &b }

// seedDemo stores the demo venue and a three item menu where the dessert is unavailable.
func seedDemo(t *testing.T, store docstore.Store, ordersOpen *bool) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, domain.VenuesCollection, demoVenue, domain.Venue{
		Name:       "Le Demo",
		WifiSSID:   "demo-wifi",
		OrdersOpen: ordersOpen,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}))

	menu := map[string]domain.MenuItem{
		"biere":  {Name: "Bière", Price: 5.5, Category: domain.CategoryBeverage, Available: true},
		"frites": {Name: "Frites", Price: 3.25, Category: domain.CategoryDish, Available: true},
		"tarte":  {Name: "Tarte", Price: 4, Category: domain.CategoryDessert, Available: false},
	}
	for id, item := range menu {
		require.NoError(t, store.Set(ctx, domain.MenuCollection(demoVenue), id, item))
	}
}

func waitForScreen(t *testing.T, s *service.CustomerSession, want service.Screen) service.CustomerView {
	t.Helper()
	var view service.CustomerView
	require.Eventually(t, func() bool {
		view = s.View()
		return view.Screen == want
	}, 2*time.Second, 5*time.Millisecond, "waiting for screen %s", want)
	return view
}

// failingStore rejects writes with the configured errors.
type failingStore struct {
	docstore.Store
	createErr error
	updateErr error
	deleteErr error
}

func (s *failingStore) Create(ctx context.Context, collection string, data any) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	return s.Store.Create(ctx, collection, data)
}

func (s *failingStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Store.Update(ctx, collection, id, fields)
}

func (s *failingStore) Delete(ctx context.Context, collection, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, collection, id)
}
