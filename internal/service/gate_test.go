package service_test

import (
	"context"
	"testing"

	"quickbar/internal/docstore"
	"quickbar/internal/domain"
	"quickbar/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readVenue(t *testing.T, store docstore.Store, id string) domain.Venue {
	t.Helper()
	doc, err := store.Get(context.Background(), domain.VenuesCollection, id)
	require.NoError(t, err)
	var venue domain.Venue
	require.NoError(t, doc.DataTo(&venue))
	return venue
}

func TestVenueGate_Toggle(t *testing.T) {
	tests := []struct {
		name     string
		initial  *bool
		wantOpen bool
	}{
		{name: "missing flag counts as open", initial: nil, wantOpen: false},
		{name: "open to closed", initial: boolPtr(true), wantOpen: false},
		{name: "closed to open", initial: boolPtr(false), wantOpen: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			store := docstore.NewMemoryStore()
			seedDemo(t, store, testCase.initial)
			gate := service.NewVenueGate(store, newTestLogger())

			open, err := gate.Toggle(context.Background(), demoVenue)
			require.NoError(t, err)
			assert.Equal(t, testCase.wantOpen, open)

			venue := readVenue(t, store, demoVenue)
			assert.Equal(t, testCase.wantOpen, venue.AcceptsOrders())
			assert.NotNil(t, venue.OrdersUpdatedAt)
			assert.Equal(t, "Le Demo", venue.Name)
		})
	}
}

func TestVenueGate_UnknownVenue(t *testing.T) {
	gate := service.NewVenueGate(docstore.NewMemoryStore(), newTestLogger())

	_, err := gate.Toggle(context.Background(), "nowhere")
	assert.ErrorIs(t, err, service.ErrVenueNotFound)
	assert.ErrorIs(t, gate.SetOrdersOpen(context.Background(), "nowhere", true), service.ErrVenueNotFound)
}
