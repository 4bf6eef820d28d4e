package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quickbar/internal/domain"
	"quickbar/internal/mocks"
	"quickbar/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestStatsConsumer_ProcessEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     domain.OrderEvent
		setup     func(*mocks.StatsStore)
		wantError bool
	}{
		{
			name:  "created",
			event: domain.OrderEvent{Type: domain.EventOrderCreated, VenueID: demoVenue, OrderID: "o1", Total: 12.5},
			setup: func(m *mocks.StatsStore) {
				m.On("Record", mock.Anything, mock.MatchedBy(func(ev domain.OrderEvent) bool { return ev.OrderID == "o1" })).Return(nil).Once()
			},
		},
		{
			name:  "collected",
			event: domain.OrderEvent{Type: domain.EventOrderCollected, VenueID: demoVenue, OrderID: "o1"},
			setup: func(m *mocks.StatsStore) {
				m.On("Record", mock.Anything, mock.Anything).Return(nil).Once()
			},
		},
		{
			name:  "store error",
			event: domain.OrderEvent{Type: domain.EventOrderReady, VenueID: demoVenue, OrderID: "o1"},
			setup: func(m *mocks.StatsStore) {
				m.On("Record", mock.Anything, mock.Anything).Return(errors.New("redis down")).Once()
			},
			wantError: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()
			store := mocks.NewStatsStore(t)
			testCase.setup(store)

			consumer := &service.StatsConsumer{Store: store, Log: logger}
			consumer.ProcessEvent(context.Background(), domain.OrderEvent{
				Type:      testCase.event.Type,
				VenueID:   testCase.event.VenueID,
				OrderID:   testCase.event.OrderID,
				Total:     testCase.event.Total,
				Timestamp: time.Now(),
			})

			if testCase.wantError {
				if assert.NotNil(t, hook.LastEntry()) {
					assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
				}
			}
		})
	}
}

func TestStatsConsumer_IgnoresUnknownEvents(t *testing.T) {
	store := mocks.NewStatsStore(t)
	consumer := &service.StatsConsumer{Store: store, Log: newTestLogger()}

	consumer.ProcessEvent(context.Background(), domain.OrderEvent{Type: "order_refunded", VenueID: demoVenue})
	store.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}
