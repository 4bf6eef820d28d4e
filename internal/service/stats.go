package service

import (
	"context"
	"encoding/json"
	"errors"

	"quickbar/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// StatsConsumer folds order lifecycle events into the stats store.
type StatsConsumer struct {
	Reader *kafka.Reader
	Store  StatsStore
	Log    logrus.FieldLogger
}

func NewStatsConsumer(reader *kafka.Reader, store StatsStore, log logrus.FieldLogger) *StatsConsumer {
	return &StatsConsumer{
		Reader: reader,
		Store:  store,
		Log:    log,
	}
}

// Start reads events until ctx is done.
func (c *StatsConsumer) Start(ctx context.Context) {
	c.Log.Info("starting stats consumer")
	for {
		message, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.Log.Info("stats consumer stopped")
				return
			}
			c.Log.WithError(err).Error("error reading message")
			continue
		}

		var ev domain.OrderEvent
		if err := json.Unmarshal(message.Value, &ev); err != nil {
			c.Log.WithError(err).WithField("offset", message.Offset).Warn("error unmarshaling message")
			continue
		}

		c.ProcessEvent(ctx, ev)
	}
}

func (c *StatsConsumer) ProcessEvent(ctx context.Context, ev domain.OrderEvent) {
	switch ev.Type {
	case domain.EventOrderCreated, domain.EventOrderReady, domain.EventOrderCollected:
	default:
		c.Log.WithField("type", ev.Type).Debug("ignoring event")
		return
	}

	log := c.Log.WithFields(logrus.Fields{"type": ev.Type, "venue": ev.VenueID, "order": ev.OrderID})
	if err := c.Store.Record(ctx, ev); err != nil {
		log.WithError(err).Error("error recording stats")
		return
	}
	log.Debug("recorded order event")
}
