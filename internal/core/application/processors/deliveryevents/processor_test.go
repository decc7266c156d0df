package deliveryevents_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"grubdash/internal/core/application/processors/deliveryevents"
	"grubdash/internal/core/domain/model/delivery"
	"grubdash/internal/core/domain/model/kernel"
	"grubdash/internal/core/domain/services"
	"grubdash/internal/core/ports"
	"grubdash/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Add(ctx context.Context, aggregate *delivery.Delivery) (bool, error) {
	args := m.Called(ctx, aggregate)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeliveryRepository) Get(ctx context.Context, id string) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) UpdateStatus(ctx context.Context, id string, from, to delivery.Status, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, at)
	return args.Bool(0), args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, message ports.OutboundMessage) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

type MockPartnerPresence struct{ mock.Mock }

func (m *MockPartnerPresence) SetOnline(ctx context.Context, partnerID string, location kernel.GeoPoint, at time.Time) error {
	args := m.Called(ctx, partnerID, location, at)
	return args.Error(0)
}

func (m *MockPartnerPresence) SetOffline(ctx context.Context, partnerID string) error {
	args := m.Called(ctx, partnerID)
	return args.Error(0)
}

func (m *MockPartnerPresence) Nearby(ctx context.Context, origin kernel.GeoPoint, radiusKm float64) ([]services.PartnerCandidate, error) {
	args := m.Called(ctx, origin, radiusKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.PartnerCandidate), args.Error(1)
}

func (m *MockPartnerPresence) MarkEngaged(ctx context.Context, partnerID string, orderIDs []string, at time.Time) error {
	args := m.Called(ctx, partnerID, orderIDs, at)
	return args.Error(0)
}

func (m *MockPartnerPresence) SweepStale(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func storedDelivery(t *testing.T, status delivery.Status, orderIDs ...string) *delivery.Delivery {
	t.Helper()

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	aggregate, err := delivery.RestoreDelivery(
		"delivery-1", "partner-1", orderIDs, status, created, created)
	require.NoError(t, err)
	return aggregate
}

func newProcessor(deliveries *MockDeliveryRepository, publisher *MockEventPublisher, presence *MockPartnerPresence) *deliveryevents.Processor {
	return deliveryevents.NewProcessor(deliveries, publisher, presence, "order-events", testLogger())
}

func TestProcessor_HandleAssigned(t *testing.T) {
	ctx := context.Background()
	at := time.Now().UTC()
	body := []byte(`{
		"status": "dp_assigned",
		"delivery_id": "delivery-1",
		"partner_id": "partner-1",
		"orders": [{"order_id": "O1"}, {"order_id": "O2"}]
	}`)

	t.Run("creates the delivery", func(t *testing.T) {
		deliveries := &MockDeliveryRepository{}
		deliveries.On("Add", ctx, mock.MatchedBy(func(aggregate *delivery.Delivery) bool {
			return aggregate.ID() == "delivery-1" &&
				aggregate.PartnerID() == "partner-1" &&
				aggregate.Status() == delivery.Assigned &&
				len(aggregate.OrderIDs()) == 2
		})).Return(true, nil)

		processor := newProcessor(deliveries, &MockEventPublisher{}, &MockPartnerPresence{})
		require.NoError(t, processor.HandleAssigned(ctx, body, at))
		deliveries.AssertExpectations(t)
	})

	t.Run("duplicate assignment is a no-op", func(t *testing.T) {
		deliveries := &MockDeliveryRepository{}
		deliveries.On("Add", ctx, mock.Anything).Return(false, nil)

		processor := newProcessor(deliveries, &MockEventPublisher{}, &MockPartnerPresence{})
		require.NoError(t, processor.HandleAssigned(ctx, body, at))
	})

	t.Run("missing partner id is fatal", func(t *testing.T) {
		processor := newProcessor(&MockDeliveryRepository{}, &MockEventPublisher{}, &MockPartnerPresence{})
		err := processor.HandleAssigned(ctx, []byte(`{"status":"dp_assigned","delivery_id":"delivery-1","orders":[{"order_id":"O1"}]}`), at)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestProcessor_HandleConfirmed(t *testing.T) {
	ctx := context.Background()
	at := time.Now().UTC()
	body := []byte(`{"status":"dp_confirmed","delivery_id":"delivery-1"}`)

	t.Run("fans out one message per order with the delivery id", func(t *testing.T) {
		deliveries := &MockDeliveryRepository{}
		deliveries.On("Get", ctx, "delivery-1").Return(storedDelivery(t, delivery.Assigned, "O1", "O2", "O3"), nil)
		deliveries.On("UpdateStatus", ctx, "delivery-1", delivery.Assigned, delivery.Confirmed, at).Return(true, nil)

		publisher := &MockEventPublisher{}
		var seen []ports.OutboundMessage
		publisher.On("Publish", ctx, mock.Anything).Run(func(args mock.Arguments) {
			seen = append(seen, args.Get(1).(ports.OutboundMessage))
		}).Return(nil)

		processor := newProcessor(deliveries, publisher, &MockPartnerPresence{})
		require.NoError(t, processor.HandleConfirmed(ctx, body, at))

		require.Len(t, seen, 3)
		for i, orderID := range []string{"O1", "O2", "O3"} {
			var payload map[string]any
			require.NoError(t, json.Unmarshal(seen[i].Body, &payload))
			assert.Equal(t, "order-events", seen[i].Queue)
			assert.Equal(t, orderID+"|dp_confirmed", seen[i].GroupKey)
			assert.Equal(t, orderID, payload["order_id"])
			assert.Equal(t, "delivery-1", payload["delivery_id"])
			assert.Equal(t, "dp_confirmed", payload["status"])
		}
	})

	t.Run("duplicate delivery does not fan out twice", func(t *testing.T) {
		deliveries := &MockDeliveryRepository{}
		deliveries.On("Get", ctx, "delivery-1").Return(storedDelivery(t, delivery.Confirmed, "O1"), nil)

		publisher := &MockEventPublisher{}
		processor := newProcessor(deliveries, publisher, &MockPartnerPresence{})
		require.NoError(t, processor.HandleConfirmed(ctx, body, at))
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("missing delivery drops the event", func(t *testing.T) {
		deliveries := &MockDeliveryRepository{}
		deliveries.On("Get", ctx, "delivery-1").Return(nil, errs.NewObjectNotFoundError("delivery_id", "delivery-1"))

		processor := newProcessor(deliveries, &MockEventPublisher{}, &MockPartnerPresence{})
		require.NoError(t, processor.HandleConfirmed(ctx, body, at))
	})

	t.Run("one failed fan-out does not stop the siblings", func(t *testing.T) {
		deliveries := &MockDeliveryRepository{}
		deliveries.On("Get", ctx, "delivery-1").Return(storedDelivery(t, delivery.Assigned, "O1", "O2"), nil)
		deliveries.On("UpdateStatus", ctx, "delivery-1", delivery.Assigned, delivery.Confirmed, at).Return(true, nil)

		publisher := &MockEventPublisher{}
		publisher.On("Publish", ctx, mock.MatchedBy(func(message ports.OutboundMessage) bool {
			return message.GroupKey == "O1|dp_confirmed"
		})).Return(errors.New("broker down"))
		publisher.On("Publish", ctx, mock.MatchedBy(func(message ports.OutboundMessage) bool {
			return message.GroupKey == "O2|dp_confirmed"
		})).Return(nil).Once()

		processor := newProcessor(deliveries, publisher, &MockPartnerPresence{})
		require.NoError(t, processor.HandleConfirmed(ctx, body, at))
		publisher.AssertExpectations(t)
	})
}

func TestProcessor_HandleOrderReceived(t *testing.T) {
	ctx := context.Background()
	at := time.Now().UTC()
	body := []byte(`{"status":"dp_order_received","delivery_id":"delivery-1"}`)

	deliveries := &MockDeliveryRepository{}
	deliveries.On("Get", ctx, "delivery-1").Return(storedDelivery(t, delivery.Confirmed, "O1"), nil)
	deliveries.On("UpdateStatus", ctx, "delivery-1", delivery.Confirmed, delivery.OrderReceived, at).Return(true, nil)

	publisher := &MockEventPublisher{}
	publisher.On("Publish", ctx, mock.MatchedBy(func(message ports.OutboundMessage) bool {
		var payload map[string]any
		require.NoError(t, json.Unmarshal(message.Body, &payload))
		_, hasDeliveryID := payload["delivery_id"]
		return message.GroupKey == "O1|dp_order_received" &&
			payload["status"] == "dp_order_received" &&
			!hasDeliveryID
	})).Return(nil).Once()

	processor := newProcessor(deliveries, publisher, &MockPartnerPresence{})
	require.NoError(t, processor.HandleOrderReceived(ctx, body, at))
	publisher.AssertExpectations(t)
}

func TestProcessor_HandleDelivered(t *testing.T) {
	ctx := context.Background()
	at := time.Now().UTC()
	body := []byte(`{"status":"dp_delivered","delivery_id":"delivery-1"}`)

	t.Run("marks the partner offline and fans out delivered", func(t *testing.T) {
		deliveries := &MockDeliveryRepository{}
		deliveries.On("Get", ctx, "delivery-1").Return(storedDelivery(t, delivery.OrderReceived, "O1", "O2"), nil)
		deliveries.On("UpdateStatus", ctx, "delivery-1", delivery.OrderReceived, delivery.Delivered, at).Return(true, nil)

		presence := &MockPartnerPresence{}
		presence.On("SetOffline", ctx, "partner-1").Return(nil)

		publisher := &MockEventPublisher{}
		publisher.On("Publish", ctx, mock.MatchedBy(func(message ports.OutboundMessage) bool {
			var payload map[string]any
			require.NoError(t, json.Unmarshal(message.Body, &payload))
			return payload["status"] == "delivered" &&
				message.GroupKey == payload["order_id"].(string)+"|delivered"
		})).Return(nil).Twice()

		processor := newProcessor(deliveries, publisher, presence)
		require.NoError(t, processor.HandleDelivered(ctx, body, at))
		presence.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("presence failure does not block the transition", func(t *testing.T) {
		deliveries := &MockDeliveryRepository{}
		deliveries.On("Get", ctx, "delivery-1").Return(storedDelivery(t, delivery.OrderReceived, "O1"), nil)
		deliveries.On("UpdateStatus", ctx, "delivery-1", delivery.OrderReceived, delivery.Delivered, at).Return(true, nil)

		presence := &MockPartnerPresence{}
		presence.On("SetOffline", ctx, "partner-1").Return(errors.New("redis down"))

		publisher := &MockEventPublisher{}
		publisher.On("Publish", ctx, mock.Anything).Return(nil).Once()

		processor := newProcessor(deliveries, publisher, presence)
		require.NoError(t, processor.HandleDelivered(ctx, body, at))
		publisher.AssertExpectations(t)
	})
}
