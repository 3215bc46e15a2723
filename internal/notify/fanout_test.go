package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"match-service/internal/mocks"
	"match-service/internal/models"
)

type captureDeliverer struct {
	events []Event
}

func (d *captureDeliverer) DeliverToUser(ev Event) int {
	d.events = append(d.events, ev)
	return 1
}

func TestFanoutPersistsThenPublishes(t *testing.T) {
	inbox := new(mocks.NotificationRepositoryMock)
	publisher := new(mocks.PublisherMock)
	local := &captureDeliverer{}
	fanout := NewFanout(inbox, publisher, "amqp", local)

	inbox.On("CreateNotification", mock.Anything, int64(4), mock.AnythingOfType("string"), models.EventLikedYou, mock.Anything).
		Return(models.Notification{ID: 31}, nil).Once()
	publisher.On("Publish", mock.Anything, "notifications.user.4", mock.MatchedBy(func(ev Event) bool {
		return ev.UserID == 4 && ev.NotificationID == 31 && ev.Type == models.EventLikedYou && ev.ID != ""
	})).Return(nil).Once()

	err := fanout.Publish(context.Background(), 4, models.EventLikedYou, map[string]int64{"match_id": 9})
	require.NoError(t, err)

	inbox.AssertExpectations(t)
	publisher.AssertExpectations(t)
	assert.Empty(t, local.events)
}

func TestFanoutReturnsTransportError(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	fanout := NewFanout(nil, publisher, "amqp", nil)

	publisher.On("Publish", mock.Anything, "notifications.user.2", mock.Anything).Return(assert.AnError).Once()

	err := fanout.Publish(context.Background(), 2, models.EventNewMatch, nil)
	assert.ErrorIs(t, err, assert.AnError)
	publisher.AssertExpectations(t)
}

func TestFanoutInboxFailureStillDelivers(t *testing.T) {
	inbox := new(mocks.NotificationRepositoryMock)
	local := &captureDeliverer{}
	fanout := NewFanout(inbox, nil, "none", local)

	inbox.On("CreateNotification", mock.Anything, int64(5), mock.Anything, models.EventNewConnection, mock.Anything).
		Return(nil, assert.AnError).Once()

	require.NoError(t, fanout.Publish(context.Background(), 5, models.EventNewConnection, map[string]string{"k": "v"}))

	require.Len(t, local.events, 1)
	assert.Equal(t, int64(5), local.events[0].UserID)
	assert.Zero(t, local.events[0].NotificationID)
	assert.JSONEq(t, `{"k":"v"}`, string(local.events[0].Payload))
}

func TestFanoutUsesDistinctEventIDs(t *testing.T) {
	local := &captureDeliverer{}
	fanout := NewFanout(nil, nil, "none", local)

	require.NoError(t, fanout.Publish(context.Background(), 1, models.EventNewMatch, nil))
	require.NoError(t, fanout.Publish(context.Background(), 1, models.EventNewMatch, nil))

	require.Len(t, local.events, 2)
	assert.NotEqual(t, local.events[0].ID, local.events[1].ID)
}

func TestRoutingKeyRoundTrip(t *testing.T) {
	id, err := UserFromRoutingKey(RoutingKey(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = UserFromRoutingKey("ws_events.chats")
	assert.Error(t, err)
}

func TestDecodeRejectsIncompleteEvents(t *testing.T) {
	_, err := Decode([]byte(`{"type":"new-match"}`))
	assert.Error(t, err)

	body, err := json.Marshal(Event{ID: "e1", Type: models.EventNewMatch, UserID: 3, Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	ev, err := Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "e1", ev.ID)
}
