package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan *message.Message) (*message.Message, Event) {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		var event Event
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		return msg, event
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
	return nil, Event{}
}

func TestWatermillPublisher(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	messages, err := bus.Subscribe(ctx, Topic)
	require.NoError(t, err)

	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	pub := NewWatermillPublisher(bus)
	pub.now = func() time.Time { return at }

	require.NoError(t, pub.PublishLogin(ctx, "0.0.1234", "testnet"))
	msg, event := receive(t, messages)
	require.Equal(t, Event{Type: TypeLogin, AccountID: "0.0.1234", Network: "testnet", At: at}, event)
	require.Equal(t, TypeLogin, msg.Metadata.Get("type"))
	_, err = uuid.Parse(msg.UUID)
	require.NoError(t, err)

	require.NoError(t, pub.PublishLogout(ctx))
	_, event = receive(t, messages)
	require.Equal(t, Event{Type: TypeLogout, At: at}, event)
}

func TestPublishAfterClose(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	pub := NewWatermillPublisher(bus)
	require.NoError(t, pub.Close())
	require.Error(t, pub.PublishLogout(context.Background()))
}

func TestRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	publisher, err := NewRedisPublisher(client, nil)
	require.NoError(t, err)
	pub := NewWatermillPublisher(publisher)

	ctx := context.Background()
	require.NoError(t, pub.PublishLogin(ctx, "0xabc", "mainnet"))
	require.NoError(t, pub.PublishLogout(ctx))

	n, err := client.XLen(ctx, Topic).Result()
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}
