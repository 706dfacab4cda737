// Package events publishes session changes on a watermill bus so other
// prism processes sharing a redis token store can react to them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Topic carries every auth event
const Topic = "prism.auth"

// event types, also set as the "type" metadata key
const (
	TypeLogin  = "login"
	TypeLogout = "logout"
)

// Event is the json payload of every message
type Event struct {
	Type      string    `json:"type"`
	AccountID string    `json:"accountId,omitempty"`
	Network   string    `json:"network,omitempty"`
	At        time.Time `json:"at"`
}

// WatermillPublisher implements auth.EventPublisher on a watermill publisher
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	now       func() time.Time
}

// NewWatermillPublisher wraps publisher, publishing to Topic
func NewWatermillPublisher(publisher message.Publisher) *WatermillPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		topic:     Topic,
		now:       time.Now,
	}
}

// NewRedisPublisher builds a redis streams publisher on client. Closing the
// publisher closes client too.
func NewRedisPublisher(client *redis.Client, logger *slog.Logger) (message.Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{Client: client},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis publisher: %w", err)
	}
	return publisher, nil
}

// PublishLogin announces a stored token for accountID on network
func (p *WatermillPublisher) PublishLogin(ctx context.Context, accountID, network string) error {
	return p.publish(ctx, Event{
		Type:      TypeLogin,
		AccountID: accountID,
		Network:   network,
		At:        p.now().UTC(),
	})
}

// PublishLogout announces a cleared token
func (p *WatermillPublisher) PublishLogout(ctx context.Context) error {
	return p.publish(ctx, Event{Type: TypeLogout, At: p.now().UTC()})
}

// Close closes the underlying publisher
func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

func (p *WatermillPublisher) publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("type", event.Type)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
