package auth

import "context"

// EventPublisher tells other processes about session changes. See
// events.WatermillPublisher.
type EventPublisher interface {
	PublishLogin(ctx context.Context, accountID, network string) error
	PublishLogout(ctx context.Context) error
}
