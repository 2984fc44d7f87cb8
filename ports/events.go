package ports

import "context"

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, subject, address, sessionID string) error
	PublishLogout(ctx context.Context, address string, tokenID string) error
	PublishWalletBinding(ctx context.Context, userID, address string, bound bool) error
}
