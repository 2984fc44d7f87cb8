package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/actxion/auth/ports"
)

const (
	TopicLogin         = "login"
	TopicLogout        = "logout"
	TopicWalletBinding = "wallet"
)

// DefaultTopicPrefix namespaces every topic the service publishes to
const DefaultTopicPrefix = "actxion.auth."

// LoginEvent is emitted when a session is opened
type LoginEvent struct {
	Subject   string    `json:"subject"`
	Address   string    `json:"address,omitempty"`
	SessionID string    `json:"session_id"`
	At        time.Time `json:"at"`
}

// LogoutEvent represents a logout event
type LogoutEvent struct {
	Address string    `json:"address"`
	TokenID string    `json:"token_id"`
	At      time.Time `json:"at"`
}

// WalletBindingEvent is emitted when a wallet is connected to or disconnected from an account
type WalletBindingEvent struct {
	UserID  string    `json:"user_id"`
	Address string    `json:"address"`
	Bound   bool      `json:"bound"`
	At      time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	prefix    string
}

// NewWatermillPublisher creates a new Watermill publisher. An empty prefix
// selects DefaultTopicPrefix.
func NewWatermillPublisher(publisher message.Publisher, prefix string) ports.EventPublisher {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &WatermillPublisher{
		publisher: publisher,
		prefix:    prefix,
	}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, subject, address, sessionID string) error {
	return p.publish(ctx, TopicLogin, sessionID, LoginEvent{
		Subject:   subject,
		Address:   address,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	})
}

// PublishLogout publishes a logout event
func (p *WatermillPublisher) PublishLogout(ctx context.Context, address string, tokenID string) error {
	return p.publish(ctx, TopicLogout, tokenID, LogoutEvent{
		Address: address,
		TokenID: tokenID,
		At:      time.Now().UTC(),
	})
}

// PublishWalletBinding publishes a wallet connect or disconnect event
func (p *WatermillPublisher) PublishWalletBinding(ctx context.Context, userID, address string, bound bool) error {
	return p.publish(ctx, TopicWalletBinding, watermill.NewUUID(), WalletBindingEvent{
		UserID:  userID,
		Address: address,
		Bound:   bound,
		At:      time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic, id string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(id, payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.prefix+topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NoopPublisher drops every event. It is used when eventing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishLogin(context.Context, string, string, string) error { return nil }
func (NoopPublisher) PublishLogout(context.Context, string, string) error { return nil }
func (NoopPublisher) PublishWalletBinding(context.Context, string, string, bool) error { return nil }
