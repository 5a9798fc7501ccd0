package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brandcart/storefront/internal/domain"
	pkgkafka "github.com/brandcart/storefront/pkg/kafka"
	"github.com/brandcart/storefront/pkg/logger"
)

// Kafka topics for storefront session events.
const (
	TopicCartUpdated       = "storefront.cart.updated"
	TopicWishlistUpdated   = "storefront.wishlist.updated"
	TopicCheckoutCompleted = "storefront.checkout.completed"
)

// ScopeSession marks events keyed by session id.
const ScopeSession = "session"

// SourceStorefront identifies events from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for storefront.cart.updated.
type CartUpdatedData struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id,omitempty"`
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  float64           `json:"subtotal"`
}

// WishlistUpdatedData is the payload for storefront.wishlist.updated.
type WishlistUpdatedData struct {
	SessionID  string   `json:"session_id"`
	UserID     string   `json:"user_id,omitempty"`
	ProductIDs []string `json:"product_ids"`
}

// CheckoutCompletedData is the payload for storefront.checkout.completed.
type CheckoutCompletedData struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id,omitempty"`
	Lines     []domain.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  float64           `json:"subtotal"`
}

// Publisher emits storefront events. Sessions treat publishing as best
// effort.
type Publisher interface {
	CartUpdated(ctx context.Context, sessionID string, cart *domain.Cart) error
	WishlistUpdated(ctx context.Context, sessionID string, ids []string) error
	CheckoutCompleted(ctx context.Context, sessionID string, lines []domain.CartLine) error
}

// eventWriter is the part of *pkgkafka.Producer used here.
type eventWriter interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  eventWriter
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed publisher.
func NewProducer(kafka eventWriter, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// CartUpdated publishes the full cart after a mutation.
func (p *Producer) CartUpdated(ctx context.Context, sessionID string, cart *domain.Cart) error {
	data := CartUpdatedData{
		SessionID: sessionID,
		UserID:    logger.UserIDFromContext(ctx),
		Lines:     nonNil(cart.Lines()),
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
	}
	return p.publish(ctx, TopicCartUpdated, sessionID, data)
}

// WishlistUpdated publishes the wishlist ids after a mutation.
func (p *Producer) WishlistUpdated(ctx context.Context, sessionID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data := WishlistUpdatedData{
		SessionID:  sessionID,
		UserID:     logger.UserIDFromContext(ctx),
		ProductIDs: ids,
	}
	return p.publish(ctx, TopicWishlistUpdated, sessionID, data)
}

// CheckoutCompleted publishes the lines that were checked out.
func (p *Producer) CheckoutCompleted(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	cart := domain.NewCart(lines)
	data := CheckoutCompletedData{
		SessionID: sessionID,
		UserID:    logger.UserIDFromContext(ctx),
		Lines:     nonNil(cart.Lines()),
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
	}
	return p.publish(ctx, TopicCheckoutCompleted, sessionID, data)
}

func (p *Producer) publish(ctx context.Context, topic, sessionID string, data any) error {
	event, err := pkgkafka.NewEvent(pkgkafka.Envelope{
		Type:   topic,
		Key:    sessionID,
		Scope:  ScopeSession,
		Source: SourceStorefront,
	}, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published storefront event",
		slog.String("topic", topic),
		slog.String("session_id", sessionID),
	)
	return nil
}

func nonNil(lines []domain.CartLine) []domain.CartLine {
	if lines == nil {
		return []domain.CartLine{}
	}
	return lines
}

// Noop discards events. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) CartUpdated(context.Context, string, *domain.Cart) error { return nil }
func (Noop) WishlistUpdated(context.Context, string, []string) error { return nil }
func (Noop) CheckoutCompleted(context.Context, string, []domain.CartLine) error { return nil }
