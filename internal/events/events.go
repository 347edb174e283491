// Package events carries out-of-band change notifications for delivery
// orders and loads over NATS. A Watcher turns those notifications into page
// cache invalidations.
package events

import (
	"context"
	"time"
)

// Event topic constants
const (
	TopicOrderCreated    = "freight.orders.created"
	TopicOrderUpdated    = "freight.orders.updated"
	TopicOrderDeleted    = "freight.orders.deleted"
	TopicOrderReassigned = "freight.orders.reassigned"
	TopicLoadChanged     = "freight.loads.changed"

	// TopicCacheInvalidate asks every watcher to drop its page cache.
	TopicCacheInvalidate = "freight.cache.invalidate"

	// TopicAll matches every freight subject.
	TopicAll = "freight.>"
)

// Event types

type OrderChanged struct {
	OrderID    string    `json:"order_id"`
	LoadNumber string    `json:"load_number,omitempty"`
	CompanyID  string    `json:"company_id,omitempty"`
	AssignedTo string    `json:"assigned_to,omitempty"` // employee id after a reassignment
	At         time.Time `json:"at"`
}

type LoadChanged struct {
	LoadID     string    `json:"load_id"`
	LoadNumber string    `json:"load_number,omitempty"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}

type CacheInvalidate struct {
	Reason      string    `json:"reason,omitempty"`
	RequestedBy string    `json:"requested_by,omitempty"`
	At          time.Time `json:"at"`
}

// Message is one raw payload received from the bus.
type Message struct {
	Subject string
	Data    []byte
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber receives events from the event bus.
type Subscriber interface {
	// Subscribe delivers messages on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}

// NoopPublisher is a Publisher that does nothing (used when NATS is not configured).
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}
