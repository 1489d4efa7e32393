// Package jobs publishes catalog events to Pub/Sub for asynchronous consumers.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/brightcart/api/internal/services"
)

// EventProductCreated is the event type attribute of product creation messages.
const EventProductCreated = "catalog.product.created"

// PubSubProductPublisher publishes product lifecycle events to a Pub/Sub topic.
type PubSubProductPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

var _ services.ProductEventPublisher = (*PubSubProductPublisher)(nil)

// NewPubSubProductPublisher constructs a publisher bound to topic.
func NewPubSubProductPublisher(topic *pubsub.Topic) (*PubSubProductPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub product publisher: topic is required")
	}
	return &PubSubProductPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishProductCreated sends event and waits for the server-assigned message id.
// Messages for one catalog share an ordering key when the topic enables ordering.
func (p *PubSubProductPublisher) PublishProductCreated(ctx context.Context, event services.ProductCreatedEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub product publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal product event: %w", err)
	}

	attrs := map[string]string{"eventType": EventProductCreated}
	setAttr(attrs, "productId", event.ProductID)
	setAttr(attrs, "catalog", event.Catalog.String())
	setAttr(attrs, "actorId", event.ActorID)

	msg := &pubsub.Message{Data: data, Attributes: attrs}
	if p.topic.EnableMessageOrdering {
		msg.OrderingKey = event.Catalog.String()
	}

	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish product event: %w", err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *PubSubProductPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
