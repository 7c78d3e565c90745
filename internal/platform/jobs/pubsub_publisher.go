package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/mailcomposer/api/internal/services"
)

const eventTypeTemplateSaved = "template.saved"

// PubSubTemplatePublisher publishes template lifecycle events to a Pub/Sub topic.
type PubSubTemplatePublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

var _ services.TemplateEventPublisher = (*PubSubTemplatePublisher)(nil)

// NewPubSubTemplatePublisher constructs a Pub/Sub backed publisher.
func NewPubSubTemplatePublisher(topic *pubsub.Topic) (*PubSubTemplatePublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub template publisher: topic is required")
	}
	return &PubSubTemplatePublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishTemplateSaved sends the event and waits for the server-assigned message id.
func (p *PubSubTemplatePublisher) PublishTemplateSaved(ctx context.Context, event services.TemplateSavedEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub template publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal template event: %w", err)
	}

	attrs := map[string]string{
		"eventType":    eventTypeTemplateSaved,
		"sectionCount": strconv.Itoa(event.SectionCount),
	}
	setAttr(attrs, "eventId", event.EventID)
	setAttr(attrs, "templateId", event.TemplateID)

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish template event: %w", err)
	}
	return id, nil
}

// Stop flushes pending messages.
func (p *PubSubTemplatePublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
