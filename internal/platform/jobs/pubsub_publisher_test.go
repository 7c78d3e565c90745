package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mailcomposer/api/internal/services"
)

func TestPubSubTemplatePublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv := pstest.NewServer()
	defer srv.Close()

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	topic, err := client.CreateTopic(ctx, "template-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubTemplatePublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubTemplatePublisher: %v", err)
	}
	defer publisher.Stop()

	event := services.TemplateSavedEvent{
		EventID:      "01EVT",
		TemplateID:   "01TPL",
		SectionCount: 3,
		SavedAt:      time.Date(2025, 1, 19, 15, 4, 45, 0, time.UTC),
	}
	if _, err := publisher.PublishTemplateSaved(ctx, event); err != nil {
		t.Fatalf("PublishTemplateSaved: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.TemplateSavedEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.TemplateID != "01TPL" || payload.SectionCount != 3 || !payload.SavedAt.Equal(event.SavedAt) {
		t.Fatalf("unexpected payload %#v", payload)
	}
	attrs := messages[0].Attributes
	if attrs["eventType"] != "template.saved" || attrs["templateId"] != "01TPL" || attrs["sectionCount"] != "3" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}

func TestNewPubSubTemplatePublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubTemplatePublisher(nil); err == nil {
		t.Fatal("expected error for nil topic")
	}
}
