package worker

import (
	"context"
	"testing"

	"github.com/spec-kit/resolveiq/internal/config"
	"github.com/spec-kit/resolveiq/internal/events"
)

func TestStartNotificationWorkerPostsBreaches(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var posted []string
	post := func(_ context.Context, url string, body any) error {
		posted = append(posted, url)
		return nil
	}
	StartNotificationWorker(dispatcher, nil, config.NotificationConfig{WebhookURL: "http://hooks.local/riq"}, post)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventSLABreached,
		TicketID: "t-1",
		Payload:  events.SLABreachedPayload{MinutesOverdue: 12},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(posted) != 1 || posted[0] != "http://hooks.local/riq" {
		t.Fatalf("posted = %v", posted)
	}

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketAnalyzed, TicketID: "t-1"}); err != nil {
		t.Fatal(err)
	}
	if len(posted) != 1 {
		t.Fatalf("analysis events must not hit the webhook, posted = %v", posted)
	}
}
