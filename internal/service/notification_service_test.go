package service

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/resolveiq/internal/config"
	"github.com/spec-kit/resolveiq/internal/events"
)

type webhookRecorder struct {
	urls []string
	err  error
}

func (w *webhookRecorder) post(_ context.Context, url string, _ any) error {
	w.urls = append(w.urls, url)
	return w.err
}

func TestNotificationWebhooks(t *testing.T) {
	cases := []struct {
		name  string
		event events.Event
		calls int
	}{
		{"breach", events.Event{Type: events.EventSLABreached, Payload: events.SLABreachedPayload{}}, 1},
		{"manual assignment", events.Event{Type: events.EventTicketAssigned, Payload: events.TicketAssignedPayload{NeedsManual: true}}, 1},
		{"routed", events.Event{Type: events.EventTicketAssigned, Payload: events.TicketAssignedPayload{AssigneeID: ptr("a1")}}, 0},
		{"created", events.Event{Type: events.EventTicketCreated, Payload: events.TicketCreatedPayload{}}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &webhookRecorder{}
			dispatcher := events.NewInMemoryDispatcher()
			NewNotificationService(dispatcher, nil, config.NotificationConfig{WebhookURL: "http://hooks.local/x"}, rec.post).RegisterHandlers()
			if err := dispatcher.Publish(context.Background(), tc.event); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			if len(rec.urls) != tc.calls {
				t.Fatalf("webhook calls = %d, want %d", len(rec.urls), tc.calls)
			}
		})
	}
}

func TestNotificationWebhookDisabledAndFailing(t *testing.T) {
	rec := &webhookRecorder{}
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, nil, config.NotificationConfig{}, rec.post).RegisterHandlers()
	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventSLABreached}); err != nil || len(rec.urls) != 0 {
		t.Fatalf("disabled webhook: calls=%d err=%v", len(rec.urls), err)
	}

	failing := &webhookRecorder{err: errors.New("502")}
	dispatcher = events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, nil, config.NotificationConfig{WebhookURL: "http://hooks.local/x"}, failing.post).RegisterHandlers()
	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventSLABreached}); err == nil {
		t.Fatal("expected delivery error to surface from Publish")
	}
}
