package wrapper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/haasonsaas/agentgateway/internal/registry"
)

func TestGoogleCalendarService_Descriptor_RequiresAccessToken(t *testing.T) {
	svc := NewGoogleCalendarService()
	desc := svc.Descriptor()
	if desc.CredentialSchema == nil {
		t.Fatal("expected a credential schema")
	}
}

func TestGoogleCalendarService_ToolDescriptors(t *testing.T) {
	svc := NewGoogleCalendarService()
	tools := svc.ToolDescriptors()
	if len(tools) != len(gcalToolFactories) {
		t.Fatalf("expected %d tool descriptors, got %d", len(gcalToolFactories), len(tools))
	}
	names := map[string]bool{}
	for _, td := range tools {
		names[td.Name] = true
	}
	for _, want := range []string{"get_today_events", "get_upcoming_events", "create_event", "get_event_details", "update_event", "delete_event", "search_events"} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}

func TestGoogleCalendarService_Instantiate_MissingCredential(t *testing.T) {
	svc := NewGoogleCalendarService()
	inst, err := svc.Instantiate(context.Background(), registry.ServiceBinding{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tools := inst.Tools()
	if len(tools) != 1 || tools[0].Name() != "google_calendar_unconfigured" {
		t.Fatalf("expected single placeholder tool, got %+v", tools)
	}
}

func TestGoogleCalendarService_Instantiate_WithCredential(t *testing.T) {
	svc := NewGoogleCalendarService()
	inst, err := svc.Instantiate(context.Background(), registry.ServiceBinding{
		Credentials: map[string]any{"access_token": "ya29.fake"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inst.Tools()) != len(gcalToolFactories) {
		t.Fatalf("expected %d tools, got %d", len(gcalToolFactories), len(inst.Tools()))
	}
}

func TestGcalEventTime_PrefersDateTimeOverDate(t *testing.T) {
	var e gcalEvent
	e.Start.DateTime = "2026-07-31T10:00:00Z"
	e.Start.Date = "2026-07-31"
	if got := gcalEventTime(e, true); got != "2026-07-31T10:00:00Z" {
		t.Errorf("expected dateTime to take priority, got %q", got)
	}
}

func TestGcalEventTime_FallsBackToAllDayDate(t *testing.T) {
	var e gcalEvent
	e.End.Date = "2026-08-01"
	if got := gcalEventTime(e, false); got != "2026-08-01" {
		t.Errorf("expected all-day date, got %q", got)
	}
}

func TestFormatEventList(t *testing.T) {
	events := []gcalEvent{
		{ID: "evt1", Summary: "Standup"},
	}
	events[0].Start.DateTime = time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
	events[0].End.DateTime = time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC).Format(time.RFC3339)

	out := formatEventList(events)
	if out == "" {
		t.Fatal("expected non-empty formatted output")
	}
	if !strings.Contains(out, "Standup") || !strings.Contains(out, "evt1") {
		t.Errorf("expected summary and id in output, got %q", out)
	}
}
