package caldav

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
)

func TestEncodeTestEvent(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	data, err := EncodeTestEvent(TestEvent{
		UID:         "n8n-test-1709280000",
		ProdID:      "-//n8n iCloud Calendar//EN",
		Summary:     "n8n Test Event - DELETE ME",
		Description: "Created by the setup check",
		Stamp:       now,
		Start:       now.Add(time.Hour),
		End:         now.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("EncodeTestEvent() returned an error: %v", err)
	}

	cal, err := ical.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		t.Fatalf("Failed to decode encoded event: %v", err)
	}

	if v := cal.Props.Get(ical.PropVersion); v == nil || v.Value != "2.0" {
		t.Errorf("Expected VERSION 2.0, got %v", v)
	}
	if v := cal.Props.Get(ical.PropCalendarScale); v == nil || v.Value != "GREGORIAN" {
		t.Errorf("Expected CALSCALE GREGORIAN, got %v", v)
	}

	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 VEVENT, got %d", len(events))
	}
	ev := events[0]

	if uid, _ := ev.Props.Text(ical.PropUID); uid != "n8n-test-1709280000" {
		t.Errorf("Expected UID 'n8n-test-1709280000', got '%s'", uid)
	}
	if summary, _ := ev.Props.Text(ical.PropSummary); summary != "n8n Test Event - DELETE ME" {
		t.Errorf("Unexpected SUMMARY '%s'", summary)
	}
	if v := ev.Props.Get(ical.PropDateTimeStart); v == nil || v.Value != "20240301T090000Z" {
		t.Errorf("Expected DTSTART 20240301T090000Z, got %v", v)
	}
	if v := ev.Props.Get(ical.PropDateTimeEnd); v == nil || v.Value != "20240301T100000Z" {
		t.Errorf("Expected DTEND 20240301T100000Z, got %v", v)
	}

	// The encoded object must read back through the same parser used on
	// query responses.
	summaries := ExtractEvents(string(data))
	if len(summaries) != 1 || summaries[0].Time != "09:00" {
		t.Errorf("Expected one event at 09:00, got %+v", summaries)
	}
}

func TestEncodeTestEvent_OptionalDescription(t *testing.T) {
	now := time.Now()
	data, err := EncodeTestEvent(TestEvent{
		UID:     "test-0-1",
		ProdID:  "-//n8n Test//EN",
		Summary: "Write Test #1 - DELETE ME",
		Stamp:   now,
		Start:   now,
		End:     now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("EncodeTestEvent() returned an error: %v", err)
	}
	if bytes.Contains(data, []byte("DESCRIPTION")) {
		t.Errorf("Expected no DESCRIPTION property, got:\n%s", data)
	}
}

func TestEncodeTestEvent_RequiresUID(t *testing.T) {
	if _, err := EncodeTestEvent(TestEvent{Summary: "x"}); err == nil {
		t.Error("Expected an error for a missing UID")
	}
}
