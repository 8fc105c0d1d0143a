package caldav

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

// TestEvent holds the fields of a throwaway event written to check write
// access.
type TestEvent struct {
	UID         string
	ProdID      string
	Summary     string
	Description string // optional
	Stamp       time.Time
	Start       time.Time
	End         time.Time
}

// EncodeTestEvent renders ev as a VCALENDAR object with a single VEVENT.
// All times are written in UTC.
func EncodeTestEvent(ev TestEvent) ([]byte, error) {
	if ev.UID == "" {
		return nil, fmt.Errorf("test event requires a UID")
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ev.ProdID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")

	vevent := ical.NewComponent(ical.CompEvent)
	vevent.Props.SetText(ical.PropUID, ev.UID)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, ev.Stamp.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
	vevent.Props.SetText(ical.PropSummary, ev.Summary)
	if ev.Description != "" {
		vevent.Props.SetText(ical.PropDescription, ev.Description)
	}
	cal.Children = append(cal.Children, vevent)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode iCalendar: %w", err)
	}
	return buf.Bytes(), nil
}
