package caldav

import (
	"regexp"
	"sort"
	"strings"
)

const (
	untitled = "Untitled"
	allDay   = "All day"
	noStart  = "?"
)

// EventSummary is the display form of one VEVENT found in a query response.
type EventSummary struct {
	Title string
	// Time is "HH:MM" as written in DTSTART, "All day" for date values, or
	// "?" when the event has no DTSTART.
	Time string

	// TZID is the DTSTART time zone parameter, if any. Time is never
	// converted out of it.
	TZID string
	// Floating is set for date-time starts with neither a TZID nor a
	// trailing "Z".
	Floating bool
}

var (
	veventRe  = regexp.MustCompile(`(?s)BEGIN:VEVENT(.*?)END:VEVENT`)
	summaryRe = regexp.MustCompile(`SUMMARY[^:]*:(.+)`)
	dtstartRe = regexp.MustCompile(`DTSTART([^:]*):(\d{8}T?\d{0,6})(Z?)`)
	tzidRe    = regexp.MustCompile(`(?i);TZID=("[^"]*"|[^;:]*)`)
)

// ExtractEvents returns one summary per VEVENT block in body, ordered by
// start time. All-day events and events without a start sort as "00:00";
// ties keep their order of appearance.
func ExtractEvents(body string) []EventSummary {
	blocks := veventRe.FindAllStringSubmatch(body, -1)
	events := make([]EventSummary, 0, len(blocks))
	for _, block := range blocks {
		events = append(events, parseEvent(block[1]))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return sortKey(events[i].Time) < sortKey(events[j].Time)
	})
	return events
}

func parseEvent(block string) EventSummary {
	ev := EventSummary{Title: untitled, Time: noStart}

	if m := summaryRe.FindStringSubmatch(block); m != nil {
		ev.Title = strings.TrimSpace(m[1])
	}

	m := dtstartRe.FindStringSubmatch(block)
	if m == nil {
		return ev
	}
	params, value, utc := m[1], m[2], m[3] == "Z"

	if strings.Contains(value, "T") && len(value) >= 13 {
		ev.Time = value[9:11] + ":" + value[11:13]
		if tz := tzidRe.FindStringSubmatch(params); tz != nil {
			ev.TZID = strings.Trim(tz[1], `"`)
		} else if !utc {
			ev.Floating = true
		}
	} else {
		ev.Time = allDay
	}
	return ev
}

func sortKey(t string) string {
	if t == allDay || t == noStart {
		return "00:00"
	}
	return t
}
