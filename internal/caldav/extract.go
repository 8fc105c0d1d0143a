package caldav

import (
	"regexp"
	"strings"
)

// Calendar describes one calendar collection found under an account's
// calendar home.
type Calendar struct {
	Name  string
	ID    string
	Color string
}

const calendarsMarker = "/calendars/"

var (
	principalRe   = regexp.MustCompile(`/(\d+)/principal/`)
	responseRe    = regexp.MustCompile(`(?is)<(?:[a-z0-9_-]+:)?response\b[^>]*>(.*?)</(?:[a-z0-9_-]+:)?response>`)
	hrefRe        = regexp.MustCompile(`(?i)<(?:[a-z0-9_-]+:)?href>([^<]+)</(?:[a-z0-9_-]+:)?href>`)
	displayNameRe = regexp.MustCompile(`(?i)<(?:[a-z0-9_-]+:)?displayname>([^<]*)</(?:[a-z0-9_-]+:)?displayname>`)
	colorRe       = regexp.MustCompile(`(?i)<(?:[a-z0-9_-]+:)?calendar-color[^>]*>([^<]*)</(?:[a-z0-9_-]+:)?calendar-color>`)

	// Collections every iCloud account has that are not user calendars.
	systemFolders = map[string]bool{
		"inbox":        true,
		"outbox":       true,
		"notification": true,
		"tasks":        true,
	}
)

// ExtractAccountID returns the numeric principal ID from a discovery
// response, i.e. the digits in the first "/<digits>/principal/" path.
func ExtractAccountID(body string) (string, bool) {
	m := principalRe.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractCalendars lists the calendars in a Depth: 1 PROPFIND response of an
// account's calendar home, in the order the server returned them.
func ExtractCalendars(body string) []Calendar {
	var calendars []Calendar
	for _, block := range responseRe.FindAllStringSubmatch(body, -1) {
		resp := block[1]

		hrefMatch := hrefRe.FindStringSubmatch(resp)
		if hrefMatch == nil {
			continue
		}
		href := hrefMatch[1]

		// The calendar home itself (/<id>/calendars/) has only three slashes.
		if !strings.Contains(href, calendarsMarker) || strings.Count(href, "/") < 4 {
			continue
		}

		parts := strings.Split(href, calendarsMarker)
		id := strings.TrimRight(parts[len(parts)-1], "/")
		if id == "" || systemFolders[id] {
			continue
		}

		cal := Calendar{ID: id, Name: "Unnamed"}
		if m := displayNameRe.FindStringSubmatch(resp); m != nil {
			cal.Name = m[1]
		}
		if m := colorRe.FindStringSubmatch(resp); m != nil {
			cal.Color = m[1]
		}
		calendars = append(calendars, cal)
	}
	return calendars
}
