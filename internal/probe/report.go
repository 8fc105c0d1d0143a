package probe

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beekhof/caldav-setup/internal/caldav"
	"github.com/beekhof/caldav-setup/internal/config"
)

// Reporter writes check results as operator-facing text.
type Reporter struct {
	w io.Writer
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Reporter) println(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(r.w, line)
	}
}

func rule(n int) string {
	return strings.Repeat("=", n)
}

func (r *Reporter) banner(width int, title string) {
	r.printf("\n%s\n%s\n%s\n", rule(width), title, rule(width))
}

// shorten returns the first n characters of s followed by "...".
func shorten(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s + "..."
	}
	return string(runes[:n]) + "..."
}

// statusResponse extracts the response carried by a *caldav.StatusError.
func statusResponse(err error) (*caldav.Response, bool) {
	var se *caldav.StatusError
	if errors.As(err, &se) {
		return se.Response, true
	}
	return nil, false
}

// reportError handles the failure kinds every check shares. It returns false
// for status errors, which the caller explains in its own terms.
func (r *Reporter) reportError(err error) bool {
	switch {
	case errors.Is(err, config.ErrNotConfigured):
		r.banner(50, "ERROR: Please configure your credentials first!")
		r.printf("\n%v\n", err)
		r.println("", "Set the values in your config file, the CALDAV_* environment variables or flags.", "See --help for details.")
		return true
	case errors.Is(err, caldav.ErrNetwork):
		r.println("", "Connection error! Check your internet connection.")
		r.printf("(%v)\n", err)
		return true
	}
	if _, ok := statusResponse(err); ok {
		return false
	}
	r.printf("\nError: %v\n", err)
	return true
}

// ReportAccount prints the result of DiscoverAccount.
func (r *Reporter) ReportAccount(email string, res *AccountResult, err error) {
	r.println("iCloud CalDAV - USER_ID Discovery", rule(50))
	r.printf("Email: %s\n", email)
	r.println(strings.Repeat("-", 50))

	if err != nil {
		if r.reportError(err) {
			return
		}
		resp, _ := statusResponse(err)
		r.printf("Status: %d\n", resp.StatusCode)
		switch resp.Outcome {
		case caldav.OutcomeAuthFailure:
			r.banner(50, "ERROR: Authentication failed (401 Unauthorized)")
			r.println("", "Possible causes:",
				"  - Wrong email address",
				"  - Wrong app-specific password",
				"  - Using Apple ID password instead of app-specific password",
				"", "Solution:",
				"  Create a new app-specific password at appleid.apple.com")
		case caldav.OutcomeAccessDenied:
			r.banner(50, "ERROR: Access denied (403 Forbidden)")
			r.println("", "Possible causes:",
				"  - App-specific password expired or revoked",
				"  - Too many failed attempts (rate limited)",
				"", "Solution:",
				"  Create a new app-specific password at appleid.apple.com")
		default:
			r.printf("\nUnexpected error: %d\n%s\n", resp.StatusCode, resp.Body)
		}
		return
	}

	r.printf("Status: %d\n", res.Response.StatusCode)
	r.banner(50, "SUCCESS! Connected to iCloud CalDAV")
	if res.AccountID == "" {
		r.println("", "USER_ID not found automatically.",
			"Look for: <href>/XXXXXXXXXX/principal/</href>",
			"", "--- RAW RESPONSE ---", res.Response.Body)
		return
	}
	r.printf("\n%s\nYOUR USER_ID: %s\n%s\n", rule(50), res.AccountID, rule(50))
	r.println("", "Copy this value for the next step!",
		"Use it as user_id with the calendars check.")
}

// ReportCalendars prints the result of ListCalendars.
func (r *Reporter) ReportCalendars(accountID string, res *CalendarsResult, err error) {
	r.println("iCloud CalDAV - Calendar Discovery", rule(60))
	r.printf("USER_ID: %s\n", accountID)
	r.println(strings.Repeat("-", 60))

	if err != nil {
		if r.reportError(err) {
			return
		}
		resp, _ := statusResponse(err)
		r.printf("Status: %d\n", resp.StatusCode)
		switch resp.Outcome {
		case caldav.OutcomeAuthFailure:
			r.println("", "ERROR: Authentication failed (401)", "Check your EMAIL and PASSWORD.")
		case caldav.OutcomeAccessDenied:
			r.println("", "ERROR: Access denied (403)", "Your app-specific password may have expired.")
		case caldav.OutcomeNotFound:
			r.println("", "ERROR: Not found (404)", "The USER_ID is probably incorrect.")
			r.printf("Current USER_ID: %s\n", accountID)
			r.println("", "Re-run the user-id check to get the correct value.")
		default:
			r.printf("\nUnexpected error: %d\n%s\n", resp.StatusCode, resp.Body)
		}
		return
	}

	r.printf("Status: %d\n", res.Response.StatusCode)
	r.banner(60, "SUCCESS! Retrieved calendar list")
	r.printCalendars(res.Calendars, res.Response.Body)
}

func (r *Reporter) printCalendars(calendars []caldav.Calendar, rawBody string) {
	if len(calendars) == 0 {
		r.println("", "No calendars found automatically.", "", "--- RAW RESPONSE (for manual parsing) ---", rawBody)
		return
	}

	r.printf("\nFound %d calendar(s):\n\n%s\n", len(calendars), rule(60))
	for i, cal := range calendars {
		r.printf("\n%d. %s\n", i+1, cal.Name)
		r.printf("   CALENDAR_ID: %s\n", cal.ID)
		if cal.Color != "" {
			r.printf("   Color: %s\n", cal.Color)
		}
	}
	r.printf("\n%s\n", rule(60))
	r.println("", "Copy the CALENDAR_ID of the calendar you want to use.",
		"You'll need it for the n8n workflow configuration.",
		"", "TIP: Test with the read check first!")
}

// ReportDiscovery prints the result of Discover as the user-id report
// followed by the calendars report.
func (r *Reporter) ReportDiscovery(email string, res *DiscoveryResult, err error) {
	if res == nil || res.Account == nil {
		r.ReportAccount(email, nil, err)
		return
	}
	r.ReportAccount(email, res.Account, nil)
	if res.Account.AccountID == "" {
		return
	}

	r.println("")
	if res.Listing == nil {
		r.ReportCalendars(res.Account.AccountID, nil, err)
		return
	}
	r.ReportCalendars(res.Account.AccountID, res.Listing, nil)
}

// ReportRead prints the result of ReadEvents.
func (r *Reporter) ReportRead(calendarID string, res *ReadResult, err error) {
	r.println(rule(60), "iCloud CalDAV - Read Test", rule(60))
	r.printf("CALENDAR_ID: %s\n", shorten(calendarID, 8))

	if err != nil {
		if r.reportError(err) {
			r.println("", rule(60), "READ TEST FAILED!", rule(60))
			return
		}
		resp, _ := statusResponse(err)
		r.printf("Status: %d\n", resp.StatusCode)
		r.printf("Error: %d (%s)\n", resp.StatusCode, resp.Outcome)
		body := resp.Body
		if len(body) > 500 {
			body = body[:500]
		}
		r.printf("Response: %s\n", body)
		r.println("", rule(60), "READ TEST FAILED!", rule(60),
			"", "Check the error message above for troubleshooting.")
		return
	}

	r.printf("\nQueried events from %s to %s\n", res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"))
	r.printf("Status: %d\n", res.Response.StatusCode)
	r.printf("\n%s\n", rule(60))
	if len(res.Events) > 0 {
		r.printf("SUCCESS! Found %d event(s):\n%s\n", len(res.Events), rule(60))
		for _, ev := range res.Events {
			r.printf("  %s - %s\n", formatTime(ev), ev.Title)
		}
	} else {
		r.println("SUCCESS! No events in this time range.", rule(60),
			"(This is normal if your calendar is empty today/tomorrow)")
	}
	r.banner(60, "READ TEST PASSED!")
	r.println("", "Next step: run the write check to test writing")
}

// formatTime marks start times that are not in UTC with their zone.
func formatTime(ev caldav.EventSummary) string {
	switch {
	case ev.TZID != "":
		return fmt.Sprintf("%s (%s)", ev.Time, ev.TZID)
	case ev.Floating:
		return ev.Time + " (floating)"
	default:
		return ev.Time
	}
}

// ReportWrite prints the result of WriteTestEvent.
func (r *Reporter) ReportWrite(calendarID string, res *WriteResult, err error) {
	r.println("iCloud CalDAV - Write Test", rule(50))
	r.println("", "Creating test event...")
	r.printf("Event: '%s'\n", writeTestSummary)
	r.println("Start: ~1 hour from now")
	r.printf("Calendar: %s\n", shorten(calendarID, 8))
	r.println(strings.Repeat("-", 50))

	if err != nil {
		if !r.reportError(err) {
			r.reportWriteStatus(err)
		}
		r.println("", rule(50), "WRITE TEST FAILED!", rule(50),
			"", "Try a different calendar, or check the error above.")
		return
	}

	r.printf("Status: %d\n", res.Response.StatusCode)
	if res.Response.Outcome == caldav.OutcomeCreated {
		r.banner(50, "SUCCESS! Event created (201 Created)")
		r.println("", "Check your Calendar app - you should see:",
			"  '"+res.Summary+"'",
			"  Starting in about 1 hour",
			"", "You can delete the test event manually.")
	} else {
		r.banner(50, "SUCCESS! Event updated (204 No Content)")
		r.println("", "The event already existed and was updated.")
	}
	r.println("", rule(50), "WRITE TEST PASSED!", rule(50),
		"", "Both READ and WRITE work!",
		"You can now proceed with the n8n workflow setup.")
}

func (r *Reporter) reportWriteStatus(err error) {
	resp, _ := statusResponse(err)
	r.printf("Status: %d\n", resp.StatusCode)
	switch resp.Outcome {
	case caldav.OutcomeAccessDenied:
		r.banner(50, "ERROR: Write access denied (403 Forbidden)")
		r.println("", "Possible causes:",
			"  - This is a SHARED calendar (you can't write to shared calendars)",
			"  - App-specific password expired",
			"  - Wrong CALENDAR_ID",
			"", "Solution:",
			"  Use a calendar that YOU own (not shared with you).",
			"  Run the calendars check again and pick a different calendar.")
		r.printf("\nResponse: %s\n", resp.Body)
	case caldav.OutcomeNotFound:
		r.banner(50, "ERROR: Calendar not found (404)")
		r.println("", "The USER_ID or CALENDAR_ID is incorrect.",
			"Run the user-id and calendars checks again to get correct values.")
	case caldav.OutcomeAuthFailure:
		r.banner(50, "ERROR: Authentication failed (401)")
		r.println("Check your EMAIL and PASSWORD.")
	default:
		r.banner(50, fmt.Sprintf("ERROR: Unexpected status %d", resp.StatusCode))
		r.printf("Response: %s\n", resp.Body)
	}
}

// ReportTestAll prints the per-calendar results of TestAllCalendars.
func (r *Reporter) ReportTestAll(results []CalendarWriteResult) {
	for _, res := range results {
		r.printf("\n--- Calendar #%d: %s ---\n", res.Number, shorten(res.CalendarID, 20))
		switch {
		case res.Writable:
			r.printf("WRITABLE! Status: %d\n", res.StatusCode)
		case res.StatusCode != 0:
			r.printf("Not writable. Status: %d\n", res.StatusCode)
		default:
			r.printf("Error: %v\n", res.Err)
		}
	}

	r.banner(60, "RESULTS:")
	var writable int
	for _, res := range results {
		status := "Read-only/Shared"
		if res.Writable {
			status = "WRITABLE"
			writable++
		}
		r.printf("\n#%d: %s\n    ID: %s\n", res.Number, status, res.CalendarID)
	}

	r.printf("\n%s\n", rule(60))
	if writable > 0 {
		r.printf("Found %d writable calendar(s)!\n%s\n", writable, rule(60))
		r.println("", "Use one of these CALENDAR_IDs for your n8n workflow.",
			"", "Note: Test events were created - delete them from your calendar.")
		return
	}
	r.println("No writable calendars found!", rule(60),
		"", "All calendars are either shared (read-only) or inaccessible.",
		"Make sure you have at least one calendar that YOU own.")
}

// ReportNotConfigured prints a configuration error raised before any request.
func (r *Reporter) ReportNotConfigured(err error) {
	r.reportError(err)
}
