// Package probe runs the account checks: user ID discovery, calendar listing,
// a read test, a write test and a write test across several calendars. Each
// check makes one request per calendar and returns typed results; rendering
// them for the operator is left to Reporter.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/beekhof/caldav-setup/internal/caldav"
)

// Client is the subset of caldav.Client the checks need.
type Client interface {
	Discover(ctx context.Context) (*caldav.Response, error)
	ListCalendars(ctx context.Context, accountID string) (*caldav.Response, error)
	QueryEvents(ctx context.Context, accountID, calendarID string, start, end time.Time) (*caldav.Response, error)
	PutEvent(ctx context.Context, accountID, calendarID, uid string, ics []byte) (*caldav.Response, error)
}

const (
	writeTestProdID      = "-//n8n iCloud Calendar//EN"
	writeTestSummary     = "n8n Test Event - DELETE ME"
	writeTestDescription = "This is a test event created by n8n-icloud-calendar setup script. You can delete it."
	writeAllProdID       = "-//n8n Test//EN"
)

// AccountResult is the outcome of DiscoverAccount. AccountID is empty when
// the server answered but no principal path was found; Response.Body then
// holds the raw reply for manual inspection.
type AccountResult struct {
	Response  *caldav.Response
	AccountID string
}

// CalendarsResult is the outcome of ListCalendars.
type CalendarsResult struct {
	Response  *caldav.Response
	Calendars []caldav.Calendar
}

// ReadResult is the outcome of ReadEvents.
type ReadResult struct {
	Response *caldav.Response
	Start    time.Time
	End      time.Time
	Events   []caldav.EventSummary
}

// WriteResult is the outcome of WriteTestEvent.
type WriteResult struct {
	Response *caldav.Response
	UID      string
	Summary  string
	Start    time.Time
}

// CalendarWriteResult is the per-calendar outcome of TestAllCalendars.
type CalendarWriteResult struct {
	Number     int // 1-based position in the input list
	CalendarID string
	Writable   bool
	StatusCode int // 0 when the request failed before a response
	Err        error
}

// DiscoveryResult is the outcome of Discover. Each step is nil when it was
// not reached.
type DiscoveryResult struct {
	Account *AccountResult
	Listing *CalendarsResult
}

// ErrNoAccountID is returned by Discover when the discovery response has no
// principal path to hand to the listing.
var ErrNoAccountID = errors.New("no principal path in discovery response")

// Prober runs checks against one account.
type Prober struct {
	client  Client
	now     func() time.Time
	verbose bool
}

// NewProber creates a Prober using client for all requests.
func NewProber(client Client, verbose bool) *Prober {
	return &Prober{
		client:  client,
		now:     time.Now,
		verbose: verbose,
	}
}

// expect turns a response with the wrong outcome into a *caldav.StatusError.
func expect(resp *caldav.Response, ok func(caldav.Outcome) bool) error {
	if ok(resp.Outcome) {
		return nil
	}
	return &caldav.StatusError{Response: resp}
}

func isMultiStatus(o caldav.Outcome) bool { return o == caldav.OutcomeMultiStatus }

// DiscoverAccount finds the numeric account ID from the well-known CalDAV
// endpoint.
func (p *Prober) DiscoverAccount(ctx context.Context) (*AccountResult, error) {
	resp, err := p.client.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover account: %w", err)
	}
	if err := expect(resp, isMultiStatus); err != nil {
		return nil, fmt.Errorf("failed to discover account: %w", err)
	}

	result := &AccountResult{Response: resp}
	if id, ok := caldav.ExtractAccountID(resp.Body); ok {
		result.AccountID = id
	} else {
		log.Printf("Warning: no principal path in discovery response (%d bytes)", len(resp.Body))
	}
	return result, nil
}

// ListCalendars lists the user calendars of accountID.
func (p *Prober) ListCalendars(ctx context.Context, accountID string) (*CalendarsResult, error) {
	resp, err := p.client.ListCalendars(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	if err := expect(resp, isMultiStatus); err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	calendars := caldav.ExtractCalendars(resp.Body)
	if p.verbose {
		log.Printf("DEBUG: found %d calendar(s) for account %s", len(calendars), accountID)
	}
	return &CalendarsResult{Response: resp, Calendars: calendars}, nil
}

// ReadEvents queries the events of day and the following day.
func (p *Prober) ReadEvents(ctx context.Context, accountID, calendarID string, day time.Time) (*ReadResult, error) {
	start := day
	end := day.AddDate(0, 0, 1)

	resp, err := p.client.QueryEvents(ctx, accountID, calendarID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	if err := expect(resp, isMultiStatus); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	events := caldav.ExtractEvents(resp.Body)
	for _, ev := range events {
		if ev.TZID != "" || ev.Floating {
			log.Printf("Warning: event %q starts at %s in a non-UTC zone (TZID=%q floating=%v); time shown as written", ev.Title, ev.Time, ev.TZID, ev.Floating)
		}
	}
	return &ReadResult{Response: resp, Start: start, End: end, Events: events}, nil
}

// WriteTestEvent creates a one-hour event starting an hour from now.
func (p *Prober) WriteTestEvent(ctx context.Context, accountID, calendarID string) (*WriteResult, error) {
	now := p.now().UTC()
	uid := fmt.Sprintf("n8n-test-%d", now.Unix())

	ics, err := caldav.EncodeTestEvent(caldav.TestEvent{
		UID:         uid,
		ProdID:      writeTestProdID,
		Summary:     writeTestSummary,
		Description: writeTestDescription,
		Stamp:       now,
		Start:       now.Add(time.Hour),
		End:         now.Add(2 * time.Hour),
	})
	if err != nil {
		return nil, err
	}

	resp, err := p.client.PutEvent(ctx, accountID, calendarID, uid, ics)
	if err != nil {
		return nil, fmt.Errorf("failed to write event: %w", err)
	}
	if err := expect(resp, caldav.Outcome.IsWriteSuccess); err != nil {
		return nil, fmt.Errorf("failed to write event: %w", err)
	}

	return &WriteResult{
		Response: resp,
		UID:      uid,
		Summary:  writeTestSummary,
		Start:    now.Add(time.Hour),
	}, nil
}

// TestAllCalendars writes a test event to each calendar in turn. A failure
// on one calendar does not stop the others.
func (p *Prober) TestAllCalendars(ctx context.Context, accountID string, calendarIDs []string) []CalendarWriteResult {
	results := make([]CalendarWriteResult, 0, len(calendarIDs))
	for i, calendarID := range calendarIDs {
		result := CalendarWriteResult{Number: i + 1, CalendarID: calendarID}

		resp, err := p.writeNumbered(ctx, accountID, calendarID, i)
		if resp != nil {
			result.StatusCode = resp.StatusCode
			result.Writable = resp.Outcome.IsWriteSuccess()
		}
		result.Err = err

		log.Printf("Calendar #%d (%s): writable=%v status=%d", result.Number, calendarID, result.Writable, result.StatusCode)
		results = append(results, result)
	}
	return results
}

func (p *Prober) writeNumbered(ctx context.Context, accountID, calendarID string, index int) (*caldav.Response, error) {
	now := p.now().UTC()
	uid := fmt.Sprintf("test-%d-%d", index, now.Unix())

	ics, err := caldav.EncodeTestEvent(caldav.TestEvent{
		UID:     uid,
		ProdID:  writeAllProdID,
		Summary: fmt.Sprintf("Write Test #%d - DELETE ME", index+1),
		Stamp:   now,
		Start:   now.Add(time.Hour),
		End:     now.Add(2 * time.Hour),
	})
	if err != nil {
		return nil, err
	}

	resp, err := p.client.PutEvent(ctx, accountID, calendarID, uid, ics)
	if err != nil {
		return nil, err
	}
	return resp, expect(resp, caldav.Outcome.IsWriteSuccess)
}

// Discover chains DiscoverAccount and ListCalendars, handing the discovered
// account ID straight to the listing.
// The result is never nil and keeps every step that ran, so the raw bodies
// stay available when an error is returned.
func (p *Prober) Discover(ctx context.Context) (*DiscoveryResult, error) {
	result := &DiscoveryResult{}

	account, err := p.DiscoverAccount(ctx)
	if err != nil {
		return result, err
	}
	result.Account = account
	if account.AccountID == "" {
		return result, fmt.Errorf("failed to discover account: %w", ErrNoAccountID)
	}

	cals, err := p.ListCalendars(ctx, account.AccountID)
	if err != nil {
		return result, err
	}
	result.Listing = cals
	return result, nil
}
