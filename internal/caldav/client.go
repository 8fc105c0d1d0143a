package caldav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-webdav"
)

const (
	queryDateFormat = "20060102"
	xmlContentType  = "application/xml; charset=utf-8"
	icsContentType  = "text/calendar; charset=utf-8"
)

// Response is the raw result of one CalDAV request with its classified status.
type Response struct {
	StatusCode int
	Outcome    Outcome
	Body       string
}

// Client issues single CalDAV requests against one server with a static
// username/password pair.
type Client struct {
	httpClient webdav.HTTPClient
	serverURL  string
	verbose    bool
}

// NewClient creates a Client for serverURL. username and password are sent as
// HTTP basic auth on every request (for iCloud: the Apple ID and an
// app-specific password).
func NewClient(serverURL, username, password string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host are required", serverURL)
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	return &Client{
		httpClient: webdav.HTTPClientWithBasicAuth(httpClient, username, password),
		serverURL:  strings.TrimSuffix(serverURL, "/"),
	}, nil
}

// SetVerbose enables DEBUG logging of every request.
func (c *Client) SetVerbose(verbose bool) {
	c.verbose = verbose
}

// do makes an authenticated request and reads the whole body. Only transport
// failures are returned as errors; every status code yields a Response.
func (c *Client) do(ctx context.Context, method, path string, headers map[string]string, body io.Reader) (*Response, error) {
	reqURL := c.serverURL + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if c.verbose {
		log.Printf("DEBUG: %s %s", method, reqURL)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, method, reqURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrNetwork, err)
	}

	if c.verbose {
		log.Printf("DEBUG: %s %s -> HTTP %d (%d bytes)", method, reqURL, resp.StatusCode, len(data))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Outcome:    Classify(resp.StatusCode),
		Body:       string(data),
	}, nil
}

// Discover queries the well-known CalDAV entry point. The multistatus body
// carries the account's principal URL.
func (c *Client) Discover(ctx context.Context) (*Response, error) {
	return c.do(ctx, "PROPFIND", "/.well-known/caldav", map[string]string{"Depth": "0"}, nil)
}

// ListCalendars lists the collections under the account's calendar home.
func (c *Client) ListCalendars(ctx context.Context, accountID string) (*Response, error) {
	return c.do(ctx, "PROPFIND", calendarHome(accountID), map[string]string{"Depth": "1"}, nil)
}

// QueryEvents runs a calendar-query REPORT for VEVENTs from 00:00:00Z on the
// calendar date of start to 23:59:59Z on the calendar date of end.
func (c *Client) QueryEvents(ctx context.Context, accountID, calendarID string, start, end time.Time) (*Response, error) {
	headers := map[string]string{
		"Content-Type": xmlContentType,
		"Depth":        "1",
	}
	return c.do(ctx, "REPORT", calendarPath(accountID, calendarID), headers, strings.NewReader(CalendarQuery(start, end)))
}

// PutEvent uploads an iCalendar object as <uid>.ics in the calendar. An
// existing object with the same name is overwritten.
func (c *Client) PutEvent(ctx context.Context, accountID, calendarID, uid string, ics []byte) (*Response, error) {
	headers := map[string]string{"Content-Type": icsContentType}
	path := calendarPath(accountID, calendarID) + url.PathEscape(uid) + ".ics"
	return c.do(ctx, http.MethodPut, path, headers, bytes.NewReader(ics))
}

// CalendarQuery builds the REPORT body used by QueryEvents.
func CalendarQuery(start, end time.Time) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<c:calendar-query xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">
  <d:prop>
    <d:getetag/>
    <c:calendar-data/>
  </d:prop>
  <c:filter>
    <c:comp-filter name="VCALENDAR">
      <c:comp-filter name="VEVENT">
        <c:time-range start="%sT000000Z" end="%sT235959Z"/>
      </c:comp-filter>
    </c:comp-filter>
  </c:filter>
</c:calendar-query>`, start.Format(queryDateFormat), end.Format(queryDateFormat))
}

func calendarHome(accountID string) string {
	return "/" + url.PathEscape(accountID) + calendarsMarker
}

func calendarPath(accountID, calendarID string) string {
	return calendarHome(accountID) + url.PathEscape(calendarID) + "/"
}
