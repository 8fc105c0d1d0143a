package caldav

import (
	"reflect"
	"testing"
)

func TestExtractAccountID(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<multistatus xmlns="DAV:">
  <response>
    <href>/.well-known/caldav/</href>
    <propstat>
      <prop><current-user-principal><href>/1234567890/principal/</href></current-user-principal></prop>
      <status>HTTP/1.1 200 OK</status>
    </propstat>
  </response>
</multistatus>`

	id, ok := ExtractAccountID(body)
	if !ok {
		t.Fatal("ExtractAccountID() did not find an account ID")
	}
	if id != "1234567890" {
		t.Errorf("Expected account ID '1234567890', got '%s'", id)
	}
}

func TestExtractAccountID_FirstMatchWins(t *testing.T) {
	id, ok := ExtractAccountID(`<href>/111/principal/</href><href>/222/principal/</href>`)
	if !ok || id != "111" {
		t.Errorf("Expected first account ID '111', got '%s' (found: %v)", id, ok)
	}
}

func TestExtractAccountID_Missing(t *testing.T) {
	tests := []string{
		"",
		`<href>/principal/</href>`,
		`<href>/abc/principal/</href>`,
		`<href>/123/calendars/</href>`,
	}
	for _, body := range tests {
		if id, ok := ExtractAccountID(body); ok {
			t.Errorf("ExtractAccountID(%q) = %q, expected no match", body, id)
		}
	}
}

func TestExtractCalendars_SingleEntry(t *testing.T) {
	body := `<response><href>/123/calendars/ABC-1/</href><displayname>Home</displayname></response>`

	got := ExtractCalendars(body)
	want := []Calendar{{Name: "Home", ID: "ABC-1"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestExtractCalendars_ICloudListing(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<multistatus xmlns="DAV:">
  <response xmlns="DAV:">
    <href>/123/calendars/</href>
    <propstat><prop><displayname>Calendars</displayname></prop></propstat>
  </response>
  <response xmlns="DAV:">
    <href>/123/calendars/home/</href>
    <propstat><prop>
      <displayname>Home</displayname>
      <calendar-color xmlns="http://apple.com/ns/ical/" symbolic-color="blue">#1BADF8FF</calendar-color>
    </prop></propstat>
  </response>
  <response xmlns="DAV:">
    <href>/123/calendars/inbox/</href>
  </response>
  <response xmlns="DAV:">
    <href>/123/calendars/outbox/</href>
  </response>
  <response xmlns="DAV:">
    <href>/123/calendars/notification/</href>
  </response>
  <response xmlns="DAV:">
    <href>/123/calendars/tasks/</href>
    <propstat><prop><displayname>Reminders</displayname></prop></propstat>
  </response>
  <response xmlns="DAV:">
    <href>/123/calendars/8F3A2C10-AAAA-BBBB-CCCC-1234567890AB/</href>
    <propstat><prop><displayname>Work</displayname></prop></propstat>
  </response>
  <response xmlns="DAV:">
    <href>/123/calendars/shared-1/</href>
  </response>
</multistatus>`

	got := ExtractCalendars(body)
	want := []Calendar{
		{Name: "Home", ID: "home", Color: "#1BADF8FF"},
		{Name: "Work", ID: "8F3A2C10-AAAA-BBBB-CCCC-1234567890AB"},
		{Name: "Unnamed", ID: "shared-1"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestExtractCalendars_PrefixedAndUppercaseTags(t *testing.T) {
	body := `<D:multistatus xmlns:D="DAV:">
<D:response><D:href>/9/calendars/inbox/</D:href></D:response>
<D:RESPONSE><D:HREF>/9/calendars/work/</D:HREF><D:DISPLAYNAME>Work</D:DISPLAYNAME></D:RESPONSE>
<d:response><d:href>/9/calendars/tasks/</d:href><d:displayname>Tasks</d:displayname></d:response>
</D:multistatus>`

	got := ExtractCalendars(body)
	want := []Calendar{{Name: "Work", ID: "work"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestExtractCalendars_KeepsDuplicatesAndOrder(t *testing.T) {
	body := `<response><href>/1/calendars/b/</href></response>` +
		`<response><href>/1/calendars/a/</href></response>` +
		`<response><href>/1/calendars/b/</href></response>`

	got := ExtractCalendars(body)
	var ids []string
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	want := []string{"b", "a", "b"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Expected IDs %v, got %v", want, ids)
	}
}

func TestExtractCalendars_SkipsNonCalendars(t *testing.T) {
	body := `<response><href>/1/principal/</href></response>` +
		`<response><displayname>No href</displayname></response>` +
		`<response><href>/calendars/x</href></response>` +
		`<responsedescription>ignored</responsedescription>`

	if got := ExtractCalendars(body); len(got) != 0 {
		t.Errorf("Expected no calendars, got %+v", got)
	}
}
